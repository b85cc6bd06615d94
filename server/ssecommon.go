package server

import (
	"context"

	"github.com/gin-contrib/sse"
)

const (
	clientBufferSize  = 32
	messageBufferSize = 256
)

type SSEResultStatus int

const (
	SSEDelivered SSEResultStatus = iota
	SSEError
	SSEUndelivered
	SSEDropped
)

type SSEClient struct {
	Context   context.Context
	Topic     string
	EventChan chan sse.Event
}

type SSEResult struct {
	Result SSEResultStatus
	Topic  string
	Event  sse.Event
	Error  error
}

func NewSSEClient(ctx context.Context, topic string) *SSEClient {
	return &SSEClient{
		Context:   ctx,
		Topic:     topic,
		EventChan: make(chan sse.Event, clientBufferSize),
	}
}

// Offer hands the event to the client without blocking and reports whether it was accepted.
func (c *SSEClient) Offer(event sse.Event) bool {
	select {
	case c.EventChan <- event:
		return true
	default:
		return false
	}
}
