package server

import (
	"io"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/rs/zerolog/log"
)

const (
	CattleIDParam   = "cattleId"
	CattleEventName = "cattle-event"
)

type EventSSEServer struct {
	clientListener    EventSSEClientListener
	MessageChan       chan model.LogRecord
	NewClientsChan    chan *SSEClient
	ClosedClientsChan chan *SSEClient
	TotalClients      map[string]map[*SSEClient]interface{}
	ResultChan        chan SSEResult
}

type EventSSEClientListener interface {
	OnSSENewClient(newClient *SSEClient)
	OnSSEClientClosing(client *SSEClient)
	OnSSEClientClosed()
	OnSSESend(message model.LogRecord, client *SSEClient) error
	OnSSESendingCompleted(result SSEResult)
}

// NewEventSSEServer streams the records of one animal to every client subscribed to its id.
func NewEventSSEServer(listener EventSSEClientListener) *EventSSEServer {
	log.Trace().Msg("Creating new event SSE server")
	server := &EventSSEServer{
		clientListener:    listener,
		MessageChan:       make(chan model.LogRecord, messageBufferSize),
		NewClientsChan:    make(chan *SSEClient),
		ClosedClientsChan: make(chan *SSEClient),
		TotalClients:      make(map[string]map[*SSEClient]interface{}),
		ResultChan:        make(chan SSEResult, messageBufferSize),
	}

	go server.listen()
	go server.listenOnResultCallback()

	return server
}

// Send never blocks the logging pipeline; records are dropped while the buffer is full.
func (e *EventSSEServer) Send(messages ...model.LogRecord) {
	for _, message := range messages {
		if message.CattleID == "" {
			continue
		}
		select {
		case e.MessageChan <- message:
		default:
			log.Warn().Str("cattleId", message.CattleID).Msg("SSE buffer full, dropping cattle event")
		}
	}
}

func (e *EventSSEServer) ServeHTTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		cattleID := c.Param(CattleIDParam)
		if cattleID == "" {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		client := NewSSEClient(c.Request.Context(), cattleID)
		e.NewClientsChan <- client

		defer func() {
			e.ClosedClientsChan <- client
		}()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-client.Context.Done():
				return false
			case event, ok := <-client.EventChan:
				if !ok {
					return false
				}
				c.Render(-1, event)
				e.reportResult(SSEResult{Result: SSEDelivered, Topic: client.Topic, Event: event})
				return true
			}
		})
	}
}

func (e *EventSSEServer) listen() {
	for {
		select {
		case client := <-e.NewClientsChan:
			if _, ok := e.TotalClients[client.Topic]; !ok {
				e.TotalClients[client.Topic] = make(map[*SSEClient]interface{})
			}
			e.TotalClients[client.Topic][client] = struct{}{}
			if e.clientListener != nil {
				e.clientListener.OnSSENewClient(client)
			}
			log.Debug().Msgf("Client added... %s has %d registered clients", client.Topic, len(e.TotalClients[client.Topic]))
		case client := <-e.ClosedClientsChan:
			if e.clientListener != nil {
				e.clientListener.OnSSEClientClosing(client)
			}
			delete(e.TotalClients[client.Topic], client)
			if len(e.TotalClients[client.Topic]) == 0 {
				delete(e.TotalClients, client.Topic)
			}
			if e.clientListener != nil {
				e.clientListener.OnSSEClientClosed()
			}
			log.Debug().Msgf("Removed client... %s has %d registered clients", client.Topic, len(e.TotalClients[client.Topic]))
		case message := <-e.MessageChan:
			for sseClient := range e.TotalClients[message.CattleID] {
				if e.clientListener != nil {
					e.doListenerMessageSending(message, sseClient)
				} else {
					e.doDefaultMessageSending(message, sseClient)
				}
			}
		}
	}
}

func (e *EventSSEServer) listenOnResultCallback() {
	for {
		result := <-e.ResultChan

		if e.clientListener != nil {
			e.clientListener.OnSSESendingCompleted(result)
		}
	}
}

func (e *EventSSEServer) reportResult(result SSEResult) {
	select {
	case e.ResultChan <- result:
	default:
	}
}

func (e *EventSSEServer) doListenerMessageSending(message model.LogRecord, client *SSEClient) {
	err := e.clientListener.OnSSESend(message, client)
	if err != nil {
		log.Error().Err(err).
			Str("cattleId", client.Topic).
			Str("eventType", string(message.EventType)).
			Msg("Failed to send cattle event")

		e.reportResult(SSEResult{
			Result: SSEError,
			Topic:  client.Topic,
			Event:  sse.Event{Data: message},
			Error:  err,
		})
	}
}

func (e *EventSSEServer) doDefaultMessageSending(message model.LogRecord, client *SSEClient) {
	event := NewCattleEvent(message)
	if !client.Offer(event) {
		e.reportResult(SSEResult{Result: SSEDropped, Topic: client.Topic, Event: event})
	}
}

func NewCattleEvent(message model.LogRecord) sse.Event {
	return sse.Event{
		Id:    uuid.NewString(),
		Event: CattleEventName,
		Data:  message,
	}
}
