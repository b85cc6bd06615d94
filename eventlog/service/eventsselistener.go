package service

import (
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/server"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrSSEClientTooSlow = errors.New("sse client is not keeping up, event dropped")

type EventSSEClientListener struct {
}

func NewEventSSEClientListener() server.EventSSEClientListener {
	return &EventSSEClientListener{}
}

func (l *EventSSEClientListener) OnSSENewClient(newClient *server.SSEClient) {
	log.Debug().Str("cattleId", newClient.Topic).Msg("Cattle event stream opened")
}

func (l *EventSSEClientListener) OnSSEClientClosing(client *server.SSEClient) {
}

func (l *EventSSEClientListener) OnSSEClientClosed() {
}

func (l *EventSSEClientListener) OnSSESend(message model.LogRecord, client *server.SSEClient) error {
	if !client.Offer(server.NewCattleEvent(message)) {
		return ErrSSEClientTooSlow
	}
	return nil
}

func (l *EventSSEClientListener) OnSSESendingCompleted(result server.SSEResult) {
	if result.Result == server.SSEDropped {
		log.Warn().Str("cattleId", result.Topic).Msg("Cattle event dropped for slow stream client")
	}
}
