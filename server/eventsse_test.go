package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signallingListener struct {
	connected chan string
}

func (l *signallingListener) OnSSENewClient(newClient *SSEClient) {
	l.connected <- newClient.Topic
}

func (l *signallingListener) OnSSEClientClosing(client *SSEClient) {}

func (l *signallingListener) OnSSEClientClosed() {}

func (l *signallingListener) OnSSESend(message model.LogRecord, client *SSEClient) error {
	client.Offer(NewCattleEvent(message))
	return nil
}

func (l *signallingListener) OnSSESendingCompleted(result SSEResult) {}

func TestEventSSEServerStreamsOnlyTheSubscribedAnimal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	listener := &signallingListener{connected: make(chan string, 1)}
	sseServer := NewEventSSEServer(listener)

	engine := gin.New()
	engine.GET("/v1/cattle/:cattleId/events/stream", sseServer.ServeHTTP())
	httpServer := httptest.NewServer(engine)
	defer httpServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	responses := make(chan *http.Response, 1)
	go func() {
		request, _ := http.NewRequestWithContext(ctx, http.MethodGet, httpServer.URL+"/v1/cattle/c-1/events/stream", nil)
		response, err := http.DefaultClient.Do(request)
		if err == nil {
			responses <- response
		}
	}()

	select {
	case topic := <-listener.connected:
		assert.Equal(t, "c-1", topic)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not connect")
	}

	sseServer.Send(
		model.LogRecord{CattleID: "c-2", EventType: model.EventFeeding, Message: "other animal"},
		model.LogRecord{CattleID: "c-1", EventType: model.EventVaccination, Message: "vaccinated"},
	)

	var response *http.Response
	select {
	case response = <-responses:
	case <-time.After(5 * time.Second):
		t.Fatal("no response")
	}
	defer response.Body.Close()
	assert.Equal(t, "text/event-stream", response.Header.Get("Content-Type"))

	reader := bufio.NewReader(response.Body)
	var dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data:") {
			dataLine = line
		}
	}
	assert.Contains(t, dataLine, "vaccinated")
	assert.NotContains(t, dataLine, "other animal")
}

func TestSendWithoutCattleIsIgnored(t *testing.T) {
	sseServer := NewEventSSEServer(nil)

	sseServer.Send(model.LogRecord{Message: "system only"})

	assert.Equal(t, 0, len(sseServer.MessageChan))
}

func TestSSEClientOfferDropsWhenFull(t *testing.T) {
	client := NewSSEClient(context.Background(), "c-1")

	for i := 0; i < clientBufferSize; i++ {
		require.True(t, client.Offer(NewCattleEvent(model.LogRecord{CattleID: "c-1"})))
	}

	assert.False(t, client.Offer(NewCattleEvent(model.LogRecord{CattleID: "c-1"})))
}
