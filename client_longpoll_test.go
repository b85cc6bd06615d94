package ranchapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/jcuga/golongpoll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertPollClientReceivesPublishedAlerts(t *testing.T) {
	manager, err := golongpoll.StartLongpoll(golongpoll.Options{
		MaxLongpollTimeoutSeconds: 5,
		MaxEventBufferSize:        10,
	})
	require.NoError(t, err)
	defer manager.Shutdown()

	mux := http.NewServeMux()
	mux.HandleFunc(alertPollPath, manager.SubscriptionHandler)
	testServer := httptest.NewServer(mux)
	defer testServer.Close()

	since := time.Now().Add(-time.Second)
	published := model.Alert{
		Message:      "database unreachable",
		EventType:    model.EventSystemError,
		CattleEarTag: "MX-001",
		Timestamp:    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
	require.NoError(t, manager.Publish(service.AlertCategory, published))

	pollClient := NewAlertPollClient(resty.New(), testServer.URL+"/", 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- pollClient.StartAlertLongPolling(ctx, since)
	}()

	select {
	case alert := <-pollClient.GetAlertsChan():
		assert.Equal(t, published.Message, alert.Message)
		assert.Equal(t, model.EventSystemError, alert.EventType)
		assert.Equal(t, "MX-001", alert.CattleEarTag)
		assert.True(t, published.Timestamp.Equal(alert.Timestamp))
	case <-time.After(10 * time.Second):
		t.Fatal("no alert received")
	}

	cancel()
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("long polling did not stop")
	}
}

func TestDecodeAlertRejectsUnexpectedPayload(t *testing.T) {
	_, err := decodeAlert("not an alert")
	assert.Error(t, err)

	alert, err := decodeAlert(map[string]interface{}{"message": "boom", "eventType": "system_error"})
	require.NoError(t, err)
	assert.Equal(t, "boom", alert.Message)
}
