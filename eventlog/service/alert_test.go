package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alertPublisherMock struct {
	categories []string
	alerts     []interface{}
	err        error
}

func (m *alertPublisherMock) Publish(category string, data interface{}) error {
	m.categories = append(m.categories, category)
	m.alerts = append(m.alerts, data)
	return m.err
}

var alertRecord = model.LogRecord{
	Timestamp:    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	Level:        model.Error,
	EventType:    model.EventSystemError,
	Message:      "database unreachable",
	UserEmail:    "jane@ranch.example",
	CattleEarTag: "MX-001",
}

func TestFormatAlertContainsAllFields(t *testing.T) {
	text := FormatAlert(model.NewAlert(alertRecord))

	assert.True(t, strings.HasPrefix(text, alertBanner))
	assert.Contains(t, text, "message:   database unreachable")
	assert.Contains(t, text, "eventType: system_error")
	assert.Contains(t, text, "user:      jane@ranch.example")
	assert.Contains(t, text, "cattle:    MX-001")
	assert.Contains(t, text, "timestamp: 2024-05-01T10:30:00Z")
}

func TestFormatAlertDashesMissingFields(t *testing.T) {
	text := FormatAlert(model.Alert{Message: "boom", Timestamp: alertRecord.Timestamp})

	assert.Contains(t, text, "user:      -")
	assert.Contains(t, text, "cattle:    -")
	assert.Contains(t, text, "eventType: unknown")
}

func TestNotifyWritesBannerAndPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	output := &bytes.Buffer{}
	publisher := &alertPublisherMock{}
	notifier := NewAlertNotifier(ctx, output, publisher, nil, "")

	notifier.Notify(alertRecord)

	assert.Equal(t, 1, strings.Count(output.String(), alertBanner))
	require.Len(t, publisher.alerts, 1)
	assert.Equal(t, AlertCategory, publisher.categories[0])
	assert.Equal(t, "database unreachable", publisher.alerts[0].(model.Alert).Message)
}

func TestNotifyIgnoresPublisherFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	output := &bytes.Buffer{}
	notifier := NewAlertNotifier(ctx, output, &alertPublisherMock{err: errors.New("closed")}, nil, "")

	notifier.Notify(alertRecord)

	assert.Contains(t, output.String(), "database unreachable")
}

func TestAlertDispatchingPostsWebhook(t *testing.T) {
	received := make(chan model.Alert, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert model.Alert
		_ = json.NewDecoder(r.Body).Decode(&alert)
		received <- alert
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifier := NewAlertNotifier(ctx, &bytes.Buffer{}, nil, resty.New(), server.URL)
	go notifier.StartAlertDispatching(ctx)

	notifier.Notify(alertRecord)

	select {
	case alert := <-received:
		assert.Equal(t, "database unreachable", alert.Message)
		assert.Equal(t, model.EventSystemError, alert.EventType)
		assert.Equal(t, "MX-001", alert.CattleEarTag)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestAlertDispatchingStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	notifier := NewAlertNotifier(ctx, &bytes.Buffer{}, nil, resty.New(), "http://localhost:1")

	done := make(chan struct{})
	go func() {
		notifier.StartAlertDispatching(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
