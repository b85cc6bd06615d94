package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/utils"
	"github.com/rs/zerolog/log"
)

const AlertCategory = "critical-alerts"

const alertBanner = "🚨🚨🚨 CRITICAL ALERT 🚨🚨🚨"

// AlertPublisher is satisfied by the long-poll manager.
type AlertPublisher interface {
	Publish(category string, data interface{}) error
}

type AlertNotifier interface {
	Notify(record model.LogRecord)
	StartAlertDispatching(ctx context.Context)
}

type alertNotifier struct {
	output     io.Writer
	publisher  AlertPublisher
	restClient *resty.Client
	webhookURL string
	queue      *utils.ConcurrentQueue[model.Alert]
}

// NewAlertNotifier writes alerts to output and, when configured, fans them out to the
// long-poll publisher and the webhook. publisher and restClient may be nil.
func NewAlertNotifier(ctx context.Context, output io.Writer, publisher AlertPublisher, restClient *resty.Client, webhookURL string) AlertNotifier {
	log.Trace().Msg("Creating new alert notifier")
	return &alertNotifier{
		output:     newLockedWriter(output),
		publisher:  publisher,
		restClient: restClient,
		webhookURL: webhookURL,
		queue:      utils.NewConcurrentQueue[model.Alert](ctx),
	}
}

func (n *alertNotifier) Notify(record model.LogRecord) {
	alert := model.NewAlert(record)

	_, _ = io.WriteString(n.output, FormatAlert(alert))

	if n.publisher != nil {
		if err := n.publisher.Publish(AlertCategory, alert); err != nil {
			log.Warn().Err(err).Msg("Failed to publish critical alert")
		}
	}

	if n.webhookURL != "" && n.restClient != nil {
		n.queue.Enqueue(alert)
	}
}

// StartAlertDispatching posts queued alerts to the webhook until ctx is done.
func (n *alertNotifier) StartAlertDispatching(ctx context.Context) {
	for {
		alert, ok := n.queue.Dequeue()
		if !ok {
			return
		}
		n.sendWebhook(ctx, alert)
	}
}

func (n *alertNotifier) sendWebhook(ctx context.Context, alert model.Alert) {
	response, err := n.restClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(alert).
		Post(n.webhookURL)
	if err != nil {
		log.Error().Err(err).Str("eventType", string(alert.EventType)).Msg("Failed to deliver critical alert webhook")
		return
	}
	if response.IsError() {
		log.Error().Str("status", response.Status()).Str("eventType", string(alert.EventType)).Msg("Critical alert webhook rejected")
	}
}

func FormatAlert(alert model.Alert) string {
	var builder strings.Builder
	builder.WriteString(alertBanner)
	builder.WriteString("\n")
	fmt.Fprintf(&builder, "  message:   %s\n", alert.Message)
	fmt.Fprintf(&builder, "  eventType: %s\n", alert.EventType.Label())
	fmt.Fprintf(&builder, "  user:      %s\n", valueOrDash(alert.UserEmail))
	fmt.Fprintf(&builder, "  cattle:    %s\n", valueOrDash(alert.CattleEarTag))
	fmt.Fprintf(&builder, "  timestamp: %s\n", alert.Timestamp.UTC().Format(timestampLayout))
	builder.WriteString(strings.Repeat("🚨", 9))
	builder.WriteString("\n")
	return builder.String()
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
