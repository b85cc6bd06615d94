package ranchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/service"
	longpollclient "github.com/jcuga/golongpoll/client"
	"github.com/rs/zerolog/log"
)

const alertPollPath = "/v1/alerts/poll"

type AlertPollClient interface {
	GetAlertsChan() chan model.Alert
	StartAlertLongPolling(ctx context.Context, since time.Time) error
}

type alertPollClient struct {
	restyClient    *resty.Client
	ranchApiUrl    string
	timeoutSeconds uint
	alertsChan     chan model.Alert
}

// NewAlertPollClient subscribes to the critical alert category of a running ranch API.
func NewAlertPollClient(restyClient *resty.Client, ranchApiUrl string, timeoutSeconds uint) AlertPollClient {
	log.Trace().Msg("Creating new alert poll client")
	return &alertPollClient{
		restyClient:    restyClient,
		ranchApiUrl:    strings.TrimRight(ranchApiUrl, "/"),
		timeoutSeconds: timeoutSeconds,
		alertsChan:     make(chan model.Alert, 100),
	}
}

func (l *alertPollClient) GetAlertsChan() chan model.Alert {
	return l.alertsChan
}

// StartAlertLongPolling blocks until ctx is done; alerts published after since are forwarded to GetAlertsChan.
func (l *alertPollClient) StartAlertLongPolling(ctx context.Context, since time.Time) error {
	u, err := url.Parse(l.ranchApiUrl + alertPollPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse URL for long-poll")
		return err
	}

	httpClient := &http.Client{
		Transport: NewRestyRoundTripper(l.restyClient),
	}

	c, err := longpollclient.NewClient(longpollclient.ClientOptions{
		SubscribeUrl:       *u,
		Category:           service.AlertCategory,
		PollTimeoutSeconds: l.timeoutSeconds,
		HttpClient:         httpClient,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create long-poll client")
		return err
	}
	events := c.Start(since)
	defer c.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Long poll gracefully stopped")
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			alert, err := decodeAlert(event.Data)
			if err != nil {
				log.Error().Err(err).Interface("data", event.Data).Msg("Failed to decode critical alert")
				continue
			}
			select {
			case l.alertsChan <- alert:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func decodeAlert(data interface{}) (model.Alert, error) {
	var alert model.Alert
	jsonData, err := json.Marshal(data)
	if err != nil {
		return alert, err
	}
	err = json.Unmarshal(jsonData, &alert)
	return alert, err
}
