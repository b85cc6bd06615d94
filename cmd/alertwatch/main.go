package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/herdwatch/ranchapi"
	"github.com/herdwatch/ranchapi/config"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// must stay below the rest client timeout
const pollTimeoutSeconds = 5

// alertwatch follows the critical alerts of a running ranch API and prints them to stderr.
func main() {
	_ = godotenv.Load()

	configuration, err := config.ReadConfiguration()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read configuration")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(configuration.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var restClient *resty.Client
	if configuration.Authorization {
		authManager := ranchapi.NewAuthManager(&configuration, ranchapi.NewRestyClient(ctx, &configuration, true))
		restClient = ranchapi.NewRestyClientWithAuthManager(ctx, &configuration, authManager)
	} else {
		restClient = ranchapi.NewRestyClient(ctx, &configuration, false)
	}

	pollClient := ranchapi.NewAlertPollClient(restClient, configuration.RanchApiURL, pollTimeoutSeconds)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case alert := <-pollClient.GetAlertsChan():
				_, _ = os.Stderr.WriteString(service.FormatAlert(alert))
			}
		}
	}()

	log.Info().Str("url", configuration.RanchApiURL).Msg("Watching critical alerts")
	if err = pollClient.StartAlertLongPolling(ctx, time.Now()); err != nil {
		log.Error().Err(err).Msg("Alert long polling failed")
		os.Exit(1)
	}
}
