package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/herdwatch/ranchapi"
	"github.com/herdwatch/ranchapi/config"
	"github.com/herdwatch/ranchapi/db"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/repository"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/herdwatch/ranchapi/migrator"
	"github.com/herdwatch/ranchapi/server"
	"github.com/jcuga/golongpoll"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	configuration, err := config.ReadConfiguration()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read configuration")
	}
	configureLogger(configuration)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	postgres := db.NewPostgres(ctx, &configuration)
	if err = postgres.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		_ = postgres.Close()
	}()
	sqlConn, err := postgres.GetSqlConnection()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get database connection")
	}
	if _, err = sqlConn.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp" SCHEMA public;`); err != nil {
		log.Warn().Err(err).Msg("Could not ensure uuid-ossp extension")
	}
	if err = migrator.NewRanchMigrator().Run(ctx, sqlConn, configuration.PostgresDB.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	dbConnector := db.NewDbConnector(sqlConn)

	longpollManager, err := golongpoll.StartLongpoll(golongpoll.Options{
		MaxLongpollTimeoutSeconds: 120,
		MaxEventBufferSize:        100,
		EventTimeToLiveSeconds:    configuration.EventLogSettings.AlertEventTTLSeconds,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start alert long-poll manager")
	}
	defer longpollManager.Shutdown()

	restClient := ranchapi.NewRestyClient(ctx, &configuration, true)
	alertNotifier := service.NewAlertNotifier(ctx, os.Stderr, longpollManager, restClient, configuration.EventLogSettings.AlertWebhookURL)
	go alertNotifier.StartAlertDispatching(ctx)

	eventSSEServer := server.NewEventSSEServer(service.NewEventSSEClientListener())

	eventLogService := service.NewEventLogService(eventLogOptions(configuration),
		repository.NewMetricsRepository(configuration.EventLogSettings.SlowQueryCapacity,
			time.Duration(configuration.EventLogSettings.SlowRequestThresholdMs)*time.Millisecond),
		repository.NewEventLogRepository(configuration.EventLogSettings.MemoryLogSize),
		alertNotifier, eventSSEServer)

	schema := configuration.PostgresDB.Schema
	cattleService := ranchapi.NewCattleService(ranchapi.NewCattleRepository(dbConnector, schema), eventLogService)
	inventoryService := ranchapi.NewInventoryService(ranchapi.NewMedicineRepository(dbConnector, schema), eventLogService)

	api := ranchapi.NewAPI(&configuration, ranchapi.ApiDependencies{
		AuthManager:              ranchapi.NewAuthManager(&configuration, restClient),
		DbConnector:              dbConnector,
		CattleService:            cattleService,
		InventoryService:         inventoryService,
		EventLogService:          eventLogService,
		EventSSEServer:           eventSSEServer,
		AlertSubscriptionHandler: longpollManager.SubscriptionHandler,
	})

	metricsPublisher := ranchapi.NewMetricsPublisher(ranchapi.NewRedisClient(&configuration), eventLogService,
		configuration.ApplicationName, time.Duration(configuration.MetricsPublishIntervalSeconds)*time.Second)
	go metricsPublisher.StartPublishing(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API server shutdown failed")
		}
	}()

	eventLogService.LogMessage(model.Info, model.EventSystem, ranchapi.ApiStartMsg, map[string]interface{}{
		"port":          configuration.APIPort,
		"mode":          configuration.EventLogSettings.Mode,
		"authorization": configuration.Authorization,
	})
	if err = api.Run(); err != nil {
		log.Error().Err(err).Msg(ranchapi.ApiFailedToStartMsg)
		return
	}
	log.Info().Msg(ranchapi.ApiEndedGracefullyMsg)
}

func configureLogger(configuration config.Configuration) {
	if configuration.Development {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
	}
	zerolog.SetGlobalLevel(configuration.LogLevel)
}

func eventLogOptions(configuration config.Configuration) service.Options {
	mode, err := service.ParseMode(configuration.EventLogSettings.Mode)
	if err != nil {
		log.Warn().Err(err).Msgf("Falling back to %s event log mode", mode)
	}
	minLevel, err := model.ParseLevel(configuration.EventLogSettings.MinLevel)
	if err != nil {
		log.Warn().Err(err).Msgf("Falling back to %s event log level", minLevel)
	}
	if configuration.EventLogSettings.TraceEnabled {
		minLevel = model.Trace
	}
	return service.Options{Mode: mode, MinLevel: minLevel, Output: os.Stdout}
}
