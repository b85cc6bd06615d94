package ranchapi

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/config"
	"github.com/herdwatch/ranchapi/db"
	"github.com/herdwatch/ranchapi/eventlog/repository"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/herdwatch/ranchapi/migrator"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestMain(m *testing.M) {
	postgres := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().Port(5551))
	err := postgres.Start()
	if err != nil {
		log.Error().Err(err).Msg("starting embedded postgres failed")
	}

	configureLogger()
	gin.SetMode(gin.TestMode)

	code := m.Run()

	err = postgres.Stop()
	if err != nil {
		log.Error().Err(err).Msg("stopping embedded postgres failed")
	}

	os.Exit(code)
}

func configureLogger() {
	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.TimeFormat = "2006-01-02T15:04:05Z07:00"
	log.Logger = zerolog.New(consoleWriter).With().Caller().Stack().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func setupDbConnector(schemaName string) (db.DbConnector, *sqlx.DB) {
	configuration := config.Configuration{}
	configuration.PostgresDB.Host = "localhost"
	configuration.PostgresDB.Port = 5551
	configuration.PostgresDB.User = "postgres"
	configuration.PostgresDB.Pass = "postgres"
	configuration.PostgresDB.Database = "postgres"
	configuration.PostgresDB.SSLMode = "disable"
	configuration.ApplicationName = "ranchapi_test"
	postgres := db.NewPostgres(context.Background(), &configuration)
	_ = postgres.Connect()
	sqlConn, _ := postgres.GetSqlConnection()

	_, _ = sqlConn.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp" schema public;`)
	_, _ = sqlConn.Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE;`, schemaName))
	_, _ = sqlConn.Exec(fmt.Sprintf(`CREATE SCHEMA %s;`, schemaName))

	return db.NewDbConnector(sqlConn), sqlConn
}

func setupDbConnectorAndRunMigration(schemaName string) (db.DbConnector, *sqlx.DB) {
	dbConnector, sqlConn := setupDbConnector(schemaName)

	mig := migrator.NewRanchMigrator()
	_ = mig.Run(context.Background(), sqlConn, schemaName)

	return dbConnector, sqlConn
}

// newTestEventLogService keeps the console quiet; records are still stored and counted.
func newTestEventLogService() service.EventLogService {
	return service.NewEventLogService(service.Options{Mode: service.Production, MinLevel: "error", Output: io.Discard},
		repository.NewMetricsRepository(0, 0), repository.NewEventLogRepository(100), nil, nil)
}
