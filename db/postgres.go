package db

import (
	"context"
	"fmt"
	"time"

	"github.com/herdwatch/ranchapi/config"
	// Registers the "pgx" driver for sqlx
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	maxOpenConnections    = 20
	maxIdleConnections    = 5
	connectionMaxLifetime = 30 * time.Minute
)

type Postgres interface {
	Connect() error
	GetSqlConnection() (*sqlx.DB, error)
	Close() error
}

type postgres struct {
	ctx    context.Context
	config *config.Configuration
	pgConn *sqlx.DB
}

func NewPostgres(ctx context.Context, config *config.Configuration) Postgres {
	log.Trace().Msg("Creating new postgres connection holder")
	return &postgres{
		ctx:    ctx,
		config: config,
	}
}

func (p *postgres) dataSourceName() string {
	pg := p.config.PostgresDB
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		pg.Host, pg.Port, pg.User, pg.Pass, pg.Database, pg.SSLMode, p.config.ApplicationName)
}

func (p *postgres) Connect() error {
	pgDB, err := sqlx.ConnectContext(p.ctx, "pgx", p.dataSourceName())
	if err != nil {
		log.Error().Err(err).Str("host", p.config.PostgresDB.Host).Msg(MsgConnectToPostgresFailed)
		return ErrConnectToPostgresFailed
	}
	pgDB.SetMaxOpenConns(maxOpenConnections)
	pgDB.SetMaxIdleConns(maxIdleConnections)
	pgDB.SetConnMaxLifetime(connectionMaxLifetime)

	log.Info().
		Str("host", p.config.PostgresDB.Host).
		Str("database", p.config.PostgresDB.Database).
		Str("schema", p.config.PostgresDB.Schema).
		Msg("Postgres available")
	p.pgConn = pgDB
	return nil
}

func (p *postgres) GetSqlConnection() (*sqlx.DB, error) {
	if p.pgConn == nil {
		return nil, ErrDbConnectionNotAvailable
	}
	return p.pgConn, nil
}

func (p *postgres) Close() error {
	if p.pgConn == nil {
		return nil
	}
	err := p.pgConn.Close()
	p.pgConn = nil
	return err
}
