package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DbConnector hides whether repositories run on the pool or inside a transaction.
type DbConnector interface {
	CreateTransactionConnector() (DbConnector, error)
	InTransaction() bool
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Commit() error
	Rollback() error
	Ping() error
}

// executor is the common surface of *sqlx.DB and *sqlx.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

type dbConnector struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func NewDbConnector(db *sqlx.DB) DbConnector {
	return &dbConnector{db: db}
}

// CreateTransactionConnector returns a new connector bound to a fresh transaction; the receiver is left untouched.
func (c *dbConnector) CreateTransactionConnector() (DbConnector, error) {
	if c.db == nil {
		log.Error().Msg(MsgDbConnectionNotAvailable)
		return nil, ErrDbConnectionNotAvailable
	}
	tx, err := c.db.Beginx()
	if err != nil {
		log.Error().Err(err).Msg(MsgBeginTransactionFailed)
		return nil, ErrBeginTransactionFailed
	}
	return &dbConnector{db: c.db, tx: tx}, nil
}

func (c *dbConnector) InTransaction() bool {
	return c.tx != nil
}

func (c *dbConnector) executor() executor {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

func (c *dbConnector) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.executor().ExecContext(ctx, query, args...)
}

func (c *dbConnector) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return c.executor().NamedExecContext(ctx, query, arg)
}

func (c *dbConnector) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return c.executor().QueryxContext(ctx, query, args...)
}

func (c *dbConnector) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return c.executor().QueryRowxContext(ctx, query, args...)
}

// Commit is a no-op outside a transaction.
func (c *dbConnector) Commit() error {
	if c.tx == nil {
		return nil
	}
	if err := c.tx.Commit(); err != nil {
		log.Error().Err(err).Msg(MsgCommitTransactionFailed)
		return ErrCommitTransactionFailed
	}
	return nil
}

// Rollback is a no-op outside a transaction and after the transaction already finished.
func (c *dbConnector) Rollback() error {
	if c.tx == nil {
		return nil
	}
	if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error().Err(err).Msg(MsgRollbackTransactionFailed)
		return ErrRollbackTransactionFailed
	}
	return nil
}

func (c *dbConnector) Ping() error {
	if c.db == nil {
		return ErrDbConnectionNotAvailable
	}
	return c.db.Ping()
}
