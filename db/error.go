package db

import (
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	MsgConnectToPostgresFailed   = "failed to connect to postgres db"
	MsgDbConnectionNotAvailable  = "postgres connection is not established"
	MsgBeginTransactionFailed    = "begin transaction failed"
	MsgCommitTransactionFailed   = "commit transaction failed"
	MsgRollbackTransactionFailed = "revert transaction failed"
)

var (
	ErrConnectToPostgresFailed   = errors.New(MsgConnectToPostgresFailed)
	ErrDbConnectionNotAvailable  = errors.New(MsgDbConnectionNotAvailable)
	ErrBeginTransactionFailed    = errors.New(MsgBeginTransactionFailed)
	ErrCommitTransactionFailed   = errors.New(MsgCommitTransactionFailed)
	ErrRollbackTransactionFailed = errors.New(MsgRollbackTransactionFailed)
)

type ErrorCode string

const (
	UniqueViolationErrorCode     ErrorCode = "23505"
	ForeignKeyViolationErrorCode ErrorCode = "23503"
	CheckViolationErrorCode      ErrorCode = "23514"
)

// IsErrorCode reports whether err carries the given SQLSTATE, for both the pgx and the lib/pq driver.
func IsErrorCode(err error, code ErrorCode) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == string(code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == string(code)
	}
	return false
}
