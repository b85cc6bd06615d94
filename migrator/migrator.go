package migrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const schemaPlaceholder = "<SCHEMA_PLACEHOLDER>"

type migration struct {
	description string
	query       string
}

// in order! never reorder or remove an applied migration
var migrations = []migration{
	{description: "animals", query: migration_1},
	{description: "medicine stock", query: migration_2},
}

type RanchMigrator interface {
	Run(ctx context.Context, db *sqlx.DB, schemaName string) error
}

type ranchMigrator struct {
}

func NewRanchMigrator() RanchMigrator {
	return &ranchMigrator{}
}

// Run creates the schema when missing and applies every migration newer than the recorded version
// in a single transaction.
func (m *ranchMigrator) Run(ctx context.Context, db *sqlx.DB, schemaName string) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = m.prepareSchema(ctx, tx, schemaName); err != nil {
		return err
	}
	currentVersion, err := m.lastAppliedVersion(ctx, tx, schemaName)
	if err != nil {
		return err
	}
	for i := currentVersion; i < len(migrations); i++ {
		version := i + 1
		query := strings.ReplaceAll(migrations[i].query, schemaPlaceholder, schemaName)
		if _, err = tx.ExecContext(ctx, query); err != nil {
			return errors.Wrapf(err, "apply migration %d", version)
		}
		if err = m.recordMigration(ctx, tx, schemaName, version, migrations[i].description); err != nil {
			return err
		}
		log.Info().Int("version", version).Str("schema", schemaName).Str("description", migrations[i].description).Msg("Applied migration")
	}
	return tx.Commit()
}

func (m *ranchMigrator) prepareSchema(ctx context.Context, tx *sqlx.Tx, schemaName string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s;`, schemaName)); err != nil {
		return errors.Wrap(err, "create schema")
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.rc_migrations(
		"version" int NOT NULL,
		applied_at timestamp NOT NULL DEFAULT now(),
		description varchar NOT NULL DEFAULT '',
		CONSTRAINT rc_pk_migrations PRIMARY KEY (version)
	);`, schemaName)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, "create migrations table")
	}
	return nil
}

func (m *ranchMigrator) recordMigration(ctx context.Context, tx *sqlx.Tx, schemaName string, version int, description string) error {
	query := fmt.Sprintf(`INSERT INTO %s.rc_migrations(version, description) VALUES($1, $2);`, schemaName)
	_, err := tx.ExecContext(ctx, query, version, description)
	return errors.Wrapf(err, "record migration %d", version)
}

func (m *ranchMigrator) lastAppliedVersion(ctx context.Context, tx *sqlx.Tx, schemaName string) (int, error) {
	var version int
	query := fmt.Sprintf(`SELECT COALESCE(MAX(version), 0) FROM %s.rc_migrations;`, schemaName)
	if err := tx.QueryRowxContext(ctx, query).Scan(&version); err != nil {
		return -1, errors.Wrap(err, "read migration version")
	}
	if version > len(migrations) {
		return -1, errors.Errorf("schema %s is at version %d, newer than this build (%d)", schemaName, version, len(migrations))
	}
	return version, nil
}
