package migrator_test

import (
	"context"
	"fmt"
	"testing"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/herdwatch/ranchapi/migrator"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanchMigrations(t *testing.T) {
	postgres := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().Port(5552))
	require.NoError(t, postgres.Start())
	defer postgres.Stop()
	dbConn, err := sqlx.Connect("postgres", "host=localhost port=5552 user=postgres password=postgres dbname=postgres sslmode=disable")
	require.NoError(t, err)

	schemaName := "migrator_test"

	_, err = dbConn.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp" schema public;`)
	assert.Nil(t, err)

	_, err = dbConn.Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE;`, schemaName))
	assert.Nil(t, err)

	_, err = dbConn.Exec(fmt.Sprintf(`CREATE SCHEMA %s;`, schemaName))
	assert.Nil(t, err)

	ranchMigrator := migrator.NewRanchMigrator()
	assert.NotNil(t, ranchMigrator)
	err = ranchMigrator.Run(context.Background(), dbConn, schemaName)
	assert.Nil(t, err)

	// a second run must be a no-op
	err = ranchMigrator.Run(context.Background(), dbConn, schemaName)
	assert.Nil(t, err)

	row := dbConn.QueryRowx(fmt.Sprintf("SELECT MAX(version) FROM %s.rc_migrations", schemaName))
	assert.NotNil(t, row)
	assert.Nil(t, row.Err())
	var version int
	err = row.Scan(&version)
	assert.Nil(t, err)

	// bump after adding a migration
	assert.Equal(t, 2, version)

	_, err = dbConn.Exec(fmt.Sprintf(`INSERT INTO %s.rc_medicine_stock("name", unit, quantity, min_stock) VALUES ('Oxytetracycline', 'ml', -1, 10);`, schemaName))
	assert.Error(t, err)

	// a missing schema is created
	_, err = dbConn.Exec(`DROP SCHEMA IF EXISTS migrator_fresh_test CASCADE;`)
	require.NoError(t, err)
	require.NoError(t, ranchMigrator.Run(context.Background(), dbConn, "migrator_fresh_test"))
	var description string
	require.NoError(t, dbConn.Get(&description, `SELECT description FROM migrator_fresh_test.rc_migrations WHERE version = 1`))
	assert.Equal(t, "animals", description)
}
