package migration

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS categories")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), sqlx.NewDb(db, "postgres")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDeclaresCascade(t *testing.T) {
	assert.Contains(t, Schema(), "REFERENCES products (id) ON DELETE CASCADE")
	assert.Contains(t, Schema(), "CHECK (quantity >= 0)")
}
