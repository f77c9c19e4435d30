package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, Migrate(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply schema")
}

func TestAsPgError(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: UniqueViolationCode, ConstraintName: "users_email_unique"})

	pe, ok := AsPgError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "users_email_unique", pe.ConstraintName)
	assert.True(t, IsUniqueViolation(wrapped))

	_, ok = AsPgError(errors.New("plain"))
	assert.False(t, ok)
}

func TestNewPool_RejectsEmptyDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "", PoolOptions{})
	require.Error(t, err)
}
