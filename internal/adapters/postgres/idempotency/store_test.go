package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/idempotency"
)

var fp = idempotency.Fingerprint{
	Key:      "k-1",
	Subject:  domain.SubjectID("rider@example.com"),
	Route:    "POST /api/rides/book",
	BodyHash: "hash-1",
}

func TestStore_PutThenGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Unix(1000, 0).UTC()
	notBefore := created.Add(-time.Hour)
	body := []byte(`{"id":"r-1"}`)

	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("k-1", "rider@example.com", "POST /api/rides/book", "hash-1", 201, body, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT status_code, body, created_at").
		WithArgs("k-1", "rider@example.com", "POST /api/rides/book", "hash-1", notBefore).
		WillReturnRows(pgxmock.NewRows([]string{"status_code", "body", "created_at"}).AddRow(201, body, created))

	s := NewStore(mock)
	require.NoError(t, s.Put(context.Background(), fp, idempotency.Record{StatusCode: 201, Body: body, CreatedAt: created}))

	got, ok, err := s.Get(context.Background(), fp, notBefore)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 201, got.StatusCode)
	assert.Equal(t, body, got.Body)
	assert.True(t, got.CreatedAt.Equal(created))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetMiss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT status_code, body, created_at").
		WithArgs("k-1", "rider@example.com", "POST /api/rides/book", "hash-1", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := NewStore(mock).Get(context.Background(), fp, time.Time{})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
