package userrepo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/userrepo"
)

func TestRepo_CreateNormalizesEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Unix(100, 0).UTC()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(id, "Alice", "alice@example.com", []byte("hash"), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewRepo(mock).Create(context.Background(), userrepo.User{
		ID:           domain.UserID(id.String()),
		Name:         "Alice",
		Email:        " Alice@Example.com ",
		PasswordHash: []byte("hash"),
		CreatedAt:    now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_CreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "alice@example.com", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_unique"})

	err = NewRepo(mock).Create(context.Background(), userrepo.User{
		ID:    domain.UserID(uuid.NewString()),
		Email: "alice@example.com",
	})
	assert.ErrorIs(t, err, userrepo.ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_CreateRejectsInvalidID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	err = NewRepo(mock).Create(context.Background(), userrepo.User{ID: "not-a-uuid"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.NewString()
	now := time.Unix(100, 0).UTC()
	mock.ExpectQuery("SELECT id::text, name, email, password_hash, created_at FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow(id, "Alice", "alice@example.com", []byte("hash"), now))

	got, err := NewRepo(mock).GetByEmail(context.Background(), "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(id), got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, []byte("hash"), got.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewRepo(mock).GetByID(context.Background(), domain.UserID(id.String()))
	assert.ErrorIs(t, err, userrepo.ErrNotFound)

	// Unparseable ids never reach the database.
	_, err = NewRepo(mock).GetByID(context.Background(), "garbage")
	assert.ErrorIs(t, err, userrepo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
