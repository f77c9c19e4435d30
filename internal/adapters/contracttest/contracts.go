package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	idempotencyport "github.com/Overland-East-Bay/ridebook/internal/ports/out/idempotency"
	riderepoport "github.com/Overland-East-Bay/ridebook/internal/ports/out/riderepo"
	tokenstoreport "github.com/Overland-East-Bay/ridebook/internal/ports/out/tokenstore"
	userrepoport "github.com/Overland-East-Bay/ridebook/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type TokenStoreFactory func(t *testing.T) (tokenstoreport.Store, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)
type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type RideRepoFactory func(t *testing.T) (riderepoport.Repository, CleanupFunc)

func RunTokenStore(t *testing.T, newStore TokenStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("Load on empty store: ok=%v err=%v", ok, err)
	}
	// Deleting an absent token is not an error.
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete on empty store: %v", err)
	}
	if err := store.Save(ctx, ""); !errors.Is(err, tokenstoreport.ErrEmptyToken) {
		t.Fatalf("Save(\"\") err=%v, want ErrEmptyToken", err)
	}

	if err := store.Save(ctx, "header.payload.sig"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := store.Load(ctx)
	if err != nil || !ok || got != "header.payload.sig" {
		t.Fatalf("Load=(%q,%v,%v)", got, ok, err)
	}

	// Overwrite semantics.
	if err := store.Save(ctx, "second.token.sig"); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	if got, _, _ := store.Load(ctx); got != "second.token.sig" {
		t.Fatalf("expected overwritten token, got %q", got)
	}

	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("Load after Delete: ok=%v err=%v", ok, err)
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      "k-1",
		Subject:  domain.SubjectID("rider@example.com"),
		Route:    "POST /api/rides/book",
		BodyHash: "hash-1",
	}
	created := time.Unix(1000, 0).UTC()
	rec := idempotencyport.Record{
		StatusCode: 201,
		Body:       []byte(`{"id":"r-1"}`),
		CreatedAt:  created,
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp, created.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"id":"r-1"}` || got.StatusCode != 201 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Records older than notBefore are treated as absent.
	if _, ok, err := store.Get(ctx, fp, created.Add(time.Second)); err != nil || ok {
		t.Fatalf("expected expired record to be absent, ok=%v err=%v", ok, err)
	}

	// A different body under the same key is a different fingerprint.
	other := fp
	other.BodyHash = "hash-2"
	if _, ok, err := store.Get(ctx, other, time.Time{}); err != nil || ok {
		t.Fatalf("expected miss for different body, ok=%v err=%v", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"id":"r-2"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp, time.Time{})
	if err != nil || !ok || string(got.Body) != `{"id":"r-2"}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	aID := domain.UserID(uuid.NewString())
	if err := repo.Create(ctx, userrepoport.User{
		ID:           aID,
		Name:         "Alice Johnson",
		Email:        "alice@example.com",
		PasswordHash: []byte("hash"),
		CreatedAt:    now,
	}); err != nil {
		t.Fatalf("Create a: %v", err)
	}

	got, err := repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Alice Johnson" || string(got.PasswordHash) != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	// Email lookups are case-insensitive.
	if got, err := repo.GetByEmail(ctx, " ALICE@example.com "); err != nil || got.ID != aID {
		t.Fatalf("GetByEmail: id=%q err=%v", got.ID, err)
	}

	// Email uniqueness.
	err = repo.Create(ctx, userrepoport.User{
		ID:        domain.UserID(uuid.NewString()),
		Name:      "Alice 2",
		Email:     "Alice@Example.com",
		CreatedAt: now,
	})
	if !errors.Is(err, userrepoport.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByEmail missing err=%v", err)
	}
	if _, err := repo.GetByID(ctx, domain.UserID(uuid.NewString())); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing err=%v", err)
	}
}

func RunRideRepo(t *testing.T, newRepo RideRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	user := domain.UserID(uuid.NewString())
	other := domain.UserID(uuid.NewString())
	base := time.Unix(5000, 0).UTC()

	mk := func(id string, owner domain.UserID, at time.Time) riderepoport.Ride {
		return riderepoport.Ride{
			Ride: domain.Ride{
				ID:             domain.RideID(id),
				PickupLocation: "Times Square",
				DropLocation:   "JFK Airport",
				DateTime:       at,
				Status:         domain.RideStatusPending,
			},
			UserID: owner,
		}
	}

	for _, r := range []riderepoport.Ride{
		mk("00000000-0000-0000-0000-000000000001", user, base),
		mk("00000000-0000-0000-0000-000000000002", user, base.Add(time.Minute)),
		mk("00000000-0000-0000-0000-000000000003", user, base.Add(time.Minute)),
		mk("00000000-0000-0000-0000-000000000004", other, base.Add(time.Hour)),
	} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create %s: %v", r.ID, err)
		}
	}
	if err := repo.Create(ctx, mk("00000000-0000-0000-0000-000000000001", user, base)); !errors.Is(err, riderepoport.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	want := []domain.RideID{
		"00000000-0000-0000-0000-000000000003",
		"00000000-0000-0000-0000-000000000002",
		"00000000-0000-0000-0000-000000000001",
	}
	if len(got) != len(want) {
		t.Fatalf("ListByUser len=%d, want %d: %#v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("ListByUser[%d]=%s, want %s", i, got[i].ID, want[i])
		}
		if got[i].UserID != user || got[i].Status != domain.RideStatusPending {
			t.Fatalf("unexpected ride: %+v", got[i])
		}
	}

	empty, err := repo.ListByUser(ctx, domain.UserID(uuid.NewString()))
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListByUser unknown user: len=%d err=%v", len(empty), err)
	}
}
