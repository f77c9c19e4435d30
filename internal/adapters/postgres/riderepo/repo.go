package riderepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	postgres "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres"
	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/riderepo"
)

// Repo is a Postgres implementation of riderepo.Repository.
type Repo struct {
	db postgres.DB
}

func NewRepo(db postgres.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, ride riderepo.Ride) error {
	if r.db == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(ride.ID))
	if err != nil {
		return fmt.Errorf("invalid ride id: %w", err)
	}
	userID, err := uuid.Parse(string(ride.UserID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO rides (id, user_id, pickup_location, drop_location, date_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		id,
		userID,
		ride.PickupLocation,
		ride.DropLocation,
		ride.DateTime.UTC(),
		string(ride.Status),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return riderepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID domain.UserID) ([]riderepo.Ride, error) {
	if r.db == nil {
		return nil, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(userID))
	if err != nil {
		return []riderepo.Ride{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id::text, pickup_location, drop_location, date_time, status
		FROM rides
		WHERE user_id = $1
		ORDER BY date_time DESC, id DESC
	`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]riderepo.Ride, 0)
	for rows.Next() {
		var (
			ride   riderepo.Ride
			id     string
			status string
		)
		if err := rows.Scan(&id, &ride.PickupLocation, &ride.DropLocation, &ride.DateTime, &status); err != nil {
			return nil, err
		}
		ride.ID = domain.RideID(id)
		ride.Status = domain.RideStatus(status)
		ride.DateTime = ride.DateTime.UTC()
		ride.UserID = userID
		out = append(out, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
