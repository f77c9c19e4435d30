package riderepo

import (
	"context"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
)

// Ride is the persistence shape of a booking.
type Ride struct {
	domain.Ride
	UserID domain.UserID
}

// Repository stores rides.
//
// ListByUser returns rides ordered by DateTime descending (newest first), ties broken by ID.
type Repository interface {
	Create(ctx context.Context, r Ride) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]Ride, error)
}
