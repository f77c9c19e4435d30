// Package rides implements booking and listing for the development API.
package rides

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	clockport "github.com/Overland-East-Bay/ridebook/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/riderepo"
)

type Service struct {
	repo riderepo.Repository
	clk  clockport.Clock

	newRideID func() domain.RideID
}

func NewService(repo riderepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo: repo,
		clk:  clk,
		newRideID: func() domain.RideID {
			return domain.RideID(uuid.NewString())
		},
	}
}

// Book records a new ride for userID. New rides start PENDING.
func (s *Service) Book(ctx context.Context, userID domain.UserID, req domain.BookingRequest) (domain.Ride, error) {
	pickup := strings.TrimSpace(req.PickupText)
	drop := strings.TrimSpace(req.DropoffText)
	if pickup == "" {
		return domain.Ride{}, validationError("Pickup location is required", "pickupLocation")
	}
	if drop == "" {
		return domain.Ride{}, validationError("Drop location is required", "dropLocation")
	}

	r := riderepo.Ride{
		Ride: domain.Ride{
			ID:             s.newRideID(),
			PickupLocation: pickup,
			DropLocation:   drop,
			DateTime:       s.clk.Now().UTC(),
			Status:         domain.RideStatusPending,
		},
		UserID: userID,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return domain.Ride{}, err
	}
	return r.Ride, nil
}

// ListMine returns the rides of userID, newest first.
func (s *Service) ListMine(ctx context.Context, userID domain.UserID) ([]domain.Ride, error) {
	rs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Ride, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Ride)
	}
	return out, nil
}
