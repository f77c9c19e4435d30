package riderepo

import (
	"context"
	"sort"
	"sync"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/riderepo"
)

// Repo is an in-memory implementation of riderepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID   map[domain.RideID]riderepo.Ride
	byUser map[domain.UserID][]domain.RideID
}

func NewRepo() *Repo {
	return &Repo{
		byID:   make(map[domain.RideID]riderepo.Ride),
		byUser: make(map[domain.UserID][]domain.RideID),
	}
}

func (r *Repo) Create(ctx context.Context, ride riderepo.Ride) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[ride.ID]; ok {
		return riderepo.ErrAlreadyExists
	}
	r.byID[ride.ID] = ride
	r.byUser[ride.UserID] = append(r.byUser[ride.UserID], ride.ID)
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID domain.UserID) ([]riderepo.Ride, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	out := make([]riderepo.Ride, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(rs []riderepo.Ride) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].DateTime.Equal(rs[j].DateTime) {
			return string(rs[i].ID) > string(rs[j].ID)
		}
		return rs[i].DateTime.After(rs[j].DateTime)
	})
}
