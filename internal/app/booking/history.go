package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

// History lists the authenticated rider's bookings.
type History struct {
	session  Session
	rides    gateway.Rides
	notifier notify.Notifier
	log      *slog.Logger
}

func NewHistory(sess Session, rides gateway.Rides, notifier notify.Notifier, logger *slog.Logger) *History {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &History{
		session:  sess,
		rides:    rides,
		notifier: notifier,
		log:      logging.OrDiscard(logger).With("component", "history"),
	}
}

// List returns the rider's rides, newest first.
func (h *History) List(ctx context.Context) ([]domain.Ride, error) {
	if err := h.session.Authorize(ctx); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	rides, err := h.rides.ListBookings(ctx)
	if err != nil {
		h.session.HandleRemoteError(ctx, err)
		h.log.Warn("listing bookings failed", "kind", gateway.KindOf(err), "err", err)
		h.notifier.Notify(notify.Notification{Level: notify.LevelError, Source: notify.SourceHistory, Message: MsgFetchFailed})
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out := append([]domain.Ride(nil), rides...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out, nil
}
