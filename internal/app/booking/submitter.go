// Package booking submits ride bookings and lists the rider's past bookings.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/ridebook/internal/app/location"
	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

const (
	MsgBooked        = "Ride booked successfully!"
	MsgBookFailed    = "Failed to book ride"
	MsgMissingInputs = "Please enter pickup and dropoff locations"
	MsgFetchFailed   = "Failed to fetch rides"
)

// Session is the part of the session store bookings depend on.
type Session interface {
	Authorize(ctx context.Context) error
	HandleRemoteError(ctx context.Context, err error) bool
}

// Source is a location query as seen by the submitter.
type Source interface {
	Snapshot() location.Snapshot
}

// Submitter sends booking requests. At most one submission runs at a time.
type Submitter struct {
	session  Session
	rides    gateway.Rides
	pickup   Source
	dropoff  Source
	notifier notify.Notifier
	log      *slog.Logger

	newKey func() string

	mu       sync.Mutex
	inFlight bool
}

func NewSubmitter(sess Session, rides gateway.Rides, pickup, dropoff Source, notifier notify.Notifier, logger *slog.Logger) *Submitter {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Submitter{
		session:  sess,
		rides:    rides,
		pickup:   pickup,
		dropoff:  dropoff,
		notifier: notifier,
		log:      logging.OrDiscard(logger).With("component", "booking"),
		newKey:   uuid.NewString,
	}
}

// Validate checks the local preconditions of a submission without sending anything.
func (s *Submitter) Validate(pickupText, dropoffText string) error {
	verr := &ValidationError{}
	check := func(side domain.Side, text string, src Source) {
		switch {
		case strings.TrimSpace(text) == "":
			verr.Missing = append(verr.Missing, string(side))
		case !src.Snapshot().Resolved():
			verr.Unresolved = append(verr.Unresolved, string(side))
		default:
			return
		}
		verr.Fields = append(verr.Fields, string(side))
	}
	check(domain.SidePickup, pickupText, s.pickup)
	check(domain.SideDropoff, dropoffText, s.dropoff)
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Submitting reports whether a submission is in flight.
func (s *Submitter) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submit books a ride from the free-text locations. The remote service does
// its own resolution; the local queries only gate the request.
func (s *Submitter) Submit(ctx context.Context, pickupText, dropoffText string) (domain.Ride, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return domain.Ride{}, ErrSubmitInFlight
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	if err := s.Validate(pickupText, dropoffText); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.notify(notify.LevelError, verr.UserMessage())
		}
		return domain.Ride{}, err
	}
	if err := s.session.Authorize(ctx); err != nil {
		return domain.Ride{}, fmt.Errorf("submit booking: %w", err)
	}

	req := domain.BookingRequest{
		PickupText:  strings.TrimSpace(pickupText),
		DropoffText: strings.TrimSpace(dropoffText),
	}
	key := s.newKey()
	ride, err := s.rides.SubmitBooking(ctx, req, key)
	if err != nil {
		s.session.HandleRemoteError(ctx, err)
		s.log.Warn("booking failed", "idempotency_key", key, "kind", gateway.KindOf(err), "err", err)
		s.notify(notify.LevelError, gateway.UserMessage(err, MsgBookFailed))
		return domain.Ride{}, fmt.Errorf("submit booking: %w", err)
	}

	s.log.Info("ride booked", "ride_id", ride.ID, "status", ride.Status)
	s.notify(notify.LevelSuccess, MsgBooked)
	return ride, nil
}

func (s *Submitter) notify(level notify.Level, msg string) {
	s.notifier.Notify(notify.Notification{Level: level, Source: notify.SourceBooking, Message: msg})
}
