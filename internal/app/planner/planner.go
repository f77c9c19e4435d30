// Package planner composes the booking screen: two location queries, the
// route coordinator and the booking submitter.
package planner

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Overland-East-Bay/ridebook/internal/app/booking"
	"github.com/Overland-East-Bay/ridebook/internal/app/location"
	"github.com/Overland-East-Bay/ridebook/internal/app/route"
	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

type Deps struct {
	Session  booking.Session
	Geocoder gateway.Geocoder
	Router   gateway.Router
	Rides    gateway.Rides
	Notifier notify.Notifier
	Logger   *slog.Logger
}

type Planner struct {
	pickup    *location.Query
	dropoff   *location.Query
	route     *route.Coordinator
	submitter *booking.Submitter
}

func New(d Deps) *Planner {
	p := &Planner{
		pickup:  location.NewQuery(domain.SidePickup, d.Geocoder, d.Notifier, d.Logger),
		dropoff: location.NewQuery(domain.SideDropoff, d.Geocoder, d.Notifier, d.Logger),
	}
	p.route = route.NewCoordinator(p.pickup, p.dropoff, d.Router, d.Notifier, d.Logger)
	route.Follow(p.route, p.pickup, p.dropoff)
	p.submitter = booking.NewSubmitter(d.Session, d.Rides, p.pickup, p.dropoff, d.Notifier, d.Logger)
	return p
}

func (p *Planner) SetPickup(text string)  { p.pickup.SetText(text) }
func (p *Planner) SetDropoff(text string) { p.dropoff.SetText(text) }

func (p *Planner) ResolvePickup(ctx context.Context) error  { return p.pickup.Resolve(ctx) }
func (p *Planner) ResolveDropoff(ctx context.Context) error { return p.dropoff.Resolve(ctx) }

// ResolveBoth looks up pickup and dropoff concurrently. A failure on one side
// does not cancel the other; the first error is returned.
func (p *Planner) ResolveBoth(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return p.pickup.Resolve(ctx) })
	g.Go(func() error { return p.dropoff.Resolve(ctx) })
	return g.Wait()
}

func (p *Planner) Pickup() location.Snapshot  { return p.pickup.Snapshot() }
func (p *Planner) Dropoff() location.Snapshot { return p.dropoff.Snapshot() }

func (p *Planner) Preview() *route.Preview { return p.route.Preview() }

// OnPreviewChange registers fn to observe the route preview.
func (p *Planner) OnPreviewChange(fn func(*route.Preview)) { p.route.OnChange(fn) }

// RetryRoute recomputes a failed route for the current pair.
func (p *Planner) RetryRoute() bool { return p.route.Retry() }

// WaitRoute blocks until no route computation is in flight.
func (p *Planner) WaitRoute() { p.route.Wait() }

// CanSubmit reports whether a submission would pass local validation and none is running.
func (p *Planner) CanSubmit() bool {
	if p.submitter.Submitting() {
		return false
	}
	return p.submitter.Validate(p.pickup.Snapshot().Text, p.dropoff.Snapshot().Text) == nil
}

// Submit books a ride for the current texts. On success both inputs are cleared.
func (p *Planner) Submit(ctx context.Context) (domain.Ride, error) {
	ride, err := p.submitter.Submit(ctx, p.pickup.Snapshot().Text, p.dropoff.Snapshot().Text)
	if err != nil {
		return domain.Ride{}, err
	}
	p.pickup.SetText("")
	p.dropoff.SetText("")
	return ride, nil
}

// Close stops route computations.
func (p *Planner) Close() { p.route.Close() }

// IsLocalRejection reports whether err was raised before any remote call of Submit.
func IsLocalRejection(err error) bool {
	var verr *booking.ValidationError
	return errors.As(err, &verr) || errors.Is(err, booking.ErrSubmitInFlight)
}
