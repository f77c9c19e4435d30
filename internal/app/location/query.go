// Package location resolves the free-text pickup and dropoff inputs to coordinates.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/changefeed"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

var (
	// ErrResolveInFlight is returned by Resolve while a lookup is already running.
	ErrResolveInFlight = errors.New("lookup already in flight")
	// ErrSuperseded is returned by Resolve when the text was edited before the lookup finished.
	ErrSuperseded = errors.New("lookup superseded by a newer edit")
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusResolving Status = "resolving"
	StatusResolved  Status = "resolved"
	StatusFailed    Status = "failed"
)

// Snapshot is a consistent view of one query. Coordinate is set only when
// Status is StatusResolved.
type Snapshot struct {
	Side       domain.Side
	Text       string
	Status     Status
	Coordinate *domain.Coordinate
}

// Resolved reports whether the snapshot holds a usable coordinate.
func (s Snapshot) Resolved() bool {
	return s.Status == StatusResolved && s.Coordinate != nil
}

// Query is the resolution state machine of one location input.
// It is safe for concurrent use.
type Query struct {
	side     domain.Side
	geocoder gateway.Geocoder
	notifier notify.Notifier
	log      *slog.Logger

	mu     sync.Mutex
	text   string
	status Status
	coord  *domain.Coordinate
	gen    uint64
	cancel context.CancelFunc

	changes changefeed.Feed[Snapshot]
}

func NewQuery(side domain.Side, geocoder gateway.Geocoder, notifier notify.Notifier, logger *slog.Logger) *Query {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Query{
		side:     side,
		geocoder: geocoder,
		notifier: notifier,
		log:      logging.OrDiscard(logger).With("component", "location", "side", string(side)),
		status:   StatusIdle,
	}
}

func (q *Query) Side() domain.Side { return q.side }

// OnChange registers fn to be called after every transition, outside the
// query lock and in transition order.
func (q *Query) OnChange(fn func(Snapshot)) {
	q.changes.Subscribe(fn)
}

func (q *Query) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *Query) snapshotLocked() Snapshot {
	s := Snapshot{Side: q.side, Text: q.text, Status: q.status}
	if q.coord != nil {
		c := *q.coord
		s.Coordinate = &c
	}
	return s
}

// SetText records an edit. Any edit moves the query to idle, drops the
// coordinate and invalidates an in-flight lookup. Setting the current text
// again is not an edit.
func (q *Query) SetText(v string) {
	q.mu.Lock()
	if v == q.text {
		q.mu.Unlock()
		return
	}
	q.text = v
	q.status = StatusIdle
	q.coord = nil
	q.gen++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.publishLocked()
	q.mu.Unlock()

	q.changes.Flush()
}

// Resolve looks up the current text. Blank text is a no-op. While a lookup is
// in flight further calls return ErrResolveInFlight without a remote call.
// Resolve blocks until the lookup completes.
func (q *Query) Resolve(ctx context.Context) error {
	q.mu.Lock()
	text := strings.TrimSpace(q.text)
	if text == "" {
		q.mu.Unlock()
		return nil
	}
	if q.status == StatusResolving {
		q.mu.Unlock()
		return ErrResolveInFlight
	}
	q.gen++
	gen := q.gen
	q.status = StatusResolving
	q.coord = nil
	lookupCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.publishLocked()
	q.mu.Unlock()
	q.changes.Flush()

	coord, err := q.geocoder.ResolveAddress(lookupCtx, text)
	cancel()
	if err == nil {
		if verr := coord.Validate(); verr != nil {
			err = &gateway.Error{Kind: gateway.KindLookupFailed, Err: verr}
		}
	}

	q.mu.Lock()
	if q.gen != gen {
		q.mu.Unlock()
		q.log.Debug("discarding stale lookup result", "text", text)
		return ErrSuperseded
	}
	q.cancel = nil

	if err != nil && ctx.Err() != nil {
		// The caller gave up; nothing is known about the address.
		q.status = StatusIdle
		q.publishLocked()
		q.mu.Unlock()
		q.changes.Flush()
		return ctx.Err()
	}
	if err != nil {
		q.status = StatusFailed
		q.publishLocked()
		q.mu.Unlock()

		q.log.Warn("address lookup failed", "text", text, "err", err)
		q.notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Source:  sourceFor(q.side),
			Message: fmt.Sprintf("Could not find %s location", q.side),
		})
		q.changes.Flush()
		return fmt.Errorf("resolve %s: %w", q.side, err)
	}

	q.status = StatusResolved
	q.coord = &coord
	q.publishLocked()
	q.mu.Unlock()

	q.log.Debug("address resolved", "text", text, "coordinate", coord.String())
	q.changes.Flush()
	return nil
}

func (q *Query) publishLocked() {
	q.changes.Publish(q.snapshotLocked())
}

func sourceFor(side domain.Side) notify.Source {
	if side == domain.SideDropoff {
		return notify.SourceDropoff
	}
	return notify.SourcePickup
}
