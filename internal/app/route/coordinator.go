// Package route keeps the route preview in step with the two location queries.
package route

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Overland-East-Bay/ridebook/internal/app/location"
	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/changefeed"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

// Preview is a computed path between a resolved pickup and dropoff.
type Preview struct {
	Pickup  domain.Coordinate
	Dropoff domain.Coordinate
	Path    []domain.Coordinate
}

func (p *Preview) clone() *Preview {
	if p == nil {
		return nil
	}
	out := *p
	out.Path = append([]domain.Coordinate(nil), p.Path...)
	return &out
}

// Source is a location query as seen by the coordinator.
type Source interface {
	Snapshot() location.Snapshot
}

type pair struct {
	from, to domain.Coordinate
}

// Coordinator computes at most one route per distinct resolved pair and
// discards results that no longer match the current pair.
// It is safe for concurrent use.
type Coordinator struct {
	pickup   Source
	dropoff  Source
	router   gateway.Router
	notifier notify.Notifier
	log      *slog.Logger

	mu       sync.Mutex
	idle     *sync.Cond
	running  int
	gen      uint64
	preview  *Preview
	current  *pair // pair of preview
	inflight *pair
	failed   *pair
	cancel   context.CancelFunc
	closed   bool

	changes changefeed.Feed[*Preview]
}

func NewCoordinator(pickup, dropoff Source, router gateway.Router, notifier notify.Notifier, logger *slog.Logger) *Coordinator {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	c := &Coordinator{
		pickup:   pickup,
		dropoff:  dropoff,
		router:   router,
		notifier: notifier,
		log:      logging.OrDiscard(logger).With("component", "route"),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Follow subscribes the coordinator to both queries so every transition refreshes the preview.
func Follow(c *Coordinator, pickup, dropoff *location.Query) {
	refresh := func(location.Snapshot) { c.Refresh() }
	pickup.OnChange(refresh)
	dropoff.OnChange(refresh)
}

// OnChange registers fn to observe the preview. fn receives nil when the
// preview is cleared. Calls arrive in the order the preview changed, so the
// last value fn saw always matches Preview.
func (c *Coordinator) OnChange(fn func(*Preview)) {
	c.changes.Subscribe(func(p *Preview) { fn(p.clone()) })
}

// Preview returns a copy of the current preview, or nil.
func (c *Coordinator) Preview() *Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview.clone()
}

// Computing reports whether a computation is in flight for the current pair.
func (c *Coordinator) Computing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

// Refresh re-reads both queries. When both are resolved to a pair that is
// neither shown nor being computed, the preview is cleared before returning
// and a new computation starts in the background. Otherwise, if either side is
// not resolved, the preview and any in-flight computation are dropped.
func (c *Coordinator) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ps, ds := c.pickup.Snapshot(), c.dropoff.Snapshot()

	if !ps.Resolved() || !ds.Resolved() {
		changed := c.preview != nil
		c.resetLocked()
		c.failed = nil
		if changed {
			c.changes.Publish(nil)
		}
		c.mu.Unlock()
		c.changes.Flush()
		return
	}

	p := pair{from: *ps.Coordinate, to: *ds.Coordinate}
	switch {
	case c.inflight != nil && *c.inflight == p:
		c.mu.Unlock()
		return
	case c.current != nil && *c.current == p:
		c.mu.Unlock()
		return
	case c.failed != nil && *c.failed == p:
		// Failed pairs wait for Retry or a new resolution.
		c.mu.Unlock()
		return
	}

	changed := c.preview != nil
	c.failed = nil
	c.startLocked(p)
	if changed {
		c.changes.Publish(nil)
	}
	c.mu.Unlock()
	c.changes.Flush()
}

// Retry recomputes the route for the current pair after a failed computation.
// It reports whether a computation was started.
func (c *Coordinator) Retry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.failed == nil {
		return false
	}
	ps, ds := c.pickup.Snapshot(), c.dropoff.Snapshot()
	if !ps.Resolved() || !ds.Resolved() {
		return false
	}
	p := pair{from: *ps.Coordinate, to: *ds.Coordinate}
	if *c.failed != p {
		return false
	}
	c.failed = nil
	c.startLocked(p)
	return true
}

// Wait blocks until no computation is in flight.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.running > 0 {
		c.idle.Wait()
	}
}

// Close cancels any in-flight computation, waits for it and stops further refreshes.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.resetLocked()
	c.mu.Unlock()
	c.Wait()
}

// resetLocked drops the preview and invalidates any in-flight computation.
func (c *Coordinator) resetLocked() {
	c.gen++
	c.preview = nil
	c.current = nil
	c.inflight = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) startLocked(p pair) {
	c.resetLocked()
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.inflight = &p
	c.running++
	go c.compute(ctx, gen, p)
}

func (c *Coordinator) compute(ctx context.Context, gen uint64, p pair) {
	defer func() {
		c.mu.Lock()
		c.running--
		c.idle.Broadcast()
		c.mu.Unlock()
	}()

	path, err := c.router.ComputeRoute(ctx, p.from, p.to)
	if err == nil && len(path) < 2 {
		err = &gateway.Error{Kind: gateway.KindComputationFailed, Message: "route has fewer than two points"}
	}

	c.mu.Lock()
	if c.gen != gen || c.inflight == nil || *c.inflight != p {
		c.mu.Unlock()
		c.log.Debug("discarding stale route result", "pickup", p.from.String(), "dropoff", p.to.String())
		return
	}
	c.inflight = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err != nil {
		c.failed = &p
		c.mu.Unlock()
		c.log.Warn("route computation failed", "pickup", p.from.String(), "dropoff", p.to.String(), "err", err)
		c.notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Source:  notify.SourceRoute,
			Message: "Could not calculate route",
		})
		return
	}

	c.preview = &Preview{Pickup: p.from, Dropoff: p.to, Path: append([]domain.Coordinate(nil), path...)}
	c.current = &p
	c.changes.Publish(c.preview.clone())
	c.mu.Unlock()

	c.log.Debug("route computed", "points", len(path))
	c.changes.Flush()
}
