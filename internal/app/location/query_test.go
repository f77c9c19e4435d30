package location_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	memnotify "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/notify"
	"github.com/Overland-East-Bay/ridebook/internal/app/location"
	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

type lookupResult struct {
	coord domain.Coordinate
	err   error
}

// gatedGeocoder blocks every lookup until the test releases it.
type gatedGeocoder struct {
	calls   atomic.Int32
	started chan string
	release chan lookupResult
}

func newGatedGeocoder() *gatedGeocoder {
	return &gatedGeocoder{
		started: make(chan string, 8),
		release: make(chan lookupResult),
	}
}

func (g *gatedGeocoder) ResolveAddress(ctx context.Context, text string) (domain.Coordinate, error) {
	g.calls.Add(1)
	g.started <- text
	select {
	case r := <-g.release:
		return r.coord, r.err
	case <-ctx.Done():
		return domain.Coordinate{}, ctx.Err()
	}
}

type staticGeocoder struct {
	coord domain.Coordinate
	err   error
}

func (g staticGeocoder) ResolveAddress(context.Context, string) (domain.Coordinate, error) {
	return g.coord, g.err
}

var timesSquare = domain.Coordinate{Latitude: 40.7580, Longitude: -73.9855}

func waitStarted(t *testing.T, g *gatedGeocoder) string {
	t.Helper()
	select {
	case s := <-g.started:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("lookup did not start")
	}
	return ""
}

func TestResolve_Success(t *testing.T) {
	t.Parallel()

	q := location.NewQuery(domain.SidePickup, staticGeocoder{coord: timesSquare}, nil, nil)
	q.SetText("Times Square")

	if err := q.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	s := q.Snapshot()
	if s.Status != location.StatusResolved || s.Coordinate == nil || *s.Coordinate != timesSquare {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if !s.Resolved() {
		t.Fatalf("expected Resolved()")
	}
}

func TestResolve_BlankTextIsNoop(t *testing.T) {
	t.Parallel()

	g := newGatedGeocoder()
	q := location.NewQuery(domain.SidePickup, g, nil, nil)
	q.SetText("   ")

	if err := q.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.calls.Load() != 0 {
		t.Fatalf("expected no remote call")
	}
	if q.Snapshot().Status != location.StatusIdle {
		t.Fatalf("expected idle")
	}
}

func TestResolve_FailureNotifiesWithSide(t *testing.T) {
	t.Parallel()

	rec := memnotify.NewRecorder()
	q := location.NewQuery(domain.SideDropoff, staticGeocoder{err: &gateway.Error{Kind: gateway.KindLookupFailed}}, rec, nil)
	q.SetText("Atlantis")

	err := q.Resolve(context.Background())
	if gateway.KindOf(err) != gateway.KindLookupFailed {
		t.Fatalf("Resolve err=%v", err)
	}
	s := q.Snapshot()
	if s.Status != location.StatusFailed || s.Coordinate != nil {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	got := rec.BySource(notify.SourceDropoff)
	if len(got) != 1 || got[0].Message != "Could not find dropoff location" || got[0].Level != notify.LevelError {
		t.Fatalf("unexpected notifications: %+v", got)
	}
}

func TestResolve_InvalidCoordinateIsFailure(t *testing.T) {
	t.Parallel()

	rec := memnotify.NewRecorder()
	q := location.NewQuery(domain.SidePickup, staticGeocoder{coord: domain.Coordinate{Latitude: 123}}, rec, nil)
	q.SetText("Somewhere")

	if err := q.Resolve(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if q.Snapshot().Status != location.StatusFailed {
		t.Fatalf("expected failed")
	}
	if len(rec.BySource(notify.SourcePickup)) != 1 {
		t.Fatalf("expected pickup notification")
	}
}

func TestResolve_IgnoredWhileInFlight(t *testing.T) {
	t.Parallel()

	g := newGatedGeocoder()
	q := location.NewQuery(domain.SidePickup, g, nil, nil)
	q.SetText("Times Square")

	done := make(chan error, 1)
	go func() { done <- q.Resolve(context.Background()) }()
	waitStarted(t, g)

	if err := q.Resolve(context.Background()); !errors.Is(err, location.ErrResolveInFlight) {
		t.Fatalf("second Resolve err=%v, want ErrResolveInFlight", err)
	}
	if g.calls.Load() != 1 {
		t.Fatalf("calls=%d, want 1", g.calls.Load())
	}

	g.release <- lookupResult{coord: timesSquare}
	if err := <-done; err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if q.Snapshot().Status != location.StatusResolved {
		t.Fatalf("expected resolved")
	}
}

func TestSetText_DiscardsInFlightResult(t *testing.T) {
	t.Parallel()

	g := newGatedGeocoder()
	q := location.NewQuery(domain.SidePickup, g, nil, nil)
	q.SetText("Times Square")

	done := make(chan error, 1)
	go func() { done <- q.Resolve(context.Background()) }()
	waitStarted(t, g)

	q.SetText("JFK Airport")

	// The edit cancels the lookup context, so the gated call returns on its own.
	if err := <-done; !errors.Is(err, location.ErrSuperseded) {
		t.Fatalf("Resolve err=%v, want ErrSuperseded", err)
	}
	s := q.Snapshot()
	if s.Status != location.StatusIdle || s.Coordinate != nil || s.Text != "JFK Airport" {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestSetText_FromResolvedAndFailedMovesToIdle(t *testing.T) {
	t.Parallel()

	q := location.NewQuery(domain.SidePickup, staticGeocoder{coord: timesSquare}, nil, nil)
	q.SetText("Times Square")
	_ = q.Resolve(context.Background())
	q.SetText("Times Sq")
	if s := q.Snapshot(); s.Status != location.StatusIdle || s.Coordinate != nil {
		t.Fatalf("resolved -> edit: %+v", s)
	}

	f := location.NewQuery(domain.SidePickup, staticGeocoder{err: errors.New("nope")}, nil, nil)
	f.SetText("x")
	_ = f.Resolve(context.Background())
	if f.Snapshot().Status != location.StatusFailed {
		t.Fatalf("expected failed")
	}
	f.SetText("y")
	if f.Snapshot().Status != location.StatusIdle {
		t.Fatalf("failed -> edit: expected idle")
	}
}

func TestResolve_RetriggerAfterFailure(t *testing.T) {
	t.Parallel()

	g := newGatedGeocoder()
	q := location.NewQuery(domain.SidePickup, g, nil, nil)
	q.SetText("Times Square")

	done := make(chan error, 1)
	go func() { done <- q.Resolve(context.Background()) }()
	waitStarted(t, g)
	g.release <- lookupResult{err: errors.New("timeout")}
	<-done

	// Failed stays failed until the caller re-triggers.
	if q.Snapshot().Status != location.StatusFailed {
		t.Fatalf("expected failed")
	}
	go func() { done <- q.Resolve(context.Background()) }()
	waitStarted(t, g)
	g.release <- lookupResult{coord: timesSquare}
	if err := <-done; err != nil {
		t.Fatalf("retry: %v", err)
	}
	if q.Snapshot().Status != location.StatusResolved {
		t.Fatalf("expected resolved after retry")
	}
}

func TestResolve_CallerCancellationReturnsToIdle(t *testing.T) {
	t.Parallel()

	g := newGatedGeocoder()
	rec := memnotify.NewRecorder()
	q := location.NewQuery(domain.SidePickup, g, rec, nil)
	q.SetText("Times Square")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Resolve(ctx) }()
	waitStarted(t, g)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve err=%v", err)
	}
	if q.Snapshot().Status != location.StatusIdle {
		t.Fatalf("expected idle")
	}
	if len(rec.All()) != 0 {
		t.Fatalf("cancellation must not notify")
	}
}

func TestOnChange_ObservesTransitions(t *testing.T) {
	t.Parallel()

	q := location.NewQuery(domain.SidePickup, staticGeocoder{coord: timesSquare}, nil, nil)

	var (
		mu   sync.Mutex
		seen []location.Status
	)
	q.OnChange(func(s location.Snapshot) {
		// Reading the query from a hook must not deadlock.
		_ = q.Snapshot()
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	q.SetText("Times Square")
	_ = q.Resolve(context.Background())

	mu.Lock()
	defer mu.Unlock()
	want := []location.Status{location.StatusIdle, location.StatusResolving, location.StatusResolved}
	if len(seen) != len(want) {
		t.Fatalf("seen=%v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen=%v, want %v", seen, want)
		}
	}
}

func TestOnChange_DeliversInTransitionOrder(t *testing.T) {
	t.Parallel()

	q := location.NewQuery(domain.SidePickup, staticGeocoder{coord: timesSquare}, nil, nil)

	var (
		mu      sync.Mutex
		last    location.Snapshot
		blocked bool
		entered = make(chan struct{})
		release = make(chan struct{})
	)
	q.OnChange(func(s location.Snapshot) {
		mu.Lock()
		block := s.Status == location.StatusResolved && !blocked
		if block {
			blocked = true
		}
		mu.Unlock()
		if block {
			close(entered)
			<-release
		}
		mu.Lock()
		last = s
		mu.Unlock()
	})

	q.SetText("Times Square")
	done := make(chan error, 1)
	go func() { done <- q.Resolve(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("resolved snapshot was not delivered")
	}
	q.SetText("JFK Airport")
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if last.Status != location.StatusIdle || last.Text != "JFK Airport" {
		t.Fatalf("last delivered=%+v, want idle JFK Airport", last)
	}
}
