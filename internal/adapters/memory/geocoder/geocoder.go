package geocoder

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
)

// Center is the point offline lookups scatter around (lower Manhattan).
var Center = domain.Coordinate{Latitude: 40.7128, Longitude: -74.0060}

// Spread bounds the offset of a derived coordinate from Center, in degrees.
const Spread = 0.05

// Geocoder is an offline gateway.Geocoder.
//
// Unknown text resolves to a point near Center derived from a hash of the
// normalized text, so the same text always yields the same coordinate.
// It is safe for concurrent use.
type Geocoder struct {
	mu       sync.RWMutex
	places   map[string]domain.Coordinate
	rejected map[string]struct{}
}

func New() *Geocoder {
	return &Geocoder{
		places:   make(map[string]domain.Coordinate),
		rejected: make(map[string]struct{}),
	}
}

// Place pins text to c.
func (g *Geocoder) Place(text string, c domain.Coordinate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.places[normalize(text)] = c
}

// Reject makes lookups of text fail with gateway.KindLookupFailed.
func (g *Geocoder) Reject(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejected[normalize(text)] = struct{}{}
}

func (g *Geocoder) ResolveAddress(ctx context.Context, text string) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindTransport, Err: err}
	}
	key := normalize(text)
	if key == "" {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindLookupFailed, Message: "empty address"}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.rejected[key]; ok {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindLookupFailed, Message: "no match for " + text}
	}
	if c, ok := g.places[key]; ok {
		return c, nil
	}
	return derive(key), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func derive(key string) domain.Coordinate {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	sum := h.Sum64()
	return domain.Coordinate{
		Latitude:  Center.Latitude + offset(uint32(sum)),
		Longitude: Center.Longitude + offset(uint32(sum>>32)),
	}
}

// offset maps v onto [-Spread, Spread].
func offset(v uint32) float64 {
	return (float64(v)/float64(^uint32(0))*2 - 1) * Spread
}
