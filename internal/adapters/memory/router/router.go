package router

import (
	"context"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
)

// DefaultPoints is the number of points in a computed path.
const DefaultPoints = 5

// Router is an offline gateway.Router returning a straight line between the endpoints.
type Router struct {
	Points int
}

func New() *Router {
	return &Router{Points: DefaultPoints}
}

func (r *Router) ComputeRoute(ctx context.Context, from, to domain.Coordinate) ([]domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindTransport, Err: err}
	}
	if err := from.Validate(); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindComputationFailed, Err: err}
	}
	if err := to.Validate(); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindComputationFailed, Err: err}
	}

	n := r.Points
	if n < 2 {
		n = 2
	}
	path := make([]domain.Coordinate, n)
	for i := range path {
		f := float64(i) / float64(n-1)
		path[i] = domain.Coordinate{
			Latitude:  from.Latitude + (to.Latitude-from.Latitude)*f,
			Longitude: from.Longitude + (to.Longitude-from.Longitude)*f,
		}
	}
	return path, nil
}
