package gateway

import (
	"context"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
)

// SignupInput is the payload of a signup call.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the payload of a login call.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	Token string
	User  domain.User
}

// Accounts authenticates against the remote service. These calls do not need a session.
type Accounts interface {
	Signup(ctx context.Context, in SignupInput) (AuthResult, error)
	Login(ctx context.Context, in LoginInput) (AuthResult, error)
}

// Geocoder resolves free text to a coordinate.
// Failures are reported as *Error with KindLookupFailed or KindTransport.
type Geocoder interface {
	ResolveAddress(ctx context.Context, text string) (domain.Coordinate, error)
}

// Router computes a path between two coordinates.
// A successful result holds at least two points, starting near from and ending near to.
type Router interface {
	ComputeRoute(ctx context.Context, from, to domain.Coordinate) ([]domain.Coordinate, error)
}

// Rides books and lists rides for the authenticated user.
type Rides interface {
	// SubmitBooking sends a booking request. idempotencyKey lets the remote
	// service collapse duplicate submissions of the same attempt.
	SubmitBooking(ctx context.Context, req domain.BookingRequest, idempotencyKey string) (domain.Ride, error)
	ListBookings(ctx context.Context) ([]domain.Ride, error)
}

// Authorizer is the part of the gateway the session reconfigures:
// the bearer token attached to authenticated calls.
type Authorizer interface {
	SetToken(token string)
	ClearToken()
}
