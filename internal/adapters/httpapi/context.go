package httpapi

import (
	"context"

	"github.com/Overland-East-Bay/ridebook/internal/platform/auth/tokenissuer"
)

type identityKey struct{}

func WithIdentity(ctx context.Context, id tokenissuer.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (tokenissuer.Identity, bool) {
	v, ok := ctx.Value(identityKey{}).(tokenissuer.Identity)
	return v, ok && v.UserID != ""
}
