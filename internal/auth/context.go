package auth

import (
	"context"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying who.
func WithIdentity(ctx context.Context, who model.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, who)
}

// IdentityFrom returns the caller stored by the middleware, if any.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	who, ok := ctx.Value(ctxKey{}).(model.Identity)
	if !ok || who.UserID == "" {
		return model.Identity{}, false
	}
	return who, true
}
