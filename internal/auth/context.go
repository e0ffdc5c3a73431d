package auth

import "context"

type ctxKey struct{}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID int64
	Role   string
}

func WithUser(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserFromContext returns the caller stored by WithUser, if any.
func UserFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
