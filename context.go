package authcore

import "context"

type userContextKey struct{}

// WithUser attaches an authenticated user view to ctx. The request
// authenticator calls this after a token pair validates; handlers read
// it back with UserFromContext.
func WithUser(ctx context.Context, user *UserView) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user attached by the
// request authenticator, if any.
func UserFromContext(ctx context.Context) (*UserView, bool) {
	if ctx == nil {
		return nil, false
	}

	user, ok := ctx.Value(userContextKey{}).(*UserView)
	return user, ok && user != nil
}
