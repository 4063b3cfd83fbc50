package sessions

import "context"

type contextKey struct{}

// WithUserID stores the authenticated user on a request context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFrom returns the authenticated user, or false when the
// context carries none.
func UserIDFrom(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(contextKey{}).(int64)
	return userID, ok
}
