package middleware

import "context"

type contextKey struct{ name string }

var (
	emailKey  = contextKey{"email"}
	userIDKey = contextKey{"user_id"}
)

// WithIdentity returns a context carrying the authenticated account's email
// and user id. Handlers read them via GetEmail and GetUserID.
func WithIdentity(ctx context.Context, email string, userID int64) context.Context {
	ctx = context.WithValue(ctx, emailKey, email)
	ctx = context.WithValue(ctx, userIDKey, userID)
	return ctx
}

// GetEmail returns the authenticated email from context and true if set; otherwise "", false.
func GetEmail(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(emailKey).(string)
	return v, ok
}

// GetUserID returns the authenticated user id from context and true if set; otherwise 0, false.
func GetUserID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(userIDKey).(int64)
	return v, ok
}
