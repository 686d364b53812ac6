package auth

import "context"

type ctxKey int

const (
	userIDKey ctxKey = iota
	roleKey
)

const RoleAdmin = "admin"

// The gateway in front of this service authenticates requests and forwards
// identity headers; the middleware stores them here. The core still re-checks
// ownership on every user-scoped operation.

func WithUser(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserID returns the authenticated user id, or 0 when absent.
func UserID(ctx context.Context) int64 {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v
	}
	return 0
}

func IsAdmin(ctx context.Context) bool {
	v, ok := ctx.Value(roleKey).(string)
	return ok && v == RoleAdmin
}
