package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "userID"

// defaultWriteTimeout bounds feed writes when the caller passes no budget.
const defaultWriteTimeout = 5 * time.Second

// ContextWithUserID attaches the identity asserted by the verification
// middleware so services can log the acting employee.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

// UserIDFromContext returns the acting employee id, or "" when the request
// was not authenticated (local development with verification disabled).
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(ContextUserKey).(string); ok {
		return userID
	}
	return ""
}

// WithTimeout derives a bounded context for a feed write, falling back to
// the default budget when the duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = defaultWriteTimeout
	}
	return context.WithTimeout(ctx, duration)
}
