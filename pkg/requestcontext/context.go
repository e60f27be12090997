// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Identity middleware sets the caller's user id, admin capability and
// email-verified flag; services read them without importing net/http. The core
// trusts these values as supplied by the identity provider.
//
// Usage in services (read values):
//
//	userID := requestcontext.UserID(ctx)
//	if !requestcontext.IsAdmin(ctx) { ... }
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithAdmin(ctx, adminID)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "tabrela/pkg/domain"
)

type (
	userIDKey        struct{}
	adminKey         struct{}
	emailVerifiedKey struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyUserID        = userIDKey{}
	ContextKeyAdmin         = adminKey{}
	ContextKeyEmailVerified = emailVerifiedKey{}
	ContextKeyRequestID     = requestIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Caller identity
// -----------------------------------------------------------------------------

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// IsAdmin reports the admin capability granted by the identity provider.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(ContextKeyAdmin).(bool)
	return admin
}

// WithAdminFlag records the caller's admin capability.
func WithAdminFlag(ctx context.Context, admin bool) context.Context {
	return context.WithValue(ctx, ContextKeyAdmin, admin)
}

// WithAdmin is shorthand for an authenticated admin caller.
func WithAdmin(ctx context.Context, userID id.UserID) context.Context {
	return WithAdminFlag(WithUserID(ctx, userID), true)
}

// EmailVerified reports the identity provider's email_verified claim.
func EmailVerified(ctx context.Context) bool {
	v, _ := ctx.Value(ContextKeyEmailVerified).(bool)
	return v
}

// WithEmailVerified records the caller's email_verified claim.
func WithEmailVerified(ctx context.Context, verified bool) context.Context {
	return context.WithValue(ctx, ContextKeyEmailVerified, verified)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
