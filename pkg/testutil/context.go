package testutil

import (
	"context"
	"net/http"
	"time"

	id "tabrela/pkg/domain"
	"tabrela/pkg/requestcontext"
)

// FixedTime is the request time used by service tests that compare timestamps.
var FixedTime = time.Date(2025, time.March, 14, 18, 30, 0, 0, time.UTC)

// AdminContext returns a context for an admin caller at FixedTime.
func AdminContext(adminID id.UserID) context.Context {
	ctx := requestcontext.WithAdmin(context.Background(), adminID)
	ctx = requestcontext.WithEmailVerified(ctx, true)
	return requestcontext.WithTime(ctx, FixedTime)
}

// UserContext returns a context for a regular caller at FixedTime.
func UserContext(userID id.UserID) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	ctx = requestcontext.WithEmailVerified(ctx, true)
	return requestcontext.WithTime(ctx, FixedTime)
}

// At moves the request time of ctx.
func At(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}

// WithCaller attaches caller identity to a request, the way the auth
// middleware does after validating a token.
func WithCaller(req *http.Request, userID id.UserID, admin bool) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithAdminFlag(ctx, admin)
	return req.WithContext(ctx)
}
