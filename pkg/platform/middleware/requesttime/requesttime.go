// Package requesttime pins one "now" per request. Every timestamp written
// while handling the request (allocation, history row, ballot submission)
// uses it.
package requesttime

import (
	"net/http"
	"time"

	"tabrela/pkg/requestcontext"
)

// Middleware stores the request start time, in UTC, in the context.
func Middleware(next http.Handler) http.Handler {
	return MiddlewareWithClock(time.Now)(next)
}

// MiddlewareWithClock is Middleware with an injected clock.
func MiddlewareWithClock(clock func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
