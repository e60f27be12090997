// Package webhook authenticates server-to-server callbacks from the identity
// provider and the attendance service with a shared secret.
package webhook

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/httputil"
	"tabrela/pkg/platform/middleware/metadata"
	"tabrela/pkg/requestcontext"
)

const SecretHeader = "X-Webhook-Secret"

// RequireSecret rejects requests whose X-Webhook-Secret does not match. An
// empty expected secret rejects everything.
func RequireSecret(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(SecretHeader)
			if expected == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "webhook secret mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", metadata.GetClientIP(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "webhook secret required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
