// Package handler receives identity provider webhooks for the merit ledger.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/httputil"
	"tabrela/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Initializer

type Initializer interface {
	OnEmailVerified(ctx context.Context, userID id.UserID, verified bool) (bool, error)
}

type Handler struct {
	initializer Initializer
	logger      *slog.Logger
}

func New(initializer Initializer, logger *slog.Logger) *Handler {
	return &Handler{initializer: initializer, logger: logger}
}

// Register mounts the webhook; the caller wraps r with the shared-secret check.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/email-verified", h.handleEmailVerified)
}

type EmailVerifiedRequest struct {
	UserID        id.UserID `json:"user_id"`
	EmailVerified bool      `json:"email_verified"`
}

func (r *EmailVerifiedRequest) Validate() error {
	if r.UserID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	return nil
}

type EmailVerifiedResponse struct {
	UserID  id.UserID `json:"user_id"`
	Created bool      `json:"created"`
}

func (h *Handler) handleEmailVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[EmailVerifiedRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	created, err := h.initializer.OnEmailVerified(ctx, req.UserID, req.EmailVerified)
	if err != nil {
		h.logger.ErrorContext(ctx, "merit ledger initialization failed",
			"request_id", requestID,
			"user_id", req.UserID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, EmailVerifiedResponse{UserID: req.UserID, Created: created})
}
