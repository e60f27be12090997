// Package handler accepts availability pools pushed by the attendance service.
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

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Pool

// Pool replaces an event's set of available users.
type Pool interface {
	Replace(ctx context.Context, eventID id.EventID, users []id.UserID) error
}

type Handler struct {
	pool   Pool
	logger *slog.Logger
}

func New(pool Pool, logger *slog.Logger) *Handler {
	return &Handler{pool: pool, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Put("/webhooks/events/{eventID}/availability", h.handleReplace)
}

type ReplaceRequest struct {
	UserIDs []id.UserID `json:"user_ids"`
}

func (r *ReplaceRequest) Validate() error {
	for _, u := range r.UserIDs {
		if u.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "user_ids must not contain the nil id")
		}
	}
	return nil
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReplaceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.pool.Replace(ctx, eventID, req.UserIDs); err != nil {
		h.logger.ErrorContext(ctx, "availability update failed", "request_id", requestID, "event_id", eventID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store availability"))
		return
	}
	h.logger.InfoContext(ctx, "availability replaced", "request_id", requestID, "event_id", eventID, "users", len(req.UserIDs))
	w.WriteHeader(http.StatusNoContent)
}
