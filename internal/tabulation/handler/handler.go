package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tabrela/internal/models"
	"tabrela/internal/tabulation"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/httputil"
	"tabrela/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the result operations exposed over HTTP.
type Service interface {
	View(ctx context.Context, matchID id.MatchID) (*tabulation.View, error)
	Recompute(ctx context.Context, matchID id.MatchID) (*models.TabulationResult, error)
	ResolveManually(ctx context.Context, matchID id.MatchID, ranks map[id.TeamID]int) (*models.TabulationResult, error)
	Performance(ctx context.Context, userID id.UserID, eventID *id.EventID) (*models.UserPerformance, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/matches/{matchID}/results", h.handleView)
	r.Post("/matches/{matchID}/results/recompute", h.handleRecompute)
	r.Put("/matches/{matchID}/results/ranks", h.handleResolve)
	r.Get("/users/{userID}/performance", h.handlePerformance)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.View(r.Context(), matchID)
	if err != nil {
		h.fail(w, r, "results lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.Recompute(r.Context(), matchID)
	if err != nil {
		h.fail(w, r, "recompute failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.ResolveManually(ctx, matchID, req.ranks())
	if err != nil {
		h.fail(w, r, "manual resolution rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// handlePerformance accepts "me" in place of the caller's own user id.
func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var userID id.UserID
	if raw := chi.URLParam(r, "userID"); raw == "me" {
		userID = requestcontext.UserID(ctx)
	} else {
		parsed, err := id.ParseUserID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		userID = parsed
	}
	var eventID *id.EventID
	if raw := r.URL.Query().Get("event_id"); raw != "" {
		parsed, err := id.ParseEventID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		eventID = &parsed
	}
	perf, err := h.service.Performance(ctx, userID, eventID)
	if err != nil {
		h.fail(w, r, "performance lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, perf)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"code", dErrors.CodeOf(err),
		"error", err,
	)
	httputil.WriteError(w, err)
}
