package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tabrela/internal/models"
	"tabrela/internal/registry"
	id "tabrela/pkg/domain"
	"tabrela/pkg/platform/httputil"
	"tabrela/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the registry operations exposed over HTTP.
type Service interface {
	CreateEvent(ctx context.Context, req registry.CreateEventRequest) (*models.Event, error)
	UpdateEvent(ctx context.Context, eventID id.EventID, req registry.UpdateEventRequest) (*models.Event, error)
	SetLocked(ctx context.Context, eventID id.EventID, locked bool) (*models.Event, error)
	GetEvent(ctx context.Context, eventID id.EventID) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	DeleteEvent(ctx context.Context, eventID id.EventID) error

	CreateSeries(ctx context.Context, eventID id.EventID, req registry.CreateSeriesRequest) (*models.MatchSeries, error)
	UpdateSeries(ctx context.Context, seriesID id.SeriesID, req registry.UpdateSeriesRequest) (*models.MatchSeries, error)
	GetSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error)
	ListSeries(ctx context.Context, eventID id.EventID) ([]*models.MatchSeries, error)
	DeleteSeries(ctx context.Context, seriesID id.SeriesID) error
}

// Handler serves events and match series.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/events", h.handleListEvents)
	r.Post("/events", h.handleCreateEvent)
	r.Get("/events/{eventID}", h.handleGetEvent)
	r.Patch("/events/{eventID}", h.handleUpdateEvent)
	r.Delete("/events/{eventID}", h.handleDeleteEvent)
	r.Put("/events/{eventID}/lock", h.handleSetLocked)
	r.Get("/events/{eventID}/series", h.handleListSeries)
	r.Post("/events/{eventID}/series", h.handleCreateSeries)
	r.Get("/series/{seriesID}", h.handleGetSeries)
	r.Patch("/series/{seriesID}", h.handleUpdateSeries)
	r.Delete("/series/{seriesID}", h.handleDeleteSeries)
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	e, err := h.service.CreateEvent(ctx, req.toService())
	if err != nil {
		h.fail(w, r, "create event failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		h.fail(w, r, "list events failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.fail(w, r, "get event failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateEventRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.service.UpdateEvent(ctx, eventID, req.toService())
	if err != nil {
		h.fail(w, r, "update event failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleSetLocked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[LockRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.service.SetLocked(ctx, eventID, *req.Locked)
	if err != nil {
		h.fail(w, r, "set event lock failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteEvent(r.Context(), eventID); err != nil {
		h.fail(w, r, "delete event failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateSeriesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sr, err := h.service.CreateSeries(ctx, eventID, req.toService())
	if err != nil {
		h.fail(w, r, "create series failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sr)
}

func (h *Handler) handleListSeries(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	series, err := h.service.ListSeries(r.Context(), eventID)
	if err != nil {
		h.fail(w, r, "list series failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"series": series})
}

func (h *Handler) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, err := id.ParseSeriesID(chi.URLParam(r, "seriesID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sr, err := h.service.GetSeries(r.Context(), seriesID)
	if err != nil {
		h.fail(w, r, "get series failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sr)
}

func (h *Handler) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seriesID, err := id.ParseSeriesID(chi.URLParam(r, "seriesID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateSeriesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sr, err := h.service.UpdateSeries(ctx, seriesID, req.toService())
	if err != nil {
		h.fail(w, r, "update series failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sr)
}

func (h *Handler) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, err := id.ParseSeriesID(chi.URLParam(r, "seriesID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteSeries(r.Context(), seriesID); err != nil {
		h.fail(w, r, "delete series failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
