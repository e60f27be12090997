package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tabrela/internal/allocation"
	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/httputil"
	"tabrela/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the allocation operations exposed over HTTP.
type Service interface {
	Allocate(ctx context.Context, matchID id.MatchID, req allocation.AllocateRequest) (*models.Allocation, error)
	Reassign(ctx context.Context, allocationID id.AllocationID, req allocation.ReassignRequest) (*models.Allocation, error)
	Deallocate(ctx context.Context, allocationID id.AllocationID, notes string) error
	Swap(ctx context.Context, firstID, secondID id.AllocationID, notes string) ([]*models.Allocation, error)
	List(ctx context.Context, matchID id.MatchID) ([]*models.Allocation, error)
	Pool(ctx context.Context, seriesID id.SeriesID) ([]allocation.PoolEntry, error)
	History(ctx context.Context, matchID id.MatchID, limit, offset int) (*allocation.HistoryPage, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts allocation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/matches/{matchID}/allocations", h.handleList)
	r.Post("/matches/{matchID}/allocations", h.handleAllocate)
	r.Get("/matches/{matchID}/allocations/history", h.handleHistory)
	r.Post("/allocations/swap", h.handleSwap)
	r.Patch("/allocations/{allocationID}", h.handleReassign)
	r.Delete("/allocations/{allocationID}", h.handleDeallocate)
	r.Get("/series/{seriesID}/pool", h.handlePool)
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AllocateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	a, err := h.service.Allocate(ctx, matchID, req.toService())
	if err != nil {
		h.fail(w, r, "allocation rejected", err)
		return
	}
	h.logger.InfoContext(ctx, "participant allocated",
		"request_id", requestID,
		"match_id", matchID,
		"allocation_id", a.ID,
		"role", a.Role,
	)
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.service.List(r.Context(), matchID)
	if err != nil {
		h.fail(w, r, "list allocations failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"allocations": out})
}

func (h *Handler) handleReassign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	allocationID, err := id.ParseAllocationID(chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReassignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.Reassign(ctx, allocationID, req.toService())
	if err != nil {
		h.fail(w, r, "reassignment rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDeallocate(w http.ResponseWriter, r *http.Request) {
	allocationID, err := id.ParseAllocationID(chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	notes := r.URL.Query().Get("notes")
	if len(notes) > models.MaxNotesLength {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "notes must be 5000 characters or less"))
		return
	}
	if err := h.service.Deallocate(r.Context(), allocationID, notes); err != nil {
		h.fail(w, r, "deallocation rejected", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSwap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SwapRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.service.Swap(ctx, req.first, req.second, req.Notes)
	if err != nil {
		h.fail(w, r, "swap rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"allocations": out})
}

func (h *Handler) handlePool(w http.ResponseWriter, r *http.Request) {
	seriesID, err := id.ParseSeriesID(chi.URLParam(r, "seriesID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	pool, err := h.service.Pool(r.Context(), seriesID)
	if err != nil {
		h.fail(w, r, "pool lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"pool": pool})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := intQuery(r, "limit", allocation.DefaultHistoryLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.History(r.Context(), matchID, limit, offset)
	if err != nil {
		h.fail(w, r, "history lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "%s must be a non-negative integer", key)
	}
	return n, nil
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
