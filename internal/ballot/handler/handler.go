package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tabrela/internal/ballot"
	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/httputil"
	"tabrela/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the ballot operations exposed over HTTP.
type Service interface {
	OpenBallot(ctx context.Context, allocationID id.AllocationID) (*models.Ballot, error)
	SubmitScore(ctx context.Context, ballotID id.BallotID, entry ballot.ScoreEntry) (*models.SpeakerScore, error)
	SubmitRanking(ctx context.Context, ballotID id.BallotID, entry ballot.RankingEntry) (*models.TeamRanking, error)
	Submit(ctx context.Context, ballotID id.BallotID, req ballot.SubmitRequest) (*models.BallotSheet, error)
	Finalize(ctx context.Context, ballotID id.BallotID) (*models.Ballot, error)
	SetNotes(ctx context.Context, ballotID id.BallotID, notes string) (*models.Ballot, error)
	SubmitFeedback(ctx context.Context, ballotID id.BallotID, notes string) (*models.Ballot, error)
	Get(ctx context.Context, ballotID id.BallotID) (*models.BallotSheet, error)
	Mine(ctx context.Context, matchID id.MatchID) (*models.BallotSheet, error)
	ListForMatch(ctx context.Context, matchID id.MatchID) ([]*models.BallotSheet, error)
}

// Handler serves adjudicator ballots.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ballot endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/matches/{matchID}/ballots", h.handleListForMatch)
	r.Get("/matches/{matchID}/ballots/mine", h.handleMine)
	r.Post("/allocations/{allocationID}/ballot", h.handleOpen)
	r.Get("/ballots/{ballotID}", h.handleGet)
	r.Put("/ballots/{ballotID}", h.handleSubmit)
	r.Put("/ballots/{ballotID}/scores", h.handleScore)
	r.Put("/ballots/{ballotID}/rankings", h.handleRanking)
	r.Put("/ballots/{ballotID}/notes", h.handleNotes)
	r.Post("/ballots/{ballotID}/feedback", h.handleFeedback)
	r.Post("/ballots/{ballotID}/finalize", h.handleFinalize)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	allocationID, err := id.ParseAllocationID(chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.OpenBallot(r.Context(), allocationID)
	if err != nil {
		h.fail(w, r, "open ballot failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := ballotParam(w, r)
	if !ok {
		return
	}
	sheet, err := h.service.Get(r.Context(), ballotID)
	if err != nil {
		h.fail(w, r, "get ballot failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sheet)
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sheet, err := h.service.Mine(r.Context(), matchID)
	if err != nil {
		h.fail(w, r, "get own ballot failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sheet)
}

func (h *Handler) handleListForMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sheets, err := h.service.ListForMatch(r.Context(), matchID)
	if err != nil {
		h.fail(w, r, "list ballots failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ballots": sheets})
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ballotID, ok := ballotParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ScoreRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sc, err := h.service.SubmitScore(ctx, ballotID, req.entry())
	if err != nil {
		h.fail(w, r, "score rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sc)
}

func (h *Handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ballotID, ok := ballotParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RankingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rk, err := h.service.SubmitRanking(ctx, ballotID, req.entry())
	if err != nil {
		h.fail(w, r, "ranking rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rk)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ballotID, ok := ballotParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sheet, err := h.service.Submit(ctx, ballotID, req.toService())
	if err != nil {
		h.fail(w, r, "ballot submission rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sheet)
}

func (h *Handler) handleNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ballotID, ok := ballotParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[NotesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.service.SetNotes(ctx, ballotID, req.Notes)
	if err != nil {
		h.fail(w, r, "notes rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ballotID, ok := ballotParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[NotesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.service.SubmitFeedback(ctx, ballotID, req.Notes)
	if err != nil {
		h.fail(w, r, "feedback rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := ballotParam(w, r)
	if !ok {
		return
	}
	b, err := h.service.Finalize(r.Context(), ballotID)
	if err != nil {
		h.fail(w, r, "finalize rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func ballotParam(w http.ResponseWriter, r *http.Request) (id.BallotID, bool) {
	ballotID, err := id.ParseBallotID(chi.URLParam(r, "ballotID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.BallotID{}, false
	}
	return ballotID, true
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
