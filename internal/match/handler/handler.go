package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tabrela/internal/match"
	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	"tabrela/pkg/platform/httputil"
	"tabrela/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the match lifecycle operations exposed over HTTP.
type Service interface {
	CreateMatch(ctx context.Context, seriesID id.SeriesID, details models.MatchDetails) (*match.MatchView, error)
	UpdateMatch(ctx context.Context, matchID id.MatchID, details models.MatchDetails) (*models.Match, error)
	GetMatch(ctx context.Context, matchID id.MatchID) (*match.MatchView, error)
	ListMatches(ctx context.Context, seriesID id.SeriesID) ([]*models.Match, error)
	DeleteMatch(ctx context.Context, matchID id.MatchID) error
	Transition(ctx context.Context, matchID id.MatchID, target models.MatchStatus) (*models.Match, error)
	SetRelease(ctx context.Context, matchID id.MatchID, gate models.ReleaseGate, value bool) (*models.Match, error)

	AddTeam(ctx context.Context, matchID id.MatchID, position models.TeamPosition, name, institution string) (*models.MatchTeam, error)
	UpdateTeam(ctx context.Context, teamID id.TeamID, req match.UpdateTeamRequest) (*models.MatchTeam, error)
	RemoveTeam(ctx context.Context, teamID id.TeamID) error
}

// Handler serves matches and their teams.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts match endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/series/{seriesID}/matches", h.handleListMatches)
	r.Post("/series/{seriesID}/matches", h.handleCreateMatch)
	r.Get("/matches/{matchID}", h.handleGetMatch)
	r.Patch("/matches/{matchID}", h.handleUpdateMatch)
	r.Delete("/matches/{matchID}", h.handleDeleteMatch)
	r.Put("/matches/{matchID}/status", h.handleTransition)
	r.Put("/matches/{matchID}/release", h.handleSetRelease)
	r.Post("/matches/{matchID}/teams", h.handleAddTeam)
	r.Patch("/teams/{teamID}", h.handleUpdateTeam)
	r.Delete("/teams/{teamID}", h.handleRemoveTeam)
}

func (h *Handler) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seriesID, err := id.ParseSeriesID(chi.URLParam(r, "seriesID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[MatchDetailsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.CreateMatch(ctx, seriesID, req.details())
	if err != nil {
		h.fail(w, r, "create match failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleListMatches(w http.ResponseWriter, r *http.Request) {
	seriesID, err := id.ParseSeriesID(chi.URLParam(r, "seriesID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	matches, err := h.service.ListMatches(r.Context(), seriesID)
	if err != nil {
		h.fail(w, r, "list matches failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (h *Handler) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchParam(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetMatch(r.Context(), matchID)
	if err != nil {
		h.fail(w, r, "get match failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matchID, ok := matchParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MatchDetailsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	m, err := h.service.UpdateMatch(ctx, matchID, req.details())
	if err != nil {
		h.fail(w, r, "update match failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteMatch(r.Context(), matchID); err != nil {
		h.fail(w, r, "delete match failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matchID, ok := matchParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	m, err := h.service.Transition(ctx, matchID, req.Status)
	if err != nil {
		h.fail(w, r, "match transition failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleSetRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matchID, ok := matchParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReleaseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	m, err := h.service.SetRelease(ctx, matchID, req.Gate, *req.Released)
	if err != nil {
		h.fail(w, r, "release toggle failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleAddTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matchID, ok := matchParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddTeamRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	team, err := h.service.AddTeam(ctx, matchID, req.position, req.TeamName, req.Institution)
	if err != nil {
		h.fail(w, r, "add team failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, team)
}

func (h *Handler) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateTeamRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	team, err := h.service.UpdateTeam(ctx, teamID, match.UpdateTeamRequest{TeamName: req.TeamName, Institution: req.Institution})
	if err != nil {
		h.fail(w, r, "update team failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) handleRemoveTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := id.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveTeam(r.Context(), teamID); err != nil {
		h.fail(w, r, "remove team failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func matchParam(w http.ResponseWriter, r *http.Request) (id.MatchID, bool) {
	matchID, err := id.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.MatchID{}, false
	}
	return matchID, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
