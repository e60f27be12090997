package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tabrela/internal/models"
	"tabrela/internal/tabulation"
	"tabrela/internal/tabulation/handler/mocks"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/requestcontext"
)

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(mockService, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, mockService
}

func TestViewResults(t *testing.T) {
	r, svc := newTestRouter(t)
	matchID := id.NewMatchID()
	svc.EXPECT().View(gomock.Any(), matchID).Return(&tabulation.View{MatchID: matchID, Status: models.MatchCompleted}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/matches/"+matchID.String()+"/results", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed"`)
}

func TestResolveManually(t *testing.T) {
	t.Run("ranks are forwarded", func(t *testing.T) {
		r, svc := newTestRouter(t)
		matchID := id.NewMatchID()
		gov, opp := id.NewTeamID(), id.NewTeamID()
		svc.EXPECT().ResolveManually(gomock.Any(), matchID, map[id.TeamID]int{gov: 2, opp: 1}).
			Return(&models.TabulationResult{MatchID: matchID, Status: models.TabulationResolved}, nil)

		body := `{"ranks":[{"team_id":"` + gov.String() + `","rank":2},{"team_id":"` + opp.String() + `","rank":1}]}`
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/matches/"+matchID.String()+"/results/ranks", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("duplicate team", func(t *testing.T) {
		r, _ := newTestRouter(t)
		team := id.NewTeamID()
		body := `{"ranks":[{"team_id":"` + team.String() + `","rank":1},{"team_id":"` + team.String() + `","rank":2}]}`
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/matches/"+id.NewMatchID().String()+"/results/ranks", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("resolved match", func(t *testing.T) {
		r, svc := newTestRouter(t)
		matchID := id.NewMatchID()
		svc.EXPECT().ResolveManually(gomock.Any(), matchID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflictingState, "only unresolved tabulations can be resolved manually"))

		body := `{"ranks":[{"team_id":"` + id.NewTeamID().String() + `","rank":1}]}`
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/matches/"+matchID.String()+"/results/ranks", strings.NewReader(body)))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestPerformance(t *testing.T) {
	t.Run("me resolves to the caller", func(t *testing.T) {
		r, svc := newTestRouter(t)
		caller := id.NewUserID()
		svc.EXPECT().Performance(gomock.Any(), caller, (*id.EventID)(nil)).
			Return(&models.UserPerformance{UserID: caller}, nil)

		req := httptest.NewRequest(http.MethodGet, "/users/me/performance", nil)
		req = req.WithContext(requestcontext.WithUserID(req.Context(), caller))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("event filter", func(t *testing.T) {
		r, svc := newTestRouter(t)
		userID := id.NewUserID()
		eventID := id.NewEventID()
		svc.EXPECT().Performance(gomock.Any(), userID, &eventID).Return(&models.UserPerformance{UserID: userID}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/"+userID.String()+"/performance?event_id="+eventID.String(), nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad event id", func(t *testing.T) {
		r, _ := newTestRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/"+id.NewUserID().String()+"/performance?event_id=nope", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecomputeRequiresAdmin(t *testing.T) {
	r, svc := newTestRouter(t)
	matchID := id.NewMatchID()
	svc.EXPECT().Recompute(gomock.Any(), matchID).Return(nil, dErrors.New(dErrors.CodeForbidden, "admin capability required"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/matches/"+matchID.String()+"/results/recompute", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
