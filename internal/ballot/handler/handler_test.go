package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tabrela/internal/ballot"
	"tabrela/internal/ballot/handler/mocks"
	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(mockService, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, mockService
}

func serve(r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	return w
}

func TestSubmitScore(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		r, svc := newTestRouter(t)
		ballotID := id.NewBallotID()
		speaker := id.NewAllocationID()
		svc.EXPECT().SubmitScore(gomock.Any(), ballotID, ballot.ScoreEntry{AllocationID: speaker, Score: 75.5, Feedback: "clear"}).
			Return(&models.SpeakerScore{BallotID: ballotID, AllocationID: speaker, Score: 75.5}, nil)

		w := serve(r, http.MethodPut, "/ballots/"+ballotID.String()+"/scores",
			`{"allocation_id":"`+speaker.String()+`","score":75.5,"feedback":"clear"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"score":75.5`)
	})

	t.Run("out of range", func(t *testing.T) {
		r, _ := newTestRouter(t)
		w := serve(r, http.MethodPut, "/ballots/"+id.NewBallotID().String()+"/scores",
			`{"allocation_id":"`+id.NewAllocationID().String()+`","score":101}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "out_of_range")
	})

	t.Run("missing score", func(t *testing.T) {
		r, _ := newTestRouter(t)
		w := serve(r, http.MethodPut, "/ballots/"+id.NewBallotID().String()+"/scores",
			`{"allocation_id":"`+id.NewAllocationID().String()+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("submitted ballot is immutable", func(t *testing.T) {
		r, svc := newTestRouter(t)
		ballotID := id.NewBallotID()
		svc.EXPECT().SubmitScore(gomock.Any(), ballotID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflictingState, "ballot has already been submitted"))

		w := serve(r, http.MethodPut, "/ballots/"+ballotID.String()+"/scores",
			`{"allocation_id":"`+id.NewAllocationID().String()+`","score":70}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSubmitCombined(t *testing.T) {
	r, svc := newTestRouter(t)
	ballotID := id.NewBallotID()
	speaker := id.NewAllocationID()
	team := id.NewTeamID()
	svc.EXPECT().Submit(gomock.Any(), ballotID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.BallotID, req ballot.SubmitRequest) (*models.BallotSheet, error) {
			require.Len(t, req.Scores, 1)
			require.Len(t, req.Rankings, 1)
			assert.Equal(t, speaker, req.Scores[0].AllocationID)
			assert.Equal(t, team, req.Rankings[0].TeamID)
			require.NotNil(t, req.Rankings[0].IsWinner)
			assert.True(t, *req.Rankings[0].IsWinner)
			assert.True(t, req.Finalize)
			return &models.BallotSheet{Ballot: &models.Ballot{ID: ballotID, IsSubmitted: true}}, nil
		})

	body := `{"scores":[{"allocation_id":"` + speaker.String() + `","score":72}],` +
		`"rankings":[{"team_id":"` + team.String() + `","rank":1,"is_winner":true}],"finalize":true}`
	w := serve(r, http.MethodPut, "/ballots/"+ballotID.String(), body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFinalizeIncomplete(t *testing.T) {
	r, svc := newTestRouter(t)
	ballotID := id.NewBallotID()
	svc.EXPECT().Finalize(gomock.Any(), ballotID).
		Return(nil, dErrors.New(dErrors.CodeValidation, "ballot is incomplete").WithDetails("ranking:abc"))

	w := serve(r, http.MethodPost, "/ballots/"+ballotID.String()+"/finalize", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ranking:abc")
}

func TestRankingOutOfRange(t *testing.T) {
	r, _ := newTestRouter(t)
	w := serve(r, http.MethodPut, "/ballots/"+id.NewBallotID().String()+"/rankings",
		`{"team_id":"`+id.NewTeamID().String()+`","rank":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedback(t *testing.T) {
	r, svc := newTestRouter(t)
	ballotID := id.NewBallotID()
	svc.EXPECT().SubmitFeedback(gomock.Any(), ballotID, "good round").
		Return(&models.Ballot{ID: ballotID, IsSubmitted: true}, nil)

	w := serve(r, http.MethodPost, "/ballots/"+ballotID.String()+"/feedback", `{"notes":"good round"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetBallotForbidden(t *testing.T) {
	r, svc := newTestRouter(t)
	ballotID := id.NewBallotID()
	svc.EXPECT().Get(gomock.Any(), ballotID).
		Return(nil, dErrors.New(dErrors.CodeForbidden, "only the adjudicator or an admin may access this ballot"))

	w := serve(r, http.MethodGet, "/ballots/"+ballotID.String(), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMineAndList(t *testing.T) {
	r, svc := newTestRouter(t)
	matchID := id.NewMatchID()
	svc.EXPECT().Mine(gomock.Any(), matchID).Return(&models.BallotSheet{Ballot: &models.Ballot{MatchID: matchID}}, nil)
	svc.EXPECT().ListForMatch(gomock.Any(), matchID).Return([]*models.BallotSheet{}, nil)

	w := serve(r, http.MethodGet, "/matches/"+matchID.String()+"/ballots/mine", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(r, http.MethodGet, "/matches/"+matchID.String()+"/ballots", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ballots"`)
}
