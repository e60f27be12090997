package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tabrela/internal/models"
	"tabrela/internal/registry"
	"tabrela/internal/registry/handler/mocks"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

type RegistryHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestRegistryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryHandlerSuite))
}

func (s *RegistryHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *RegistryHandlerSuite) serve(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	return w
}

func (s *RegistryHandlerSuite) TestCreateEventDefaultsType() {
	date := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	s.service.EXPECT().CreateEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req registry.CreateEventRequest) (*models.Event, error) {
			s.Equal("Spring Open", req.Title)
			s.Equal(models.EventOther, req.Type)
			s.True(date.Equal(req.Date))
			return &models.Event{ID: id.NewEventID(), Title: req.Title, Type: req.Type, Date: req.Date}, nil
		})

	w := s.serve(http.MethodPost, "/events", `{"title":" Spring Open ","event_date":"2026-03-14T18:00:00Z"}`)

	s.Equal(http.StatusCreated, w.Code)
	var ev models.Event
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &ev))
	s.Equal(models.EventOther, ev.Type)
}

func (s *RegistryHandlerSuite) TestCreateEventValidation() {
	w := s.serve(http.MethodPost, "/events", `{"title":"   ","event_date":"2026-03-14T18:00:00Z"}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.serve(http.MethodPost, "/events", `{"title":"Open"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RegistryHandlerSuite) TestListEvents() {
	s.service.EXPECT().ListEvents(gomock.Any()).Return([]*models.Event{{ID: id.NewEventID(), Title: "A"}}, nil)

	w := s.serve(http.MethodGet, "/events", "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"events"`)
}

func (s *RegistryHandlerSuite) TestLockEvent() {
	eventID := id.NewEventID()
	s.service.EXPECT().SetLocked(gomock.Any(), eventID, true).Return(&models.Event{ID: eventID, IsLocked: true}, nil)

	w := s.serve(http.MethodPut, "/events/"+eventID.String()+"/lock", `{"locked":true}`)
	s.Equal(http.StatusOK, w.Code)

	w = s.serve(http.MethodPut, "/events/"+eventID.String()+"/lock", `{}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RegistryHandlerSuite) TestCreateSeriesOnLockedEvent() {
	eventID := id.NewEventID()
	s.service.EXPECT().CreateSeries(gomock.Any(), eventID, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflictingState, "event is locked"))

	w := s.serve(http.MethodPost, "/events/"+eventID.String()+"/series", `{"name":"Round 1","team_format":"two_team"}`)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *RegistryHandlerSuite) TestUpdateSeriesExclusiveRoundFields() {
	w := s.serve(http.MethodPatch, "/series/"+id.NewSeriesID().String(), `{"round_number":2,"clear_round_number":true}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RegistryHandlerSuite) TestFormatChangeFrozen() {
	seriesID := id.NewSeriesID()
	s.service.EXPECT().UpdateSeries(gomock.Any(), seriesID, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflictingState, "team format is frozen once allocations exist"))

	w := s.serve(http.MethodPatch, "/series/"+seriesID.String(), `{"team_format":"four_team"}`)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *RegistryHandlerSuite) TestGetSeriesNotFound() {
	seriesID := id.NewSeriesID()
	s.service.EXPECT().GetSeries(gomock.Any(), seriesID).Return(nil, dErrors.New(dErrors.CodeNotFound, "series not found"))

	w := s.serve(http.MethodGet, "/series/"+seriesID.String(), "")
	s.Equal(http.StatusNotFound, w.Code)
}
