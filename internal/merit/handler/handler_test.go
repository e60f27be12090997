package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tabrela/internal/merit/handler/mocks"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

func TestEmailVerifiedWebhook(t *testing.T) {
	userID := id.NewUserID()
	body := `{"user_id":"` + userID.String() + `","email_verified":true}`

	tests := []struct {
		name       string
		body       string
		setup      func(m *mocks.MockInitializer)
		wantStatus int
	}{
		{
			name: "first delivery creates the ledger row",
			body: body,
			setup: func(m *mocks.MockInitializer) {
				m.EXPECT().OnEmailVerified(gomock.Any(), userID, true).Return(true, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "repeat delivery is a no-op",
			body: body,
			setup: func(m *mocks.MockInitializer) {
				m.EXPECT().OnEmailVerified(gomock.Any(), userID, true).Return(false, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing user",
			body:       `{"email_verified":true}`,
			setup:      func(*mocks.MockInitializer) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "storage failure",
			body: body,
			setup: func(m *mocks.MockInitializer) {
				m.EXPECT().OnEmailVerified(gomock.Any(), userID, true).
					Return(false, dErrors.Wrap(errors.New("connection reset"), dErrors.CodeInternal, "failed to create merit ledger entry"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			initializer := mocks.NewMockInitializer(ctrl)
			tt.setup(initializer)
			r := chi.NewRouter()
			New(initializer, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/email-verified", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
