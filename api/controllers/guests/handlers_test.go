package guests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/internal/guests"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

type stubGuestService struct {
	guests.Service
	created guests.CreateInput
	email   string
}

func (s *stubGuestService) Create(_ context.Context, input guests.CreateInput) (*models.Guest, error) {
	s.created = input
	return &models.Guest{ID: uuid.New(), FullName: input.FullName, Email: input.Email}, nil
}

func (s *stubGuestService) FindGuestByEmail(_ context.Context, email string) (*models.Guest, error) {
	s.email = email
	if email != "ana@example.com" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guest not found")
	}
	return &models.Guest{ID: uuid.New(), FullName: "Ana", Email: &email}, nil
}

func TestGuestCreateNormalizesEmail(t *testing.T) {
	svc := &stubGuestService{}
	resp := httptest.NewRecorder()
	GuestCreate(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"full_name":"Ana Lopez","email":" Ana@Example.com "}`)))

	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, svc.created.Email)
	assert.Equal(t, "ana@example.com", *svc.created.Email)
	assert.Contains(t, resp.Body.String(), `"full_name":"Ana Lopez"`)

	resp = httptest.NewRecorder()
	GuestCreate(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"full_name":"Ana","email":"not-an-email"}`)))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGuestLookup(t *testing.T) {
	svc := &stubGuestService{}
	resp := httptest.NewRecorder()
	GuestLookup(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?email=ANA@example.com", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ana@example.com", svc.email)

	resp = httptest.NewRecorder()
	GuestLookup(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?email=bob@example.com", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	GuestLookup(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
