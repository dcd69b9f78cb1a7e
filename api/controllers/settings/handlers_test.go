package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/internal/settings"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

type stubSettingsService struct {
	settings.Service
	key, value, actor string
}

func (s *stubSettingsService) Set(_ context.Context, key, value, actor string, description *string) (*models.SystemSetting, error) {
	s.key, s.value, s.actor = key, value, actor
	if key == "deposit_rate" && value == "1.5" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid setting value")
	}
	return &models.SystemSetting{Key: key, Value: value, UpdatedBy: &actor}, nil
}

func (s *stubSettingsService) All(context.Context) ([]models.SystemSetting, error) {
	return []models.SystemSetting{{Key: "check_in_time", Value: "14:00"}}, nil
}

func setRequestFor(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	ctx := middleware.WithStaff(req.Context(), uuid.NewString(), "boss", enums.StaffRoleManager, "jti")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("key", key)
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func TestSettingsSet(t *testing.T) {
	svc := &stubSettingsService{}
	resp := httptest.NewRecorder()
	SettingsSet(svc, nil).ServeHTTP(resp, setRequestFor("deposit_rate", `{"value":"0.25"}`))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "deposit_rate", svc.key)
	assert.Equal(t, "boss", svc.actor)
	assert.Contains(t, resp.Body.String(), `"updated_by":"boss"`)

	resp = httptest.NewRecorder()
	SettingsSet(svc, nil).ServeHTTP(resp, setRequestFor("deposit_rate", `{"value":"1.5"}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSettingsList(t *testing.T) {
	resp := httptest.NewRecorder()
	SettingsList(&stubSettingsService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"check_in_time"`)
}
