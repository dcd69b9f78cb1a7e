package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/internal/settings"
	"github.com/angelmondragon/innkeeper-backend/pkg/auth"
	"github.com/angelmondragon/innkeeper-backend/pkg/config"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
)

type openSessions struct{}

func (openSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubSettings struct {
	settings.Service
}

func (stubSettings) All(context.Context) ([]models.SystemSetting, error) {
	return []models.SystemSetting{{Key: "check_in_time", Value: "14:00", UpdatedAt: time.Now()}}, nil
}

type blockingLimiter struct{}

func (blockingLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return false, 99, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:   config.AppConfig{Env: "dev", Port: "8080"},
		JWT:   config.JWTConfig{Secret: "router-secret", Issuer: "innkeeper", ExpirationMinutes: 60},
		Staff: config.StaffConfig{LoginWindow: time.Minute, LoginIPLimit: 5},
	}
}

func newTestRouter(t *testing.T, deps Deps) (*config.Config, http.Handler) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	deps.Gatherer = reg
	deps.HTTPMetrics = metrics.NewHTTPMetrics(reg)
	if deps.Sessions == nil {
		deps.Sessions = openSessions{}
	}
	return cfg, NewRouter(cfg, nil, deps)
}

func bearer(t *testing.T, cfg *config.Config, role enums.StaffRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		StaffID:  uuid.New(),
		Username: "router-" + string(role),
		Role:     role,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(router http.Handler, method, path, authHeader, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	_, router := newTestRouter(t, Deps{})

	resp := serve(router, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get("X-Innkeeper-Env"))

	resp = serve(router, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code, "missing dependencies are not ready")
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	_, router := newTestRouter(t, Deps{})
	serve(router, http.MethodGet, "/health/live", "", "")

	resp := serve(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/health/live")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, router := newTestRouter(t, Deps{})

	for _, path := range []string{"/api/v1/reservations", "/api/v1/rooms", "/api/v1/settings", "/api/v1/inventory/items"} {
		resp := serve(router, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

func TestRoleGates(t *testing.T) {
	cfg, router := newTestRouter(t, Deps{Settings: stubSettings{}})

	housekeeping := bearer(t, cfg, enums.StaffRoleHousekeeping)
	frontDesk := bearer(t, cfg, enums.StaffRoleFrontDesk)
	manager := bearer(t, cfg, enums.StaffRoleManager)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"housekeeping cannot read reservations", http.MethodGet, "/api/v1/reservations", housekeeping, http.StatusForbidden},
		{"front desk cannot change settings", http.MethodGet, "/api/v1/settings", frontDesk, http.StatusForbidden},
		{"front desk cannot create rooms", http.MethodPost, "/api/v1/rooms", frontDesk, http.StatusForbidden},
		{"front desk cannot delete reservations", http.MethodDelete, "/api/v1/reservations/" + uuid.NewString(), frontDesk, http.StatusForbidden},
		{"housekeeping cannot configure consumption", http.MethodPut, "/api/v1/rooms/" + uuid.NewString() + "/consumption/" + uuid.NewString(), housekeeping, http.StatusForbidden},
		{"manager reads settings", http.MethodGet, "/api/v1/settings", manager, http.StatusOK},
		{"housekeeping reaches room reads", http.MethodGet, "/api/v1/rooms", housekeeping, http.StatusInternalServerError},
		{"front desk reaches reservations", http.MethodGet, "/api/v1/reservations", frontDesk, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := serve(router, tc.method, tc.path, tc.token, "")
			assert.Equal(t, tc.status, resp.Code, resp.Body.String())
		})
	}
}

func TestManagerSettingsPayload(t *testing.T) {
	cfg, router := newTestRouter(t, Deps{Settings: stubSettings{}})

	resp := serve(router, http.MethodGet, "/api/v1/settings", bearer(t, cfg, enums.StaffRoleManager), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"check_in_time"`)
}

func TestLoginIsThrottledBeforeTheHandler(t *testing.T) {
	_, router := newTestRouter(t, Deps{RateLimiter: blockingLimiter{}})

	resp := serve(router, http.MethodPost, "/api/v1/auth/login", "", `{"username":"maria","password":"welcome123"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestLoginWithoutStaffServiceIsUnavailable(t *testing.T) {
	_, router := newTestRouter(t, Deps{})

	resp := serve(router, http.MethodPost, "/api/v1/auth/login", "", `{"username":"maria","password":"welcome123"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
