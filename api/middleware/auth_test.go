package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/pkg/auth"
	"github.com/angelmondragon/innkeeper-backend/pkg/auth/session"
	"github.com/angelmondragon/innkeeper-backend/pkg/config"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "innkeeper", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}

func mintTestToken(t *testing.T, staffID uuid.UUID, username string, role enums.StaffRole) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		StaffID:  staffID,
		Username: username,
		Role:     role,
		JTI:      accessID,
	})
	require.NoError(t, err)
	return token, accessID
}

func serveAuth(verifier session.AccessSessionChecker, header string, next http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp := httptest.NewRecorder()
	Auth(testJWT, verifier, nil)(next).ServeHTTP(resp, req)
	return resp
}

func TestAuthRejectsMissingOrInvalidToken(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request) { t.Fatal("handler must not run") }

	assert.Equal(t, http.StatusUnauthorized, serveAuth(stubSessionVerifier{ok: true}, "", next).Code)
	assert.Equal(t, http.StatusUnauthorized, serveAuth(stubSessionVerifier{ok: true}, "Bearer invalid", next).Code)
}

func TestAuthSeedsStaffIdentity(t *testing.T) {
	staffID := uuid.New()
	token, accessID := mintTestToken(t, staffID, "maria", enums.StaffRoleFrontDesk)

	var actor, id, sessionID string
	var role enums.StaffRole
	resp := serveAuth(stubSessionVerifier{ok: true}, "bearer "+token, func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFromContext(r.Context())
		id = StaffIDFromContext(r.Context())
		role = RoleFromContext(r.Context())
		sessionID = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "maria", actor)
	assert.Equal(t, staffID.String(), id)
	assert.Equal(t, enums.StaffRoleFrontDesk, role)
	assert.Equal(t, accessID, sessionID)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token, _ := mintTestToken(t, uuid.New(), "maria", enums.StaffRoleFrontDesk)
	next := func(w http.ResponseWriter, r *http.Request) { t.Fatal("handler must not run") }

	assert.Equal(t, http.StatusUnauthorized, serveAuth(stubSessionVerifier{ok: false}, "Bearer "+token, next).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serveAuth(stubSessionVerifier{err: errors.New("redis down")}, "Bearer "+token, next).Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, enums.StaffRoleHousekeeping)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		role enums.StaffRole
		want int
	}{
		{enums.StaffRoleHousekeeping, http.StatusNoContent},
		{enums.StaffRoleManager, http.StatusNoContent},
		{enums.StaffRoleFrontDesk, http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithStaff(req.Context(), uuid.NewString(), "someone", tc.role, "jti"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		assert.Equal(t, tc.want, resp.Code, "role %q", tc.role)
	}
}
