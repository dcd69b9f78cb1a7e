package staff

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/pkg/auth"
	"github.com/angelmondragon/innkeeper-backend/pkg/config"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

var (
	testJWT      = config.JWTConfig{Secret: "test-secret", Issuer: "innkeeper", ExpirationMinutes: 60}
	testPassword = config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	fixedNow     = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
)

type memorySessions struct {
	sessions map[string]string
	owners   map[string]uuid.UUID
	seq      int
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]string{}, owners: map[string]uuid.UUID{}}
}

func (m *memorySessions) Generate(_ context.Context, accessID string, staffID uuid.UUID) (string, error) {
	m.seq++
	token := fmt.Sprintf("refresh-%d", m.seq)
	m.sessions[accessID] = token
	m.owners[accessID] = staffID
	return token, nil
}

func (m *memorySessions) Rotate(ctx context.Context, oldAccessID string, staffID uuid.UUID, provided string) (string, string, error) {
	if m.sessions[oldAccessID] != provided || m.owners[oldAccessID] != staffID {
		return "", "", fmt.Errorf("invalid refresh token")
	}
	delete(m.sessions, oldAccessID)
	next := uuid.NewString()
	token, err := m.Generate(ctx, next, staffID)
	return next, token, err
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	delete(m.sessions, accessID)
	return nil
}

type countingLimiter struct {
	counts map[string]int64
}

func (l *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	l.counts[scope]++
	return l.counts[scope] <= limit, l.counts[scope], nil
}

type fixture struct {
	svc      Service
	repo     Repository
	sessions *memorySessions
	limiter  *countingLimiter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t, &models.Staff{})
	repo := NewRepository(conn)
	sessions := newMemorySessions()
	limiter := &countingLimiter{counts: map[string]int64{}}
	svc, err := NewService(ServiceParams{
		Repo:          repo,
		Sessions:      sessions,
		Limiter:       limiter,
		JWT:           testJWT,
		Password:      testPassword,
		LoginAttempts: 3,
		Now:           func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, sessions: sessions, limiter: limiter}
}

func (f *fixture) create(t *testing.T, username string, role enums.StaffRole) *models.Staff {
	t.Helper()
	member, err := f.svc.Create(context.Background(), CreateInput{Username: username, Password: "welcome123", Role: role}, "manager")
	require.NoError(t, err)
	return member
}

func TestLoginIssuesTokenWithActorSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.create(t, "  Maria ", enums.StaffRoleFrontDesk)
	assert.Equal(t, "maria", member.Username)

	res, err := f.svc.Login(ctx, "MARIA", "welcome123")
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Hour), res.ExpiresAt)
	require.NotNil(t, res.Staff.LastLoginAt)

	claims, err := auth.ParseAccessTokenAllowExpired(testJWT, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "maria", claims.Actor())
	assert.Equal(t, member.ID, claims.StaffID)
	assert.Equal(t, enums.StaffRoleFrontDesk, claims.Role)
	assert.Equal(t, res.RefreshToken, f.sessions.sessions[claims.ID])

	stored, err := f.repo.FindByID(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.Equal(fixedNow))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "maria", enums.StaffRoleFrontDesk)

	_, err := f.svc.Login(ctx, "maria", "wrongpass1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.Login(ctx, "nobody", "welcome123")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.Login(ctx, "", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.SetActive(ctx, "maria", false, "manager")
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "maria", "welcome123")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "inactive staff cannot log in")
	assert.Empty(t, f.sessions.sessions)
}

func TestLoginThrottled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "maria", enums.StaffRoleFrontDesk)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(ctx, "maria", "wrongpass1")
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	}
	_, err := f.svc.Login(ctx, "maria", "welcome123")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimited))
	assert.EqualValues(t, 4, f.limiter.counts["login:maria"])
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.create(t, "ana", enums.StaffRoleManager)

	stronger := testPassword
	stronger.ArgonTime = 2
	svc, err := NewService(ServiceParams{Repo: f.repo, Sessions: f.sessions, JWT: testJWT, Password: stronger, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana", "welcome123")
	require.NoError(t, err)

	stored, err := f.repo.FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.NotEqual(t, member.PasswordHash, stored.PasswordHash)
	assert.Contains(t, stored.PasswordHash, ",t=2,")
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "maria", enums.StaffRoleFrontDesk)

	first, err := f.svc.Login(ctx, "maria", "welcome123")
	require.NoError(t, err)
	firstClaims, err := auth.ParseAccessTokenAllowExpired(testJWT, first.AccessToken)
	require.NoError(t, err)

	second, err := f.svc.Refresh(ctx, first.AccessToken, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotContains(t, f.sessions.sessions, firstClaims.ID)

	_, err = f.svc.Refresh(ctx, first.AccessToken, first.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "refresh token is single use")

	_, err = f.svc.Refresh(ctx, "garbage", second.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	secondClaims, err := auth.ParseAccessTokenAllowExpired(testJWT, second.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, secondClaims.ID))
	assert.Empty(t, f.sessions.sessions)

	assert.True(t, pkgerrors.IsCode(f.svc.Logout(ctx, " "), pkgerrors.CodeValidation))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "maria", enums.StaffRoleFrontDesk)

	cases := []struct {
		name  string
		input CreateInput
		actor string
		code  pkgerrors.Code
	}{
		{"missing actor", CreateInput{Username: "joe", Password: "welcome123", Role: enums.StaffRoleFrontDesk}, "", pkgerrors.CodeValidation},
		{"short username", CreateInput{Username: "jo", Password: "welcome123", Role: enums.StaffRoleFrontDesk}, "manager", pkgerrors.CodeValidation},
		{"spaced username", CreateInput{Username: "jo e", Password: "welcome123", Role: enums.StaffRoleFrontDesk}, "manager", pkgerrors.CodeValidation},
		{"bad role", CreateInput{Username: "joe", Password: "welcome123", Role: "owner"}, "manager", pkgerrors.CodeValidation},
		{"weak password", CreateInput{Username: "joe", Password: "password", Role: enums.StaffRoleFrontDesk}, "manager", pkgerrors.CodeValidation},
		{"duplicate", CreateInput{Username: "MARIA", Password: "welcome123", Role: enums.StaffRoleFrontDesk}, "manager", pkgerrors.CodeConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.input, tc.actor)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestResetPasswordAndSetActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "maria", enums.StaffRoleFrontDesk)
	f.create(t, "boss", enums.StaffRoleManager)

	temp, err := f.svc.ResetPassword(ctx, "maria", "boss")
	require.NoError(t, err)
	assert.Len(t, temp, 12)

	_, err = f.svc.Login(ctx, "maria", "welcome123")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.svc.Login(ctx, "maria", temp)
	require.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, "ghost", "boss")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.SetActive(ctx, "boss", false, "boss")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	member, err := f.svc.SetActive(ctx, "maria", false, "boss")
	require.NoError(t, err)
	assert.False(t, member.IsActive)

	members, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "boss", members[0].Username)
}

func TestBootstrapOnlyWhenEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Bootstrap(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = f.svc.Bootstrap(ctx, "owner", "firstlogin1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.Bootstrap(ctx, "second", "firstlogin1")
	require.NoError(t, err)
	assert.False(t, created)

	res, err := f.svc.Login(ctx, "owner", "firstlogin1")
	require.NoError(t, err)
	assert.Equal(t, enums.StaffRoleManager, res.Staff.Role)
}
