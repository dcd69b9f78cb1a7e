// Package staff owns employee accounts, password checks and the JWT sessions
// whose subject becomes the actor on every mutating call.
package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/auth"
	"github.com/angelmondragon/innkeeper-backend/pkg/config"
	"github.com/angelmondragon/innkeeper-backend/pkg/db"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/security"
)

const (
	tempPasswordLength   = 12
	defaultLoginAttempts = 5
	defaultLoginWindow   = 15 * time.Minute
	systemActor          = "system"
)

// SessionStore keeps the refresh token bound to each access token jti.
type SessionStore interface {
	Generate(ctx context.Context, accessID string, staffID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID string, staffID uuid.UUID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// AttemptLimiter throttles password guesses per username.
type AttemptLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type Service interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, accessID string) error
	Create(ctx context.Context, input CreateInput, actor string) (*models.Staff, error)
	ResetPassword(ctx context.Context, username, actor string) (string, error)
	SetActive(ctx context.Context, username string, active bool, actor string) (*models.Staff, error)
	List(ctx context.Context) ([]models.Staff, error)
	Bootstrap(ctx context.Context, username, password string) (bool, error)
}

type CreateInput struct {
	Username string
	Password string
	Role     enums.StaffRole
}

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Staff        *models.Staff
}

type ServiceParams struct {
	Repo          Repository
	Sessions      SessionStore
	Limiter       AttemptLimiter
	JWT           config.JWTConfig
	Password      config.PasswordConfig
	LoginAttempts int
	LoginWindow   time.Duration
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	repo          Repository
	sessions      SessionStore
	limiter       AttemptLimiter
	jwtCfg        config.JWTConfig
	passwordCfg   config.PasswordConfig
	loginAttempts int64
	loginWindow   time.Duration
	logg          *logger.Logger
	now           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("staff repository required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("session store required")
	case params.JWT.Secret == "":
		return nil, fmt.Errorf("jwt secret required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	attempts := params.LoginAttempts
	if attempts <= 0 {
		attempts = defaultLoginAttempts
	}
	window := params.LoginWindow
	if window <= 0 {
		window = defaultLoginWindow
	}
	return &service{
		repo:          params.Repo,
		sessions:      params.Sessions,
		limiter:       params.Limiter,
		jwtCfg:        params.JWT,
		passwordCfg:   params.Password,
		loginAttempts: int64(attempts),
		loginWindow:   window,
		logg:          params.Logger,
		now:           now,
	}, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	if err := s.throttle(ctx, username); err != nil {
		return nil, err
	}

	member, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup staff")
	}
	ok, err := security.VerifyPassword(password, member.PasswordHash)
	if err != nil || !ok || !member.IsActive {
		return nil, invalidCredentials()
	}

	now := s.now().UTC()
	updates := map[string]any{"last_login_at": now}
	if security.NeedsRehash(member.PasswordHash, s.passwordCfg) {
		if hash, hashErr := security.HashPassword(password, s.passwordCfg); hashErr == nil {
			updates["password_hash"] = hash
			member.PasswordHash = hash
		}
	}
	if err := s.repo.Update(ctx, member.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	member.LastLoginAt = &now

	accessID := uuid.NewString()
	refresh, err := s.sessions.Generate(ctx, accessID, member.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	return s.issue(member, accessID, refresh, now)
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*LoginResult, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access and refresh tokens are required")
	}
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	member, err := s.repo.FindByID(ctx, claims.StaffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup staff")
	}
	if !member.IsActive {
		_ = s.sessions.Revoke(ctx, claims.ID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff account is inactive")
	}

	accessID, refresh, err := s.sessions.Rotate(ctx, claims.ID, member.ID, refreshToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "refresh rejected")
	}
	return s.issue(member, accessID, refresh, s.now().UTC())
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateInput, actor string) (*models.Staff, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	username := normalizeUsername(input.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid staff role %q", input.Role))
	}
	if err := security.ValidatePassword(input.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	member := &models.Staff{
		Username:     username,
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create staff")
	}
	s.info(ctx, actor, "staff account created", map[string]any{"username": username, "role": input.Role})
	return member, nil
}

func (s *service) ResetPassword(ctx context.Context, username, actor string) (string, error) {
	if err := requireActor(actor); err != nil {
		return "", err
	}
	member, err := s.find(ctx, username)
	if err != nil {
		return "", err
	}
	temp, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(temp, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.Update(ctx, member.ID, map[string]any{"password_hash": hash}); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset password")
	}
	s.info(ctx, actor, "staff password reset", map[string]any{"username": member.Username})
	return temp, nil
}

func (s *service) SetActive(ctx context.Context, username string, active bool, actor string) (*models.Staff, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	member, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	if member.Username == normalizeUsername(actor) && !active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff cannot deactivate their own account")
	}
	if member.IsActive == active {
		return member, nil
	}
	if err := s.repo.Update(ctx, member.ID, map[string]any{"is_active": active}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update staff")
	}
	member.IsActive = active
	s.info(ctx, actor, "staff access changed", map[string]any{"username": member.Username, "active": active})
	return member, nil
}

func (s *service) List(ctx context.Context) ([]models.Staff, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}
	return members, nil
}

// Bootstrap creates the first manager when the staff table is empty.
func (s *service) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count staff")
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, CreateInput{Username: username, Password: password, Role: enums.StaffRoleManager}, systemActor); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) issue(member *models.Staff, accessID, refresh string, now time.Time) (*LoginResult, error) {
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		StaffID:  member.ID,
		Username: member.Username,
		Role:     member.Role,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &LoginResult{
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		Staff:        member,
	}, nil
}

func (s *service) throttle(ctx context.Context, username string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:"+username, s.loginAttempts, s.loginWindow)
	if err != nil {
		// fails open when Redis is unreachable
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "username", username), "login limiter unavailable", err)
		}
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimited, "too many login attempts")
	}
	return nil
}

func (s *service) find(ctx context.Context, username string) (*models.Staff, error) {
	member, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "staff member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup staff")
	}
	return member, nil
}

func (s *service) info(ctx context.Context, actor, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithActor(ctx, actor)
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid username or password")
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	return nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 64 {
		return pkgerrors.New(pkgerrors.CodeValidation, "username must be 3-64 characters")
	}
	for _, r := range username {
		if unicode.IsSpace(r) {
			return pkgerrors.New(pkgerrors.CodeValidation, "username cannot contain spaces")
		}
	}
	return nil
}
