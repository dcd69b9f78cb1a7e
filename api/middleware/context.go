package middleware

import (
	"context"
	"strings"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

type contextKey string

const (
	ctxActor     contextKey = "actor"
	ctxStaffID   contextKey = "staff_id"
	ctxRole      contextKey = "staff_role"
	ctxSessionID contextKey = "session_id"
)

// ActorFromContext returns the authenticated staff username. Controllers pass
// it explicitly to every mutating service call.
func ActorFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxActor)
}

// RequireActor fails with CodeUnauthorized when the request carries no staff identity.
func RequireActor(ctx context.Context) (string, error) {
	actor := strings.TrimSpace(ActorFromContext(ctx))
	if actor == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity missing")
	}
	return actor, nil
}

func StaffIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxStaffID)
}

func RoleFromContext(ctx context.Context) enums.StaffRole {
	return enums.StaffRole(stringValue(ctx, ctxRole))
}

// SessionIDFromContext returns the access token jti, used by logout.
func SessionIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxSessionID)
}

// WithStaff seeds the request context with an authenticated identity.
func WithStaff(ctx context.Context, staffID, actor string, role enums.StaffRole, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxStaffID, staffID)
	ctx = context.WithValue(ctx, ctxActor, actor)
	ctx = context.WithValue(ctx, ctxRole, string(role))
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
