package auth

import (
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the staff identity embedded in an access token.
type AccessTokenPayload struct {
	StaffID  uuid.UUID
	Username string
	Role     enums.StaffRole
	// JTI doubles as the Redis session key; one is generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to staff clients.
// The username travels as the registered subject and is the audit actor.
type AccessTokenClaims struct {
	StaffID uuid.UUID       `json:"staff_id"`
	Role    enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor returns the identity recorded on history rows and outbox events.
func (c *AccessTokenClaims) Actor() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
