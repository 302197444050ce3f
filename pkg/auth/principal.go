package auth

import (
	"github.com/google/uuid"
)

// Principal is a verified identity resolved from a credential. It carries no
// role; roles are looked up separately at each authorization boundary.
type Principal struct {
	ID     uuid.UUID
	Email  string
	Claims *AccessTokenClaims
}

// Username returns the login name shown to humans.
func (p Principal) Username() string {
	return FromShadowEmail(p.Email)
}

// SessionID returns the jti of the credential the principal was resolved from.
func (p Principal) SessionID() string {
	if p.Claims == nil {
		return ""
	}
	return p.Claims.ID
}
