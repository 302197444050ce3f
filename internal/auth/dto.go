package auth

import (
	"time"

	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/google/uuid"
)

// LoginRequest captures the credentials sent to the login endpoint. The
// identifier may be a bare username or a full email address.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,identifier"`
	Password string `json:"password" validate:"required"`
}

// UserSummary describes the signed-in user.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

// TokenPair is an access token and its refresh token.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	TokenPair
	User UserSummary `json:"user"`

	// Principal is the freshly authenticated caller, used for the login audit
	// record. It is not serialized.
	Principal pkgAuth.Principal `json:"-"`
}
