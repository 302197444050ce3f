package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/auth/session"
	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/db/models"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
}

type service struct {
	identities authenticator
	session    sessionManager
	jwtCfg     config.JWTConfig
	now        func() time.Time
}

type authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
}

type sessionManager interface {
	Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Identities     authenticator
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Identities == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		identities: params.Identities,
		session:    params.SessionManager,
		jwtCfg:     params.JWTConfig,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	input := strings.TrimSpace(req.Email)
	if input == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	identity, err := s.identities.Authenticate(ctx, pkgAuth.ToShadowEmail(input), req.Password)
	if err != nil {
		return nil, err
	}

	pair, claims, err := s.issue(ctx, identity.ID, identity.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		TokenPair: *pair,
		User: UserSummary{
			ID:       identity.ID,
			Email:    identity.Email,
			Username: pkgAuth.FromShadowEmail(identity.Email),
		},
		Principal: pkgAuth.Principal{ID: identity.ID, Email: identity.Email, Claims: claims},
	}, nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.parseLenient(accessToken)
	if err != nil {
		return err
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseLenient(accessToken)
	if err != nil {
		return nil, err
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	now := s.now()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{
		AccessToken:  token,
		RefreshToken: newRefreshToken,
		ExpiresAt:    now.Add(s.jwtCfg.AccessTTL()),
	}, nil
}

func (s *service) issue(ctx context.Context, userID uuid.UUID, email string) (*TokenPair, *pkgAuth.AccessTokenClaims, error) {
	now := s.now()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, userID, accessID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse minted jwt")
	}
	return &TokenPair{
		AccessToken:  token,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.jwtCfg.AccessTTL()),
	}, claims, nil
}

// parseLenient accepts expired tokens; logout and refresh must work after
// the access token lapses.
func (s *service) parseLenient(accessToken string) (*pkgAuth.AccessTokenClaims, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, missingCredentials)
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}
