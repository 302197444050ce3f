package auth

import (
	"context"
	"testing"
	"time"

	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db/models"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
)

func buildTestService(t *testing.T) (*service, *stubIdentities, *stubSessions) {
	t.Helper()
	identity := &models.Identity{ID: uuid.New(), Email: "jdoe@genesoft.internal"}
	identities := &stubIdentities{
		byEmail:  map[string]*models.Identity{identity.Email: identity},
		password: "pw",
	}
	sessions := newStubSessions()
	svc, err := NewService(ServiceParams{Identities: identities, SessionManager: sessions, JWTConfig: testJWT})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc.(*service), identities, sessions
}

func TestLoginMapsUsernameToShadowEmail(t *testing.T) {
	svc, identities, sessions := buildTestService(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " JDoe ", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if identities.lastSeen != "jdoe@genesoft.internal" {
		t.Fatalf("expected shadow email lookup, got %q", identities.lastSeen)
	}
	if resp.User.Username != "jdoe" {
		t.Fatalf("expected username jdoe, got %q", resp.User.Username)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if _, ok := sessions.live[claims.ID]; !ok {
		t.Fatalf("expected session %s to be stored", claims.ID)
	}
	if resp.Principal.ID != resp.User.ID || resp.Principal.SessionID() != claims.ID {
		t.Fatalf("principal does not match issued token")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := buildTestService(t)

	for _, req := range []LoginRequest{
		{Email: "jdoe", Password: "wrong"},
		{Email: "ghost", Password: "pw"},
		{Email: " ", Password: "pw"},
	} {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, _, sessions := buildTestService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "jdoe", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == login.AccessToken {
		t.Fatalf("expected a new access token")
	}
	if _, ok := sessions.live[login.Principal.SessionID()]; ok {
		t.Fatalf("expected old session to be dropped")
	}

	if _, err := svc.Refresh(ctx, login.AccessToken, login.RefreshToken); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected reused refresh token to be rejected, got %v", err)
	}
}

func TestLogoutAcceptsExpiredToken(t *testing.T) {
	svc, _, sessions := buildTestService(t)
	ctx := context.Background()

	userID := uuid.New()
	accessID := "expired-session"
	sessions.live[accessID] = userID
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "x@genesoft.internal",
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.live[accessID]; ok {
		t.Fatalf("expected session to be revoked")
	}

	if err := svc.Logout(ctx, ""); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty token, got %v", err)
	}
}
