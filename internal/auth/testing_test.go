package auth

import (
	"context"
	"time"

	"github.com/genesoft/portal-backend/pkg/auth/session"
	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/db/models"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
)

var testJWT = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "genesoft-portal",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 600,
}

type stubIdentities struct {
	byEmail  map[string]*models.Identity
	password string
	lastSeen string
}

func (s *stubIdentities) Authenticate(_ context.Context, email, password string) (*models.Identity, error) {
	s.lastSeen = email
	identity, ok := s.byEmail[email]
	if !ok || password != s.password {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return identity, nil
}

func (s *stubIdentities) Lookup(_ context.Context, id uuid.UUID) (*models.Identity, error) {
	for _, identity := range s.byEmail {
		if identity.ID == id {
			return identity, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

type stubSessions struct {
	live    map[string]uuid.UUID
	refresh map[string]string
	err     error
}

func newStubSessions() *stubSessions {
	return &stubSessions{live: map[string]uuid.UUID{}, refresh: map[string]string{}}
}

func (s *stubSessions) Generate(_ context.Context, userID uuid.UUID, accessID string) (string, error) {
	s.live[accessID] = userID
	token := "rt-" + accessID
	s.refresh[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	userID, ok := s.live[oldAccessID]
	if !ok || s.refresh[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.live, oldAccessID)
	delete(s.refresh, oldAccessID)
	newID := session.NewAccessID()
	s.live[newID] = userID
	s.refresh[newID] = "rt-" + newID
	return newID, s.refresh[newID], nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	delete(s.live, accessID)
	delete(s.refresh, accessID)
	return nil
}

func (s *stubSessions) Lookup(_ context.Context, accessID string) (uuid.UUID, bool, error) {
	if s.err != nil {
		return uuid.Nil, false, s.err
	}
	id, ok := s.live[accessID]
	return id, ok, nil
}

func fixedNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
