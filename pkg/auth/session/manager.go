package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/genesoft/portal-backend/pkg/config"
	redisclient "github.com/genesoft/portal-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error
	RemoveFromSet(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
	UserSessionsKey(userID string) string
}

// record is the value stored under an access session key. Only a digest of
// the refresh token is kept, so a redis dump does not hand out sessions.
type record struct {
	UserID      uuid.UUID `json:"uid"`
	RefreshHash string    `json:"rth"`
	IssuedAt    time.Time `json:"iat"`
}

func newRecord(userID uuid.UUID, refreshToken string) record {
	return record{UserID: userID, RefreshHash: digest(refreshToken), IssuedAt: time.Now().UTC()}
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Manager owns access sessions in redis. Each session is keyed by the access
// token's jti and indexed per user so RevokeAll can end all of them.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := cfg.AccessTTL(); ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Generate creates a refresh token for the access ID and binds it to the user.
func (m *Manager) Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.put(ctx, accessID, newRecord(userID, token)); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate trades a refresh token for a new access id and refresh token. The
// new session is stored before the old one is dropped, so a failure leaves
// the caller signed in.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	current, err := m.get(ctx, oldAccessID)
	if err != nil {
		return "", "", wrapNotFound(err)
	}

	if subtle.ConstantTimeCompare([]byte(current.RefreshHash), []byte(digest(provided))) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := m.put(ctx, newAccessID, newRecord(current.UserID, newToken)); err != nil {
		return "", "", err
	}
	if err := m.drop(ctx, current.UserID, oldAccessID); err != nil {
		return "", "", err
	}

	return newAccessID, newToken, nil
}

// Lookup returns the user bound to a live access session.
func (m *Manager) Lookup(ctx context.Context, accessID string) (uuid.UUID, bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return uuid.Nil, false, fmt.Errorf("access id is required")
	}
	rec, err := m.get(ctx, accessID)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return rec.UserID, true, nil
}

// HasSession reports whether the provided access ID still has an active session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, ok, err := m.Lookup(ctx, accessID)
	return ok, err
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	rec, err := m.get(ctx, accessID)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil
		}
		return err
	}
	return m.drop(ctx, rec.UserID, accessID)
}

// RevokeAll ends every session of a user.
func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	indexKey := m.keyer.UserSessionsKey(userID.String())
	accessIDs, err := m.store.SetMembers(ctx, indexKey)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(accessIDs)+1)
	for _, id := range accessIDs {
		keys = append(keys, m.keyer.AccessSessionKey(id))
	}
	keys = append(keys, indexKey)
	return m.store.Del(ctx, keys...)
}

func (m *Manager) put(ctx context.Context, accessID string, rec record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return err
	}
	return m.store.AddToSet(ctx, m.keyer.UserSessionsKey(rec.UserID.String()), m.ttl, accessID)
}

func (m *Manager) get(ctx context.Context, accessID string) (record, error) {
	raw, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID))
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return record{}, fmt.Errorf("decoding session: %w", err)
	}
	return rec, nil
}

func (m *Manager) drop(ctx context.Context, userID uuid.UUID, accessID string) error {
	return multierr.Combine(
		m.store.Del(ctx, m.keyer.AccessSessionKey(accessID)),
		m.store.RemoveFromSet(ctx, m.keyer.UserSessionsKey(userID.String()), accessID),
	)
}

// NewAccessID returns a fresh jti.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}
