package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	sets map[string]map[string]struct{}
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), sets: make(map[string]map[string]struct{})}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *mockStore) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = make(map[string]struct{})
	}
	for _, member := range members {
		m.sets[key][member] = struct{}{}
	}
	return nil
}

func (m *mockStore) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range members {
		delete(m.sets[key], member)
	}
	return nil
}

func (m *mockStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return out, nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func (m *mockStore) UserSessionsKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()
	accessID := "access-123"

	token, err := manager.Generate(ctx, userID, accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	owner, ok, err := manager.Lookup(ctx, accessID)
	if err != nil || !ok || owner != userID {
		t.Fatalf("lookup = %s %v %v, want %s", owner, ok, err, userID)
	}

	if _, _, err := manager.Rotate(ctx, accessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, accessID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data[store.AccessSessionKey(accessID)]; exists {
		t.Fatalf("old access key left behind")
	}
	if newToken == token {
		t.Fatalf("expected a fresh refresh token")
	}
	owner, ok, err = manager.Lookup(ctx, newAccessID)
	if err != nil || !ok || owner != userID {
		t.Fatalf("rotated session not bound to user: %s %v %v", owner, ok, err)
	}
	if _, indexed := store.sets[store.UserSessionsKey(userID.String())][accessID]; indexed {
		t.Fatalf("old access id left in user index")
	}
}

func TestManagerRotateUnknownSession(t *testing.T) {
	manager, _ := newTestManager()
	if _, _, err := manager.Rotate(context.Background(), "missing", "token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	if _, err := manager.Generate(ctx, uuid.New(), "access-1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := manager.Revoke(ctx, "access-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err := manager.HasSession(ctx, "access-1")
	if err != nil || ok {
		t.Fatalf("expected session gone, ok=%v err=%v", ok, err)
	}
	if err := manager.Revoke(ctx, "access-1"); err != nil {
		t.Fatalf("revoking twice should be a no-op: %v", err)
	}
}

func TestManagerRevokeAll(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()
	for _, id := range []string{"a", "b"} {
		if _, err := manager.Generate(ctx, userID, id); err != nil {
			t.Fatalf("generate: %v", err)
		}
	}
	if _, err := manager.Generate(ctx, other, "c"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if err := manager.RevokeAll(ctx, userID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if ok, _ := manager.HasSession(ctx, id); ok {
			t.Fatalf("session %s should be revoked", id)
		}
	}
	if ok, _ := manager.HasSession(ctx, "c"); !ok {
		t.Fatalf("other user's session must survive")
	}
}

func TestManagerRequiresIdentifiers(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	if _, err := manager.Generate(ctx, uuid.New(), " "); err == nil {
		t.Fatal("expected error for empty access id")
	}
	if _, err := manager.Generate(ctx, uuid.Nil, "x"); err == nil {
		t.Fatal("expected error for nil user")
	}
	if _, err := manager.HasSession(ctx, ""); err == nil {
		t.Fatal("expected error for empty access id")
	}
}

func TestStoredSessionHoldsOnlyRefreshDigest(t *testing.T) {
	manager, store := newTestManager()
	accessID := NewAccessID()

	token, err := manager.Generate(context.Background(), uuid.New(), accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	raw := store.data[store.AccessSessionKey(accessID)]
	if raw == "" {
		t.Fatal("expected session to be stored")
	}
	if strings.Contains(raw, token) {
		t.Fatalf("refresh token stored in clear: %s", raw)
	}
}
