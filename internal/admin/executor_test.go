package admin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/genesoft/portal-backend/internal/audit"
	"github.com/genesoft/portal-backend/internal/identities"
	"github.com/genesoft/portal-backend/internal/profiles"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/dbtest"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentities struct {
	calls       []string
	createErr   error
	updateErr   error
	passwordErr error
	deleteErr   error
}

func (f *fakeIdentities) CreateUser(_ context.Context, _ *db.ElevatedScope, params identities.CreateParams) (*models.Identity, error) {
	f.calls = append(f.calls, "create:"+params.Email)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Identity{ID: uuid.New(), Email: params.Email}, nil
}

func (f *fakeIdentities) UpdateEmail(_ context.Context, _ *db.ElevatedScope, id uuid.UUID, email string) (*models.Identity, error) {
	f.calls = append(f.calls, "update_email:"+email)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Identity{ID: id, Email: email}, nil
}

func (f *fakeIdentities) UpdatePassword(context.Context, *db.ElevatedScope, uuid.UUID, string) error {
	f.calls = append(f.calls, "update_password")
	return f.passwordErr
}

func (f *fakeIdentities) DeleteUser(context.Context, *db.ElevatedScope, uuid.UUID) error {
	f.calls = append(f.calls, "delete")
	return f.deleteErr
}

type fakeProfiles struct {
	calls []string
	err   error
}

func (f *fakeProfiles) UpdateDisplay(context.Context, *db.ElevatedScope, uuid.UUID, profiles.DisplayFields) error {
	f.calls = append(f.calls, "display")
	return f.err
}

func (f *fakeProfiles) MirrorEmail(_ context.Context, _ *db.ElevatedScope, _ uuid.UUID, email string) error {
	f.calls = append(f.calls, "mirror:"+email)
	return f.err
}

type fakeSessions struct {
	revoked []uuid.UUID
	err     error
}

func (f *fakeSessions) RevokeAll(_ context.Context, userID uuid.UUID) error {
	f.revoked = append(f.revoked, userID)
	return f.err
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
	actors  []*auth.Principal
}

func (f *fakeAudit) LogActivity(_ context.Context, actor *auth.Principal, entry audit.Entry) <-chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	f.actors = append(f.actors, actor)
	done := make(chan error)
	close(done)
	return done
}

type fixture struct {
	exec       *Executor
	identities *fakeIdentities
	profiles   *fakeProfiles
	sessions   *fakeSessions
	audit      *fakeAudit
	scope      *db.ElevatedScope
	admin      auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		identities: &fakeIdentities{},
		profiles:   &fakeProfiles{},
		sessions:   &fakeSessions{},
		audit:      &fakeAudit{},
		admin:      auth.Principal{ID: uuid.New(), Email: "root@genesoft.internal"},
	}
	exec, err := NewExecutor(ExecutorParams{
		Identities: f.identities,
		Profiles:   f.profiles,
		Sessions:   f.sessions,
		Audit:      f.audit,
		Logger:     logger.Nop(),
	})
	require.NoError(t, err)
	f.exec = exec

	grant, err := auth.GrantAdmin(f.admin, enums.RoleAdmin)
	require.NoError(t, err)
	f.scope, err = db.NewElevatedScope(dbtest.New(t), grant)
	require.NoError(t, err)
	return f
}

func TestCreateUserRunsPrimaryThenSecondary(t *testing.T) {
	f := newFixture(t)

	out := f.exec.CreateUser(context.Background(), f.scope, CreateUserInput{Email: "JDoe", Password: "pw", FullName: " Jane "})
	require.NoError(t, out.Err())
	assert.True(t, out.Primary.OK())
	assert.True(t, out.Secondary.OK())
	require.NotNil(t, out.User)
	assert.Equal(t, "jdoe@genesoft.internal", out.User.Email)

	assert.Equal(t, []string{"create:jdoe@genesoft.internal"}, f.identities.calls)
	assert.Equal(t, []string{"display"}, f.profiles.calls)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, enums.LogActionCreateUser, f.audit.entries[0].Action)
	assert.Equal(t, enums.EntityTypeUser, f.audit.entries[0].EntityType)
	require.NotNil(t, f.audit.actors[0])
	assert.Equal(t, f.admin.ID, f.audit.actors[0].ID)
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)

	for _, input := range []CreateUserInput{
		{Email: "", Password: "pw", FullName: "A"},
		{Email: "a@b.com", Password: " ", FullName: "A"},
		{Email: "a@b.com", Password: "pw", FullName: "  "},
	} {
		out := f.exec.CreateUser(context.Background(), f.scope, input)
		assert.True(t, pkgerrors.Is(out.Err(), pkgerrors.CodeValidation), "%+v", input)
		assert.False(t, out.Primary.Attempted)
	}
	assert.Empty(t, f.identities.calls)
	assert.Empty(t, f.audit.entries)
}

func TestCreateUserPrimaryFailureSkipsSecondaryAndAudit(t *testing.T) {
	f := newFixture(t)
	f.identities.createErr = pkgerrors.New(pkgerrors.CodeProvider, "a user with this email address has already been registered")

	out := f.exec.CreateUser(context.Background(), f.scope, CreateUserInput{Email: "a@b.com", Password: "pw", FullName: "A"})
	assert.True(t, pkgerrors.Is(out.Err(), pkgerrors.CodeProvider))
	assert.False(t, out.Secondary.Attempted)
	assert.Nil(t, out.User)
	assert.Empty(t, f.profiles.calls)
	assert.Empty(t, f.audit.entries)
}

func TestSecondaryFailureDoesNotFailAction(t *testing.T) {
	f := newFixture(t)
	f.profiles.err = errors.New("profiles unavailable")

	out := f.exec.CreateUser(context.Background(), f.scope, CreateUserInput{Email: "a@b.com", Password: "pw", FullName: "A"})
	require.NoError(t, out.Err())
	assert.True(t, out.Secondary.Attempted)
	assert.Error(t, out.Secondary.Err)
	assert.NotNil(t, out.User)
	assert.Len(t, f.audit.entries, 1)

	upd := f.exec.UpdateUsername(context.Background(), f.scope, UpdateUsernameInput{UserID: uuid.NewString(), Email: "x"})
	require.NoError(t, upd.Err())
	assert.Error(t, upd.Secondary.Err)
}

func TestUpdateUsername(t *testing.T) {
	f := newFixture(t)
	target := uuid.New()

	out := f.exec.UpdateUsername(context.Background(), f.scope, UpdateUsernameInput{UserID: target.String(), Email: " NewName "})
	require.NoError(t, out.Err())
	assert.Equal(t, []string{"update_email:newname@genesoft.internal"}, f.identities.calls)
	assert.Equal(t, []string{"mirror:newname@genesoft.internal"}, f.profiles.calls)

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, enums.LogActionUpdateUsername, entry.Action)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, target.String(), *entry.EntityID)
	assert.Equal(t, "newname", entry.Details["username"])
}

func TestUpdateUsernameValidationAndNotFound(t *testing.T) {
	f := newFixture(t)

	out := f.exec.UpdateUsername(context.Background(), f.scope, UpdateUsernameInput{UserID: "not-a-uuid", Email: "x"})
	assert.True(t, pkgerrors.Is(out.Err(), pkgerrors.CodeValidation))
	out = f.exec.UpdateUsername(context.Background(), f.scope, UpdateUsernameInput{UserID: uuid.NewString(), Email: " "})
	assert.True(t, pkgerrors.Is(out.Err(), pkgerrors.CodeValidation))

	f.identities.updateErr = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	out = f.exec.UpdateUsername(context.Background(), f.scope, UpdateUsernameInput{UserID: uuid.NewString(), Email: "x"})
	assert.True(t, pkgerrors.Is(out.Err(), pkgerrors.CodeNotFound))
	assert.Empty(t, f.profiles.calls)
	assert.Empty(t, f.audit.entries)
}

func TestUpdatePasswordRevokesSessions(t *testing.T) {
	f := newFixture(t)
	target := uuid.New()

	out := f.exec.UpdatePassword(context.Background(), f.scope, UpdatePasswordInput{UserID: target.String(), Password: "new-secret"})
	require.NoError(t, out.Err())
	assert.Equal(t, []uuid.UUID{target}, f.sessions.revoked)
	require.Len(t, f.audit.entries, 1)
	assert.Nil(t, f.audit.entries[0].Details, "password actions must not record details")

	f.sessions.err = errors.New("redis down")
	out = f.exec.UpdatePassword(context.Background(), f.scope, UpdatePasswordInput{UserID: target.String(), Password: "again"})
	require.NoError(t, out.Err())
	assert.Error(t, out.Secondary.Err)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	target := uuid.New()

	out := f.exec.DeleteUser(context.Background(), f.scope, DeleteUserInput{UserID: target.String()})
	require.NoError(t, out.Err())
	assert.Equal(t, []string{"delete"}, f.identities.calls)
	assert.Equal(t, []uuid.UUID{target}, f.sessions.revoked)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, enums.LogActionDeleteUser, f.audit.entries[0].Action)
}

func TestDeleteUserRefusesSelf(t *testing.T) {
	f := newFixture(t)

	out := f.exec.DeleteUser(context.Background(), f.scope, DeleteUserInput{UserID: f.admin.ID.String()})
	assert.True(t, pkgerrors.Is(out.Err(), pkgerrors.CodeValidation))
	assert.Empty(t, f.identities.calls)
}
