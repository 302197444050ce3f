package identities

import (
	"context"
	"strings"
	"testing"

	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/dbtest"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainHasher keeps tests fast; argon2 is covered in pkg/security.
type plainHasher struct {
	decoys int
}

func (h *plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (h *plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "plain:"+password || encoded == "legacy:"+password, nil
}

func (h *plainHasher) NeedsRehash(encoded string) bool { return strings.HasPrefix(encoded, "legacy:") }

func (h *plainHasher) VerifyDecoy(string) { h.decoys++ }

func newTestProvider(t *testing.T) (*Provider, *db.Client, *plainHasher) {
	t.Helper()
	client := dbtest.New(t)
	hasher := &plainHasher{}
	provider, err := NewProvider(client, hasher)
	require.NoError(t, err)
	return provider, client, hasher
}

func elevated(t *testing.T, client *db.Client) *db.ElevatedScope {
	t.Helper()
	grant, err := auth.GrantAdmin(auth.Principal{ID: uuid.New()}, enums.RoleAdmin)
	require.NoError(t, err)
	scope, err := db.NewElevatedScope(client, grant)
	require.NoError(t, err)
	return scope
}

func TestCreateUserProvisionsProfile(t *testing.T) {
	provider, client, _ := newTestProvider(t)
	ctx := context.Background()

	identity, err := provider.CreateUser(ctx, elevated(t, client), CreateParams{Email: " A@B.com ", Password: "x", FullName: " A "})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", identity.Email)
	assert.NotEqual(t, uuid.Nil, identity.ID)
	assert.NotNil(t, identity.ConfirmedAt)

	var profile models.Profile
	require.NoError(t, client.DB().First(&profile, "id = ?", identity.ID).Error)
	assert.Equal(t, "A", profile.FullName)
	assert.Equal(t, enums.RoleClient, profile.Role)
	assert.Equal(t, "a@b.com", profile.Email)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	provider, client, _ := newTestProvider(t)
	ctx := context.Background()
	scope := elevated(t, client)

	_, err := provider.CreateUser(ctx, scope, CreateParams{Email: "dup@b.com", Password: "x", FullName: "A"})
	require.NoError(t, err)

	_, err = provider.CreateUser(ctx, scope, CreateParams{Email: "DUP@b.com", Password: "y", FullName: "B"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeProvider, typed.Code())
	assert.Equal(t, emailTakenMessage, typed.Message())

	var count int64
	client.DB().Model(&models.Profile{}).Count(&count)
	assert.Equal(t, int64(1), count, "failed create must not leave a profile behind")
}

func TestAuthenticate(t *testing.T) {
	provider, client, hasher := newTestProvider(t)
	ctx := context.Background()

	created, err := provider.CreateUser(ctx, elevated(t, client), CreateParams{Email: auth.ToShadowEmail("jdoe"), Password: "pw", FullName: "J"})
	require.NoError(t, err)

	identity, err := provider.Authenticate(ctx, "JDOE@genesoft.internal", "pw")
	require.NoError(t, err)
	assert.Equal(t, created.ID, identity.ID)
	assert.NotNil(t, identity.LastSignInAt)

	_, err = provider.Authenticate(ctx, "jdoe@genesoft.internal", "nope")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	_, err = provider.Authenticate(ctx, "ghost@genesoft.internal", "pw")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, 1, hasher.decoys)

	_, err = provider.Authenticate(ctx, "", "pw")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestUpdateEmail(t *testing.T) {
	provider, client, _ := newTestProvider(t)
	ctx := context.Background()
	scope := elevated(t, client)

	a, err := provider.CreateUser(ctx, scope, CreateParams{Email: "a@b.com", Password: "x", FullName: "A"})
	require.NoError(t, err)
	_, err = provider.CreateUser(ctx, scope, CreateParams{Email: "taken@b.com", Password: "x", FullName: "T"})
	require.NoError(t, err)

	updated, err := provider.UpdateEmail(ctx, scope, a.ID, "new@b.com")
	require.NoError(t, err)
	assert.Equal(t, "new@b.com", updated.Email)

	_, err = provider.UpdateEmail(ctx, scope, a.ID, "taken@b.com")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeProvider))

	_, err = provider.UpdateEmail(ctx, scope, uuid.New(), "x@b.com")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = provider.UpdateEmail(ctx, scope, a.ID, "  ")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestUpdatePasswordAndDelete(t *testing.T) {
	provider, client, _ := newTestProvider(t)
	ctx := context.Background()
	scope := elevated(t, client)

	a, err := provider.CreateUser(ctx, scope, CreateParams{Email: "a@b.com", Password: "old", FullName: "A"})
	require.NoError(t, err)

	require.NoError(t, provider.UpdatePassword(ctx, scope, a.ID, "new"))
	_, err = provider.Authenticate(ctx, "a@b.com", "new")
	require.NoError(t, err)

	err = provider.UpdatePassword(ctx, scope, uuid.New(), "new")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	require.NoError(t, provider.DeleteUser(ctx, scope, a.ID))
	_, err = provider.Lookup(ctx, a.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	var profiles int64
	client.DB().Model(&models.Profile{}).Where("id = ?", a.ID).Count(&profiles)
	assert.Zero(t, profiles)

	err = provider.DeleteUser(ctx, scope, a.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListIdentities(t *testing.T) {
	provider, client, _ := newTestProvider(t)
	ctx := context.Background()
	scope := elevated(t, client)

	for _, email := range []string{"one@b.com", "two@b.com"} {
		_, err := provider.CreateUser(ctx, scope, CreateParams{Email: email, Password: "x", FullName: email})
		require.NoError(t, err)
	}
	all, err := provider.ListIdentities(ctx, scope)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNewProviderRequiresDeps(t *testing.T) {
	_, err := NewProvider(nil, &plainHasher{})
	assert.Error(t, err)
	_, err = NewProvider(dbtest.New(t), nil)
	assert.Error(t, err)
}

func TestAuthenticateUpgradesOutdatedHash(t *testing.T) {
	provider, client, _ := newTestProvider(t)
	ctx := context.Background()

	created, err := provider.CreateUser(ctx, elevated(t, client), CreateParams{Email: "ops@example.com", Password: "pw", FullName: "Ops"})
	require.NoError(t, err)
	require.NoError(t, client.DB().Model(&models.Identity{}).Where("id = ?", created.ID).Update("password_hash", "legacy:pw").Error)

	identity, err := provider.Authenticate(ctx, "ops@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "plain:pw", identity.PasswordHash)

	var stored models.Identity
	require.NoError(t, client.DB().First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, "plain:pw", stored.PasswordHash)
}
