package services

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/isdelr/member-accounts-be/internal/apperr"
	"github.com/isdelr/member-accounts-be/internal/auth"
	"github.com/isdelr/member-accounts-be/internal/config"
	"github.com/isdelr/member-accounts-be/internal/database"
	"github.com/isdelr/member-accounts-be/internal/models"
	"github.com/isdelr/member-accounts-be/internal/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newTestService(t *testing.T, policy string) *UserService {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewUserService(users.NewSQLiteRepository(db), auth.NewHasher(bcrypt.MinCost), policy)
}

func register(t *testing.T, s *UserService, name string) models.User {
	t.Helper()
	u, err := s.Register(context.Background(), name, name+"@x.com", "pw-"+name)
	require.NoError(t, err)
	return u
}

type fakeUsersRepo struct {
	users.Repository
	getErr    error
	deleteErr error
	pingErr   error
}

func (f *fakeUsersRepo) GetByUsername(context.Context, string) (models.User, error) {
	return models.User{}, f.getErr
}
func (f *fakeUsersRepo) GetByToken(context.Context, string) (models.User, error) {
	return models.User{}, f.getErr
}
func (f *fakeUsersRepo) Delete(context.Context, string) error { return f.deleteErr }
func (f *fakeUsersRepo) Ping(context.Context) error           { return f.pingErr }

// --- register ---

func TestRegister_Success(t *testing.T) {
	s := newTestService(t, config.DeletePolicyAny)

	u, err := s.Register(context.Background(), "alice", "  A@X.com ", "pw123")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Empty(t, u.PasswordHash)
	assert.False(t, u.IsMember)
	assert.Equal(t, 0.0, u.Discount)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{256}$`), u.AccessToken)
}

func TestRegister_StoresHashNotPassword(t *testing.T) {
	s := newTestService(t, config.DeletePolicyAny)
	register(t, s, "alice")

	stored, err := s.repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "pw-alice", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw-alice")))
}

func TestRegister_Conflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, config.DeletePolicyAny)
	first := register(t, s, "alice")

	_, err := s.Register(ctx, "alice", "other@x.com", "pw")
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, "username already exists", apperr.SafeMessage(err))

	_, err = s.Register(ctx, "bob", "ALICE@x.com", "pw")
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, "useremail already exists", apperr.SafeMessage(err))

	still, err := s.GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.AccessToken, still.AccessToken)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestService(t, config.DeletePolicyAny)

	cases := []struct {
		name, username, email, password, msg string
	}{
		{"missing username", "", "a@x.com", "pw", "username is required"},
		{"missing email", "alice", "", "pw", "useremail is required"},
		{"bad email", "alice", "not-an-email", "pw", "Invalid email address"},
		{"email without dot", "alice", "a@x", "pw", "Invalid email address"},
		{"missing password", "alice", "a@x.com", "", "password is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tc.username, tc.email, tc.password)
			require.Error(t, err)
			assert.Equal(t, apperr.Validation, apperr.KindOf(err))
			assert.Contains(t, apperr.SafeMessage(err), tc.msg)
		})
	}
}

func TestRegister_TokenFailure(t *testing.T) {
	s := newTestService(t, config.DeletePolicyAny)
	s.newToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := s.Register(context.Background(), "alice", "a@x.com", "pw")
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

// --- login ---

func TestLogin_GrantsMembership(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, config.DeletePolicyAny)
	created := register(t, s, "alice")

	for i := 0; i < 2; i++ {
		u, err := s.Login(ctx, "alice", "pw-alice")
		require.NoError(t, err)
		assert.True(t, u.IsMember)
		assert.Equal(t, 0.1, u.Discount)
		assert.Equal(t, created.ID, u.ID)
		assert.Equal(t, created.AccessToken, u.AccessToken)
		assert.Empty(t, u.PasswordHash)
	}
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, config.DeletePolicyAny)
	register(t, s, "alice")

	_, err := s.Login(ctx, "alice", "wrong")
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	_, err2 := s.Login(ctx, "nobody", "pw-alice")
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err2))

	// Same message either way.
	assert.Equal(t, apperr.SafeMessage(err), apperr.SafeMessage(err2))

	u, err := s.GetUserByID(ctx, mustID(t, s, "alice"))
	require.NoError(t, err)
	assert.False(t, u.IsMember)
}

func TestLogin_StoreFailure(t *testing.T) {
	s := NewUserService(&fakeUsersRepo{getErr: errors.New("socket closed")}, auth.NewHasher(bcrypt.MinCost), config.DeletePolicyAny)

	_, err := s.Login(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.NotContains(t, apperr.SafeMessage(err), "socket")
}

func mustID(t *testing.T, s *UserService, username string) string {
	t.Helper()
	u, err := s.repo.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return u.ID
}

// --- tokens & delete ---

func TestGetUserByToken(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, config.DeletePolicyAny)
	alice := register(t, s, "alice")

	u, err := s.GetUserByToken(ctx, alice.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = s.GetUserByToken(ctx, "bogus")
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	broken := NewUserService(&fakeUsersRepo{getErr: errors.New("boom")}, auth.NewHasher(bcrypt.MinCost), config.DeletePolicyAny)
	_, err = broken.GetUserByToken(ctx, "x")
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestDeleteUser_AnyPolicy(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, config.DeletePolicyAny)
	alice := register(t, s, "alice")
	bob := register(t, s, "bob")

	// bob's token deletes alice's account.
	require.NoError(t, s.DeleteUser(ctx, bob, alice.ID))

	_, err := s.GetUserByID(ctx, alice.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	err = s.DeleteUser(ctx, bob, alice.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDeleteUser_OwnerPolicy(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, config.DeletePolicyOwner)
	alice := register(t, s, "alice")
	bob := register(t, s, "bob")

	err := s.DeleteUser(ctx, bob, alice.ID)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	_, err = s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, alice, alice.ID))
}

func TestDeleteUser_StoreFailure(t *testing.T) {
	s := NewUserService(&fakeUsersRepo{deleteErr: errors.New("write conflict")}, auth.NewHasher(bcrypt.MinCost), config.DeletePolicyAny)

	err := s.DeleteUser(context.Background(), models.User{ID: "a"}, "b")
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestPing(t *testing.T) {
	s := newTestService(t, config.DeletePolicyAny)
	assert.NoError(t, s.Ping(context.Background()))

	broken := NewUserService(&fakeUsersRepo{pingErr: errors.New("down")}, auth.NewHasher(bcrypt.MinCost), config.DeletePolicyAny)
	assert.Equal(t, apperr.Internal, apperr.KindOf(broken.Ping(context.Background())))
}
