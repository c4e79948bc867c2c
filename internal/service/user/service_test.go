package user

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/platform/auth"
	"github.com/janisto/tms-platform/internal/platform/config"
	"github.com/janisto/tms-platform/internal/platform/database"
	"github.com/janisto/tms-platform/internal/repository"
	"github.com/janisto/tms-platform/internal/service/crud"
)

func openGroup(t *testing.T, g database.Group) *gorm.DB {
	t.Helper()
	gdb, err := database.Open(config.DriverSQLite, config.Database{Name: filepath.Join(t.TempDir(), string(g)+".db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	_, err = database.Migrate(context.Background(), config.DriverSQLite, g, gdb)
	require.NoError(t, err)
	return gdb
}

type fixture struct {
	svc         *Service
	issuer      *auth.Issuer
	users       *crud.Service[entity.User]
	clientUsers *crud.Service[entity.ClientUser]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	usersRepo, err := repository.New[entity.User](openGroup(t, database.Auth))
	require.NoError(t, err)
	clientUsersRepo, err := repository.New[entity.ClientUser](openGroup(t, database.Client))
	require.NoError(t, err)
	issuer, err := auth.NewIssuer("secret", time.Hour, "tms")
	require.NoError(t, err)

	f := &fixture{
		issuer:      issuer,
		users:       crud.New[entity.User](usersRepo),
		clientUsers: crud.New[entity.ClientUser](clientUsersRepo),
	}
	f.svc = New(f.users, f.clientUsers, issuer)
	return f
}

func (f *fixture) seed(t *testing.T, sid, email, name, password string, withAccount bool) {
	t.Helper()
	ctx := context.Background()
	_, err := f.clientUsers.Create(ctx, map[string]any{
		"user_sid": sid, "user_email": email, "user_name": name,
	})
	require.NoError(t, err)
	if !withAccount {
		return
	}
	hash, err := HashPassword(password)
	require.NoError(t, err)
	_, err = f.users.Create(ctx, map[string]any{"user_sid": sid, "user_password": hash})
	require.NoError(t, err)
}

func kindOf(err error) apperr.Kind { return apperr.Classify(err).Kind }

func TestLoginByEmail(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "alice@example.com", "alice", "s3cret", true)

	session, err := f.svc.Login(context.Background(), LoginParams{Email: "alice@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserSid)
	assert.NotEmpty(t, session.AccessToken)

	claims, err := f.issuer.Verify(context.Background(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserSid())
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginByUsernameWins(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "alice@example.com", "alice", "s3cret", true)

	session, err := f.svc.Login(context.Background(), LoginParams{
		Email: "nobody@example.com", Username: "alice", Password: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserSid)
}

func TestLoginFailuresAreDistinct(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "alice@example.com", "alice", "s3cret", true)
	f.seed(t, "u-2", "ghost@example.com", "ghost", "", false)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, LoginParams{Email: "missing@example.com", Password: "x"})
	assert.Equal(t, apperr.UserNotFound, kindOf(err))

	_, err = f.svc.Login(ctx, LoginParams{Email: "ghost@example.com", Password: "x"})
	assert.Equal(t, apperr.UserNotFound, kindOf(err), "profile without an account")

	_, err = f.svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "wrong"})
	assert.Equal(t, apperr.InvalidCredentials, kindOf(err))
	assert.Equal(t, 401, apperr.Classify(err).HTTPStatus())
}

func TestLoginPropagatesStoreErrors(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, apperr.IsDatabase(err))
}

func TestGetBySid(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "alice@example.com", "alice", "s3cret", true)

	profile, err := f.svc.GetBySid(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.UserEmail)
	assert.True(t, profile.UserStatus, "user_status defaults to active")

	_, err = f.svc.GetBySid(context.Background(), "nope")
	assert.Equal(t, apperr.UserNotFound, kindOf(err))
}
