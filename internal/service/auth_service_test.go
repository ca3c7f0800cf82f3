package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ludoteca/catalog-api/internal/domain"
	"github.com/ludoteca/catalog-api/internal/repository/postgres"
	"github.com/ludoteca/catalog-api/internal/service"
	"github.com/ludoteca/catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*service.AuthService, *testutil.TestDB) {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	return service.NewAuthService(repos.User, testutil.TestConfig()), testDB
}

func TestAuthService_IssueAPIToken(t *testing.T) {
	svc, _ := newAuthService(t)

	t.Run("valid key", func(t *testing.T) {
		token, err := svc.IssueAPIToken("test-api-key")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "api-client", claims["sub"])
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := svc.IssueAPIToken("wrong-key")
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})
}

func TestAuthService_ValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestAuthService_VerifyCredentials(t *testing.T) {
	svc, testDB := newAuthService(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().
		WithEmail("alice@example.com").
		Build(t, testDB.DB)

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.VerifyCredentials(ctx, "alice@example.com", password)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.VerifyCredentials(ctx, "nobody@example.com", password)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUserNotFound))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.VerifyCredentials(ctx, "alice@example.com", "wrong-password")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	})
}
