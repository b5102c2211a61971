package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gameloans/core/internal/adapters/repository"
	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/config"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

var testJWTConfig = config.JWTConfig{
	Secret:    "test-secret",
	ExpiresIn: time.Hour,
	Issuer:    "gameloans-test",
}

func newAuthService(t *testing.T, opts ...DataStoreOption) *AuthService {
	t.Helper()

	log := logger.NewNop()
	ds := NewDataStore(repository.NewMemoryStore(), log, append([]DataStoreOption{WithIDGenerator(sequentialIDs())}, opts...)...)
	_, err := NewSeeder(ds, bcrypt.MinCost, log).Run(context.Background())
	require.NoError(t, err)

	return NewAuthService(ds, NewValidator(ds.Now), testJWTConfig, bcrypt.MinCost, log)
}

func Test_AuthService_Login_DemoUsers(t *testing.T) {
	svc := newAuthService(t)

	for _, u := range SeedUsers() {
		t.Run(u.Email, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), ports.LoginRequest{Email: u.Email, Password: DemoPassword})

			require.NoError(t, err)
			assert.Equal(t, "Bearer", resp.TokenType)
			assert.Equal(t, int64(3600), resp.ExpiresIn)
			assert.Equal(t, u.ID, resp.User.ID)
			assert.Equal(t, u.Role, resp.User.Role)
			assert.Empty(t, resp.User.PasswordHash)

			claims, err := svc.ValidateToken(resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, ports.Claims{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, *claims)
		})
	}
}

func Test_AuthService_Login_InvalidCredentials(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), ports.LoginRequest{Email: "admin@gameloans.com", Password: "wrong"})
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	_, err = svc.Login(context.Background(), ports.LoginRequest{Email: "ghost@gameloans.com", Password: DemoPassword})
	assert.ErrorIs(t, err, entities.ErrUnauthorized)
}

func Test_AuthService_FindByCredentials_IgnoresEmailCase(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.FindByCredentials(context.Background(), "Maria@Email.com", DemoPassword)

	require.NoError(t, err)
	assert.Equal(t, "3", user.ID)
	assert.Empty(t, user.PasswordHash)
}

func Test_AuthService_Register(t *testing.T) {
	// arrange
	svc := newAuthService(t)
	ctx := context.Background()

	// act
	resp, err := svc.Register(ctx, ports.RegisterRequest{Name: " Ana Torres ", Email: "Ana@Email.com", Password: "secret1"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Ana Torres", resp.User.Name)
	assert.Equal(t, "ana@email.com", resp.User.Email)
	assert.Equal(t, entities.UserRoleUser, resp.User.Role)

	user, err := svc.FindByCredentials(ctx, "ana@email.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	fetched, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.PasswordHash)
}

func Test_AuthService_Register_Errors(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Name: "Otro Juan", Email: "JUAN@email.com", Password: "secret1"})
	assert.ErrorIs(t, err, entities.ErrConflict)

	_, err = svc.Register(ctx, ports.RegisterRequest{Name: "Ana", Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = svc.Register(ctx, ports.RegisterRequest{Name: "Ana", Email: "ana@email.com", Password: "123"})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = svc.Register(ctx, ports.RegisterRequest{Name: "  ", Email: "ana@email.com", Password: "secret1"})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func Test_AuthService_CreateUser_Admin(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.CreateUser(context.Background(), ports.CreateUserRequest{
		Name: "Second Admin", Email: "root@gameloans.com", Password: "secret1", Role: entities.UserRoleAdmin,
	})

	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	_, err = svc.CreateUser(context.Background(), ports.CreateUserRequest{
		Name: "Bad Role", Email: "bad@gameloans.com", Password: "secret1", Role: "owner",
	})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func Test_AuthService_GetUser_NotFound(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.GetUser(context.Background(), "404")

	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func Test_AuthService_ValidateToken_Rejects(t *testing.T) {
	svc := newAuthService(t)
	now := time.Now()

	sign := func(claims *Claims, secret string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	claims := func(issuer string, expiresAt time.Time) *Claims {
		return &Claims{
			Role: entities.UserRoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "1",
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
		}
	}

	tests := map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  sign(claims(testJWTConfig.Issuer, now.Add(time.Hour)), "other-secret"),
		"wrong issuer":  sign(claims("someone-else", now.Add(time.Hour)), testJWTConfig.Secret),
		"expired":       sign(claims(testJWTConfig.Issuer, now.Add(-time.Minute)), testJWTConfig.Secret),
		"empty subject": sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: testJWTConfig.Issuer, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}}, testJWTConfig.Secret),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func Test_AuthService_ValidateToken_UsesDataStoreClock(t *testing.T) {
	// arrange
	now := testNow
	svc := newAuthService(t, WithClock(func() time.Time { return now }))
	resp, err := svc.Login(context.Background(), ports.LoginRequest{Email: "admin@gameloans.com", Password: DemoPassword})
	require.NoError(t, err)

	// act
	claims, err := svc.ValidateToken(resp.AccessToken)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)

	now = now.Add(testJWTConfig.ExpiresIn + time.Minute)
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
