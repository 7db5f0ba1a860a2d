package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken("u1", domain.RoleAgent)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, domain.RoleAgent, claims.Role)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken("u1", domain.RoleAgent)
	require.NoError(t, err)
	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, PasswordMatches(hash, "s3cret!"))
	assert.False(t, PasswordMatches(hash, "wrong"))
	assert.False(t, PasswordMatches("", ""))

	_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func newTestApp(t *testing.T) (*fiber.App, *TokenManager, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	tm := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tm, users)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.SendStatus(fe.Code)
		}
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/agent", mw.Handle, RequireRole(domain.RoleAgent), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Actor.Describe())
	})
	return app, tm, users
}

func TestMiddlewareEnforcesRoleAndActiveFlag(t *testing.T) {
	app, tm, users := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &domain.User{ID: "agent", Username: "agent", Name: "Ann", Role: domain.RoleAgent, Active: true}))
	require.NoError(t, users.Create(ctx, &domain.User{ID: "req", Username: "req", Name: "Rob", Role: domain.RoleRequester, Active: true}))
	require.NoError(t, users.Create(ctx, &domain.User{ID: "off", Username: "off", Name: "Off", Role: domain.RoleAdmin, Active: false}))

	cases := []struct {
		user   string
		status int
	}{
		{"agent", http.StatusOK},
		{"req", http.StatusForbidden},
		{"off", http.StatusUnauthorized},
		{"ghost", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		token, _, err := tm.GenerateToken(tc.user, domain.RoleAdmin)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/agent", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.user)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/agent", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
