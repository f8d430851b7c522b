package jwt

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/cogniscan/pkg/auth"
)

const (
	testSecret = "test-secret"
	testIssuer = "cogniscan"
)

func adminIdentity() auth.Identity {
	return auth.Identity{Username: "admin", IsAdmin: true}
}

func TestGenerator_RoundTrip(t *testing.T) {
	gen := NewGenerator(testSecret, testIssuer, 30*time.Minute)

	token, err := gen.Generate(context.Background(), adminIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := gojwt.ParseWithClaims(token, &Claims{}, func(*gojwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*Claims)
	require.True(t, ok)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.True(t, claims.IsAdmin)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func protectedApp(expectedIssuer string) *fiber.App {
	app := fiber.New()
	app.Get("/protected", NewAuthMiddleware(testSecret, expectedIssuer), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"username": c.Locals("username")})
	})
	return app
}

func TestMiddleware_AllowsValidToken(t *testing.T) {
	gen := NewGenerator(testSecret, testIssuer, 30*time.Minute)
	token, err := gen.Generate(context.Background(), adminIdentity())
	require.NoError(t, err)

	app := protectedApp(testIssuer)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "admin")
}

func TestMiddleware_AllowsBareToken(t *testing.T) {
	gen := NewGenerator(testSecret, testIssuer, 30*time.Minute)
	token, err := gen.Generate(context.Background(), adminIdentity())
	require.NoError(t, err)

	app := protectedApp(testIssuer)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMiddleware_RejectsNonAdminToken(t *testing.T) {
	gen := NewGenerator(testSecret, testIssuer, 30*time.Minute)
	token, err := gen.Generate(context.Background(), auth.Identity{Username: "intern", IsAdmin: false})
	require.NoError(t, err)

	app := protectedApp(testIssuer)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestMiddleware_Rejects(t *testing.T) {
	expired := NewGenerator(testSecret, testIssuer, -time.Minute)
	expiredToken, err := expired.Generate(context.Background(), adminIdentity())
	require.NoError(t, err)

	wrongIssuer := NewGenerator(testSecret, "someone-else", 30*time.Minute)
	wrongIssuerToken, err := wrongIssuer.Generate(context.Background(), adminIdentity())
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expiredToken},
		{"wrong issuer", "Bearer " + wrongIssuerToken},
	}
	app := protectedApp(testIssuer)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
