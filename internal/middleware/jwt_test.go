package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func unsignedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":   c.Locals(LocalUserID),
			"role": c.Locals(LocalUserRole),
		})
	})
	return app
}

func callWithToken(t *testing.T, app *fiber.App, header string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestJWTProtectedPopulatesIdentity(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": "Teacher",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	var gotID interface{}
	var gotRole interface{}
	app.Get("/me", func(c *fiber.Ctx) error {
		gotID = c.Locals(LocalUserID)
		gotRole = c.Locals(LocalUserRole)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp := callWithToken(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, uint(42), gotID)
	require.Equal(t, "teacher", gotRole)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := protectedApp()
	valid := jwt.MapClaims{"sub": float64(7), "role": "student"}

	cases := map[string]string{
		"missing header":   "",
		"wrong scheme":     "Basic abc",
		"garbage":          "Bearer not-a-token",
		"truncated":        "Bearer " + signToken(t, jwt.SigningMethodHS256, valid)[:10],
		"unsigned":         "Bearer " + unsignedToken(t, valid),
		"expired":          "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "role": "student", "exp": time.Now().Add(-time.Hour).Unix()}),
		"missing role":     "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"}),
		"missing subject":  "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"role": "student"}),
		"negative subject": "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": float64(-3), "role": "student"}),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			resp := callWithToken(t, app, header)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}

	resp := callWithToken(t, app, "Bearer "+signToken(t, jwt.SigningMethodHS512, valid))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCorrelationIDEchoesInboundHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	var seen string
	app.Get("/", func(c *fiber.Ctx) error {
		seen = CorrelationIDFromContext(c.UserContext())
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get(HeaderCorrelationID))
	require.Equal(t, "abc-123", seen)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get(HeaderCorrelationID))
}
