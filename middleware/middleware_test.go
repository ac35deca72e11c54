package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"familytree/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestVerifyJWT(t *testing.T) {
	t.Setenv("BYTE_KEY", "first")
	token, err := GenerateJWT(5, "ravi", true)
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	require.Equal(t, 5, claims.UserID)
	require.True(t, claims.IsPaid)

	t.Setenv("BYTE_KEY", "second")
	_, err = VerifyJWT(token)
	require.Error(t, err)
}

func TestAuthAndPaidChain(t *testing.T) {
	t.Setenv("BYTE_KEY", "secret")
	app := fiber.New()
	app.Get("/x", AuthRequired(), PaidRequired(), func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*domain.Claims)
		return c.SendString(claims.Username)
	})

	status := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	paid, err := GenerateJWT(1, "asha", true)
	require.NoError(t, err)
	free, err := GenerateJWT(2, "dev", false)
	require.NoError(t, err)

	require.Equal(t, fiber.StatusUnauthorized, status(""))
	require.Equal(t, fiber.StatusUnauthorized, status("Bearer nonsense"))
	require.Equal(t, fiber.StatusPaymentRequired, status("Bearer "+free))
	require.Equal(t, fiber.StatusOK, status("Bearer "+paid))
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	before := testutil.ToFloat64(apiRequests.WithLabelValues("/items/:id", "2xx"))
	for _, id := range []string{"a", "b", "missing"} {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+id, nil), -1)
		require.NoError(t, err)
	}

	require.Equal(t, before+2, testutil.ToFloat64(apiRequests.WithLabelValues("/items/:id", "2xx")))
	require.Equal(t, float64(1), testutil.ToFloat64(apiRequests.WithLabelValues("/items/:id", "4xx")))
}

func TestResultLabel(t *testing.T) {
	require.Equal(t, "401", resultLabel(fiber.StatusUnauthorized))
	require.Equal(t, "402", resultLabel(fiber.StatusPaymentRequired))
	require.Equal(t, "4xx", resultLabel(fiber.StatusForbidden))
	require.Equal(t, "5xx", resultLabel(fiber.StatusBadGateway))
	require.Equal(t, "2xx", resultLabel(fiber.StatusCreated))
}
