package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nittanymarket/internal/metrics"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveCheckout("ok", time.Millisecond)
	m.ObserveLogin("fail")

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("hi") })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestExposition(t *testing.T) {
	m := metrics.New()
	m.ObserveCheckout("ok", 20*time.Millisecond)
	m.ObserveCheckout("insufficient_stock", time.Millisecond)
	m.ObserveLogin("ok")

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/product/:id", func(c *fiber.Ctx) error { return c.SendString("p") })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.ErrTeapot })
	for _, p := range []string{"/product/1", "/product/2", "/boom"} {
		resp, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `checkout_total{outcome="ok"} 1`)
	assert.Contains(t, text, `checkout_total{outcome="insufficient_stock"} 1`)
	assert.Contains(t, text, `login_total{outcome="ok"} 1`)
	assert.Contains(t, text, `http_requests_total{method="GET",route="/product/:id",status="200"} 2`)
	assert.Contains(t, text, `status="418"`)
	assert.Contains(t, text, "go_goroutines")
	assert.Contains(t, text, "checkout_duration_seconds_bucket")
}
