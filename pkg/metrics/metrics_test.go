package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers_IncrementanContadores(t *testing.T) {
	m := New("test")
	m.ObserveResolution("scoped")
	m.ObserveResolution("scoped")
	m.ObserveResolution("rejected")
	m.ObserveCommit("committed")
	m.ObserveProvisioning("conflict")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TenantResolution.WithLabelValues("scoped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TenantResolution.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commits.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Provisioning.WithLabelValues("conflict")))
}

func TestMiddlewareYHandler(t *testing.T) {
	m := New("test")
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/ping", "200")))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "test_http_requests_total")
}
