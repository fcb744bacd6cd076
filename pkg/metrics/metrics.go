// Package metrics métricas Prometheus del aislamiento por tenant y del servidor HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics colectores registrados en un Registry propio.
type Metrics struct {
	registry *prometheus.Registry

	TenantResolution *prometheus.CounterVec
	Provisioning     *prometheus.CounterVec
	Commits          *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registra los colectores bajo namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		TenantResolution: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_resolution_total",
			Help:      "Resoluciones de contexto de tenant por resultado",
		}, []string{"outcome"}),
		Provisioning: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_provisioning_total",
			Help:      "Aprovisionamientos de tenant por resultado",
		}, []string{"outcome"}),
		Commits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_of_work_commits_total",
			Help:      "Commits de la unidad de trabajo por resultado",
		}, []string{"outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP en segundos",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// ObserveResolution implementa tenancy.ResolutionObserver.
func (m *Metrics) ObserveResolution(outcome string) {
	m.TenantResolution.WithLabelValues(outcome).Inc()
}

// ObserveCommit implementa tenancy.CommitObserver.
func (m *Metrics) ObserveCommit(outcome string) {
	m.Commits.WithLabelValues(outcome).Inc()
}

// ObserveProvisioning cuenta un aprovisionamiento.
func (m *Metrics) ObserveProvisioning(outcome string) {
	m.Provisioning.WithLabelValues(outcome).Inc()
}

// Registry registro de los colectores (tests y exportación).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware mide cada petición. Usa la ruta registrada, no la URL, para acotar la cardinalidad.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		m.HTTPRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone /metrics.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
