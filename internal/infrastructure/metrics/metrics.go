package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
)

var _ ports.SagaMetrics = (*Metrics)(nil)

// Metrics contadores de sagas y de HTTP, registrados en un Registerer inyectado.
type Metrics struct {
	sagaSteps       *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	partialFailures *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New crea y registra las métricas. Entra en pánico si ya estaban registradas en reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sagaSteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_saga_steps_total",
				Help: "Pasos de saga ejecutados por resultado.",
			},
			[]string{"saga", "step", "outcome"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_compensations_total",
				Help: "Compensaciones ejecutadas por resultado.",
			},
			[]string{"saga", "step", "outcome"},
		),
		partialFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_partial_failures_total",
				Help: "Operaciones terminadas en fallo parcial.",
			},
			[]string{"saga"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total de peticiones HTTP.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Latencia de peticiones HTTP en segundos.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.sagaSteps, m.compensations, m.partialFailures, m.httpRequests, m.httpDuration)
	return m
}

// NewRegistry registro propio con los collectors de proceso y runtime de Go.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler expone las métricas del registro en formato Prometheus.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) StepCompleted(saga, step, outcome string) {
	m.sagaSteps.WithLabelValues(saga, step, outcome).Inc()
}

func (m *Metrics) CompensationRan(saga, step, outcome string) {
	m.compensations.WithLabelValues(saga, step, outcome).Inc()
}

func (m *Metrics) PartialFailure(saga string) {
	m.partialFailures.WithLabelValues(saga).Inc()
}

// ObserveHTTP registra una petición terminada. route es el patrón de la ruta, no el path crudo.
func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
