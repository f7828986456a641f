package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
)

var _ transformation.Metrics = (*Registry)(nil)

// Registry métricas del motor de transformaciones en un registro propio (no el global).
type Registry struct {
	reg               *prometheus.Registry
	Executions        *prometheus.CounterVec
	ExecutionSeconds  prometheus.Histogram
	Compensations     prometheus.Counter
	StepFailures      *prometheus.CounterVec
	InsufficientStock prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	executions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transformation_executions_total",
		Help: "Ejecuciones de órdenes de transformación por resultado.",
	}, []string{"result"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transformation_execution_seconds",
		Help:    "Duración de la ejecución de una orden.",
		Buckets: prometheus.DefBuckets,
	})
	compensations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transformation_compensations_total",
		Help: "Ejecuciones revertidas por compensación.",
	})
	stepFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transformation_step_failures_total",
		Help: "Pasos fallidos de la saga de ejecución.",
	}, []string{"step"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transformation_insufficient_stock_total",
		Help: "Ejecuciones rechazadas por stock insuficiente.",
	})

	r.MustRegister(executions, latency, compensations, stepFailures, insufficient)
	return &Registry{
		reg:               r,
		Executions:        executions,
		ExecutionSeconds:  latency,
		Compensations:     compensations,
		StepFailures:      stepFailures,
		InsufficientStock: insufficient,
	}
}

func (r *Registry) ObserveExecution(result string, elapsed time.Duration) {
	r.Executions.WithLabelValues(result).Inc()
	r.ExecutionSeconds.Observe(elapsed.Seconds())
}

func (r *Registry) IncCompensation() { r.Compensations.Inc() }

// IncStepFailure step es el nombre del paso (consume:<id>, produce:<id>, waste:<id>); se agrupa por tipo
// para no disparar la cardinalidad.
func (r *Registry) IncStepFailure(step string) {
	r.StepFailures.WithLabelValues(stepKind(step)).Inc()
}

func (r *Registry) IncInsufficientStock() { r.InsufficientStock.Inc() }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func stepKind(step string) string {
	for i := 0; i < len(step); i++ {
		if step[i] == ':' {
			return step[:i]
		}
	}
	return step
}
