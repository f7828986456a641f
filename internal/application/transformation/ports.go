package transformation

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// Lock bloqueo adquirido sobre una orden.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker excluye ejecuciones concurrentes de la misma orden (p. ej. Redis).
// Obtain devuelve domain.ErrLockNotObtained si otro proceso ya tiene el bloqueo.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Tipos de evento publicados por el motor.
const (
	EventCompleted   = "transformation.completed"
	EventCompensated = "transformation.compensated"
)

// Event evento de dominio de una ejecución.
type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	CompanyID  string    `json:"companyId"`
	ActorID    string    `json:"actorId"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher publica eventos de dominio. Best-effort: un fallo no revierte la ejecución.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Resultados de ejecución para métricas.
const (
	ResultSuccess      = "success"
	ResultRejected     = "rejected"
	ResultCompensated  = "compensated"
	ResultInconsistent = "inconsistent"
)

// Metrics observa el motor de transformaciones.
type Metrics interface {
	ObserveExecution(result string, elapsed time.Duration)
	IncCompensation()
	IncStepFailure(step string)
	IncInsufficientStock()
}

// ReportData datos de una orden ejecutada para su reporte.
type ReportData struct {
	Order    *entity.TransformationOrder
	Template *entity.TransformationTemplate
	Items    map[string]*entity.Item
	Lineage  []*entity.LineageEdge
}

// ReportGenerator genera el reporte de ejecución (PDF).
type ReportGenerator interface {
	ExecutionReport(data ReportData) ([]byte, error)
}

type noopMetrics struct{}

func (noopMetrics) ObserveExecution(string, time.Duration) {}
func (noopMetrics) IncCompensation()                       {}
func (noopMetrics) IncStepFailure(string)                  {}
func (noopMetrics) IncInsufficientStock()                  {}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
