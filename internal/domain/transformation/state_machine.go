// Package transformation contiene los servicios de dominio puros del motor de transformaciones:
// máquina de estados de la orden, asignación de costos y trazabilidad (lineage).
package transformation

import (
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// allowedTransitions aristas permitidas. PREPARING → COMPLETED solo existe vía ejecución.
var allowedTransitions = map[string]map[string]bool{
	entity.OrderStatusDraft: {
		entity.OrderStatusPreparing: true,
		entity.OrderStatusCancelled: true,
	},
	entity.OrderStatusPreparing: {
		entity.OrderStatusCancelled: true,
		entity.OrderStatusCompleted: true,
	},
}

// IsKnownStatus informa si s es un estado válido de orden.
func IsKnownStatus(s string) bool {
	switch s {
	case entity.OrderStatusDraft, entity.OrderStatusPreparing,
		entity.OrderStatusCompleted, entity.OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal informa si el estado ya no admite transiciones.
func IsTerminal(s string) bool {
	return s == entity.OrderStatusCompleted || s == entity.OrderStatusCancelled
}

// CanExecute la ejecución solo se permite desde PREPARING.
func CanExecute(current string) bool {
	return current == entity.OrderStatusPreparing
}

// ValidateTransition valida una transición "directa" (sin datos de ejecución).
// COMPLETED nunca es un destino válido aquí: se alcanza únicamente con ExecuteTransformation.
func ValidateTransition(current, target string) error {
	if !IsKnownStatus(current) || !IsKnownStatus(target) {
		return &domain.InvalidTransitionError{
			From: current, To: target, Code: domain.CodeUnknownStatus,
			Reason: "estado desconocido",
		}
	}
	if IsTerminal(current) {
		return &domain.InvalidTransitionError{
			From: current, To: target, Code: domain.CodeTerminalState,
			Reason: "la orden está en un estado terminal",
		}
	}
	if target == entity.OrderStatusCompleted {
		return &domain.InvalidTransitionError{
			From: current, To: target, Code: domain.CodeExecutionRequired,
			Reason: "COMPLETED solo se alcanza ejecutando la transformación",
		}
	}
	if !allowedTransitions[current][target] {
		return &domain.InvalidTransitionError{
			From: current, To: target, Code: domain.CodeTransitionNotFound,
			Reason: "arista no definida",
		}
	}
	return nil
}

// ValidateExecution valida que la orden pueda ejecutarse (PREPARING → COMPLETED).
func ValidateExecution(current string) error {
	if !CanExecute(current) {
		return &domain.InvalidStateError{
			Operation: "ejecutar la transformación",
			Current:   current,
			Expected:  entity.OrderStatusPreparing,
		}
	}
	return nil
}
