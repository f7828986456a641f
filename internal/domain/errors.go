package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidState           = errors.New("estado de la orden inválido para la operación")
	ErrInvalidTransition      = errors.New("transición de estado no permitida")
	ErrValidation             = errors.New("error de validación")
	ErrPersistence            = errors.New("fallo de persistencia")
	ErrConcurrentModification = errors.New("modificación concurrente detectada")
	ErrLockNotObtained        = errors.New("la orden ya se está ejecutando")
)

// Códigos de validación usados por plantillas y ejecución.
const (
	CodeTemplateNotFound   = "TEMPLATE_NOT_FOUND"
	CodeTemplateInactive   = "TEMPLATE_INACTIVE"
	CodeTemplateNoInputs   = "TEMPLATE_NO_INPUTS"
	CodeTemplateNoOutputs  = "TEMPLATE_NO_OUTPUTS"
	CodeTemplateLocked     = "TEMPLATE_LOCKED"
	CodeInvalidInputLine   = "INVALID_INPUT_LINE"
	CodeInvalidOutputLine  = "INVALID_OUTPUT_LINE"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeDuplicateLine      = "DUPLICATE_LINE"
	CodeMissingItem        = "MISSING_ITEM"
	CodeWarehouseMismatch  = "WAREHOUSE_MISMATCH"
	CodeWarehouseInactive  = "WAREHOUSE_INACTIVE"
	CodeExecutionRequired  = "EXECUTION_REQUIRED"
	CodeTerminalState      = "TERMINAL_STATE"
	CodeUnknownStatus      = "UNKNOWN_STATUS"
	CodeTransitionNotFound = "TRANSITION_NOT_ALLOWED"
)

// ValidationError describe una regla de negocio incumplida por la entrada.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError construye un ValidationError.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// ConflictError la operación choca con el estado actual del recurso (p. ej. plantilla bloqueada).
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InvalidStateError se devuelve cuando la orden no está en el estado que exige la operación.
type InvalidStateError struct {
	Operation string
	Current   string
	Expected  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("no se puede %s: la orden está en %s (se requiere %s)", e.Operation, e.Current, e.Expected)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// InvalidTransitionError indica una arista no permitida por la máquina de estados.
type InvalidTransitionError struct {
	From   string
	To     string
	Code   string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición %s → %s no permitida: %s", e.From, e.To, e.Reason)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// InsufficientItem detalle de un ítem sin stock suficiente.
type InsufficientItem struct {
	ItemID    string          `json:"itemId"`
	ItemCode  string          `json:"itemCode"`
	ItemName  string          `json:"itemName"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

// InsufficientStockError enumera todos los ítems con faltante, no solo el primero.
type InsufficientStockError struct {
	WarehouseID string
	Items       []InsufficientItem
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%s (disponible %s, requerido %s)",
			nonEmpty(it.ItemCode, it.ItemID), it.Available.String(), it.Required.String()))
	}
	return "stock insuficiente: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PersistenceError envuelve un fallo de escritura/lectura conservando el mensaje original.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap permite errors.Is tanto contra ErrPersistence como contra el error original.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Persistence envuelve err en un PersistenceError salvo que ya sea un error de dominio conocido.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomainError informa si err pertenece a la taxonomía de dominio (no es un fallo de infraestructura).
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrForbidden, ErrConflict,
		ErrInsufficientStock, ErrInvalidState, ErrInvalidTransition, ErrValidation,
		ErrPersistence, ErrConcurrentModification, ErrLockNotObtained,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable informa si el error puede resolverse reintentando la operación.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
