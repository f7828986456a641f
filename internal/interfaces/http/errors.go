package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
)

// Códigos de error HTTP que no provienen de un error tipado de dominio.
const (
	codeNotFound           = "NOT_FOUND"
	codeForbidden          = "FORBIDDEN"
	codeUnauthorized       = "UNAUTHORIZED"
	codeInvalidBody        = "INVALID_BODY"
	codeValidation         = "VALIDATION"
	codeInvalidState       = "INVALID_STATE"
	codeConflict           = "CONFLICT"
	codeConcurrent         = "CONCURRENT_MODIFICATION"
	codeInProgress         = "EXECUTION_IN_PROGRESS"
	codeInsufficientStock  = "INSUFFICIENT_STOCK"
	codeCompensationFailed = "COMPENSATION_FAILED"
	codePersistence        = "PERSISTENCE"
	codeInternal           = "INTERNAL"
)

// classify traduce un error de aplicación a status HTTP y código estable.
func classify(err error) (int, string) {
	var (
		sagaErr       *transformation.SagaError
		validationErr *domain.ValidationError
		conflictErr   *domain.ConflictError
		transitionErr *domain.InvalidTransitionError
		reqErr        *requestError
	)
	if errors.As(err, &sagaErr) && sagaErr.CompensationErr != nil {
		return fiber.StatusInternalServerError, codeCompensationFailed
	}
	switch {
	case errors.As(err, &reqErr):
		return fiber.StatusBadRequest, reqErr.code
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, codeNotFound
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, codeForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, codeInsufficientStock
	case errors.As(err, &validationErr):
		return fiber.StatusUnprocessableEntity, validationErr.Code
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity, codeValidation
	case errors.As(err, &transitionErr):
		return fiber.StatusConflict, transitionErr.Code
	case errors.Is(err, domain.ErrInvalidState):
		return fiber.StatusConflict, codeInvalidState
	case errors.As(err, &conflictErr):
		return fiber.StatusConflict, conflictErr.Code
	case errors.Is(err, domain.ErrLockNotObtained):
		return fiber.StatusConflict, codeInProgress
	case errors.Is(err, domain.ErrConcurrentModification):
		return fiber.StatusConflict, codeConcurrent
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, codeConflict
	case errors.Is(err, domain.ErrPersistence):
		return fiber.StatusInternalServerError, codePersistence
	default:
		return fiber.StatusInternalServerError, codeInternal
	}
}

// writeError responde con dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	body := dto.ErrorResponse{Code: code, Message: err.Error()}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		body.Fields = reqErr.Fields
	}
	return c.Status(status).JSON(body)
}

// writeExecutionError responde con dto.ExecutionErrorResponse, incluyendo los ítems con faltante.
func writeExecutionError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	body := dto.ExecutionErrorResponse{Success: false, Code: code, Error: err.Error()}
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		body.InsufficientItems = stockErr.Items
	}
	return c.Status(status).JSON(body)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: codeUnauthorized, Message: "token inválido"})
}
