package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
)

// OrderHandler maneja las órdenes de transformación y su ejecución (protegido).
type OrderHandler struct {
	uc           *transformation.OrderUseCase
	orchestrator *transformation.Orchestrator
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *transformation.OrderUseCase, orchestrator *transformation.Orchestrator) *OrderHandler {
	return &OrderHandler{uc: uc, orchestrator: orchestrator}
}

// Create godoc
// @Summary      Crear orden desde una plantilla
// @Tags         transformation-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateOrderRequest  true  "templateId, warehouseId"
// @Success      201   {object}  dto.OrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transformation-orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.Context(), companyID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar órdenes
// @Tags         transformation-orders
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "DRAFT, PREPARING, COMPLETED o CANCELLED"
// @Param        limit   query  int     false  "máx. 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  dto.OrderListResponse
// @Router       /api/transformation-orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	page, err := parsePage(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Context(), companyID, c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener orden con sus líneas
// @Tags         transformation-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transformation-orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetByID(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Retire godoc
// @Summary      Retirar orden (solo DRAFT o CANCELLED)
// @Tags         transformation-orders
// @Security     Bearer
// @Param        id   path  string  true  "ID de la orden"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transformation-orders/{id} [delete]
func (h *OrderHandler) Retire(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Retire(c.Context(), companyID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Transition godoc
// @Summary      Cambiar el estado de una orden
// @Description  COMPLETED solo se alcanza ejecutando la orden.
// @Tags         transformation-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "ID de la orden"
// @Param        body  body      dto.TransitionRequest  true  "estado destino"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transformation-orders/{id}/transition [post]
func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransitionRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Transition(c.Context(), companyID, userID, c.Params("id"), in.To)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ValidateTransition godoc
// @Summary      Validar una transición sin aplicarla
// @Tags         transformation-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Param        to   query     string  true  "estado destino"
// @Success      200  {object}  dto.TransitionValidationResponse
// @Router       /api/transformation-orders/{id}/validate-transition [get]
func (h *OrderHandler) ValidateTransition(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	to := c.Query("to")
	if to == "" {
		return writeError(c, &requestError{code: codeValidation, msg: "parámetro to requerido"})
	}
	out, err := h.uc.ValidateTransition(c.Context(), companyID, c.Params("id"), to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ValidateStock godoc
// @Summary      Verificar stock disponible para las entradas planeadas
// @Tags         transformation-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.StockValidationResponse
// @Router       /api/transformation-orders/{id}/validate-stock [get]
func (h *OrderHandler) ValidateStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.ValidateStock(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Execute godoc
// @Summary      Ejecutar transformación
// @Description  Consume las entradas, produce las salidas con costo asignado, registra merma y trazabilidad.
// @Description  Ante un fallo se compensan los movimientos ya aplicados y la orden vuelve a PREPARING.
// @Tags         transformation-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                            true  "ID de la orden"
// @Param        body  body      dto.ExecuteTransformationRequest  true  "cantidades reales por línea"
// @Success      201   {object}  dto.ExecuteTransformationResponse
// @Failure      409   {object}  dto.ExecutionErrorResponse
// @Failure      422   {object}  dto.ExecutionErrorResponse
// @Failure      500   {object}  dto.ExecutionErrorResponse
// @Router       /api/transformation-orders/{id}/execute [post]
func (h *OrderHandler) Execute(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ExecuteTransformationRequest
	if err := parseBody(c, &in); err != nil {
		return writeExecutionError(c, err)
	}
	out, err := h.orchestrator.Execute(c.Context(), companyID, userID, c.Params("id"), in)
	if err != nil {
		return writeExecutionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Lineage godoc
// @Summary      Trazabilidad entrada → salida de una orden ejecutada
// @Tags         transformation-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.LineageResponse
// @Router       /api/transformation-orders/{id}/lineage [get]
func (h *OrderHandler) Lineage(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Lineage(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte PDF de ejecución
// @Tags         transformation-orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {file}  binary
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transformation-orders/{id}/report.pdf [get]
func (h *OrderHandler) Report(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	id := c.Params("id")
	pdf, err := h.uc.Report(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="orden-`+id+`.pdf"`)
	return c.Send(pdf)
}
