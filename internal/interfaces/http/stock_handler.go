package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
)

// StockHandler consultas de saldos y movimientos de stock (protegido).
type StockHandler struct {
	uc *inventory.StockQueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockQueryUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// GetBalance godoc
// @Summary      Saldo de un ítem en una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        itemId        path   string  true  "ID del ítem"
// @Param        warehouse_id  query  string  true  "ID de la bodega"
// @Success      200  {object}  dto.StockBalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{itemId} [get]
func (h *StockHandler) GetBalance(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		return writeError(c, &requestError{code: codeValidation, msg: "parámetro warehouse_id requerido"})
	}
	out, err := h.uc.GetBalance(c.Context(), companyID, c.Params("itemId"), warehouseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListTransactions godoc
// @Summary      Movimientos de stock de una referencia (p. ej. una orden)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        reference_id  query  string  true  "ID de la referencia"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stock-transactions [get]
func (h *StockHandler) ListTransactions(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ListByReference(c.Context(), companyID, c.Query("reference_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":        len(list),
		"transactions": list,
	})
}
