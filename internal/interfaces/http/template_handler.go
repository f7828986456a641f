package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
)

// TemplateHandler maneja las plantillas de transformación (protegido).
type TemplateHandler struct {
	uc *transformation.TemplateUseCase
}

// NewTemplateHandler construye el handler.
func NewTemplateHandler(uc *transformation.TemplateUseCase) *TemplateHandler {
	return &TemplateHandler{uc: uc}
}

// Create godoc
// @Summary      Crear plantilla de transformación
// @Tags         transformation-templates
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTemplateRequest  true  "code, name, inputs, outputs"
// @Success      201   {object}  dto.TemplateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transformation-templates [post]
func (h *TemplateHandler) Create(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTemplateRequest
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
// @Summary      Listar plantillas
// @Tags         transformation-templates
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máx. 100"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.TemplateListResponse
// @Router       /api/transformation-templates [get]
func (h *TemplateHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	page, err := parsePage(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener plantilla
// @Tags         transformation-templates
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la plantilla"
// @Success      200  {object}  dto.TemplateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transformation-templates/{id} [get]
func (h *TemplateHandler) GetByID(c *fiber.Ctx) error {
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

// Update godoc
// @Summary      Actualizar plantilla
// @Description  Una plantilla ya usada por alguna orden solo admite cambios de nombre, descripción y estado.
// @Tags         transformation-templates
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "ID de la plantilla"
// @Param        body  body      dto.UpdateTemplateRequest  true  "campos a modificar"
// @Success      200   {object}  dto.TemplateResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transformation-templates/{id} [put]
func (h *TemplateHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateTemplateRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Deactivate godoc
// @Summary      Desactivar plantilla
// @Tags         transformation-templates
// @Security     Bearer
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      204
// @Router       /api/transformation-templates/{id} [delete]
func (h *TemplateHandler) Deactivate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Deactivate(c.Context(), companyID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Validate godoc
// @Summary      Validar plantilla
// @Tags         transformation-templates
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la plantilla"
// @Success      200  {object}  dto.TemplateValidationResponse
// @Router       /api/transformation-templates/{id}/validate [get]
func (h *TemplateHandler) Validate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Validate(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// parsePage lee limit/offset de la query y aplica los valores por defecto.
func parsePage(c *fiber.Ctx) (dto.PageRequest, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return page, &requestError{code: codeValidation, msg: "paginación inválida"}
	}
	page.Normalize()
	if err := validateStruct(&page); err != nil {
		return page, err
	}
	return page, nil
}
