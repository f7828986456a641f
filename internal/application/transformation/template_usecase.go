package transformation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

// TemplateUseCase gestión de plantillas de transformación.
type TemplateUseCase struct {
	repo      repository.TemplateRepository
	items     repository.ItemRepository
	validator *Validator
}

// NewTemplateUseCase construye el caso de uso.
func NewTemplateUseCase(repo repository.TemplateRepository, items repository.ItemRepository, validator *Validator) *TemplateUseCase {
	return &TemplateUseCase{repo: repo, items: items, validator: validator}
}

// Create crea una plantilla validando ítems, cantidades y líneas duplicadas.
func (uc *TemplateUseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	now := time.Now()
	t := &entity.TransformationTemplate{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   userID,
	}
	if err := uc.setLines(ctx, t, in.Inputs, in.Outputs); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, t); err != nil {
		return nil, domain.Persistence("crear plantilla", err)
	}
	return toTemplateResponse(t), nil
}

// GetByID obtiene una plantilla de la empresa.
func (uc *TemplateUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.TemplateResponse, error) {
	t, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toTemplateResponse(t), nil
}

// List lista plantillas por empresa con paginación.
func (uc *TemplateUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.TemplateListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, domain.Persistence("listar plantillas", err)
	}
	items := make([]dto.TemplateResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTemplateResponse(t))
	}
	return &dto.TemplateListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Count: len(items)},
	}, nil
}

// Update actualiza la plantilla. Con usageCount > 0 solo se permiten cambios no estructurales.
func (uc *TemplateUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateTemplateRequest) (*dto.TemplateResponse, error) {
	t, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	structural := len(in.Inputs) > 0 || len(in.Outputs) > 0
	if structural && t.IsLocked() {
		return nil, &domain.ConflictError{
			Code:    domain.CodeTemplateLocked,
			Message: fmt.Sprintf("la plantilla ya fue usada por %d orden(es); su estructura no se puede editar", t.UsageCount),
		}
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if structural {
		inputs, outputs := in.Inputs, in.Outputs
		if len(inputs) == 0 {
			inputs = templateInputsToRequest(t.Inputs)
		}
		if len(outputs) == 0 {
			outputs = templateOutputsToRequest(t.Outputs)
		}
		if err := uc.setLines(ctx, t, inputs, outputs); err != nil {
			return nil, err
		}
	}
	t.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, t); err != nil {
		return nil, domain.Persistence("actualizar plantilla", err)
	}
	return toTemplateResponse(t), nil
}

// Deactivate marca la plantilla como inactiva; las órdenes existentes no se afectan.
func (uc *TemplateUseCase) Deactivate(ctx context.Context, companyID, id string) error {
	t, err := uc.load(ctx, companyID, id)
	if err != nil {
		return err
	}
	t.IsActive = false
	t.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, t); err != nil {
		return domain.Persistence("desactivar plantilla", err)
	}
	return nil
}

// Validate expone ValidateTemplate.
func (uc *TemplateUseCase) Validate(ctx context.Context, companyID, id string) (*dto.TemplateValidationResponse, error) {
	res, err := uc.validator.ValidateTemplate(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	out := &dto.TemplateValidationResponse{IsValid: res.IsValid}
	if res.Err != nil {
		out.Code = res.Err.Code
		out.Error = res.Err.Message
	}
	return out, nil
}

func (uc *TemplateUseCase) load(ctx context.Context, companyID, id string) (*entity.TransformationTemplate, error) {
	t, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence("leer plantilla", err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: plantilla %s", domain.ErrNotFound, id)
	}
	if t.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

// setLines valida y asigna las líneas. Completa la unidad de medida desde el ítem si falta.
func (uc *TemplateUseCase) setLines(ctx context.Context, t *entity.TransformationTemplate, inputs, outputs []dto.TemplateLineRequest) error {
	if len(inputs) == 0 {
		return domain.NewValidationError(domain.CodeTemplateNoInputs, "la plantilla requiere al menos una entrada")
	}
	if len(outputs) == 0 {
		return domain.NewValidationError(domain.CodeTemplateNoOutputs, "la plantilla requiere al menos una salida")
	}

	ids := make([]string, 0, len(inputs)+len(outputs))
	for _, l := range inputs {
		ids = append(ids, l.ItemID)
	}
	for _, l := range outputs {
		ids = append(ids, l.ItemID)
	}
	items, err := uc.items.GetByIDs(ctx, ids)
	if err != nil {
		return domain.Persistence("leer ítems", err)
	}
	if err := checkLines("entrada", inputs, items, t.CompanyID); err != nil {
		return err
	}
	if err := checkLines("salida", outputs, items, t.CompanyID); err != nil {
		return err
	}

	t.Inputs = make([]entity.TemplateInput, 0, len(inputs))
	for i, l := range inputs {
		t.Inputs = append(t.Inputs, entity.TemplateInput{
			ID:          uuid.New().String(),
			TemplateID:  t.ID,
			ItemID:      l.ItemID,
			UnitMeasure: unitMeasure(l, items),
			Quantity:    l.Quantity,
			Sequence:    i + 1,
		})
	}
	t.Outputs = make([]entity.TemplateOutput, 0, len(outputs))
	for i, l := range outputs {
		t.Outputs = append(t.Outputs, entity.TemplateOutput{
			ID:          uuid.New().String(),
			TemplateID:  t.ID,
			ItemID:      l.ItemID,
			UnitMeasure: unitMeasure(l, items),
			Quantity:    l.Quantity,
			IsScrap:     l.IsScrap,
			Sequence:    i + 1,
		})
	}
	return nil
}

func checkLines(kind string, lines []dto.TemplateLineRequest, items map[string]*entity.Item, companyID string) error {
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		item := items[l.ItemID]
		if item == nil || item.CompanyID != companyID {
			return domain.NewValidationError(domain.CodeMissingItem, fmt.Sprintf("ítem de %s no encontrado: %s", kind, l.ItemID))
		}
		if !l.Quantity.GreaterThan(decimal.Zero) {
			return domain.NewValidationError(domain.CodeInvalidQuantity, fmt.Sprintf("la cantidad de %s %s debe ser positiva", kind, item.Code))
		}
		if seen[l.ItemID] {
			return domain.NewValidationError(domain.CodeDuplicateLine, fmt.Sprintf("ítem %s repetido en las líneas de %s", item.Code, kind))
		}
		seen[l.ItemID] = true
	}
	return nil
}

func unitMeasure(l dto.TemplateLineRequest, items map[string]*entity.Item) string {
	if l.UnitMeasure != "" {
		return l.UnitMeasure
	}
	if it := items[l.ItemID]; it != nil {
		return it.UnitMeasure
	}
	return ""
}

func templateInputsToRequest(lines []entity.TemplateInput) []dto.TemplateLineRequest {
	out := make([]dto.TemplateLineRequest, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.TemplateLineRequest{ItemID: l.ItemID, UnitMeasure: l.UnitMeasure, Quantity: l.Quantity})
	}
	return out
}

func templateOutputsToRequest(lines []entity.TemplateOutput) []dto.TemplateLineRequest {
	out := make([]dto.TemplateLineRequest, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.TemplateLineRequest{ItemID: l.ItemID, UnitMeasure: l.UnitMeasure, Quantity: l.Quantity, IsScrap: l.IsScrap})
	}
	return out
}

func toTemplateResponse(t *entity.TransformationTemplate) *dto.TemplateResponse {
	out := &dto.TemplateResponse{
		ID:          t.ID,
		CompanyID:   t.CompanyID,
		Code:        t.Code,
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		UsageCount:  t.UsageCount,
		Locked:      t.IsLocked(),
		Inputs:      make([]dto.TemplateLineResponse, 0, len(t.Inputs)),
		Outputs:     make([]dto.TemplateLineResponse, 0, len(t.Outputs)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, l := range t.Inputs {
		out.Inputs = append(out.Inputs, dto.TemplateLineResponse{
			ID: l.ID, ItemID: l.ItemID, UnitMeasure: l.UnitMeasure, Quantity: l.Quantity, Sequence: l.Sequence,
		})
	}
	for _, l := range t.Outputs {
		out.Outputs = append(out.Outputs, dto.TemplateLineResponse{
			ID: l.ID, ItemID: l.ItemID, UnitMeasure: l.UnitMeasure, Quantity: l.Quantity, IsScrap: l.IsScrap, Sequence: l.Sequence,
		})
	}
	return out
}
