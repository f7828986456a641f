package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/usecase"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/memory"
)

const testCompany = "cmp-1"

func TestItemUseCase_CreaYConsulta(t *testing.T) {
	uc := usecase.NewItemUseCase(memory.NewStore().Repos().Items)

	created, err := uc.Create(context.Background(), testCompany, dto.CreateItemRequest{
		Code: "MP-1", Name: "Res en canal", Cost: decimal.RequireFromString("12.5"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "und", created.UnitMeasure, "unidad por defecto")
	assert.True(t, created.IsActive)

	got, err := uc.GetByID(context.Background(), testCompany, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "MP-1", got.Code)
	assert.True(t, got.Cost.Equal(decimal.RequireFromString("12.5")))

	_, err = uc.GetByID(context.Background(), "cmp-otra", created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.GetByID(context.Background(), testCompany, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemUseCase_CostoNegativo(t *testing.T) {
	uc := usecase.NewItemUseCase(memory.NewStore().Repos().Items)

	_, err := uc.Create(context.Background(), testCompany, dto.CreateItemRequest{
		Code: "MP-1", Name: "Res", Cost: decimal.NewFromInt(-1),
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, domain.CodeInvalidQuantity, ve.Code)
}

func TestWarehouseUseCase_CreaYConsulta(t *testing.T) {
	uc := usecase.NewWarehouseUseCase(memory.NewStore().Warehouses())

	created, err := uc.Create(context.Background(), testCompany, dto.CreateWarehouseRequest{Name: "Planta", Address: "Cra 1"})
	require.NoError(t, err)
	assert.Equal(t, testCompany, created.CompanyID)

	got, err := uc.GetByID(context.Background(), testCompany, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Planta", got.Name)

	_, err = uc.GetByID(context.Background(), "cmp-otra", created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.GetByID(context.Background(), testCompany, "wh-nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
