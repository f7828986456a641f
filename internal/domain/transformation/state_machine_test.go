package transformation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/transformation"
)

func TestValidateTransition_AristasPermitidas(t *testing.T) {
	cases := []struct{ from, to string }{
		{entity.OrderStatusDraft, entity.OrderStatusPreparing},
		{entity.OrderStatusDraft, entity.OrderStatusCancelled},
		{entity.OrderStatusPreparing, entity.OrderStatusCancelled},
	}
	for _, c := range cases {
		assert.NoError(t, transformation.ValidateTransition(c.from, c.to), "%s → %s debe ser válida", c.from, c.to)
	}
}

func TestValidateTransition_PreparingNoVuelveABorrador(t *testing.T) {
	err := transformation.ValidateTransition(entity.OrderStatusPreparing, entity.OrderStatusDraft)
	var te *domain.InvalidTransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.CodeTransitionNotFound, te.Code)
}

func TestValidateTransition_NadaSaleDeCompleted(t *testing.T) {
	for _, to := range []string{entity.OrderStatusDraft, entity.OrderStatusPreparing, entity.OrderStatusCancelled, entity.OrderStatusCompleted} {
		err := transformation.ValidateTransition(entity.OrderStatusCompleted, to)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

		var te *domain.InvalidTransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, domain.CodeTerminalState, te.Code)
	}
}

func TestValidateTransition_CancelledEsTerminal(t *testing.T) {
	err := transformation.ValidateTransition(entity.OrderStatusCancelled, entity.OrderStatusDraft)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestValidateTransition_CompletedSoloViaEjecucion(t *testing.T) {
	err := transformation.ValidateTransition(entity.OrderStatusPreparing, entity.OrderStatusCompleted)
	var te *domain.InvalidTransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.CodeExecutionRequired, te.Code)
}

func TestValidateTransition_DraftNoVaDirectoACompleted(t *testing.T) {
	assert.ErrorIs(t, transformation.ValidateTransition(entity.OrderStatusDraft, entity.OrderStatusCompleted), domain.ErrInvalidTransition)
}

func TestValidateTransition_EstadoDesconocido(t *testing.T) {
	err := transformation.ValidateTransition("ARCHIVED", entity.OrderStatusDraft)
	var te *domain.InvalidTransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.CodeUnknownStatus, te.Code)
}

func TestValidateExecution(t *testing.T) {
	assert.NoError(t, transformation.ValidateExecution(entity.OrderStatusPreparing))

	err := transformation.ValidateExecution(entity.OrderStatusDraft)
	var se *domain.InvalidStateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, entity.OrderStatusDraft, se.Current, "el error debe reportar el estado actual")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
