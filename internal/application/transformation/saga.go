package transformation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Step paso de la saga. Compensate deshace Action; puede ser nil si no hay nada que deshacer.
// Un paso BestEffort que falla se registra y la saga continúa sin compensar.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	BestEffort bool
}

// SagaError fallo fatal de un paso, con el resultado de las compensaciones.
type SagaError struct {
	Step            string
	Err             error
	CompensationErr error // nil si todas las compensaciones terminaron bien
	Compensated     []string
}

func (e *SagaError) Error() string {
	if e.CompensationErr != nil {
		return fmt.Sprintf("paso %s: %v (compensación incompleta: %v)", e.Step, e.Err, e.CompensationErr)
	}
	return fmt.Sprintf("paso %s: %v", e.Step, e.Err)
}

func (e *SagaError) Unwrap() []error {
	if e.CompensationErr != nil {
		return []error{e.Err, e.CompensationErr}
	}
	return []error{e.Err}
}

// Saga ejecuta pasos en orden y, ante un fallo fatal, compensa en orden inverso los ya completados.
type Saga struct {
	log          zerolog.Logger
	steps        []Step
	onStepFailed func(step string, err error)
}

// NewSaga construye una saga vacía.
func NewSaga(log zerolog.Logger, onStepFailed func(step string, err error)) *Saga {
	if onStepFailed == nil {
		onStepFailed = func(string, error) {}
	}
	return &Saga{log: log, onStepFailed: onStepFailed}
}

// Add agrega un paso al final.
func (s *Saga) Add(step Step) {
	s.steps = append(s.steps, step)
}

// Execute corre los pasos. Las compensaciones usan un contexto sin cancelación para
// terminar aunque el request se haya cancelado.
func (s *Saga) Execute(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		if err := step.Action(ctx); err != nil {
			s.onStepFailed(step.Name, err)
			if step.BestEffort {
				s.log.Warn().Err(err).Str("step", step.Name).Msg("paso best-effort falló; se continúa")
				continue
			}
			s.log.Error().Err(err).Str("step", step.Name).Msg("paso de la saga falló; compensando")
			return s.compensate(context.WithoutCancel(ctx), step.Name, err, done)
		}
		done = append(done, step)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, failed string, cause error, done []Step) error {
	sagaErr := &SagaError{Step: failed, Err: cause}
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.log.Error().Err(err).Str("step", step.Name).Msg("compensación falló")
			errs = append(errs, fmt.Errorf("compensar %s: %w", step.Name, err))
			continue
		}
		sagaErr.Compensated = append(sagaErr.Compensated, step.Name)
	}
	sagaErr.CompensationErr = errors.Join(errs...)
	return sagaErr
}
