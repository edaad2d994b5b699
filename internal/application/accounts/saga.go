package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

// Step paso de una saga. Compensate deshace el efecto de Do; nil indica que el paso
// no es reversible (la saga no intentará deshacerlo).
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError fallo de una saga en el paso Step.
// Completed son los pasos que terminaron antes del fallo, en orden de ejecución;
// Uncompensated los que tenían compensación y esta falló (recursos huérfanos).
type StepError struct {
	Saga          string
	Step          string
	Completed     []string
	Uncompensated []string
	Err           error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga %s: paso %s: %v", e.Saga, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Compensator es el único lugar donde se ejecutan compensaciones.
// Corre desligado de la cancelación de la petición entrante, registra el resultado
// y nunca reemplaza el error original de la saga.
type Compensator struct {
	log     *logger.Logger
	metrics ports.SagaMetrics
}

// NewCompensator crea el ejecutor de compensaciones. metrics puede ser nil.
func NewCompensator(log *logger.Logger, metrics ports.SagaMetrics) *Compensator {
	if metrics == nil {
		metrics = ports.NopSagaMetrics{}
	}
	return &Compensator{log: log, metrics: metrics}
}

// Run ejecuta fn una sola vez. El error devuelto es solo informativo.
func (c *Compensator) Run(ctx context.Context, saga, step string, fn func(ctx context.Context) error) error {
	ctx = context.WithoutCancel(ctx)
	if err := fn(ctx); err != nil {
		c.metrics.CompensationRan(saga, step, ports.OutcomeFailure)
		c.log.Error().Err(err).Str("saga", saga).Str("step", step).Msg("compensación fallida")
		return err
	}
	c.metrics.CompensationRan(saga, step, ports.OutcomeSuccess)
	c.log.Warn().Str("saga", saga).Str("step", step).Msg("compensación aplicada")
	return nil
}

// Saga secuencia de pasos con compensación en orden inverso.
type Saga struct {
	name    string
	steps   []Step
	comp    *Compensator
	metrics ports.SagaMetrics
}

// NewSaga crea una saga vacía. metrics puede ser nil.
func NewSaga(name string, comp *Compensator, metrics ports.SagaMetrics) *Saga {
	if metrics == nil {
		metrics = ports.NopSagaMetrics{}
	}
	return &Saga{name: name, comp: comp, metrics: metrics}
}

// AddStep añade un paso al final de la saga.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Steps nombres de los pasos en orden de ejecución.
func (s *Saga) Steps() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name
	}
	return names
}

// Execute corre los pasos en orden. Si el paso k falla, compensa k-1..0 (cada uno una vez)
// y devuelve un *StepError que envuelve el error original.
func (s *Saga) Execute(ctx context.Context) error {
	completed := make([]Step, 0, len(s.steps))
	for _, st := range s.steps {
		if err := st.Do(ctx); err != nil {
			s.metrics.StepCompleted(s.name, st.Name, ports.OutcomeFailure)
			return s.rollback(ctx, st.Name, completed, err)
		}
		s.metrics.StepCompleted(s.name, st.Name, ports.OutcomeSuccess)
		completed = append(completed, st)
	}
	return nil
}

func (s *Saga) rollback(ctx context.Context, failed string, completed []Step, cause error) error {
	se := &StepError{Saga: s.name, Step: failed, Err: cause}
	for _, st := range completed {
		se.Completed = append(se.Completed, st.Name)
	}
	for i := len(completed) - 1; i >= 0; i-- {
		st := completed[i]
		if st.Compensate == nil {
			continue
		}
		if err := s.comp.Run(ctx, s.name, st.Name, st.Compensate); err != nil {
			se.Uncompensated = append(se.Uncompensated, st.Name)
		}
	}
	return se
}

// describe resumen legible del estado dejado por un StepError, para logs y eventos.
func (e *StepError) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "falló %s", e.Step)
	if len(e.Completed) > 0 {
		fmt.Fprintf(&b, "; completados: %s", strings.Join(e.Completed, ","))
	}
	if len(e.Uncompensated) > 0 {
		fmt.Fprintf(&b, "; sin compensar: %s", strings.Join(e.Uncompensated, ","))
	}
	return b.String()
}
