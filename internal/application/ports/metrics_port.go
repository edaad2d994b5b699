package ports

// Resultados registrados por las métricas de la saga.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SagaMetrics contadores de pasos, compensaciones y fallos parciales.
type SagaMetrics interface {
	StepCompleted(saga, step, outcome string)
	CompensationRan(saga, step, outcome string)
	PartialFailure(saga string)
}

// NopSagaMetrics implementación vacía para cuando no hay métricas configuradas.
type NopSagaMetrics struct{}

func (NopSagaMetrics) StepCompleted(string, string, string)   {}
func (NopSagaMetrics) CompensationRan(string, string, string) {}
func (NopSagaMetrics) PartialFailure(string)                  {}
