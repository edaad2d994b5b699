package ports

import "context"

// Estados de una clave de idempotencia.
const (
	IdempotencyPending   = "pending"
	IdempotencyCompleted = "completed"
)

// IdempotencyRecord estado guardado para una Idempotency-Key.
type IdempotencyRecord struct {
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	Result      []byte `json:"result,omitempty"`
}

// IdempotencyStore reserva y completa claves de idempotencia de operaciones mutantes.
type IdempotencyStore interface {
	// Reserve reserva key de forma atómica. Devuelve nil si la reserva es nueva,
	// o el registro existente si la clave ya estaba tomada.
	Reserve(ctx context.Context, key, fingerprint string) (*IdempotencyRecord, error)
	// Complete marca la clave como completada guardando el resultado serializado.
	Complete(ctx context.Context, key string, result []byte) error
	// Release libera una clave reservada para que el llamante pueda reintentar.
	Release(ctx context.Context, key string) error
}
