package ports

import (
	"context"
	"time"
)

// Tipos de evento de ciclo de vida de cuentas.
const (
	EventAccountProvisioned          = "account.provisioned"
	EventAccountProvisionCompensated = "account.provision_compensated"
	EventAccountDeprovisioned        = "account.deprovisioned"
	EventAccountDeprovisionPartial   = "account.deprovision_partial_failure"
)

// AccountEvent resultado terminal de una operación de aprovisionamiento o baja.
type AccountEvent struct {
	Type       string    `json:"type"`
	ProfileID  string    `json:"profile_id,omitempty"`
	AuthUserID string    `json:"auth_user_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Detail     string    `json:"detail,omitempty"`
}

// AccountEventPublisher publica eventos de cuenta. Un error de publicación nunca cambia
// el resultado de la operación que lo originó.
type AccountEventPublisher interface {
	Publish(ctx context.Context, ev AccountEvent) error
}
