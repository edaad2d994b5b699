package events

import (
	"context"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

var _ ports.AccountEventPublisher = (*LogPublisher)(nil)

// LogPublisher escribe los eventos en el log estructurado. Se usa cuando no hay brokers.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher crea el publicador sobre el logger dado.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish registra el evento a nivel info; nunca devuelve error.
func (p *LogPublisher) Publish(_ context.Context, ev ports.AccountEvent) error {
	p.log.Info().
		Str("event", ev.Type).
		Str("profile_id", ev.ProfileID).
		Str("auth_user_id", ev.AuthUserID).
		Str("role", ev.Role).
		Str("actor_id", ev.ActorID).
		Time("occurred_at", ev.OccurredAt).
		Str("detail", ev.Detail).
		Msg("evento de cuenta")
	return nil
}
