package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/marketplace-accounts/internal/application/dto"
	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/internal/domain"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	"github.com/jhoicas/marketplace-accounts/internal/domain/repository"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

// Deprovisioner borra un perfil y luego su identidad:
//
//	Idle → AuthChecked → RoleChecked → ProfileDeleted → IdentityDeleted
//	… → ProfileDeleted → IdentityDeleteFailed (fallo parcial, se reporta, no se reintenta)
//
// Los perfiles admin nunca se borran por esta vía. Borrar un perfil no es reversible,
// así que ningún paso declara compensación.
type Deprovisioner struct {
	identity ports.IdentityService
	profiles repository.ProfileRepository
	admins   AdminPredicate
	events   ports.AccountEventPublisher
	comp     *Compensator
	metrics  ports.SagaMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewDeprovisioner construye el caso de uso. events y metrics pueden ser nil.
func NewDeprovisioner(
	identity ports.IdentityService,
	profiles repository.ProfileRepository,
	admins AdminPredicate,
	events ports.AccountEventPublisher,
	metrics ports.SagaMetrics,
	log *logger.Logger,
) *Deprovisioner {
	if metrics == nil {
		metrics = ports.NopSagaMetrics{}
	}
	return &Deprovisioner{
		identity: identity,
		profiles: profiles,
		admins:   admins,
		events:   events,
		comp:     NewCompensator(log, metrics),
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Deprovision da de baja la cuenta (user_id = id del perfil, auth_user_id = id de la identidad).
func (d *Deprovisioner) Deprovision(ctx context.Context, actor *entity.Subject, req dto.DeleteAccountRequest) error {
	req, err := normalizeDelete(req)
	if err != nil {
		return err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// RoleChecked: el destino no puede ser admin
	// ═══════════════════════════════════════════════════════════════════════════
	target, err := d.profiles.GetByID(ctx, req.UserID)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", req.UserID).Msg("error consultando el perfil a borrar")
		return fmt.Errorf("%w: no se pudo consultar el perfil: %v", domain.ErrUpstreamProfile, err)
	}
	if target != nil {
		if target.IsAdmin() {
			return fmt.Errorf("%w: no se puede eliminar un administrador", domain.ErrForbidden)
		}
		if target.AuthUserID != req.AuthUserID {
			return fmt.Errorf("%w: auth_user_id no corresponde al perfil", domain.ErrValidation)
		}
	} else {
		// Perfil ya ausente: solo se borra la identidad si es huérfana (ningún perfil la
		// referencia) y no es de un admin.
		isAdmin, err := d.admins.IsAdmin(ctx, &entity.Subject{ID: req.AuthUserID})
		if err != nil {
			return fmt.Errorf("%w: no se pudo comprobar el rol: %v", domain.ErrUpstreamProfile, err)
		}
		if isAdmin {
			return fmt.Errorf("%w: no se puede eliminar un administrador", domain.ErrForbidden)
		}
		owner, err := d.profiles.GetByAuthUserID(ctx, req.AuthUserID)
		if err != nil {
			return fmt.Errorf("%w: no se pudo consultar el perfil de la identidad: %v", domain.ErrUpstreamProfile, err)
		}
		if owner != nil {
			if owner.IsAdmin() {
				return fmt.Errorf("%w: no se puede eliminar un administrador", domain.ErrForbidden)
			}
			return fmt.Errorf("%w: auth_user_id pertenece a otro perfil", domain.ErrValidation)
		}
		d.log.Warn().Str("user_id", req.UserID).Str("auth_user_id", req.AuthUserID).Msg("perfil no encontrado; se borra solo la identidad")
	}

	saga := NewSaga(SagaDeprovision, d.comp, d.metrics)
	if target != nil {
		saga.AddStep(Step{
			Name: StepDeleteProfile,
			Do: func(ctx context.Context) error {
				return d.profiles.Delete(ctx, req.UserID)
			},
		})
	}
	saga.AddStep(Step{
		Name: StepDeleteIdentity,
		Do: func(ctx context.Context) error {
			return d.identity.Delete(ctx, req.AuthUserID)
		},
	})

	role := ""
	if target != nil {
		role = target.Role
	}
	if err := saga.Execute(ctx); err != nil {
		return d.deprovisionError(ctx, actor, req, role, err)
	}

	d.log.Info().
		Str("actor_id", actor.ID).
		Str("user_id", req.UserID).
		Str("auth_user_id", req.AuthUserID).
		Msg("cuenta eliminada")
	publishEvent(ctx, d.events, d.log, d.now, ports.AccountEvent{
		Type:       ports.EventAccountDeprovisioned,
		ProfileID:  req.UserID,
		AuthUserID: req.AuthUserID,
		Role:       role,
		ActorID:    actor.ID,
	})
	return nil
}

func (d *Deprovisioner) deprovisionError(ctx context.Context, actor *entity.Subject, req dto.DeleteAccountRequest, role string, err error) error {
	var se *StepError
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	switch {
	case se.Step == StepDeleteProfile:
		return fmt.Errorf("%w: no se pudo eliminar el perfil: %v", domain.ErrUpstreamProfile, se.Err)
	case len(se.Completed) == 0:
		// solo había identidad que borrar; no se eliminó nada
		return fmt.Errorf("%w: no se pudo eliminar la identidad: %v", domain.ErrUpstreamIdentity, se.Err)
	}

	d.metrics.PartialFailure(SagaDeprovision)
	d.log.Error().
		Err(se.Err).
		Str("actor_id", actor.ID).
		Str("user_id", req.UserID).
		Str("auth_user_id", req.AuthUserID).
		Msg("fallo parcial: perfil eliminado, identidad no")
	publishEvent(ctx, d.events, d.log, d.now, ports.AccountEvent{
		Type:       ports.EventAccountDeprovisionPartial,
		ProfileID:  req.UserID,
		AuthUserID: req.AuthUserID,
		Role:       role,
		ActorID:    actor.ID,
		Detail:     se.Err.Error(),
	})
	return fmt.Errorf("%w: el perfil se eliminó pero la identidad no: %v", domain.ErrPartialFailure, se.Err)
}
