package accounts

import (
	"context"
	"encoding/json"
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

// Nombres de saga y pasos (también etiquetas de métricas).
const (
	SagaProvision      = "provision"
	StepCreateIdentity = "create_identity"
	StepCreateProfile  = "create_profile"
	SagaDeprovision    = "deprovision"
	StepDeleteProfile  = "delete_profile"
	StepDeleteIdentity = "delete_identity"
)

// ProvisionResult resultado de una creación. Replayed indica que se devolvió
// el resultado guardado de una Idempotency-Key ya completada.
type ProvisionResult struct {
	Profile  *entity.Profile
	Replayed bool
}

// Provisioner crea una identidad y luego su perfil:
//
//	Validated → IdentityCreated → ProfileCreated
//	IdentityCreated → ProvisionFailed → CompensationAttempted
//
// Si la inserción del perfil falla, la identidad recién creada se borra una vez
// (best-effort) y el llamante recibe siempre el error original del perfil.
type Provisioner struct {
	identity ports.IdentityService
	profiles repository.ProfileRepository
	idem     ports.IdempotencyStore // nil = sin idempotencia
	events   ports.AccountEventPublisher
	comp     *Compensator
	metrics  ports.SagaMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewProvisioner construye el caso de uso. idem, events y metrics pueden ser nil.
func NewProvisioner(
	identity ports.IdentityService,
	profiles repository.ProfileRepository,
	idem ports.IdempotencyStore,
	events ports.AccountEventPublisher,
	metrics ports.SagaMetrics,
	log *logger.Logger,
) *Provisioner {
	if metrics == nil {
		metrics = ports.NopSagaMetrics{}
	}
	return &Provisioner{
		identity: identity,
		profiles: profiles,
		idem:     idem,
		events:   events,
		comp:     NewCompensator(log, metrics),
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Provision crea la cuenta. actor es el admin autorizado que hace la petición.
// idempotencyKey vacío desactiva la idempotencia para esta llamada.
func (p *Provisioner) Provision(ctx context.Context, actor *entity.Subject, req dto.CreateAccountRequest, idempotencyKey string) (*ProvisionResult, error) {
	in, err := normalizeCreate(req)
	if err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// Idempotency-Key: replay, conflicto o reserva nueva
	// ═══════════════════════════════════════════════════════════════════════════
	key := p.reserve(ctx, idempotencyKey, fingerprint(in))
	if key.replay != nil || key.err != nil {
		return key.replay, key.err
	}

	var identity *entity.Identity
	var profile *entity.Profile

	saga := NewSaga(SagaProvision, p.comp, p.metrics).
		AddStep(Step{
			Name: StepCreateIdentity,
			Do: func(ctx context.Context) error {
				created, err := p.identity.Create(ctx, ports.CreateIdentityInput{
					Email:        in.Email,
					Password:     in.Password,
					EmailConfirm: in.EmailConfirm,
					Metadata:     entity.IdentityMetadata{FullName: in.FullName},
				})
				if err != nil {
					return err
				}
				if created == nil || created.ID == "" {
					return errors.New("el servicio de identidad no devolvió id")
				}
				identity = created
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return p.identity.Delete(ctx, identity.ID)
			},
		}).
		AddStep(Step{
			Name: StepCreateProfile,
			Do: func(ctx context.Context) error {
				profile = &entity.Profile{
					AuthUserID:    identity.ID,
					Role:          in.Role,
					FullName:      in.FullName,
					Email:         in.Email,
					PhoneNumber:   in.PhoneNumber,
					City:          in.City,
					IsVerified:    in.IsVerified,
					PublicProfile: entity.PublicProfileFor(in.Role),
					TermsAccepted: true,
					ProfileData:   map[string]any{},
				}
				return p.profiles.Create(ctx, profile)
			},
		})

	if err := saga.Execute(ctx); err != nil {
		p.release(ctx, key.key)
		return nil, p.provisionError(ctx, actor, in, identity, err)
	}

	p.log.Info().
		Str("actor_id", actor.ID).
		Str("profile_id", profile.ID).
		Str("auth_user_id", profile.AuthUserID).
		Str("role", profile.Role).
		Msg("cuenta creada")
	p.publish(ctx, ports.AccountEvent{
		Type:       ports.EventAccountProvisioned,
		ProfileID:  profile.ID,
		AuthUserID: profile.AuthUserID,
		Role:       profile.Role,
		ActorID:    actor.ID,
	})
	p.complete(ctx, key.key, profile)
	return &ProvisionResult{Profile: profile}, nil
}

// provisionError traduce el fallo de la saga al error de dominio que ve el llamante.
func (p *Provisioner) provisionError(ctx context.Context, actor *entity.Subject, in provisionInput, identity *entity.Identity, err error) error {
	var se *StepError
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	switch se.Step {
	case StepCreateIdentity:
		p.log.Warn().Err(se.Err).Str("actor_id", actor.ID).Msg("el servicio de identidad rechazó la creación")
		return fmt.Errorf("%w: %v", domain.ErrUpstreamIdentity, se.Err)
	default:
		p.log.Error().
			Err(se.Err).
			Str("actor_id", actor.ID).
			Str("auth_user_id", identity.ID).
			Strs("uncompensated", se.Uncompensated).
			Msg("falló la creación del perfil")
		p.publish(ctx, ports.AccountEvent{
			Type:       ports.EventAccountProvisionCompensated,
			AuthUserID: identity.ID,
			Role:       in.Role,
			ActorID:    actor.ID,
			Detail:     se.describe(),
		})
		return fmt.Errorf("%w: %v", domain.ErrUpstreamProfile, se.Err)
	}
}

type reservation struct {
	key    string // clave reservada por esta llamada; vacío si no hay
	replay *ProvisionResult
	err    error
}

func (p *Provisioner) reserve(ctx context.Context, key, fp string) reservation {
	if key == "" || p.idem == nil {
		return reservation{}
	}
	rec, err := p.idem.Reserve(ctx, key, fp)
	if err != nil {
		p.log.Warn().Err(err).Str("idempotency_key", key).Msg("almacén de idempotencia no disponible; se continúa sin clave")
		return reservation{}
	}
	if rec == nil {
		return reservation{key: key}
	}
	if rec.Fingerprint != fp {
		return reservation{err: fmt.Errorf("%w: la clave ya se usó con otra petición", domain.ErrIdempotencyConflict)}
	}
	if rec.Status != ports.IdempotencyCompleted {
		return reservation{err: fmt.Errorf("%w: hay una petición en curso con la misma clave", domain.ErrIdempotencyConflict)}
	}
	var prof entity.Profile
	if err := json.Unmarshal(rec.Result, &prof); err != nil {
		p.log.Error().Err(err).Str("idempotency_key", key).Msg("resultado de idempotencia corrupto")
		return reservation{err: fmt.Errorf("%w: resultado guardado ilegible", domain.ErrInternal)}
	}
	return reservation{replay: &ProvisionResult{Profile: &prof, Replayed: true}}
}

func (p *Provisioner) complete(ctx context.Context, key string, profile *entity.Profile) {
	if key == "" {
		return
	}
	raw, err := json.Marshal(profile)
	if err == nil {
		err = p.idem.Complete(context.WithoutCancel(ctx), key, raw)
	}
	if err != nil {
		p.log.Error().Err(err).Str("idempotency_key", key).Msg("no se pudo completar la clave de idempotencia")
		// Sin resultado guardado, una clave pendiente bloquearía los reintentos hasta el TTL.
		p.release(ctx, key)
	}
}

func (p *Provisioner) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := p.idem.Release(context.WithoutCancel(ctx), key); err != nil {
		p.log.Error().Err(err).Str("idempotency_key", key).Msg("no se pudo liberar la clave de idempotencia")
	}
}

func (p *Provisioner) publish(ctx context.Context, ev ports.AccountEvent) {
	publishEvent(ctx, p.events, p.log, p.now, ev)
}

// publishEvent publica sin afectar el resultado de la operación; los errores solo se registran.
func publishEvent(ctx context.Context, pub ports.AccountEventPublisher, log *logger.Logger, now func() time.Time, ev ports.AccountEvent) {
	if pub == nil {
		return
	}
	ev.OccurredAt = now().UTC()
	if err := pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Error().Err(err).Str("event", ev.Type).Str("auth_user_id", ev.AuthUserID).Msg("no se pudo publicar el evento de cuenta")
	}
}
