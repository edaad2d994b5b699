package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/internal/domain"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	"github.com/jhoicas/marketplace-accounts/internal/domain/repository"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

// AdminPredicate decide si un sujeto verificado es administrador.
type AdminPredicate interface {
	IsAdmin(ctx context.Context, subject *entity.Subject) (bool, error)
}

// profileAdminPredicate: es admin si existe una fila en profiles con
// auth_user_id = subject.ID y role = 'admin'. No lee campos de un perfil ya cargado.
type profileAdminPredicate struct {
	profiles repository.ProfileRepository
}

// NewAdminPredicate crea el predicado por existencia de fila en el Profile Store.
func NewAdminPredicate(profiles repository.ProfileRepository) AdminPredicate {
	return &profileAdminPredicate{profiles: profiles}
}

func (p *profileAdminPredicate) IsAdmin(ctx context.Context, subject *entity.Subject) (bool, error) {
	return p.profiles.ExistsByAuthUserAndRole(ctx, subject.ID, entity.RoleAdmin)
}

// AuthorizationGate valida el bearer token del llamante y exige rol admin.
type AuthorizationGate struct {
	verifier ports.TokenVerifier
	admins   AdminPredicate
	log      *logger.Logger
}

// NewAuthorizationGate construye el gate.
func NewAuthorizationGate(verifier ports.TokenVerifier, admins AdminPredicate, log *logger.Logger) *AuthorizationGate {
	return &AuthorizationGate{verifier: verifier, admins: admins, log: log}
}

// Authorize devuelve el sujeto autorizado o:
//   - domain.ErrUnauthenticated si falta el token o no es válido,
//   - domain.ErrInternal si falla la consulta de rol,
//   - domain.ErrUnauthorized si el sujeto no tiene perfil admin.
func (g *AuthorizationGate) Authorize(ctx context.Context, token string) (*entity.Subject, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: falta el token", domain.ErrUnauthenticated)
	}
	subject, err := g.verifier.Verify(ctx, token)
	if err != nil || subject == nil || subject.ID == "" {
		g.log.Debug().Err(err).Msg("token rechazado")
		return nil, fmt.Errorf("%w: token inválido o expirado", domain.ErrUnauthenticated)
	}
	ok, err := g.admins.IsAdmin(ctx, subject)
	if err != nil {
		g.log.Error().Err(err).Str("subject_id", subject.ID).Msg("error consultando rol admin")
		return nil, fmt.Errorf("%w: no se pudo comprobar el rol", domain.ErrInternal)
	}
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return subject, nil
}
