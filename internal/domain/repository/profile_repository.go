package repository

import (
	"context"

	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
)

// ProfileRepository define el puerto de persistencia para Profile (DIP).
// Las implementaciones usan la credencial de servicio, no el token del usuario final.
type ProfileRepository interface {
	// ExistsByAuthUserAndRole indica si existe al menos un perfil con ese auth_user_id y rol.
	ExistsByAuthUserAndRole(ctx context.Context, authUserID, role string) (bool, error)
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	// GetByAuthUserID devuelve el perfil que referencia la identidad, o nil, nil.
	GetByAuthUserID(ctx context.Context, authUserID string) (*entity.Profile, error)
	// Create inserta el perfil y completa ID y CreatedAt.
	Create(ctx context.Context, p *entity.Profile) error
	Delete(ctx context.Context, id string) error
	// Ping comprueba la conectividad con el almacén (readiness).
	Ping(ctx context.Context) error
}
