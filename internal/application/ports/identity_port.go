package ports

import (
	"context"

	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
)

// CreateIdentityInput datos para crear una identidad en el Identity Service.
type CreateIdentityInput struct {
	Email        string
	Password     string
	EmailConfirm bool
	Metadata     entity.IdentityMetadata
}

// TokenVerifier valida un bearer token y devuelve el sujeto verificado.
// Cualquier fallo (token inválido, expirado, proveedor caído) se reporta como error;
// el llamante decide cómo clasificarlo.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*entity.Subject, error)
}

// IdentityService define el puerto de salida hacia el Identity Service.
// Create y Delete usan la credencial de servicio; nunca el token del llamante.
type IdentityService interface {
	TokenVerifier
	Create(ctx context.Context, in CreateIdentityInput) (*entity.Identity, error)
	Delete(ctx context.Context, id string) error
}
