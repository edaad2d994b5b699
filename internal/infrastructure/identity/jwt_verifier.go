package identity

import (
	"context"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	"github.com/jhoicas/marketplace-accounts/pkg/jwt"
)

var _ ports.TokenVerifier = (*JWTVerifier)(nil)

// JWTVerifier valida tokens localmente con el secreto HS256 del Identity Service,
// sin ida y vuelta a /user. Un token revocado sigue siendo válido hasta su expiración.
type JWTVerifier struct {
	secret string
}

// NewJWTVerifier crea el verificador con el secreto compartido.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

// Verify valida firma, audiencia y expiración, y devuelve el sujeto del token.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*entity.Subject, error) {
	claims, err := jwt.Parse(v.secret, token)
	if err != nil {
		return nil, err
	}
	return &entity.Subject{ID: claims.Subject, Email: claims.Email}, nil
}
