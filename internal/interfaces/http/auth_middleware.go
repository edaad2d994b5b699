package http

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marketplace-accounts/internal/domain"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
)

// LocalSubject clave de c.Locals con el *entity.Subject autorizado.
const LocalSubject = "subject"

// authorizer lo implementa *accounts.AuthorizationGate.
type authorizer interface {
	Authorize(ctx context.Context, token string) (*entity.Subject, error)
}

// AdminGate exige un Bearer token de un usuario con perfil admin. Ningún handler
// posterior se ejecuta si la autorización falla.
func AdminGate(gate authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return writeError(c, err)
		}
		subject, err := gate.Authorize(c.UserContext(), token)
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(LocalSubject, subject)
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: Authorization header requerido", domain.ErrUnauthenticated)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: formato: Bearer <token>", domain.ErrUnauthenticated)
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("%w: token vacío", domain.ErrUnauthenticated)
	}
	return token, nil
}

// GetSubject devuelve el sujeto autorizado (después de AdminGate).
func GetSubject(c *fiber.Ctx) *entity.Subject {
	s, _ := c.Locals(LocalSubject).(*entity.Subject)
	return s
}
