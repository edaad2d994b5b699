package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marketplace-accounts/internal/application/dto"
	"github.com/jhoicas/marketplace-accounts/internal/domain"
)

// Códigos de error expuestos en el cuerpo de respuesta.
const (
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeNotAdmin            = "NOT_ADMIN"
	CodeValidation          = "VALIDATION"
	CodeUpstreamIdentity    = "UPSTREAM_IDENTITY"
	CodeUpstreamProfile     = "UPSTREAM_PROFILE"
	CodeForbidden           = "FORBIDDEN"
	CodePartialFailure      = "PARTIAL_FAILURE"
	CodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: ErrPartialFailure antes que los errores upstream.
var errorMappings = []errorMapping{
	{domain.ErrUnauthenticated, fiber.StatusUnauthorized, CodeUnauthenticated},
	{domain.ErrUnauthorized, fiber.StatusForbidden, CodeNotAdmin},
	{domain.ErrForbidden, fiber.StatusForbidden, CodeForbidden},
	{domain.ErrValidation, fiber.StatusBadRequest, CodeValidation},
	{domain.ErrPartialFailure, fiber.StatusBadRequest, CodePartialFailure},
	{domain.ErrUpstreamIdentity, fiber.StatusBadRequest, CodeUpstreamIdentity},
	{domain.ErrUpstreamProfile, fiber.StatusBadRequest, CodeUpstreamProfile},
	{domain.ErrIdempotencyConflict, fiber.StatusConflict, CodeIdempotencyConflict},
	{domain.ErrNotFound, fiber.StatusNotFound, CodeNotFound},
}

// statusFor devuelve el status HTTP y el código para un error de dominio.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, CodeInternal
}

// writeError serializa err según el mapeo de dominio. Los errores internos no
// exponen el detalle.
func writeError(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = domain.ErrInternal.Error()
	}
	if code == CodePartialFailure {
		return c.Status(status).JSON(dto.PartialFailureResponse{
			Error:           msg,
			Code:            code,
			ProfileDeleted:  true,
			IdentityDeleted: false,
		})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, Code: code})
}

// ErrorHandler manejador global de fiber: errores de fiber conservan su status,
// el resto pasa por el mapeo de dominio.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = CodeNotFound
		case fiber.StatusMethodNotAllowed:
			code = CodeMethodNotAllowed
		case fiber.StatusTooManyRequests:
			code = CodeRateLimited
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			code = CodeValidation
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Error: fe.Message, Code: code})
	}
	return writeError(c, err)
}
