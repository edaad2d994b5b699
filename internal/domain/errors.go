package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los casos de uso los envuelven con fmt.Errorf("%w: detalle") y la capa HTTP los mapea con errors.Is.
var (
	ErrUnauthenticated     = errors.New("no autenticado")
	ErrUnauthorized        = errors.New("no es administrador")
	ErrValidation          = errors.New("datos de entrada inválidos")
	ErrUpstreamIdentity    = errors.New("error del servicio de identidad")
	ErrUpstreamProfile     = errors.New("error del almacén de perfiles")
	ErrForbidden           = errors.New("operación no permitida")
	ErrPartialFailure      = errors.New("fallo parcial")
	ErrInternal            = errors.New("error interno")
	ErrIdempotencyConflict = errors.New("conflicto de idempotencia")
	ErrNotFound            = errors.New("recurso no encontrado")
)
