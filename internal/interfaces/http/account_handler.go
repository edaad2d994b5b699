package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marketplace-accounts/internal/application/accounts"
	"github.com/jhoicas/marketplace-accounts/internal/application/dto"
	"github.com/jhoicas/marketplace-accounts/internal/domain"
)

// HeaderIdempotencyKey cabecera opcional para reintentos seguros de la creación.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

// AccountHandler alta y baja administrativa de cuentas.
type AccountHandler struct {
	provisioner   *accounts.Provisioner
	deprovisioner *accounts.Deprovisioner
}

// NewAccountHandler construye el handler de cuentas.
func NewAccountHandler(p *accounts.Provisioner, d *accounts.Deprovisioner) *AccountHandler {
	return &AccountHandler{provisioner: p, deprovisioner: d}
}

// Create godoc
// @Summary      Crear cuenta (identidad + perfil)
// @Description  Solo administradores. Si la inserción del perfil falla se borra la identidad creada.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                    false  "clave de idempotencia"
// @Param        body             body      dto.CreateAccountRequest  true   "full_name, email, password, role?"
// @Success      200              {object}  dto.CreateAccountResponse
// @Failure      400              {object}  dto.ErrorResponse
// @Failure      401              {object}  dto.ErrorResponse
// @Failure      403              {object}  dto.ErrorResponse
// @Failure      405              {object}  dto.ErrorResponse
// @Failure      409              {object}  dto.ErrorResponse
// @Failure      429              {object}  dto.ErrorResponse
// @Failure      500              {object}  dto.ErrorResponse
// @Router       /api/admin/users/create [post]
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAccountRequest
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fmt.Errorf("%w: cuerpo inválido", domain.ErrValidation))
	}
	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		return writeError(c, fmt.Errorf("%w: Idempotency-Key demasiado larga", domain.ErrValidation))
	}
	res, err := h.provisioner.Provision(c.UserContext(), GetSubject(c), in, key)
	if err != nil {
		return writeError(c, err)
	}
	if res.Replayed {
		c.Set("Idempotent-Replayed", "true")
	}
	return c.Status(fiber.StatusOK).JSON(dto.CreateAccountResponse{OK: true, User: dto.ProfileToResponse(res.Profile)})
}

// Delete godoc
// @Summary      Eliminar cuenta (perfil + identidad)
// @Description  Solo administradores. Nunca elimina cuentas admin. Si el perfil se borró pero la identidad no, responde PARTIAL_FAILURE.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.DeleteAccountRequest  true  "user_id, auth_user_id"
// @Success      200   {object}  dto.OKResponse
// @Failure      400   {object}  dto.PartialFailureResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      405   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/admin/users/delete [post]
func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	var in dto.DeleteAccountRequest
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fmt.Errorf("%w: cuerpo inválido", domain.ErrValidation))
	}
	if err := h.deprovisioner.Deprovision(c.UserContext(), GetSubject(c), in); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.OKResponse{OK: true})
}
