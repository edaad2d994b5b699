package accounts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/marketplace-accounts/internal/application/dto"
	"github.com/jhoicas/marketplace-accounts/internal/domain"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
)

// MinPasswordLength longitud mínima de contraseña, en caracteres.
const MinPasswordLength = 8

// provisionInput petición de creación ya normalizada y con valores por defecto aplicados.
type provisionInput struct {
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Password     string  `json:"-"`
	Role         string  `json:"role"`
	PhoneNumber  *string `json:"phone_number"`
	City         *string `json:"city"`
	IsVerified   bool    `json:"is_verified"`
	EmailConfirm bool    `json:"email_confirm"`
}

// normalizeCreate aplica trim, minúsculas y NFC, valida y rellena valores por defecto.
// Cualquier error envuelve domain.ErrValidation.
func normalizeCreate(req dto.CreateAccountRequest) (provisionInput, error) {
	in := provisionInput{
		FullName:     norm.NFC.String(strings.TrimSpace(req.FullName)),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Password:     req.Password,
		Role:         strings.ToLower(strings.TrimSpace(req.Role)),
		PhoneNumber:  trimOptional(req.PhoneNumber),
		City:         trimOptional(req.City),
		EmailConfirm: true,
	}
	if req.IsVerified != nil {
		in.IsVerified = *req.IsVerified
	}
	if req.EmailConfirm != nil {
		in.EmailConfirm = *req.EmailConfirm
	}
	if in.Role == "" {
		in.Role = entity.RoleBuyer
	}

	if in.FullName == "" || in.Email == "" || in.Password == "" {
		return in, fmt.Errorf("%w: full_name, email y password son requeridos", domain.ErrValidation)
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return in, fmt.Errorf("%w: password debe tener al menos %d caracteres", domain.ErrValidation, MinPasswordLength)
	}
	if !entity.IsValidRole(in.Role) {
		return in, fmt.Errorf("%w: role inválido %q (permitidos: %s)", domain.ErrValidation, in.Role, strings.Join(entity.Roles, ", "))
	}
	if !isBareAddress(in.Email) {
		return in, fmt.Errorf("%w: email inválido", domain.ErrValidation)
	}
	return in, nil
}

// isBareAddress acepta solo "local@dominio", sin nombre ni ángulos.
func isBareAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// fingerprint hash SHA-256 de la petición normalizada. La contraseña no forma parte del hash.
func fingerprint(in provisionInput) string {
	raw, _ := json.Marshal(in)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// normalizeDelete valida los ids de la baja.
func normalizeDelete(req dto.DeleteAccountRequest) (dto.DeleteAccountRequest, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.AuthUserID = strings.TrimSpace(req.AuthUserID)
	if req.UserID == "" || req.AuthUserID == "" {
		return req, fmt.Errorf("%w: user_id y auth_user_id son requeridos", domain.ErrValidation)
	}
	return req, nil
}
