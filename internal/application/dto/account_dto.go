package dto

import (
	"time"

	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
)

// CreateAccountRequest entrada para crear una cuenta (identidad + perfil).
// Role vacío equivale a buyer; EmailConfirm ausente equivale a true.
type CreateAccountRequest struct {
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Role         string  `json:"role,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
	City         *string `json:"city,omitempty"`
	IsVerified   *bool   `json:"is_verified,omitempty"`
	EmailConfirm *bool   `json:"email_confirm,omitempty"`
}

// DeleteAccountRequest entrada para dar de baja una cuenta.
type DeleteAccountRequest struct {
	UserID     string `json:"user_id"`
	AuthUserID string `json:"auth_user_id"`
}

// ProfileResponse salida de un perfil.
type ProfileResponse struct {
	ID            string         `json:"id"`
	AuthUserID    string         `json:"auth_user_id"`
	Role          string         `json:"role"`
	FullName      string         `json:"full_name"`
	Email         string         `json:"email"`
	PhoneNumber   *string        `json:"phone_number"`
	City          *string        `json:"city"`
	IsVerified    bool           `json:"is_verified"`
	PublicProfile bool           `json:"public_profile"`
	TermsAccepted bool           `json:"terms_accepted"`
	ProfileData   map[string]any `json:"profile_data"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CreateAccountResponse respuesta de éxito de la creación.
type CreateAccountResponse struct {
	OK   bool            `json:"ok"`
	User ProfileResponse `json:"user"`
}

// ProfileToResponse convierte la entidad en DTO de salida.
func ProfileToResponse(p *entity.Profile) ProfileResponse {
	data := p.ProfileData
	if data == nil {
		data = map[string]any{}
	}
	return ProfileResponse{
		ID:            p.ID,
		AuthUserID:    p.AuthUserID,
		Role:          p.Role,
		FullName:      p.FullName,
		Email:         p.Email,
		PhoneNumber:   p.PhoneNumber,
		City:          p.City,
		IsVerified:    p.IsVerified,
		PublicProfile: p.PublicProfile,
		TermsAccepted: p.TermsAccepted,
		ProfileData:   data,
		CreatedAt:     p.CreatedAt,
	}
}
