package entity

import "time"

// Roles válidos para Profile.
const (
	RoleBuyer     = "buyer"
	RoleSeller    = "seller"
	RoleCollector = "collector"
	RoleAdmin     = "admin"
)

// Roles lista los roles aceptados en el orden en que se documentan.
var Roles = []string{RoleBuyer, RoleSeller, RoleCollector, RoleAdmin}

// IsValidRole indica si role es uno de los cuatro roles de la aplicación.
func IsValidRole(role string) bool {
	switch role {
	case RoleBuyer, RoleSeller, RoleCollector, RoleAdmin:
		return true
	}
	return false
}

// PublicProfileFor deriva la visibilidad pública a partir del rol: los administradores nunca son públicos.
func PublicProfileFor(role string) bool {
	return role != RoleAdmin
}

// Profile registro de aplicación de un usuario (Profile Store).
// Referencia exactamente una Identity mediante AuthUserID (1:1).
type Profile struct {
	ID            string
	AuthUserID    string
	Role          string // buyer, seller, collector, admin
	FullName      string
	Email         string
	PhoneNumber   *string
	City          *string
	IsVerified    bool
	PublicProfile bool
	TermsAccepted bool
	ProfileData   map[string]any // datos específicos del rol; vacío en cuentas creadas por un admin
	CreatedAt     time.Time
}

// IsAdmin indica si el perfil tiene rol admin.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
