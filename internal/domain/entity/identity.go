package entity

// Identity registro de autenticación en el Identity Service. Aquí solo se referencia, no se gestiona.
type Identity struct {
	ID             string
	Email          string
	Password       string `json:"-"` // solo escritura
	EmailConfirmed bool
	Metadata       IdentityMetadata
}

// IdentityMetadata metadatos de usuario guardados junto a la identidad.
type IdentityMetadata struct {
	FullName string `json:"full_name"`
}

// Subject llamante verificado de una petición.
type Subject struct {
	ID    string // id de la identidad
	Email string
}
