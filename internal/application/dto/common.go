package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// PartialFailureResponse cuerpo de error de una baja que eliminó el perfil pero no la identidad.
type PartialFailureResponse struct {
	Error           string `json:"error"`
	Code            string `json:"code"`
	ProfileDeleted  bool   `json:"profile_deleted"`
	IdentityDeleted bool   `json:"identity_deleted"`
}

// OKResponse respuesta de éxito sin datos.
type OKResponse struct {
	OK bool `json:"ok"`
}
