package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
)

// Verificar en tiempo de compilación que Client implementa IdentityService.
var _ ports.IdentityService = (*Client)(nil)

const maxBodyBytes = 64 * 1024

// Client adaptador REST del Identity Service (API tipo GoTrue):
//
//	GET    /user              token del usuario final
//	POST   /admin/users       credencial de servicio
//	DELETE /admin/users/{id}  credencial de servicio
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient construye el adaptador. baseURL es la raíz del API de auth (sin barra final).
func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError respuesta no exitosa del Identity Service. Error() devuelve el mensaje del proveedor tal cual.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// ── Estructuras del protocolo ─────────────────────────────────────────────────

type userPayload struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

type createUserRequest struct {
	Email        string                  `json:"email"`
	Password     string                  `json:"password"`
	EmailConfirm bool                    `json:"email_confirm"`
	UserMetadata entity.IdentityMetadata `json:"user_metadata"`
}

// errorPayload cubre las variantes de error del proveedor.
type errorPayload struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (p errorPayload) text() string {
	for _, s := range []string{p.Msg, p.Message, p.ErrorDescription, p.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// Verify valida el token del llamante contra GET /user.
func (c *Client) Verify(ctx context.Context, token string) (*entity.Subject, error) {
	var u userPayload
	if err := c.do(ctx, http.MethodGet, "/user", token, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, errors.New("identity: /user sin id")
	}
	return &entity.Subject{ID: u.ID, Email: u.Email}, nil
}

// Create crea una identidad con la credencial de servicio.
func (c *Client) Create(ctx context.Context, in ports.CreateIdentityInput) (*entity.Identity, error) {
	payload := createUserRequest{
		Email:        in.Email,
		Password:     in.Password,
		EmailConfirm: in.EmailConfirm,
		UserMetadata: in.Metadata,
	}
	var u userPayload
	if err := c.do(ctx, http.MethodPost, "/admin/users", c.serviceKey, payload, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, errors.New("identity: respuesta de creación sin id")
	}
	out := &entity.Identity{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != nil,
		Metadata:       in.Metadata,
	}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		out.Metadata.FullName = name
	}
	return out, nil
}

// Delete borra la identidad con la credencial de servicio.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("identity: id vacío")
	}
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), c.serviceKey, nil, nil)
}

// do ejecuta la petición. bearer va en Authorization; la credencial de servicio siempre va en apikey.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("identity: serializar request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("identity: crear HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("identity: timeout o cancelación: %w", ctx.Err())
		}
		return fmt.Errorf("identity: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("identity: leer respuesta: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var ep errorPayload
		if jsonErr := json.Unmarshal(raw, &ep); jsonErr == nil {
			apiErr.Message = ep.text()
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("identity HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity: deserializar respuesta: %w", err)
	}
	return nil
}
