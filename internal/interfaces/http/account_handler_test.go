package http_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	apphttp "github.com/jhoicas/marketplace-accounts/internal/interfaces/http"
)

func createBody() map[string]any {
	return map[string]any{"full_name": "Ana Gómez", "email": "ana@x.com", "password": "longenough1"}
}

// ─── Create ──────────────────────────────────────────────────────────────────

func TestCreate_AdminCreaCuentaBuyerPorDefecto(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, createBody())

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["ok"])
	user := body["user"].(map[string]any)
	assert.Equal(t, entity.RoleBuyer, user["role"])
	assert.Equal(t, "ana@x.com", user["email"])
	authUserID := user["auth_user_id"].(string)
	assert.True(t, env.idp.Has(authUserID))
	assert.NotNil(t, env.profiles.ByAuthUser(authUserID))
	assert.Equal(t, []string{ports.EventAccountProvisioned}, env.events.Types())
}

func TestCreate_ValidacionNoLlamaColaboradores(t *testing.T) {
	env := buildTestApp(t)
	cases := []map[string]any{
		{"full_name": "Ana", "password": "longenough1"},
		{"full_name": "Ana", "email": "ana@x.com", "password": "corta"},
		{"full_name": "Ana", "email": "ana@x.com", "password": "longenough1", "role": "superuser"},
		{"email": "ana@x.com", "password": "longenough1"},
	}

	for _, body := range cases {
		resp := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, body)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apphttp.CodeValidation, decode(t, resp)["code"])
	}
	assert.Equal(t, 0, env.idp.MutatingCalls())
	assert.Equal(t, 0, env.profiles.MutatingCalls())
}

func TestCreate_CuerpoMalFormadoEsValidacion(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, `{"email":`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode(t, resp)["code"])
}

func TestCreate_EmailDuplicadoEsUpstreamIdentity(t *testing.T) {
	env := buildTestApp(t)
	env.idp.Seed("u-ana", "ana@x.com")

	resp := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, createBody())

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, apphttp.CodeUpstreamIdentity, body["code"])
	assert.Contains(t, body["error"], "already been registered")
	assert.Equal(t, 0, env.profiles.CreateCalls)
}

func TestCreate_FalloPerfilCompensaIdentidad(t *testing.T) {
	env := buildTestApp(t)
	before := env.idp.Count()
	env.profiles.CreateErr = errors.New("duplicate key value violates unique constraint")

	resp := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, createBody())

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, apphttp.CodeUpstreamProfile, body["code"])
	assert.Contains(t, body["error"], "duplicate key")
	assert.Equal(t, before, env.idp.Count(), "la identidad creada se borró")
	assert.Equal(t, 1, env.idp.DeleteCalls)
}

func TestCreate_IdempotencyKeyRepiteResultado(t *testing.T) {
	env := buildTestApp(t)

	first := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, createBody(), apphttp.HeaderIdempotencyKey, "k-1")
	second := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, createBody(), apphttp.HeaderIdempotencyKey, "k-1")

	require.Equal(t, fiber.StatusOK, first.StatusCode)
	require.Equal(t, fiber.StatusOK, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	a := decode(t, first)["user"].(map[string]any)
	b := decode(t, second)["user"].(map[string]any)
	assert.Equal(t, a["id"], b["id"])
	assert.Equal(t, 1, env.idp.CreateCalls)
}

func TestCreate_IdempotencyKeyConOtroCuerpoEs409(t *testing.T) {
	env := buildTestApp(t)
	other := createBody()
	other["email"] = "otra@x.com"

	first := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, createBody(), apphttp.HeaderIdempotencyKey, "k-1")
	second := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, other, apphttp.HeaderIdempotencyKey, "k-1")

	require.Equal(t, fiber.StatusOK, first.StatusCode)
	assert.Equal(t, fiber.StatusConflict, second.StatusCode)
	assert.Equal(t, apphttp.CodeIdempotencyConflict, decode(t, second)["code"])
	assert.Equal(t, 1, env.idp.CreateCalls)
}

// ─── Delete ──────────────────────────────────────────────────────────────────

func TestDelete_AdminBorraCuenta(t *testing.T) {
	env := buildTestApp(t)
	env.idp.Seed("u-seller", "seller@x.com")
	env.profiles.Seed("p-seller", "u-seller", entity.RoleSeller)

	resp := env.do(t, http.MethodPost, "/api/admin/users/delete", adminToken, map[string]string{"user_id": "p-seller", "auth_user_id": "u-seller"})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"ok": true}, decode(t, resp))
	assert.False(t, env.profiles.Has("p-seller"))
	assert.False(t, env.idp.Has("u-seller"))
}

func TestDelete_DestinoAdminDevuelve403(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/users/delete", adminToken, map[string]string{"user_id": "p-admin", "auth_user_id": "u-admin"})

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apphttp.CodeForbidden, decode(t, resp)["code"])
	assert.True(t, env.profiles.Has("p-admin"))
	assert.True(t, env.idp.Has("u-admin"))
	assert.Equal(t, 0, env.idp.MutatingCalls())
}

func TestDelete_FaltanIdsEsValidacion(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/users/delete", adminToken, map[string]string{"user_id": "p-buyer"})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode(t, resp)["code"])
	assert.True(t, env.profiles.Has("p-buyer"))
}

func TestDelete_FalloParcialReportaEstado(t *testing.T) {
	env := buildTestApp(t)
	env.idp.DeleteErr = errors.New("identity service down")

	resp := env.do(t, http.MethodPost, "/api/admin/users/delete", adminToken, map[string]string{"user_id": "p-buyer", "auth_user_id": "u-buyer"})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, apphttp.CodePartialFailure, body["code"])
	assert.Equal(t, true, body["profile_deleted"])
	assert.Equal(t, false, body["identity_deleted"])
	assert.False(t, env.profiles.Has("p-buyer"))
	assert.True(t, env.idp.Has("u-buyer"))
}

func TestDelete_FalloPerfilEsUpstreamProfile(t *testing.T) {
	env := buildTestApp(t)
	env.profiles.DeleteErr = errors.New("permission denied for table profiles")

	resp := env.do(t, http.MethodPost, "/api/admin/users/delete", adminToken, map[string]string{"user_id": "p-buyer", "auth_user_id": "u-buyer"})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeUpstreamProfile, decode(t, resp)["code"])
	assert.Equal(t, 0, env.idp.DeleteCalls)
}

func TestDelete_PerfilAusenteNoBorraIdentidadDeOtroPerfil(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/users/delete", adminToken, map[string]string{"user_id": "no-existe", "auth_user_id": "u-buyer"})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode(t, resp)["code"])
	assert.True(t, env.profiles.Has("p-buyer"))
	assert.True(t, env.idp.Has("u-buyer"))
	assert.Equal(t, 0, env.idp.DeleteCalls)
}
