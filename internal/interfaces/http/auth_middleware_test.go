package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-accounts/internal/application/accounts"
	"github.com/jhoicas/marketplace-accounts/internal/application/accounts/accountstest"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/marketplace-accounts/internal/interfaces/http"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	adminToken = "admin-token"
	buyerToken = "buyer-token"
)

type testEnv struct {
	app      *fiber.App
	idp      *accountstest.FakeIdentity
	profiles *accountstest.FakeProfiles
	events   *accountstest.FakeEvents
	idem     *accountstest.FakeIdempotency
	reg      *prometheus.Registry
}

// buildTestApp monta el router completo sobre fakes en memoria:
//   - u-admin (perfil admin) con token adminToken
//   - u-buyer (perfil buyer) con token buyerToken
func buildTestApp(t *testing.T, mutate ...func(*apphttp.RouterDeps)) *testEnv {
	t.Helper()
	env := &testEnv{
		idp:      accountstest.NewFakeIdentity(),
		profiles: accountstest.NewFakeProfiles(),
		events:   &accountstest.FakeEvents{},
		idem:     accountstest.NewFakeIdempotency(),
		reg:      prometheus.NewRegistry(),
	}
	env.idp.AddToken(adminToken, "u-admin", "admin@x.com")
	env.profiles.Seed("p-admin", "u-admin", entity.RoleAdmin)
	env.idp.AddToken(buyerToken, "u-buyer", "buyer@x.com")
	env.profiles.Seed("p-buyer", "u-buyer", entity.RoleBuyer)

	log := logger.Nop()
	m := metrics.New(env.reg)
	admins := accounts.NewAdminPredicate(env.profiles)
	deps := apphttp.RouterDeps{
		Gate:          accounts.NewAuthorizationGate(env.idp, admins, log),
		Provisioner:   accounts.NewProvisioner(env.idp, env.profiles, env.idem, env.events, m, log),
		Deprovisioner: accounts.NewDeprovisioner(env.idp, env.profiles, admins, env.events, m, log),
		Store:         env.profiles,
		Metrics:       m,
		Gatherer:      env.reg,
		Logger:        log,
	}
	for _, fn := range mutate {
		fn(&deps)
	}
	env.app = apphttp.NewApp("accounts-test", 64*1024)
	apphttp.Router(env.app, deps)
	return env
}

// do lanza la petición; body nil envía cuerpo vacío.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		r = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AdminGate
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: Sin Authorization → 401 y ningún efecto.
func TestAdminGate_SinTokenDevuelve401(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/users/create", "", createBody())

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apphttp.CodeUnauthenticated, decode(t, resp)["code"])
	assert.Equal(t, 0, env.idp.MutatingCalls())
	assert.Equal(t, 0, env.profiles.MutatingCalls())
}

// Caso 2: Cabecera con esquema distinto de Bearer → 401.
func TestAdminGate_FormatoInvalidoDevuelve401(t *testing.T) {
	env := buildTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/delete", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	resp, err := env.app.Test(req, -1)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// Caso 3: Token desconocido o expirado → 401.
func TestAdminGate_TokenInvalidoDevuelve401(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/users/create", "expired", createBody())

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, env.idp.MutatingCalls())
}

// Caso 4: Usuario válido sin perfil admin → 403 sin llamadas mutantes.
func TestAdminGate_BuyerDevuelve403SinMutaciones(t *testing.T) {
	env := buildTestApp(t)

	create := env.do(t, http.MethodPost, "/api/admin/users/create", buyerToken, createBody())
	del := env.do(t, http.MethodPost, "/api/admin/users/delete", buyerToken, map[string]string{"user_id": "p-admin", "auth_user_id": "u-admin"})

	assert.Equal(t, fiber.StatusForbidden, create.StatusCode)
	assert.Equal(t, apphttp.CodeNotAdmin, decode(t, create)["code"])
	assert.Equal(t, fiber.StatusForbidden, del.StatusCode)
	assert.Equal(t, 0, env.idp.MutatingCalls())
	assert.Equal(t, 0, env.profiles.MutatingCalls())
	assert.Empty(t, env.events.Events)
}

// Caso 5: Falla la consulta de rol → 500 sin detalle interno.
func TestAdminGate_FalloConsultaRolDevuelve500(t *testing.T) {
	env := buildTestApp(t)
	env.profiles.ExistsErr = errors.New("connection refused")

	resp := env.do(t, http.MethodPost, "/api/admin/users/create", adminToken, createBody())

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, apphttp.CodeInternal, body["code"])
	assert.NotContains(t, body["error"], "connection refused")
	assert.Equal(t, 0, env.idp.MutatingCalls())
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests middlewares de petición
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireMethod_GetDevuelve405AntesDeAutenticar(t *testing.T) {
	env := buildTestApp(t)

	for _, path := range []string{"/api/admin/users/create", "/api/admin/users/delete"} {
		resp := env.do(t, http.MethodGet, path, "", nil)

		assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode, path)
		assert.Equal(t, fiber.MethodPost, resp.Header.Get(fiber.HeaderAllow))
		assert.Equal(t, apphttp.CodeMethodNotAllowed, decode(t, resp)["code"])
	}
}

func TestRequestID_SeGeneraYSeRespeta(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Len(t, resp.Header.Get(apphttp.HeaderRequestID), 36)

	resp = env.do(t, http.MethodPost, "/api/admin/users/create", "", createBody(), apphttp.HeaderRequestID, "req-123")
	assert.Equal(t, "req-123", resp.Header.Get(apphttp.HeaderRequestID), "también en respuestas de error")
}

func TestRateLimit_Devuelve429AlAgotarBurst(t *testing.T) {
	env := buildTestApp(t, func(d *apphttp.RouterDeps) {
		d.RatePerSecond = 0.001
		d.RateBurst = 1
	})

	first := env.do(t, http.MethodPost, "/api/admin/users/create", buyerToken, createBody())
	second := env.do(t, http.MethodPost, "/api/admin/users/create", buyerToken, createBody())

	assert.Equal(t, fiber.StatusForbidden, first.StatusCode)
	assert.Equal(t, fiber.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, apphttp.CodeRateLimited, decode(t, second)["code"])
}

func TestHealthYReady(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, resp)["status"])

	resp = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env.profiles.PingErr = errors.New("down")
	resp = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics_ExponeContadoresHTTP(t *testing.T) {
	env := buildTestApp(t)
	_ = env.do(t, http.MethodGet, "/health", "", nil)

	resp := env.do(t, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRutaDesconocidaDevuelve404JSON(t *testing.T) {
	env := buildTestApp(t)

	resp := env.do(t, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNotFound, decode(t, resp)["code"])
}
