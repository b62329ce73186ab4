package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/fulfillment-sync/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/fulfillment-sync/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testService   = "scheduler-svc"
	testIssuer    = "fulfillment-sync-test"
	testExpMin    = 60
)

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para parsear el JWT y cargar locals
//   - RequireRole para autorizar el acceso
//   - Un handler dummy que devuelve 200 si pasa los middlewares
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New(fiber.Config{
		// Silenciar errores internos en los tests
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":   true,
				"role": apphttp.GetRole(c),
			})
		},
	)
	return app
}

// tokenForRole genera un JWT de servicio con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testService, role, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: El token tiene el rol requerido → debe pasar (HTTP 200).
func TestRequireRole_OpsAccedeRutaOps(t *testing.T) {
	app := buildTestApp(apphttp.RoleOps)
	resp := doRequest(t, app, tokenForRole(t, apphttp.RoleOps))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "ops debe acceder a la ruta de ops")
}

// Caso 2: Ruta que admite varios roles → scheduler también pasa.
func TestRequireRole_SchedulerAccedeRutaOpsOScheduler(t *testing.T) {
	app := buildTestApp(apphttp.RoleOps, apphttp.RoleScheduler)
	resp := doRequest(t, app, tokenForRole(t, apphttp.RoleScheduler))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Caso 3: Rol no incluido en la lista → 403.
func TestRequireRole_SchedulerBloqueadoEnRutaOps(t *testing.T) {
	app := buildTestApp(apphttp.RoleOps)
	resp := doRequest(t, app, tokenForRole(t, apphttp.RoleScheduler))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "scheduler no debe acceder a rutas solo-ops")
}

// Caso 4: Token sin rol → 401.
func TestRequireRole_TokenSinRol_Retorna401(t *testing.T) {
	app := buildTestApp(apphttp.RoleOps)
	resp := doRequest(t, app, tokenForRole(t, ""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

// Sin Authorization header → 401.
func TestAuthMiddleware_SinHeader_Retorna401(t *testing.T) {
	app := buildTestApp(apphttp.RoleOps)
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Esquema distinto de Bearer → 401.
func TestAuthMiddleware_EsquemaInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(apphttp.RoleOps)
	resp := doRequest(t, app, "Basic abc123")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Token firmado con otro secret → 401.
func TestAuthMiddleware_FirmaInvalida_Retorna401(t *testing.T) {
	tok, err := pkgjwt.Generate("otro-secret", testService, apphttp.RoleOps, testIssuer, testExpMin)
	require.NoError(t, err)

	app := buildTestApp(apphttp.RoleOps)
	resp := doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "una firma ajena nunca debe pasar")
}
