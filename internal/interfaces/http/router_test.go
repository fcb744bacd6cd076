package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ims-tenancy/internal/application/auth"
	"github.com/jhoicas/ims-tenancy/internal/application/dto"
	"github.com/jhoicas/ims-tenancy/internal/application/tenant"
	"github.com/jhoicas/ims-tenancy/internal/application/usecase"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/cache"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/memory"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/security"
	apphttp "github.com/jhoicas/ims-tenancy/internal/interfaces/http"
)

const superEmail = "root@ims.local"
const superCredential = "super-secreto-123"

type stubPDF struct{}

func (stubPDF) GenerateInventoryReport(_ context.Context, r usecase.InventoryReport) ([]byte, error) {
	return []byte("%PDF-" + r.Title), nil
}

type testAPI struct {
	app *fiber.App
	db  *memory.Database
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	model, err := persistence.NewModel()
	require.NoError(t, err)
	hasher := security.NewBcryptHasher(4)
	db := memory.NewDatabase(model, hasher)

	directory := cache.NewStoreDirectory(db)
	authUC := auth.NewAuthUseCase(db, hasher, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})
	_, err = authUC.CreateSuperAdmin(context.Background(), superEmail, superCredential)
	require.NoError(t, err)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		TenantSvc: tenant.NewService(db, tenant.WithDirectory(directory)),
		ProductUC: usecase.NewProductUseCase(db),
		StaffUC:   usecase.NewStaffUseCase(db, nil),
		ReportUC:  usecase.NewReportUseCase(db, stubPDF{}),
		AuthUC:    authUC,
		Resolver:  tenancy.NewResolver(tenancy.WithDirectory(directory)),
		JWTSecret: testJWTSecret,
	})
	return &testAPI{app: app, db: db}
}

func (a *testAPI) call(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (a *testAPI) login(t *testing.T, email, credential string) dto.LoginResponse {
	t.Helper()
	resp := a.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: credential})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[dto.LoginResponse](t, resp)
}

func (a *testAPI) provision(t *testing.T, superToken, name, domainName string) dto.ProvisionedTenantResponse {
	t.Helper()
	resp := a.call(t, http.MethodPost, "/api/tenants", superToken, dto.CreateTenantRequest{Name: name, Domain: domainName})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.ProvisionedTenantResponse](t, resp)
}

// Caso 1: flujo completo con dos tenants; cada uno ve solo sus productos.
func TestRouter_AislamientoEntreTenants(t *testing.T) {
	api := newTestAPI(t)
	super := api.login(t, superEmail, superCredential)
	assert.True(t, super.User.Superuser)

	a := api.provision(t, super.Token, "Llantas A", "a.example.com")
	b := api.provision(t, super.Token, "Llantas B", "b.example.com")
	tokA := api.login(t, a.AdminEmail, a.InitialCredential).Token
	tokB := api.login(t, b.AdminEmail, b.InitialCredential).Token

	resp := api.call(t, http.MethodPost, "/api/products", tokA, dto.CreateProductRequest{Name: "Radial 205", Quantity: 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, a.Tenant.ID, created.TenantID)

	// B no lo ve, no lo edita ni lo borra
	resp = api.call(t, http.MethodGet, "/api/products/"+created.ID, tokB, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = api.call(t, http.MethodPut, "/api/products/"+created.ID, tokB, map[string]any{"name": "robado"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = api.call(t, http.MethodDelete, "/api/products/"+created.ID, tokB, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.call(t, http.MethodGet, "/api/products", tokB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[dto.ProductListResponse](t, resp).Items)

	resp = api.call(t, http.MethodGet, "/api/products", tokA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.ProductListResponse](t, resp).Items, 1)

	// El superusuario ve todo
	resp = api.call(t, http.MethodGet, "/api/products/"+created.ID, super.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Tenants: cada admin solo ve el propio
	resp = api.call(t, http.MethodGet, "/api/tenants", tokA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.TenantListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, a.Tenant.ID, list.Items[0].ID)
	resp = api.call(t, http.MethodGet, "/api/tenants/"+b.Tenant.ID, tokA, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Caso 2: solo el superusuario aprovisiona; dominio repetido es 409.
func TestRouter_AprovisionamientoSoloSuperusuario(t *testing.T) {
	api := newTestAPI(t)
	super := api.login(t, superEmail, superCredential)
	a := api.provision(t, super.Token, "Llantas A", "a.example.com")
	tokA := api.login(t, a.AdminEmail, a.InitialCredential).Token

	resp := api.call(t, http.MethodPost, "/api/tenants", tokA, dto.CreateTenantRequest{Name: "X", Domain: "x.example.com"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.call(t, http.MethodPost, "/api/tenants", super.Token, dto.CreateTenantRequest{Name: "Otra", Domain: "A.Example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decode[dto.ErrorResponse](t, resp).Code)

	resp = api.call(t, http.MethodPost, "/api/tenants", super.Token, dto.CreateTenantRequest{Name: "", Domain: "y.example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// Caso 3: un tenant dado de baja deja de resolver: su token vigente recibe 403.
func TestRouter_TenantDadoDeBaja(t *testing.T) {
	api := newTestAPI(t)
	super := api.login(t, superEmail, superCredential)
	a := api.provision(t, super.Token, "Llantas A", "a.example.com")
	tokA := api.login(t, a.AdminEmail, a.InitialCredential).Token

	resp := api.call(t, http.MethodDelete, "/api/tenants/"+a.Tenant.ID, tokA, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "un admin de tenant no puede darse de baja")

	resp = api.call(t, http.MethodDelete, "/api/tenants/"+a.Tenant.ID, super.Token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = api.call(t, http.MethodGet, "/api/products", tokA, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "TENANT_UNRESOLVED", decode[dto.ErrorResponse](t, resp).Code)

	resp = api.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: a.AdminEmail, Password: a.InitialCredential})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.call(t, http.MethodDelete, "/api/tenants/"+a.Tenant.ID, super.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Caso 4: alta de empleado con acceso; el empleado no gestiona personal.
func TestRouter_StaffRequiereAdmin(t *testing.T) {
	api := newTestAPI(t)
	super := api.login(t, superEmail, superCredential)
	a := api.provision(t, super.Token, "Llantas A", "a.example.com")
	tokA := api.login(t, a.AdminEmail, a.InitialCredential).Token

	resp := api.call(t, http.MethodPost, "/api/staff", tokA, dto.CreateStaffRequest{Name: "Ana", Email: "ana@a.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	onboarded := decode[dto.OnboardedStaffResponse](t, resp)
	assert.Equal(t, a.Tenant.ID, onboarded.Staff.TenantID)
	require.NotEmpty(t, onboarded.InitialCredential)

	staffLogin := api.login(t, "ana@a.example.com", onboarded.InitialCredential)
	assert.Equal(t, []string{"Staff"}, staffLogin.User.Roles)

	resp = api.call(t, http.MethodGet, "/api/staff", staffLogin.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// El empleado sí opera inventario de su tenant
	resp = api.call(t, http.MethodPost, "/api/products", staffLogin.Token, dto.CreateProductRequest{Name: "Válvula"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// Caso 5: reporte PDF del tenant y cambio de credencial.
func TestRouter_ReporteYCredencial(t *testing.T) {
	api := newTestAPI(t)
	super := api.login(t, superEmail, superCredential)
	a := api.provision(t, super.Token, "Llantas A", "a.example.com")
	tokA := api.login(t, a.AdminEmail, a.InitialCredential).Token

	resp := api.call(t, http.MethodGet, "/api/products/report.pdf", tokA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))

	resp = api.call(t, http.MethodPut, "/api/auth/password", tokA, dto.ChangeCredentialRequest{Current: "incorrecta", New: "nueva-clave-123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.call(t, http.MethodPut, "/api/auth/password", tokA, dto.ChangeCredentialRequest{Current: a.InitialCredential, New: "nueva-clave-123"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	fresh := api.login(t, a.AdminEmail, "nueva-clave-123")
	assert.False(t, fresh.User.MustRotateCredential)
}

// Caso 6: el superusuario da de alta en un tenant explícito; los listados paginan con limit/offset.
func TestRouter_AltaDelSuperusuarioYPaginacion(t *testing.T) {
	api := newTestAPI(t)
	super := api.login(t, superEmail, superCredential)
	a := api.provision(t, super.Token, "Llantas A", "a.example.com")
	tokA := api.login(t, a.AdminEmail, a.InitialCredential).Token

	resp := api.call(t, http.MethodPost, "/api/products", super.Token, dto.CreateProductRequest{Name: "Sin tenant"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "TENANT_REQUIRED", decodeError(t, resp).Code)

	resp = api.call(t, http.MethodPost, "/api/products", super.Token, dto.CreateProductRequest{TenantID: a.Tenant.ID, Name: "P1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, a.Tenant.ID, decode[dto.ProductResponse](t, resp).TenantID)

	for _, n := range []string{"P2", "P3"} {
		resp = api.call(t, http.MethodPost, "/api/products", tokA, dto.CreateProductRequest{Name: n})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = api.call(t, http.MethodGet, "/api/products?limit=2&offset=1", tokA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.ProductListResponse](t, resp)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "P2", page.Items[0].Name)
	assert.Equal(t, dto.PageResponse{Limit: 2, Offset: 1, Total: 3}, page.Page)

	resp = api.call(t, http.MethodGet, "/api/tenants?limit=1", super.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tenants := decode[dto.TenantListResponse](t, resp)
	assert.Len(t, tenants.Items, 1)
	assert.Equal(t, 1, tenants.Page.Total)
}

// Caso 7: búsqueda por dominio respeta el aislamiento.
func TestRouter_TenantPorDominio(t *testing.T) {
	api := newTestAPI(t)
	super := api.login(t, superEmail, superCredential)
	a := api.provision(t, super.Token, "Llantas A", "a.example.com")
	b := api.provision(t, super.Token, "Llantas B", "b.example.com")
	tokA := api.login(t, a.AdminEmail, a.InitialCredential).Token

	resp := api.call(t, http.MethodGet, "/api/tenants/by-domain/B.Example.com", super.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, b.Tenant.ID, decode[dto.TenantResponse](t, resp).ID)

	resp = api.call(t, http.MethodGet, "/api/tenants/by-domain/a.example.com", tokA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, a.Tenant.ID, decode[dto.TenantResponse](t, resp).ID)

	resp = api.call(t, http.MethodGet, "/api/tenants/by-domain/b.example.com", tokA, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
