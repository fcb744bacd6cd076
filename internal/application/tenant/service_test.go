package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ims-tenancy/internal/application/dto"
	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/memory"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/security"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
)

const fixedCredential = "cred-inicial-de-prueba"

type provisioningOutcomes []string

func (o *provisioningOutcomes) ObserveProvisioning(outcome string) { *o = append(*o, outcome) }

type invalidations []string

func (i *invalidations) Invalidate(_ context.Context, id string) error {
	*i = append(*i, id)
	return nil
}

func newMemoryDB(t *testing.T) *memory.Database {
	t.Helper()
	model, err := persistence.NewModel()
	require.NoError(t, err)
	return memory.NewDatabase(model, security.NewBcryptHasher(4))
}

func newTestService(db repository.Database, opts ...Option) *Service {
	opts = append([]Option{WithCredentialGenerator(func() (string, error) { return fixedCredential, nil })}, opts...)
	return NewService(db, opts...)
}

// failingDB envuelve la base para inyectar fallos en la identidad dentro de la transacción.
type failingDB struct {
	repository.Database
	wrap func(repository.IdentityStore) repository.IdentityStore
}

func (f *failingDB) RunInTx(ctx context.Context, tc tenancy.Context, fn func(repository.Session) error) error {
	return f.Database.RunInTx(ctx, tc, func(s repository.Session) error {
		return fn(&failingSession{Session: s, identity: f.wrap(s.Identity())})
	})
}

type failingSession struct {
	repository.Session
	identity repository.IdentityStore
}

func (s *failingSession) Identity() repository.IdentityStore { return s.identity }

type assignFails struct{ repository.IdentityStore }

func (assignFails) AssignRole(context.Context, string, string) error {
	return errors.New("vínculo no persistido")
}

type roleExists struct{ repository.IdentityStore }

func (r roleExists) CreateUser(ctx context.Context, tenantID *string, email, cred string) (string, error) {
	if _, err := r.IdentityStore.EnsureRole(ctx, tenantID, entity.RoleAdmin); err != nil {
		return "", err
	}
	return r.IdentityStore.CreateUser(ctx, tenantID, email, cred)
}

func TestProvision_CreaTenantAdminYRol(t *testing.T) {
	db := newMemoryDB(t)
	var seen provisioningOutcomes
	svc := newTestService(db, WithObserver(&seen))

	out, err := svc.Provision(context.Background(), tenancy.Unscoped(), dto.CreateTenantRequest{
		Name: " Acme ", Domain: " ACME.io ", Email: "Owner@Acme.io",
	})
	require.NoError(t, err)

	assert.Equal(t, "acme.io", out.Tenant.Domain)
	assert.Equal(t, "Acme", out.Tenant.Name)
	assert.Len(t, out.Tenant.TenantURL, 22)
	assert.Equal(t, "owner@acme.io", out.AdminEmail)
	assert.Equal(t, fixedCredential, out.InitialCredential)
	assert.Equal(t, provisioningOutcomes{OutcomeProvisioned}, seen)

	assert.Equal(t, 1, db.Count(entity.KindTenant))
	users := db.Users()
	require.Len(t, users, 1)
	require.NotNil(t, users[0].TenantID)
	assert.Equal(t, out.Tenant.ID, *users[0].TenantID)
	assert.True(t, users[0].MustRotateCredential)

	roles := db.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, entity.RoleAdmin, roles[0].Name)
	assert.Equal(t, out.Tenant.ID, *roles[0].TenantID)
	assert.Equal(t, []entity.UserRole{{UserID: out.AdminUserID, RoleID: roles[0].ID}}, db.Assignments())
}

func TestProvision_EmailPorDefectoDelDominio(t *testing.T) {
	svc := newTestService(newMemoryDB(t))
	out, err := svc.Provision(context.Background(), tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Beta", Domain: "beta.io"})
	require.NoError(t, err)
	assert.Equal(t, "admin@beta.io", out.AdminEmail)
}

func TestProvision_DominioDuplicadoSinDistinguirMayusculas(t *testing.T) {
	db := newMemoryDB(t)
	var seen provisioningOutcomes
	svc := newTestService(db, WithObserver(&seen))
	ctx := context.Background()

	_, err := svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme", Domain: "ACME.io"})
	require.NoError(t, err)

	_, err = svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme 2", Domain: "acme.io", Email: "otro@acme.io"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, db.Count(entity.KindTenant))
	assert.Len(t, db.Users(), 1)
	assert.Equal(t, provisioningOutcomes{OutcomeProvisioned, OutcomeConflict}, seen)
}

func TestProvision_ConcurrenteMismoDominio(t *testing.T) {
	db := newMemoryDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	const n = 20
	domains := []string{"acme.io", "ACME.IO", "Acme.Io", " acme.io. "}
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{
				Name: "Acme", Domain: domains[i%len(domains)],
			})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Errorf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)

	list, err := db.Session(tenancy.Unscoped()).Tenants().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "acme.io", list[0].Domain)
	users := db.Users()
	require.Len(t, users, 1)
	assert.Equal(t, list[0].ID, *users[0].TenantID)
	assert.Len(t, db.Roles(), 1)
}

func TestProvision_LogIncluyeTenant(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Output: &buf})
	svc := newTestService(newMemoryDB(t), WithLogger(log))

	out, err := svc.Provision(context.Background(), tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme", Domain: "acme.io"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "tenant aprovisionado", entry["message"])
	assert.Equal(t, "tenant", entry["component"])
	assert.Equal(t, out.Tenant.ID, entry["tenant"])
}

func TestProvision_Validaciones(t *testing.T) {
	svc := newTestService(newMemoryDB(t))
	ctx := context.Background()

	// Caso 1: solo superusuario.
	_, err := svc.Provision(ctx, tenancy.Scoped("0b8f6a4e-6f7e-4c55-9c1e-6a0d1f3b2a01"), dto.CreateTenantRequest{Name: "X", Domain: "x.io"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Caso 2: nombre vacío.
	_, err = svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "  ", Domain: "x.io"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	// Caso 3: dominio inválido.
	_, err = svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "X", Domain: "no valido"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "domain", verr.Field)
}

func TestProvision_FalloAlAsignarRolRevierteTodo(t *testing.T) {
	mem := newMemoryDB(t)
	db := &failingDB{Database: mem, wrap: func(s repository.IdentityStore) repository.IdentityStore { return assignFails{s} }}
	var seen provisioningOutcomes
	svc := newTestService(db, WithObserver(&seen))

	_, err := svc.Provision(context.Background(), tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme", Domain: "acme.io"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvisioningPartialFailure)
	var perr *domain.ProvisioningError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StepAssignRole, perr.Step)

	assert.Equal(t, 0, mem.Count(entity.KindTenant), "no debe quedar tenant huérfano")
	assert.Empty(t, mem.Users())
	assert.Empty(t, mem.Roles())
	assert.Equal(t, provisioningOutcomes{OutcomeFailed}, seen)

	// El dominio queda libre para reintentar.
	ok := newTestService(mem)
	_, err = ok.Provision(context.Background(), tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme", Domain: "acme.io"})
	assert.NoError(t, err)
}

func TestProvision_RolAdminPreexistenteSeReutiliza(t *testing.T) {
	mem := newMemoryDB(t)
	db := &failingDB{Database: mem, wrap: func(s repository.IdentityStore) repository.IdentityStore { return roleExists{s} }}
	svc := newTestService(db)

	out, err := svc.Provision(context.Background(), tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme", Domain: "acme.io"})
	require.NoError(t, err)

	roles := mem.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, []entity.UserRole{{UserID: out.AdminUserID, RoleID: roles[0].ID}}, mem.Assignments())
}

func TestUpdate_MezclaParcial(t *testing.T) {
	db := newMemoryDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	acme, err := svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme", Domain: "acme.io", City: "Bogotá"})
	require.NoError(t, err)
	_, err = svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Beta", Domain: "beta.io"})
	require.NoError(t, err)

	// Caso 1: campos vacíos conservan el valor; dominio nuevo libre.
	empty, newName, newDomain := "", "Acme SAS", "Acme.co"
	got, err := svc.Update(ctx, tenancy.Unscoped(), acme.Tenant.ID, dto.UpdateTenantRequest{
		Name: &newName, City: &empty, Domain: &newDomain,
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme SAS", got.Name)
	assert.Equal(t, "Bogotá", got.City)
	assert.Equal(t, "acme.co", got.Domain)
	assert.NotNil(t, got.UpdatedAt)

	// Caso 2: el mismo dominio propio no es conflicto.
	same := "ACME.co"
	_, err = svc.Update(ctx, tenancy.Unscoped(), acme.Tenant.ID, dto.UpdateTenantRequest{Domain: &same})
	require.NoError(t, err)

	// Caso 3: dominio de otro tenant.
	taken := "beta.io"
	_, err = svc.Update(ctx, tenancy.Unscoped(), acme.Tenant.ID, dto.UpdateTenantRequest{Domain: &taken})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Caso 4: un tenant no ve ni modifica a otro.
	got, err = svc.Update(ctx, tenancy.Scoped(acme.Tenant.ID), "5d2c7e91-1a3b-4f6d-8e2a-9b4c0d7f1e02", dto.UpdateTenantRequest{Name: &newName})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete_BajaLogicaEInvalidaCache(t *testing.T) {
	db := newMemoryDB(t)
	var inv invalidations
	svc := newTestService(db, WithDirectory(&inv))
	ctx := context.Background()

	out, err := svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme", Domain: "acme.io"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, tenancy.Scoped(out.Tenant.ID), out.Tenant.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	ok, err := svc.Delete(ctx, tenancy.Unscoped(), out.Tenant.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, invalidations{out.Tenant.ID}, inv)

	got, err := svc.Get(ctx, tenancy.Unscoped(), out.Tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, db.Count(entity.KindTenant))

	// El dominio de un tenant borrado puede reutilizarse.
	_, err = svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme 2", Domain: "acme.io", Email: "nuevo@acme.io"})
	assert.NoError(t, err)
}

func TestGetByDomain_NormalizaYAisla(t *testing.T) {
	svc := newTestService(newMemoryDB(t))
	ctx := context.Background()

	acme, err := svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Acme", Domain: "acme.io"})
	require.NoError(t, err)
	beta, err := svc.Provision(ctx, tenancy.Unscoped(), dto.CreateTenantRequest{Name: "Beta", Domain: "beta.io"})
	require.NoError(t, err)

	// Caso 1: superusuario, dominio con mayúsculas y punto final.
	got, err := svc.GetByDomain(ctx, tenancy.Unscoped(), " BETA.io. ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, beta.Tenant.ID, got.ID)

	// Caso 2: un tenant solo se encuentra a sí mismo.
	got, err = svc.GetByDomain(ctx, tenancy.Scoped(acme.Tenant.ID), "beta.io")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = svc.GetByDomain(ctx, tenancy.Scoped(acme.Tenant.ID), "acme.io")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, acme.Tenant.ID, got.ID)

	// Caso 3: dado de baja no aparece; dominio inválido es error de validación.
	_, err = svc.Delete(ctx, tenancy.Unscoped(), beta.Tenant.ID)
	require.NoError(t, err)
	got, err = svc.GetByDomain(ctx, tenancy.Unscoped(), "beta.io")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.GetByDomain(ctx, tenancy.Unscoped(), "no valido")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "domain", verr.Field)
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "acme.io", NormalizeDomain("  ACME.IO. "))
	assert.False(t, validDomain("acme..io"))
	assert.False(t, validDomain(""))
	assert.True(t, validDomain("shop.acme.io"))
}
