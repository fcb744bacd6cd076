package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/security"
)

const (
	tenantA = "0b8f6a4e-6f7e-4c55-9c1e-6a0d1f3b2a01"
	tenantB = "5d2c7e91-1a3b-4f6d-8e2a-9b4c0d7f1e02"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	model, err := persistence.NewModel()
	require.NoError(t, err)
	return NewDatabase(model, security.NewBcryptHasher(4), WithClock(func() time.Time { return fixedNow }))
}

func newProduct(name string) *entity.Product {
	return &entity.Product{
		ID:            uuid.New().String(),
		Name:          name,
		PurchasePrice: decimal.NewFromInt(100),
		SellingPrice:  decimal.NewFromInt(150),
		Quantity:      4,
	}
}

func seedProduct(t *testing.T, db *Database, tenant, name string) *entity.Product {
	t.Helper()
	p, err := db.Session(tenancy.Scoped(tenant)).Products().Create(context.Background(), newProduct(name))
	require.NoError(t, err)
	return p
}

func TestProducts_AislamientoEntreTenants(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pa := seedProduct(t, db, tenantA, "Michelin A")
	pb := seedProduct(t, db, tenantB, "Pirelli B")

	listA, err := db.Session(tenancy.Scoped(tenantA)).Products().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, pa.ID, listA[0].ID)

	// Caso 1: leer por id un producto de otro tenant es indistinguible de no existir.
	got, err := db.Session(tenancy.Scoped(tenantA)).Products().GetByID(ctx, pb.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Caso 2: el superusuario ve ambos.
	all, err := db.Session(tenancy.Unscoped()).Products().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProducts_AltaSellaTenantDelContexto(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, tenantA, "Michelin")

	rec, ok := db.Inspect(entity.KindProduct, p.ID)
	require.True(t, ok)
	stored := rec.(*entity.Product)
	require.NotNil(t, stored.TenantID)
	assert.Equal(t, tenantA, *stored.TenantID)
	assert.Equal(t, fixedNow, stored.CreatedAt)
}

func TestProducts_AltaConOtroTenantExplicitoSeRechaza(t *testing.T) {
	db := newTestDB(t)
	p := newProduct("Intruso")
	p.AssignTenant(tenantB)

	_, err := db.Session(tenancy.Scoped(tenantA)).Products().Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrCrossTenantWrite)
	assert.Equal(t, 0, db.Count(entity.KindProduct))
}

func TestProducts_UnscopedSinTenantSeRechaza(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Session(tenancy.Unscoped()).Products().Create(context.Background(), newProduct("Huérfano"))
	assert.ErrorIs(t, err, domain.ErrTenantRequired)
}

func TestProducts_UpdateNoCruzaTenantsNiCambiaDueño(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pb := seedProduct(t, db, tenantB, "Pirelli B")

	// Caso 1: A intenta modificar un producto de B.
	forged := *pb
	forged.AssignTenant(tenantA)
	forged.Name = "robado"
	_, err := db.Session(tenancy.Scoped(tenantA)).Products().Update(ctx, &forged)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Caso 2: el superusuario modifica, pero tenant y alta se conservan.
	forged.CreatedAt = time.Time{}
	_, err = db.Session(tenancy.Unscoped()).Products().Update(ctx, &forged)
	require.NoError(t, err)
	rec, _ := db.Inspect(entity.KindProduct, pb.ID)
	stored := rec.(*entity.Product)
	assert.Equal(t, tenantB, *stored.TenantID)
	assert.Equal(t, "robado", stored.Name)
	assert.Equal(t, fixedNow, stored.CreatedAt)
}

func TestProducts_BorradoLogicoInvisibleEnTodoContexto(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, tenantA, "Michelin")

	ok, err := db.Session(tenancy.Scoped(tenantB)).Products().SoftDelete(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok, "B no puede borrar productos de A")

	ok, err = db.Session(tenancy.Scoped(tenantA).WithActor("u1")).Products().SoftDelete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, found := db.Inspect(entity.KindProduct, p.ID)
	require.True(t, found, "la fila física sigue en el almacén")
	stored := rec.(*entity.Product)
	assert.True(t, stored.IsDeleted)
	assert.Equal(t, "u1", *stored.DeletedBy)

	for _, tc := range []tenancy.Context{tenancy.Scoped(tenantA), tenancy.Unscoped()} {
		got, err := db.Session(tc).Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, got, tc.String())
		list, err := db.Session(tc).Products().ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, list, tc.String())
	}

	ok, err = db.Session(tenancy.Scoped(tenantA)).Products().SoftDelete(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok, "borrar dos veces no encuentra la fila")
}

func TestProducts_ContextoSinResolverFalla(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Session(tenancy.Context{}).Products().ListAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrTenantResolution)
}

func TestProducts_FiltroAdicionalSeCombinaConAislamiento(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, tenantA, "Michelin Pilot")
	seedProduct(t, db, tenantA, "Pirelli P Zero")
	seedProduct(t, db, tenantB, "Michelin Energy")

	list, err := db.Session(tenancy.Scoped(tenantA)).Products().ListAll(context.Background(),
		tenancy.Contains{Column: "name", Substr: "michelin"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Michelin Pilot", list[0].Name)
}

func TestTenants_ScopedSoloVeSuPropioTenant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := db.Session(tenancy.Unscoped()).Tenants()
	_, err := admin.Create(ctx, &entity.Tenant{ID: tenantA, Name: "A", Domain: "a.io"})
	require.NoError(t, err)
	_, err = admin.Create(ctx, &entity.Tenant{ID: tenantB, Name: "B", Domain: "b.io"})
	require.NoError(t, err)

	list, err := db.Session(tenancy.Scoped(tenantA)).Tenants().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tenantA, list[0].ID)

	// Dominio duplicado sin distinguir mayúsculas.
	_, err = admin.Create(ctx, &entity.Tenant{ID: uuid.New().String(), Name: "A2", Domain: "A.IO"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	taken, err := db.Session(tenancy.Unscoped()).Tenants().DomainTaken(ctx, "a.io", tenantA)
	require.NoError(t, err)
	assert.False(t, taken, "el propio tenant no cuenta")
}

func TestRunInTx_RollbackDeshaceTodo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.RunInTx(ctx, tenancy.Scoped(tenantA), func(s repository.Session) error {
		if _, err := s.Products().Create(ctx, newProduct("uno")); err != nil {
			return err
		}
		a := tenantA
		if _, err := s.Identity().CreateUser(ctx, &a, "x@a.io", "secreta"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, db.Count(entity.KindProduct))
	assert.Empty(t, db.Users())
}

func TestIdentity_RolesYAsignaciones(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a, b := tenantA, tenantB
	idA := db.Session(tenancy.Scoped(tenantA)).Identity()

	// Caso 1: Scoped no puede crear identidades de otro tenant.
	_, err := idA.CreateUser(ctx, &b, "x@b.io", "secreta")
	assert.ErrorIs(t, err, domain.ErrCrossTenantWrite)

	userID, err := idA.CreateUser(ctx, &a, "Admin@A.io", "secreta")
	require.NoError(t, err)
	_, err = idA.CreateUser(ctx, &a, "admin@a.io", "otra")
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Caso 2: EnsureRole es idempotente.
	r1, err := idA.EnsureRole(ctx, &a, entity.RoleAdmin)
	require.NoError(t, err)
	r2, err := idA.EnsureRole(ctx, &a, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	require.NoError(t, idA.AssignRole(ctx, userID, r1))
	roles, err := idA.RolesOf(ctx, userID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, entity.RoleAdmin, roles[0].Name)

	// Caso 3: no se asignan roles de otro tenant.
	rb, err := db.Session(tenancy.Unscoped()).Identity().EnsureRole(ctx, &b, entity.RoleAdmin)
	require.NoError(t, err)
	assert.NotEqual(t, r1, rb)
	assert.ErrorIs(t, db.Session(tenancy.Unscoped()).Identity().AssignRole(ctx, userID, rb), domain.ErrNotFound)

	// Caso 4: el usuario no es visible desde B.
	u, err := db.Session(tenancy.Scoped(tenantB)).Identity().FindUserByEmail(ctx, "admin@a.io")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = idA.FindUserByEmail(ctx, "admin@a.io")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.MustRotateCredential)

	require.NoError(t, idA.SetCredential(ctx, userID, "nueva"))
	u, _ = idA.GetUser(ctx, userID)
	assert.False(t, u.MustRotateCredential)
}

func TestProducts_ListPageRespetaAislamientoYBorrados(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for _, n := range []string{"A1", "A2", "A3", "A4"} {
		seedProduct(t, db, tenantA, n)
	}
	seedProduct(t, db, tenantB, "B1")
	repo := db.Session(tenancy.Scoped(tenantA)).Products()

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	ok, err := repo.SoftDelete(ctx, all[0].ID)
	require.NoError(t, err)
	require.True(t, ok)

	page, total, err := repo.ListPage(ctx, repository.Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "A3", page[0].Name)
	assert.Equal(t, "A4", page[1].Name)

	page, total, err = repo.ListPage(ctx, repository.Page{Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, page)

	page, total, err = repo.ListPage(ctx, repository.Page{}, tenancy.Contains{Column: "name", Substr: "a2"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, "A2", page[0].Name)
}
