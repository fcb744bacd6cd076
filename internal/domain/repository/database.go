package repository

import (
	"context"

	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

// Session acceso a datos atado a un único contexto de tenant.
type Session interface {
	Context() tenancy.Context
	Products() ProductRepository
	Staff() StaffRepository
	Tenants() TenantRepository
	Identity() IdentityStore
	// UnitOfWork agrupa varios cambios en un solo commit.
	UnitOfWork() *tenancy.UnitOfWork
}

// Database abre sesiones y transacciones.
type Database interface {
	Session(tc tenancy.Context) Session
	// RunInTx ejecuta fn en una transacción: commit si fn devuelve nil, rollback en otro caso.
	RunInTx(ctx context.Context, tc tenancy.Context, fn func(s Session) error) error
}
