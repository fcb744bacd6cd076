package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
)

var _ repository.Database = (*Database)(nil)

// Database abre sesiones atadas a un contexto de tenant sobre el pool y ejecuta transacciones.
type Database struct {
	pool        *pgxpool.Pool
	model       *persistence.Model
	interceptor *tenancy.Interceptor
	hasher      repository.CredentialHasher
	observer    tenancy.CommitObserver
	now         func() time.Time
}

// Option configura Database.
type Option func(*Database)

// WithCommitObserver registra un observer de commits.
func WithCommitObserver(o tenancy.CommitObserver) Option {
	return func(d *Database) { d.observer = o }
}

// WithClock reemplaza el reloj del interceptor y del IdentityStore.
func WithClock(now func() time.Time) Option {
	return func(d *Database) { d.now = now }
}

// NewDatabase construye el backend PostgreSQL.
func NewDatabase(pool *pgxpool.Pool, model *persistence.Model, hasher repository.CredentialHasher, opts ...Option) *Database {
	d := &Database{pool: pool, model: model, hasher: hasher}
	for _, opt := range opts {
		opt(d)
	}
	if d.now == nil {
		d.now = func() time.Time { return time.Now().UTC() }
	}
	d.interceptor = tenancy.NewInterceptor(d.now)
	return d
}

// Session sesión sobre el pool: cada operación corre en su propia transacción corta.
func (d *Database) Session(tc tenancy.Context) repository.Session {
	return d.session(d.pool, tc)
}

// RunInTx inicia una transacción, ejecuta fn con una sesión atada a la tx y hace Commit o Rollback.
func (d *Database) RunInTx(ctx context.Context, tc tenancy.Context, fn func(s repository.Session) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := applyTenantSettings(ctx, tx, tc); err != nil {
		return err
	}
	if err := fn(d.session(tx, tc)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (d *Database) session(q Querier, tc tenancy.Context) *session {
	return &session{db: d, q: q, tc: tc}
}

type session struct {
	db *Database
	q  Querier
	tc tenancy.Context
}

func (s *session) Context() tenancy.Context { return s.tc }

func (s *session) UnitOfWork() *tenancy.UnitOfWork {
	applier := &changeApplier{q: s.q, model: s.db.model}
	return tenancy.NewUnitOfWork(s.tc, s.db.interceptor, applier, s.db.observer)
}

func (s *session) Products() repository.ProductRepository {
	return &tableRepo[entity.Product, *entity.Product]{
		q: s.q, tc: s.tc, mapper: s.db.model.Products, registry: s.db.model.Registry, newUoW: s.UnitOfWork,
	}
}

func (s *session) Staff() repository.StaffRepository {
	return &tableRepo[entity.Staff, *entity.Staff]{
		q: s.q, tc: s.tc, mapper: s.db.model.Staff, registry: s.db.model.Registry, newUoW: s.UnitOfWork,
	}
}

func (s *session) Tenants() repository.TenantRepository {
	return &TenantRepo{tableRepo: &tableRepo[entity.Tenant, *entity.Tenant]{
		q: s.q, tc: s.tc, mapper: s.db.model.Tenants, registry: s.db.model.Registry, newUoW: s.UnitOfWork,
	}}
}

func (s *session) Identity() repository.IdentityStore {
	return &IdentityStore{q: s.q, tc: s.tc, hasher: s.db.hasher, now: s.db.now}
}
