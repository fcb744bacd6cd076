// Package memory backend en proceso con los mismos contratos que el de PostgreSQL:
// filtros de aislamiento, interceptor, restricciones únicas y transacciones todo o nada.
// Se usa con STORE_DRIVER=memory y en los tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
)

var _ repository.Database = (*Database)(nil)

// state contenido del almacén. Los registros guardados nunca se mutan: cada
// escritura guarda un clon nuevo, así una copia superficial sirve de snapshot.
type state struct {
	rows      map[string]map[string]entity.Record
	order     map[string][]string
	users     map[string]entity.User
	roles     map[string]entity.Role
	userRoles map[entity.UserRole]struct{}
}

func newState() *state {
	return &state{
		rows:      make(map[string]map[string]entity.Record),
		order:     make(map[string][]string),
		users:     make(map[string]entity.User),
		roles:     make(map[string]entity.Role),
		userRoles: make(map[entity.UserRole]struct{}),
	}
}

func (s *state) snapshot() *state {
	c := newState()
	for kind, rows := range s.rows {
		m := make(map[string]entity.Record, len(rows))
		for id, r := range rows {
			m[id] = r
		}
		c.rows[kind] = m
	}
	for kind, ids := range s.order {
		c.order[kind] = append([]string(nil), ids...)
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k := range s.userRoles {
		c.userRoles[k] = struct{}{}
	}
	return c
}

// Database backend en memoria.
type Database struct {
	model       *persistence.Model
	interceptor *tenancy.Interceptor
	hasher      repository.CredentialHasher
	observer    tenancy.CommitObserver
	now         func() time.Time

	txMu sync.Mutex   // serializa transacciones y escrituras
	mu   sync.RWMutex // protege st
	st   *state
}

// Option configura Database.
type Option func(*Database)

// WithCommitObserver registra un observer de commits.
func WithCommitObserver(o tenancy.CommitObserver) Option {
	return func(d *Database) { d.observer = o }
}

// WithClock reemplaza el reloj.
func WithClock(now func() time.Time) Option {
	return func(d *Database) { d.now = now }
}

// NewDatabase crea un almacén vacío.
func NewDatabase(model *persistence.Model, hasher repository.CredentialHasher, opts ...Option) *Database {
	d := &Database{model: model, hasher: hasher, st: newState()}
	for _, opt := range opts {
		opt(d)
	}
	if d.now == nil {
		d.now = func() time.Time { return time.Now().UTC() }
	}
	d.interceptor = tenancy.NewInterceptor(d.now)
	return d
}

// Session sesión fuera de transacción.
func (d *Database) Session(tc tenancy.Context) repository.Session {
	return &session{db: d, tc: tc}
}

// RunInTx ejecuta fn con acceso exclusivo de escritura; si fn falla se restaura el snapshot.
// No admite transacciones anidadas.
func (d *Database) RunInTx(ctx context.Context, tc tenancy.Context, fn func(s repository.Session) error) error {
	d.txMu.Lock()
	defer d.txMu.Unlock()

	d.mu.RLock()
	snap := d.st.snapshot()
	d.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(&session{db: d, tc: tc, inTx: true}); err != nil {
		d.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		d.restore(snap)
		return err
	}
	return nil
}

func (d *Database) restore(snap *state) {
	d.mu.Lock()
	d.st = snap
	d.mu.Unlock()
}

// write ejecuta fn con el estado bloqueado y lo restaura si fn falla.
func (d *Database) write(inTx bool, fn func(st *state) error) error {
	if !inTx {
		d.txMu.Lock()
		defer d.txMu.Unlock()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.st.snapshot()
	if err := fn(d.st); err != nil {
		d.st = snap
		return err
	}
	return nil
}

func (d *Database) read(fn func(st *state) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(d.st)
}

// Inspect lee una fila sin filtros de aislamiento ni de borrado (inspección directa del almacén).
func (d *Database) Inspect(kind, id string) (entity.Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.st.rows[kind][id]
	if !ok {
		return nil, false
	}
	t, err := d.model.Table(kind)
	if err != nil {
		return nil, false
	}
	c, err := t.Clone(rec)
	if err != nil {
		return nil, false
	}
	return c, true
}

// Count número de filas físicas de un tipo, incluidas las borradas.
func (d *Database) Count(kind string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.st.rows[kind])
}

// Users copia de todas las identidades.
func (d *Database) Users() []entity.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.User, 0, len(d.st.users))
	for _, u := range d.st.users {
		out = append(out, u)
	}
	return out
}

// Roles copia de todos los roles.
func (d *Database) Roles() []entity.Role {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.Role, 0, len(d.st.roles))
	for _, r := range d.st.roles {
		out = append(out, r)
	}
	return out
}

// Assignments copia de todas las asignaciones usuario-rol.
func (d *Database) Assignments() []entity.UserRole {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.UserRole, 0, len(d.st.userRoles))
	for ur := range d.st.userRoles {
		out = append(out, ur)
	}
	return out
}

type session struct {
	db   *Database
	tc   tenancy.Context
	inTx bool
}

func (s *session) Context() tenancy.Context { return s.tc }

func (s *session) UnitOfWork() *tenancy.UnitOfWork {
	return tenancy.NewUnitOfWork(s.tc, s.db.interceptor, &changeApplier{db: s.db, inTx: s.inTx}, s.db.observer)
}

func (s *session) Products() repository.ProductRepository {
	return &tableRepo[entity.Product, *entity.Product]{db: s.db, tc: s.tc, mapper: s.db.model.Products, newUoW: s.UnitOfWork}
}

func (s *session) Staff() repository.StaffRepository {
	return &tableRepo[entity.Staff, *entity.Staff]{db: s.db, tc: s.tc, mapper: s.db.model.Staff, newUoW: s.UnitOfWork}
}

func (s *session) Tenants() repository.TenantRepository {
	return &tenantRepo{tableRepo: &tableRepo[entity.Tenant, *entity.Tenant]{db: s.db, tc: s.tc, mapper: s.db.model.Tenants, newUoW: s.UnitOfWork}}
}

func (s *session) Identity() repository.IdentityStore {
	return &identityStore{db: s.db, tc: s.tc, inTx: s.inTx}
}
