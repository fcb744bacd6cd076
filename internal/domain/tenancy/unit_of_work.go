package tenancy

import (
	"context"
	"sync"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
)

// ChangeApplier aplica un lote ya sellado de forma atómica (todo o nada).
type ChangeApplier interface {
	Apply(ctx context.Context, tc Context, changes []*Change) error
}

// CommitObserver recibe el resultado de cada commit.
type CommitObserver interface {
	ObserveCommit(outcome string)
}

// UnitOfWork acumula cambios pendientes de un contexto y los confirma juntos.
// Commit invoca el interceptor exactamente una vez y luego el applier.
type UnitOfWork struct {
	tc          Context
	interceptor *Interceptor
	applier     ChangeApplier
	observer    CommitObserver

	mu      sync.Mutex
	pending []*Change
}

// NewUnitOfWork crea una unidad de trabajo atada a tc.
func NewUnitOfWork(tc Context, interceptor *Interceptor, applier ChangeApplier, observer CommitObserver) *UnitOfWork {
	return &UnitOfWork{tc: tc, interceptor: interceptor, applier: applier, observer: observer}
}

// Add registra una entidad nueva.
func (u *UnitOfWork) Add(e entity.Record) { u.push(OpAdded, e) }

// Modify registra una actualización.
func (u *UnitOfWork) Modify(e entity.Record) { u.push(OpModified, e) }

// Remove registra una baja; se persiste como borrado lógico.
func (u *UnitOfWork) Remove(e entity.Record) { u.push(OpRemoved, e) }

func (u *UnitOfWork) push(op Op, e entity.Record) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = append(u.pending, &Change{Op: op, Entity: e})
}

// Pending devuelve una copia de los cambios pendientes.
func (u *UnitOfWork) Pending() []Change {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Change, 0, len(u.pending))
	for _, ch := range u.pending {
		out = append(out, *ch)
	}
	return out
}

// Commit sella y aplica el lote. Con error el lote se descarta sin efectos en el almacén.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	batch := u.pending
	u.pending = nil
	u.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	if err := u.interceptor.BeforeCommit(u.tc, batch); err != nil {
		u.observe("rejected")
		return err
	}
	if err := u.applier.Apply(ctx, u.tc, batch); err != nil {
		u.observe("failed")
		return err
	}
	u.observe("committed")
	return nil
}

func (u *UnitOfWork) observe(outcome string) {
	if u.observer != nil {
		u.observer.ObserveCommit(outcome)
	}
}
