package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
)

var _ tenancy.ChangeApplier = (*changeApplier)(nil)

type changeApplier struct {
	db   *Database
	inTx bool
}

// Apply aplica el lote entero o nada.
func (a *changeApplier) Apply(ctx context.Context, tc tenancy.Context, changes []*tenancy.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.db.write(a.inTx, func(st *state) error {
		for _, ch := range changes {
			if err := a.apply(st, tc, ch); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *changeApplier) apply(st *state, tc tenancy.Context, ch *tenancy.Change) error {
	kind := ch.Entity.EntityKind()
	t, err := a.db.model.Table(kind)
	if err != nil {
		return err
	}
	id := ch.Entity.RecordID()
	switch ch.Op {
	case tenancy.OpAdded:
		if _, dup := st.rows[kind][id]; dup {
			return fmt.Errorf("insert %s %s: %w", kind, id, domain.ErrConflict)
		}
		if err := checkUnique(st, ch.Entity); err != nil {
			return err
		}
		rec, err := t.Clone(ch.Entity)
		if err != nil {
			return err
		}
		if st.rows[kind] == nil {
			st.rows[kind] = make(map[string]entity.Record)
		}
		st.rows[kind][id] = rec
		st.order[kind] = append(st.order[kind], id)
		return nil
	case tenancy.OpModified:
		old, err := a.visible(st, tc, t, id)
		if err != nil {
			return err
		}
		if err := checkUnique(st, ch.Entity); err != nil {
			return err
		}
		rec, err := t.Clone(ch.Entity)
		if err != nil {
			return err
		}
		keepImmutable(rec, old)
		st.rows[kind][id] = rec
		return nil
	case tenancy.OpSoftDeleted:
		old, err := a.visible(st, tc, t, id)
		if err != nil {
			return err
		}
		rec, err := t.Clone(old)
		if err != nil {
			return err
		}
		src := ch.Entity.AuditFields()
		dst := rec.AuditFields()
		dst.IsDeleted, dst.DeletedAt, dst.DeletedBy = src.IsDeleted, src.DeletedAt, src.DeletedBy
		st.rows[kind][id] = rec
		return nil
	case tenancy.OpRemoved:
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrPhysicalDelete)
	default:
		return fmt.Errorf("operación %s: %w", ch.Op, domain.ErrInvalidInput)
	}
}

// visible devuelve la fila guardada si el filtro de aislamiento la deja ver; si no, ErrNotFound.
func (a *changeApplier) visible(st *state, tc tenancy.Context, t persistence.Table, id string) (entity.Record, error) {
	old, ok := st.rows[t.Kind()][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", t.Kind(), id, domain.ErrNotFound)
	}
	isolation, err := a.db.model.Registry.Predicate(t.Kind(), tc)
	if err != nil {
		return nil, err
	}
	row, err := persistence.ColumnValues(t, old)
	if err != nil {
		return nil, err
	}
	ok, err = matches(isolation, row)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", t.Kind(), id, domain.ErrNotFound)
	}
	return old, nil
}

// keepImmutable copia de old a rec lo que un UPDATE nunca escribe: tenant, alta y borrado lógico.
func keepImmutable(rec, old entity.Record) {
	if ts, ok := rec.(entity.TenantScoped); ok {
		ts.AssignTenant(old.(entity.TenantScoped).OwnerTenant())
	}
	dst, src := rec.AuditFields(), old.AuditFields()
	dst.CreatedAt, dst.CreatedBy = src.CreatedAt, src.CreatedBy
	dst.IsDeleted, dst.DeletedAt, dst.DeletedBy = src.IsDeleted, src.DeletedAt, src.DeletedBy
}

// checkUnique emula ux_tenants_domain_active.
func checkUnique(st *state, rec entity.Record) error {
	t, ok := rec.(*entity.Tenant)
	if !ok || t.IsDeleted {
		return nil
	}
	if domainInUse(st, strings.TrimSpace(t.Domain), t.ID) {
		return fmt.Errorf("tenant domain %s: %w", t.Domain, domain.ErrConflict)
	}
	return nil
}
