package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
)

var _ tenancy.ChangeApplier = (*changeApplier)(nil)

// changeApplier escribe un lote sellado en una sola (sub)transacción.
type changeApplier struct {
	q     Querier
	model *persistence.Model
}

// Apply inserta, actualiza o marca como borrado cada cambio. Si alguna fila
// actualizada no es visible en el contexto devuelve domain.ErrNotFound y revierte todo.
func (a *changeApplier) Apply(ctx context.Context, tc tenancy.Context, changes []*tenancy.Change) error {
	return withScope(ctx, a.q, tc, func(tx pgx.Tx) error {
		for _, ch := range changes {
			if err := a.apply(ctx, tx, tc, ch); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *changeApplier) apply(ctx context.Context, tx pgx.Tx, tc tenancy.Context, ch *tenancy.Change) error {
	kind := ch.Entity.EntityKind()
	t, err := a.model.Table(kind)
	if err != nil {
		return err
	}
	values, err := t.ValuesOf(ch.Entity)
	if err != nil {
		return err
	}
	switch ch.Op {
	case tenancy.OpAdded:
		query, args, err := buildInsert(t.Name(), t.Columns(), values)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return writeError("insert "+kind, err)
		}
		return nil
	case tenancy.OpModified:
		return a.update(ctx, tx, tc, t, ch, t.UpdatableColumns(), values)
	case tenancy.OpSoftDeleted:
		return a.update(ctx, tx, tc, t, ch, persistence.SoftDeleteColumns, values)
	case tenancy.OpRemoved:
		return fmt.Errorf("%s %s: %w", kind, ch.Entity.RecordID(), domain.ErrPhysicalDelete)
	default:
		return fmt.Errorf("operación %s: %w", ch.Op, domain.ErrInvalidInput)
	}
}

func (a *changeApplier) update(ctx context.Context, tx pgx.Tx, tc tenancy.Context, t persistence.Table, ch *tenancy.Change, cols []string, values []any) error {
	isolation, err := a.model.Registry.Predicate(t.Kind(), tc)
	if err != nil {
		return err
	}
	query, args, err := buildUpdate(t.Name(), cols, persistence.ValuesFor(t, values, cols), ch.Entity.RecordID(), isolation)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return writeError("update "+t.Kind(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", t.Kind(), ch.Entity.RecordID(), domain.ErrNotFound)
	}
	return nil
}
