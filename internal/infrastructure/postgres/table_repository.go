package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
)

type recordPtr[T any] interface {
	*T
	entity.Record
}

// tableRepo implementación genérica de repository.Store sobre una tabla.
// Las lecturas aplican el predicado del registro de filtros; las escrituras pasan por la unidad de trabajo.
type tableRepo[T any, P recordPtr[T]] struct {
	q        Querier
	tc       tenancy.Context
	mapper   *persistence.Mapper[T]
	registry *tenancy.FilterRegistry
	newUoW   func() *tenancy.UnitOfWork
}

// ListAll devuelve las filas visibles en el contexto que cumplen where.
func (r *tableRepo[T, P]) ListAll(ctx context.Context, where ...tenancy.Predicate) ([]*T, error) {
	return r.list(ctx, where...)
}

// ListPage devuelve la ventana pedida y el total visible, leídos en la misma transacción.
func (r *tableRepo[T, P]) ListPage(ctx context.Context, page repository.Page, where ...tenancy.Predicate) ([]*T, int, error) {
	cond, err := r.condition(where...)
	if err != nil {
		return nil, 0, err
	}
	query, args, err := buildSelectPage(r.mapper.Name(), r.mapper.Columns(), cond, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	countSQL, countArgs, err := buildCount(r.mapper.Name(), cond)
	if err != nil {
		return nil, 0, err
	}
	var (
		list  []*T
		total int
	)
	err = withScope(ctx, r.q, r.tc, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("count %s: %w", r.mapper.Name(), err)
		}
		var err error
		list, err = r.scan(ctx, tx, query, args)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// condition combina el filtro de aislamiento del tipo con where.
func (r *tableRepo[T, P]) condition(where ...tenancy.Predicate) (tenancy.Predicate, error) {
	isolation, err := r.registry.Predicate(r.mapper.Kind(), r.tc)
	if err != nil {
		return nil, err
	}
	return tenancy.AndOf(append([]tenancy.Predicate{isolation}, where...)...), nil
}

func (r *tableRepo[T, P]) list(ctx context.Context, where ...tenancy.Predicate) ([]*T, error) {
	cond, err := r.condition(where...)
	if err != nil {
		return nil, err
	}
	query, args, err := buildSelect(r.mapper.Name(), r.mapper.Columns(), cond)
	if err != nil {
		return nil, err
	}
	var list []*T
	err = withScope(ctx, r.q, r.tc, func(tx pgx.Tx) error {
		var err error
		list, err = r.scan(ctx, tx, query, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *tableRepo[T, P]) scan(ctx context.Context, tx pgx.Tx, query string, args []any) ([]*T, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.mapper.Name(), err)
	}
	defer rows.Close()
	var list []*T
	for rows.Next() {
		e := new(T)
		if err := rows.Scan(r.mapper.Targets(e)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.mapper.Name(), err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// GetByID devuelve (nil, nil) si la fila no existe, está borrada o pertenece a otro tenant.
func (r *tableRepo[T, P]) GetByID(ctx context.Context, id string) (*T, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	list, err := r.list(ctx, tenancy.Eq{Column: "id", Value: id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Create inserta e; el interceptor completa tenant y auditoría.
func (r *tableRepo[T, P]) Create(ctx context.Context, e *T) (*T, error) {
	uow := r.newUoW()
	uow.Add(P(e))
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Update persiste los campos de negocio de e. El tenant y el alta no se reescriben.
func (r *tableRepo[T, P]) Update(ctx context.Context, e *T) (*T, error) {
	if _, err := uuid.Parse(P(e).RecordID()); err != nil {
		return nil, domain.ErrNotFound
	}
	uow := r.newUoW()
	uow.Modify(P(e))
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// SoftDelete marca la fila como borrada; false si no es visible.
func (r *tableRepo[T, P]) SoftDelete(ctx context.Context, id string) (bool, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}
	uow := r.newUoW()
	uow.Remove(P(e))
	if err := uow.Commit(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
