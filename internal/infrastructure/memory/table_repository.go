package memory

import (
	"context"
	"errors"
	"strings"

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

type tableRepo[T any, P recordPtr[T]] struct {
	db     *Database
	tc     tenancy.Context
	mapper *persistence.Mapper[T]
	newUoW func() *tenancy.UnitOfWork
}

func (r *tableRepo[T, P]) ListAll(ctx context.Context, where ...tenancy.Predicate) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	isolation, err := r.db.model.Registry.Predicate(r.mapper.Kind(), r.tc)
	if err != nil {
		return nil, err
	}
	cond := tenancy.AndOf(append([]tenancy.Predicate{isolation}, where...)...)
	var out []*T
	err = r.db.read(func(st *state) error {
		for _, id := range st.order[r.mapper.Kind()] {
			rec := st.rows[r.mapper.Kind()][id]
			row, err := persistence.ColumnValues(r.mapper, rec)
			if err != nil {
				return err
			}
			ok, err := matches(cond, row)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			c, err := r.mapper.Clone(rec)
			if err != nil {
				return err
			}
			out = append(out, c.(P))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tableRepo[T, P]) ListPage(ctx context.Context, page repository.Page, where ...tenancy.Predicate) ([]*T, int, error) {
	list, err := r.ListAll(ctx, where...)
	if err != nil {
		return nil, 0, err
	}
	total := len(list)
	start := min(max(page.Offset, 0), total)
	end := total
	if page.Limit > 0 {
		end = min(start+page.Limit, total)
	}
	return list[start:end], total, nil
}

func (r *tableRepo[T, P]) GetByID(ctx context.Context, id string) (*T, error) {
	list, err := r.ListAll(ctx, tenancy.Eq{Column: "id", Value: id})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *tableRepo[T, P]) Create(ctx context.Context, e *T) (*T, error) {
	uow := r.newUoW()
	uow.Add(P(e))
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *tableRepo[T, P]) Update(ctx context.Context, e *T) (*T, error) {
	uow := r.newUoW()
	uow.Modify(P(e))
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *tableRepo[T, P]) SoftDelete(ctx context.Context, id string) (bool, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil || e == nil {
		return false, err
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

var _ repository.TenantRepository = (*tenantRepo)(nil)

type tenantRepo struct {
	*tableRepo[entity.Tenant, *entity.Tenant]
}

func (r *tenantRepo) DomainTaken(_ context.Context, domainName, excludeID string) (bool, error) {
	var taken bool
	err := r.db.read(func(st *state) error {
		taken = domainInUse(st, domainName, excludeID)
		return nil
	})
	return taken, err
}

func (r *tenantRepo) GetByDomain(ctx context.Context, domainName string) (*entity.Tenant, error) {
	list, err := r.ListAll(ctx, tenancy.Eq{Column: "domain", Value: domainName})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func domainInUse(st *state, domainName, excludeID string) bool {
	for id, rec := range st.rows[entity.KindTenant] {
		t := rec.(*entity.Tenant)
		if id != excludeID && !t.IsDeleted && strings.EqualFold(t.Domain, domainName) {
			return true
		}
	}
	return false
}
