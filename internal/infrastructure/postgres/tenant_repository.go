package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo persistencia de tenants. Lecturas filtradas por el id del tenant del contexto.
type TenantRepo struct {
	*tableRepo[entity.Tenant, *entity.Tenant]
}

// DomainTaken consulta todos los tenants no borrados: la unicidad de dominio es global.
func (r *TenantRepo) DomainTaken(ctx context.Context, domain, excludeID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM tenants
			 WHERE lower(domain) = lower($1)
			   AND NOT is_deleted
			   AND ($2 = '' OR id::text <> $2)
		)`
	var taken bool
	if err := r.q.QueryRow(ctx, query, domain, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check tenant domain: %w", err)
	}
	return taken, nil
}

// GetByDomain pasa por el filtro de aislamiento: un tenant solo se encuentra a sí mismo.
func (r *TenantRepo) GetByDomain(ctx context.Context, domain string) (*entity.Tenant, error) {
	list, err := r.ListAll(ctx, tenancy.Eq{Column: "domain", Value: domain})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}
