package repository

import (
	"context"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
)

// TenantRepository puerto de persistencia para Tenant.
type TenantRepository interface {
	Store[entity.Tenant]
	// DomainTaken consulta globalmente (sin filtro de tenant) si otro tenant no borrado usa el dominio.
	// Es una verificación orientativa: la restricción única del almacén es la autoridad.
	DomainTaken(ctx context.Context, domain, excludeID string) (bool, error)
	// GetByDomain tenant visible con ese dominio ya normalizado, o nil.
	GetByDomain(ctx context.Context, domain string) (*entity.Tenant, error)
}
