package tenancy

import (
	"fmt"

	"github.com/jhoicas/ims-tenancy/internal/domain"
)

// Filter constructor de predicado por tipo de entidad. Isolates marca el filtro de tenant.
type Filter struct {
	Name     string
	Isolates bool
	Build    func(tc Context) Predicate
}

// TenantFilter restringe a column = tenant del contexto; no aplica en Unscoped.
func TenantFilter(column string) Filter {
	return Filter{
		Name:     "tenant",
		Isolates: true,
		Build: func(tc Context) Predicate {
			if tc.IsUnscoped() {
				return nil
			}
			return Eq{Column: column, Value: tc.TenantID()}
		},
	}
}

// SoftDeleteFilter oculta filas con is_deleted = true en todo contexto.
func SoftDeleteFilter() Filter {
	return Filter{
		Name: "soft_delete",
		Build: func(Context) Predicate {
			return Eq{Column: "is_deleted", Value: false}
		},
	}
}

// FilterRegistry mapa tipo de entidad -> filtros. Se arma una sola vez al configurar
// el modelo y luego solo se lee, por lo que es seguro entre goroutines.
type FilterRegistry struct {
	filters map[string][]Filter
}

// NewFilterRegistry crea un registro vacío.
func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{filters: make(map[string][]Filter)}
}

// Register declara los filtros de un tipo. Un tipo con tenantScoped exige un filtro de tenant.
func (r *FilterRegistry) Register(kind string, tenantScoped bool, filters ...Filter) error {
	if _, dup := r.filters[kind]; dup {
		return fmt.Errorf("filtros de %q ya registrados", kind)
	}
	if tenantScoped {
		isolated := false
		for _, f := range filters {
			isolated = isolated || f.Isolates
		}
		if !isolated {
			return fmt.Errorf("tipo %q con tenant sin filtro de aislamiento", kind)
		}
	}
	r.filters[kind] = append([]Filter(nil), filters...)
	return nil
}

// Predicate arma el predicado obligatorio de lectura para el tipo bajo el contexto.
// Un tipo no registrado o un contexto sin resolver falla: nunca se lee sin filtro por omisión.
func (r *FilterRegistry) Predicate(kind string, tc Context) (Predicate, error) {
	if tc.IsZero() {
		return nil, &domain.TenantResolutionError{Reason: "contexto de tenant sin resolver"}
	}
	filters, ok := r.filters[kind]
	if !ok {
		return nil, fmt.Errorf("tipo %q sin filtros registrados", kind)
	}
	ps := make([]Predicate, 0, len(filters))
	for _, f := range filters {
		ps = append(ps, f.Build(tc))
	}
	return AndOf(ps...), nil
}
