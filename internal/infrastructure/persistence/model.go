package persistence

import (
	"fmt"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

// Model mappers de las tablas y registro de filtros de lectura.
type Model struct {
	Registry *tenancy.FilterRegistry
	Tenants  *Mapper[entity.Tenant]
	Products *Mapper[entity.Product]
	Staff    *Mapper[entity.Staff]
	tables   map[string]Table
}

// NewModel arma los mappers y registra los filtros de cada tipo. Products y Staff se aíslan
// por tenant_id; Tenants por su propio id, así un administrador de tenant solo ve el suyo.
func NewModel() (*Model, error) {
	m := &Model{
		Registry: tenancy.NewFilterRegistry(),
		Tenants:  tenantMapper(),
		Products: productMapper(),
		Staff:    staffMapper(),
	}
	m.tables = map[string]Table{
		m.Tenants.Kind():  m.Tenants,
		m.Products.Kind(): m.Products,
		m.Staff.Kind():    m.Staff,
	}
	regs := []struct {
		kind    string
		scoped  bool
		filters []tenancy.Filter
	}{
		{entity.KindTenant, true, []tenancy.Filter{tenancy.TenantFilter("id"), tenancy.SoftDeleteFilter()}},
		{entity.KindProduct, true, []tenancy.Filter{tenancy.TenantFilter("tenant_id"), tenancy.SoftDeleteFilter()}},
		{entity.KindStaff, true, []tenancy.Filter{tenancy.TenantFilter("tenant_id"), tenancy.SoftDeleteFilter()}},
	}
	for _, r := range regs {
		if err := m.Registry.Register(r.kind, r.scoped, r.filters...); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Table devuelve la tabla de un tipo de entidad.
func (m *Model) Table(kind string) (Table, error) {
	t, ok := m.tables[kind]
	if !ok {
		return nil, fmt.Errorf("tipo %q sin tabla", kind)
	}
	return t, nil
}

func tenantMapper() *Mapper[entity.Tenant] {
	cols := append([]string{"id", "name", "domain", "email", "phone", "address", "city", "tenant_url"}, auditColumns...)
	return &Mapper[entity.Tenant]{
		kind:    entity.KindTenant,
		table:   "tenants",
		columns: cols,
		values: func(t *entity.Tenant) []any {
			return append([]any{t.ID, t.Name, t.Domain, t.Email, t.Phone, t.Address, t.City, t.TenantURL}, auditValues(&t.Audit)...)
		},
		targets: func(t *entity.Tenant) []any {
			return append([]any{&t.ID, &t.Name, &t.Domain, &t.Email, &t.Phone, &t.Address, &t.City, &t.TenantURL}, auditTargets(&t.Audit)...)
		},
	}
}

func productMapper() *Mapper[entity.Product] {
	cols := append([]string{
		"id", "tenant_id", "name", "description", "dot", "brand", "tyre_size", "tread_depth",
		"purchase_price", "selling_price", "quantity", "barcode",
	}, auditColumns...)
	return &Mapper[entity.Product]{
		kind:         entity.KindProduct,
		table:        "products",
		columns:      cols,
		tenantScoped: true,
		values: func(p *entity.Product) []any {
			return append([]any{
				p.ID, p.TenantID, p.Name, p.Description, p.DOT, p.Brand, p.TyreSize, p.TreadDepth,
				p.PurchasePrice, p.SellingPrice, p.Quantity, p.Barcode,
			}, auditValues(&p.Audit)...)
		},
		targets: func(p *entity.Product) []any {
			return append([]any{
				&p.ID, &p.TenantID, &p.Name, &p.Description, &p.DOT, &p.Brand, &p.TyreSize, &p.TreadDepth,
				&p.PurchasePrice, &p.SellingPrice, &p.Quantity, &p.Barcode,
			}, auditTargets(&p.Audit)...)
		},
	}
}

func staffMapper() *Mapper[entity.Staff] {
	cols := append([]string{
		"id", "tenant_id", "name", "date_of_birth", "gender", "national_id", "email", "phone",
		"address", "city", "country", "hire_date", "job_title", "department", "staff_code",
		"salary", "allowances", "deductions", "user_id",
	}, auditColumns...)
	return &Mapper[entity.Staff]{
		kind:         entity.KindStaff,
		table:        "staff",
		columns:      cols,
		tenantScoped: true,
		values: func(s *entity.Staff) []any {
			return append([]any{
				s.ID, s.TenantID, s.Name, s.DateOfBirth, s.Gender, s.NationalID, s.Email, s.Phone,
				s.Address, s.City, s.Country, s.HireDate, s.JobTitle, s.Department, s.StaffCode,
				s.Salary, s.Allowances, s.Deductions, s.UserID,
			}, auditValues(&s.Audit)...)
		},
		targets: func(s *entity.Staff) []any {
			return append([]any{
				&s.ID, &s.TenantID, &s.Name, &s.DateOfBirth, &s.Gender, &s.NationalID, &s.Email, &s.Phone,
				&s.Address, &s.City, &s.Country, &s.HireDate, &s.JobTitle, &s.Department, &s.StaffCode,
				&s.Salary, &s.Allowances, &s.Deductions, &s.UserID,
			}, auditTargets(&s.Audit)...)
		},
	}
}
