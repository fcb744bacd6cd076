package entity

import "time"

// Tipos de entidad registrados en el modelo. Coinciden con el nombre de la tabla.
const (
	KindTenant  = "tenants"
	KindProduct = "products"
	KindStaff   = "staff"
)

// Audit metadatos de auditoría comunes a toda fila auditada.
// DeletedAt/DeletedBy solo se llenan con IsDeleted = true; la fila física nunca se borra.
type Audit struct {
	CreatedAt time.Time
	CreatedBy *string
	UpdatedAt *time.Time
	UpdatedBy *string
	DeletedAt *time.Time
	DeletedBy *string
	IsDeleted bool
}

// AuditFields devuelve el bloque de auditoría para que el interceptor lo selle.
func (a *Audit) AuditFields() *Audit { return a }

// TenantOwned discriminador de tenant. TenantID nil solo para filas globales.
type TenantOwned struct {
	TenantID *string
}

// OwnerTenant devuelve el tenant dueño o "" si no está asignado.
func (t *TenantOwned) OwnerTenant() string {
	if t.TenantID == nil {
		return ""
	}
	return *t.TenantID
}

// AssignTenant fija el tenant dueño; "" deja la fila como global.
func (t *TenantOwned) AssignTenant(id string) {
	if id == "" {
		t.TenantID = nil
		return
	}
	t.TenantID = &id
}

// Record es cualquier fila auditada que pasa por la unidad de trabajo.
type Record interface {
	RecordID() string
	EntityKind() string
	AuditFields() *Audit
}

// TenantScoped fila que participa del aislamiento por tenant.
type TenantScoped interface {
	Record
	OwnerTenant() string
	AssignTenant(id string)
}
