package entity

// Tenant organización aislada dueña de un subconjunto de filas del almacén compartido.
// Domain se guarda normalizado (minúsculas, sin espacios) y es único entre tenants no borrados.
type Tenant struct {
	ID        string
	Name      string
	Domain    string
	Email     string
	Phone     string
	Address   string
	City      string
	TenantURL string // slug URL-safe generado al aprovisionar
	Audit
}

func (t *Tenant) RecordID() string   { return t.ID }
func (t *Tenant) EntityKind() string { return KindTenant }
