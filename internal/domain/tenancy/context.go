// Package tenancy resuelve el tenant del llamador y aplica el aislamiento por tenant
// en lecturas (filtros declarativos) y escrituras (interceptor de la unidad de trabajo).
package tenancy

import "fmt"

// Context tenant efectivo de una petición: Scoped(tenantID) o Unscoped (superusuario).
// Es un valor inmutable; puede compartirse entre goroutines de la misma petición.
// El valor cero no es válido y todo acceso a datos con él falla.
type Context struct {
	tenantID string
	unscoped bool
	actor    string
}

// Scoped contexto restringido a un tenant.
func Scoped(tenantID string) Context {
	return Context{tenantID: tenantID}
}

// Unscoped contexto sin restricción de tenant (superusuario o procesos del sistema).
func Unscoped() Context {
	return Context{unscoped: true}
}

// WithActor devuelve una copia con el usuario que firma la auditoría.
func (c Context) WithActor(userID string) Context {
	c.actor = userID
	return c
}

// TenantID devuelve el tenant del contexto; "" si es Unscoped.
func (c Context) TenantID() string { return c.tenantID }

// IsUnscoped indica si el contexto es de superusuario.
func (c Context) IsUnscoped() bool { return c.unscoped }

// IsZero indica un contexto no resuelto.
func (c Context) IsZero() bool { return !c.unscoped && c.tenantID == "" }

// Actor usuario responsable de los cambios; "" si no se conoce.
func (c Context) Actor() string { return c.actor }

// Permits informa si el contexto puede escribir filas del tenant indicado (nil = fila global).
func (c Context) Permits(tenantID *string) bool {
	if c.unscoped {
		return true
	}
	return tenantID != nil && *tenantID == c.tenantID && c.tenantID != ""
}

func (c Context) String() string {
	switch {
	case c.unscoped:
		return "unscoped"
	case c.tenantID == "":
		return "unresolved"
	default:
		return fmt.Sprintf("scoped(%s)", c.tenantID)
	}
}

func (c Context) actorRef() *string {
	if c.actor == "" {
		return nil
	}
	a := c.actor
	return &a
}
