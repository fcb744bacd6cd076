package tenancy

import (
	"fmt"
	"time"

	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
)

// Op operación pendiente en la unidad de trabajo.
type Op int

const (
	OpAdded Op = iota + 1
	OpModified
	OpRemoved
	OpSoftDeleted
)

func (o Op) String() string {
	switch o {
	case OpAdded:
		return "added"
	case OpModified:
		return "modified"
	case OpRemoved:
		return "removed"
	case OpSoftDeleted:
		return "soft_deleted"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Change cambio pendiente sobre una entidad.
type Change struct {
	Op     Op
	Entity entity.Record
}

// Interceptor sella tenant y auditoría sobre el lote de cambios antes del commit
// y reescribe los borrados como borrados lógicos.
type Interceptor struct {
	now func() time.Time
}

// NewInterceptor crea el interceptor. now nil usa time.Now en UTC.
func NewInterceptor(now func() time.Time) *Interceptor {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Interceptor{now: now}
}

// BeforeCommit se invoca una vez por commit. Primero valida todo el lote y solo si
// no hay errores sella las entidades, así un lote rechazado queda sin modificar.
func (i *Interceptor) BeforeCommit(tc Context, changes []*Change) error {
	if tc.IsZero() {
		return &domain.TenantResolutionError{Reason: "commit sin contexto de tenant"}
	}
	for _, ch := range changes {
		if err := i.check(tc, ch); err != nil {
			return err
		}
	}
	now := i.now()
	actor := tc.actorRef()
	for _, ch := range changes {
		audit := ch.Entity.AuditFields()
		switch ch.Op {
		case OpAdded:
			if ts, ok := ch.Entity.(entity.TenantScoped); ok && ts.OwnerTenant() == "" {
				ts.AssignTenant(tc.TenantID())
			}
			audit.CreatedAt = now
			audit.CreatedBy = actor
			audit.IsDeleted = false
			audit.DeletedAt = nil
			audit.DeletedBy = nil
		case OpModified:
			audit.UpdatedAt = &now
			audit.UpdatedBy = actor
		case OpRemoved:
			ch.Op = OpSoftDeleted
			audit.IsDeleted = true
			audit.DeletedAt = &now
			audit.DeletedBy = actor
		}
	}
	return nil
}

func (i *Interceptor) check(tc Context, ch *Change) error {
	if ch == nil || ch.Entity == nil {
		return fmt.Errorf("cambio vacío: %w", domain.ErrInvalidInput)
	}
	ts, scoped := ch.Entity.(entity.TenantScoped)
	if !scoped {
		return nil
	}
	owner := ts.OwnerTenant()
	switch ch.Op {
	case OpAdded:
		if owner == "" && tc.IsUnscoped() {
			return fmt.Errorf("%s %s: %w", ch.Entity.EntityKind(), ch.Entity.RecordID(), domain.ErrTenantRequired)
		}
		if owner != "" && !tc.IsUnscoped() && owner != tc.TenantID() {
			return fmt.Errorf("%s %s: %w", ch.Entity.EntityKind(), ch.Entity.RecordID(), domain.ErrCrossTenantWrite)
		}
	case OpModified, OpRemoved, OpSoftDeleted:
		if owner != "" && !tc.IsUnscoped() && owner != tc.TenantID() {
			return fmt.Errorf("%s %s: %w", ch.Entity.EntityKind(), ch.Entity.RecordID(), domain.ErrCrossTenantWrite)
		}
	default:
		return fmt.Errorf("operación %s: %w", ch.Op, domain.ErrInvalidInput)
	}
	return nil
}
