// Package persistence describe cómo se mapea cada entidad a su tabla y registra los
// filtros de aislamiento por tipo. Lo comparten los backends PostgreSQL y en memoria.
package persistence

import (
	"fmt"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
)

// Columnas que un UPDATE nunca escribe: la afinidad de tenant y el alta son inmutables.
var immutableColumns = map[string]bool{
	"id":         true,
	"tenant_id":  true,
	"created_at": true,
	"created_by": true,
}

// Columnas que solo escribe un borrado lógico.
var softDeleteColumns = map[string]bool{
	"is_deleted": true,
	"deleted_at": true,
	"deleted_by": true,
}

// SoftDeleteColumns columnas de borrado lógico en orden.
var SoftDeleteColumns = []string{"is_deleted", "deleted_at", "deleted_by"}

var auditColumns = []string{"created_at", "created_by", "updated_at", "updated_by", "deleted_at", "deleted_by", "is_deleted"}

func auditValues(a *entity.Audit) []any {
	return []any{a.CreatedAt, a.CreatedBy, a.UpdatedAt, a.UpdatedBy, a.DeletedAt, a.DeletedBy, a.IsDeleted}
}

func auditTargets(a *entity.Audit) []any {
	return []any{&a.CreatedAt, &a.CreatedBy, &a.UpdatedAt, &a.UpdatedBy, &a.DeletedAt, &a.DeletedBy, &a.IsDeleted}
}

// Table vista sin tipo de un Mapper, usada por el applier que recibe entity.Record.
type Table interface {
	Kind() string
	Name() string
	Columns() []string
	UpdatableColumns() []string
	TenantScoped() bool
	ValuesOf(rec entity.Record) ([]any, error)
	Clone(rec entity.Record) (entity.Record, error)
}

// Mapper describe la tabla de T: columnas, valores a escribir y destinos de scan, en el mismo orden.
type Mapper[T any] struct {
	kind         string
	table        string
	columns      []string
	tenantScoped bool
	values       func(*T) []any
	targets      func(*T) []any
}

func (m *Mapper[T]) Kind() string       { return m.kind }
func (m *Mapper[T]) Name() string       { return m.table }
func (m *Mapper[T]) Columns() []string  { return m.columns }
func (m *Mapper[T]) TenantScoped() bool { return m.tenantScoped }

// Values valores de e en el orden de Columns.
func (m *Mapper[T]) Values(e *T) []any { return m.values(e) }

// Targets punteros a los campos de e en el orden de Columns.
func (m *Mapper[T]) Targets(e *T) []any { return m.targets(e) }

// UpdatableColumns columnas que escribe una actualización.
func (m *Mapper[T]) UpdatableColumns() []string {
	out := make([]string, 0, len(m.columns))
	for _, c := range m.columns {
		if !immutableColumns[c] && !softDeleteColumns[c] {
			out = append(out, c)
		}
	}
	return out
}

// ValuesOf igual que Values para un entity.Record del tipo correcto.
func (m *Mapper[T]) ValuesOf(rec entity.Record) ([]any, error) {
	e, ok := any(rec).(*T)
	if !ok {
		return nil, fmt.Errorf("mapper %s: tipo %T inesperado", m.kind, rec)
	}
	return m.values(e), nil
}

// Clone copia superficial del registro; los campos puntero se reemplazan, nunca se mutan.
func (m *Mapper[T]) Clone(rec entity.Record) (entity.Record, error) {
	e, ok := any(rec).(*T)
	if !ok {
		return nil, fmt.Errorf("mapper %s: tipo %T inesperado", m.kind, rec)
	}
	c := *e
	out, ok := any(&c).(entity.Record)
	if !ok {
		return nil, fmt.Errorf("mapper %s: %T no es entity.Record", m.kind, &c)
	}
	return out, nil
}

// ColumnValues valores del registro indexados por columna.
func ColumnValues(t Table, rec entity.Record) (map[string]any, error) {
	vals, err := t.ValuesOf(rec)
	if err != nil {
		return nil, err
	}
	cols := t.Columns()
	out := make(map[string]any, len(cols))
	for i, c := range cols {
		out[c] = vals[i]
	}
	return out, nil
}

// ValuesFor selecciona de values (orden de Columns) las columnas pedidas.
func ValuesFor(t Table, values []any, columns []string) []any {
	idx := make(map[string]int, len(t.Columns()))
	for i, c := range t.Columns() {
		idx[c] = i
	}
	out := make([]any, 0, len(columns))
	for _, c := range columns {
		out = append(out, values[idx[c]])
	}
	return out
}
