package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

// matches evalúa el predicado sobre los valores de columna de una fila.
func matches(p tenancy.Predicate, row map[string]any) (bool, error) {
	switch v := p.(type) {
	case nil:
		return true, nil
	case tenancy.Eq:
		got, ok := row[v.Column]
		if !ok {
			return false, fmt.Errorf("columna desconocida: %s", v.Column)
		}
		return equal(normalize(got), normalize(v.Value)), nil
	case tenancy.Contains:
		got, ok := row[v.Column]
		if !ok {
			return false, fmt.Errorf("columna desconocida: %s", v.Column)
		}
		n := normalize(got)
		if n == nil {
			return false, nil
		}
		return strings.Contains(strings.ToLower(fmt.Sprint(n)), strings.ToLower(v.Substr)), nil
	case tenancy.IsNull:
		got, ok := row[v.Column]
		if !ok {
			return false, fmt.Errorf("columna desconocida: %s", v.Column)
		}
		return normalize(got) == nil, nil
	case tenancy.And:
		for _, inner := range v {
			ok, err := matches(inner, row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("predicado no soportado: %T", p)
	}
}

// normalize desreferencia punteros para comparar como lo haría SQL.
func normalize(v any) any {
	switch x := v.(type) {
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case int:
		y, ok := b.(int)
		return ok && x == y
	default:
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
}
