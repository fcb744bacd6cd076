package tenancy

// Predicate condición declarativa sobre columnas. Cada backend la traduce
// (SQL con placeholders en PostgreSQL, evaluación directa en memoria).
type Predicate interface {
	predicate()
}

// Eq columna igual a valor.
type Eq struct {
	Column string
	Value  any
}

// Contains la columna contiene Substr sin distinguir mayúsculas.
type Contains struct {
	Column string
	Substr string
}

// IsNull la columna es NULL.
type IsNull struct {
	Column string
}

// And conjunción de predicados.
type And []Predicate

func (Eq) predicate()       {}
func (Contains) predicate() {}
func (IsNull) predicate()   {}
func (And) predicate()      {}

// AndOf combina predicados con AND; descarta nil y aplana conjunciones anidadas.
// Devuelve nil si no queda ninguna condición.
func AndOf(ps ...Predicate) Predicate {
	var out And
	for _, p := range ps {
		switch v := p.(type) {
		case nil:
		case And:
			if inner := AndOf(v...); inner != nil {
				if a, ok := inner.(And); ok {
					out = append(out, a...)
				} else {
					out = append(out, inner)
				}
			}
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}
