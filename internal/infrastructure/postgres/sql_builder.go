package postgres

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func ident(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("identificador SQL inválido: %q", name)
	}
	return name, nil
}

// args acumula parámetros posicionales $1..$n.
type args struct {
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// renderPredicate traduce un predicado a SQL. nil produce "TRUE".
func renderPredicate(p tenancy.Predicate, a *args) (string, error) {
	switch v := p.(type) {
	case nil:
		return "TRUE", nil
	case tenancy.Eq:
		col, err := ident(v.Column)
		if err != nil {
			return "", err
		}
		if v.Value == nil {
			return col + " IS NULL", nil
		}
		return col + " = " + a.add(v.Value), nil
	case tenancy.Contains:
		col, err := ident(v.Column)
		if err != nil {
			return "", err
		}
		return col + "::text ILIKE '%' || " + a.add(escapeLike(v.Substr)) + " || '%'", nil
	case tenancy.IsNull:
		col, err := ident(v.Column)
		if err != nil {
			return "", err
		}
		return col + " IS NULL", nil
	case tenancy.And:
		if len(v) == 0 {
			return "TRUE", nil
		}
		parts := make([]string, 0, len(v))
		for _, inner := range v {
			s, err := renderPredicate(inner, a)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+s+")")
		}
		return strings.Join(parts, " AND "), nil
	default:
		return "", fmt.Errorf("predicado no soportado: %T", p)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func columnList(cols []string) (string, error) {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		id, err := ident(c)
		if err != nil {
			return "", err
		}
		out = append(out, id)
	}
	return strings.Join(out, ", "), nil
}

func buildSelect(table string, cols []string, where tenancy.Predicate) (string, []any, error) {
	t, err := ident(table)
	if err != nil {
		return "", nil, err
	}
	list, err := columnList(cols)
	if err != nil {
		return "", nil, err
	}
	a := &args{}
	cond, err := renderPredicate(where, a)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_at, id", list, t, cond), a.values, nil
}

// buildSelectPage agrega LIMIT/OFFSET a buildSelect. Limit <= 0 solo desplaza.
func buildSelectPage(table string, cols []string, where tenancy.Predicate, limit, offset int) (string, []any, error) {
	query, values, err := buildSelect(table, cols, where)
	if err != nil {
		return "", nil, err
	}
	a := &args{values: values}
	if limit > 0 {
		query += " LIMIT " + a.add(limit)
	}
	if offset > 0 {
		query += " OFFSET " + a.add(offset)
	}
	return query, a.values, nil
}

func buildCount(table string, where tenancy.Predicate) (string, []any, error) {
	t, err := ident(table)
	if err != nil {
		return "", nil, err
	}
	a := &args{}
	cond, err := renderPredicate(where, a)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", t, cond), a.values, nil
}

func buildInsert(table string, cols []string, values []any) (string, []any, error) {
	t, err := ident(table)
	if err != nil {
		return "", nil, err
	}
	list, err := columnList(cols)
	if err != nil {
		return "", nil, err
	}
	a := &args{}
	ph := make([]string, 0, len(values))
	for _, v := range values {
		ph = append(ph, a.add(v))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t, list, strings.Join(ph, ", ")), a.values, nil
}

// buildUpdate escribe solo cols y restringe por id AND filtro de aislamiento.
func buildUpdate(table string, cols []string, values []any, id string, where tenancy.Predicate) (string, []any, error) {
	t, err := ident(table)
	if err != nil {
		return "", nil, err
	}
	a := &args{}
	sets := make([]string, 0, len(cols))
	for i, c := range cols {
		col, err := ident(c)
		if err != nil {
			return "", nil, err
		}
		sets = append(sets, col+" = "+a.add(values[i]))
	}
	cond, err := renderPredicate(tenancy.AndOf(tenancy.Eq{Column: "id", Value: id}, where), a)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", t, strings.Join(sets, ", "), cond), a.values, nil
}
