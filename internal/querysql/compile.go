// Package querysql compiles equality-filtered SELECTs to parameterized SQL.
//
// CRITICAL: every compiled query ends in an ORDER BY so results come back
// in a deterministic order (insertion order, by primary key, unless the
// query says otherwise).
// CRITICAL: values are always bound as ? parameters, never interpolated.
// Identifiers cannot be parameterized, so they are checked against a
// strict pattern instead.
package querysql

import (
	"fmt"
	"regexp"
	"strings"
)

// Eq is a single "column = value" predicate.
type Eq struct {
	Column string
	Value  any
}

// Join is an INNER JOIN of Table ON Left = Right, or a LEFT JOIN when
// Outer is set.
type Join struct {
	Table string // may carry an alias: "students s"
	Left  string
	Right string
	Outer bool
}

// Select describes a query of the form
//
//	SELECT [DISTINCT] <Columns> FROM <From> [JOIN ...] WHERE <Where...> ORDER BY <OrderBy>
//
// Where predicates are joined with AND. Empty OrderBy defaults to the
// primary key of From ("<alias>.id ASC").
type Select struct {
	From     string // may carry an alias: "grades g"
	Columns  []string
	Joins    []Join
	Where    []Eq
	Distinct bool
	OrderBy  []string
}

// identPattern accepts column references like "id", "g.student_id" and
// table references with an optional alias like "grades g".
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var orderPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?( (ASC|DESC))?$`)

// Compile converts q to SQL and its bound parameters.
func Compile(q Select) (string, []any, error) {
	if err := checkTable(q.From); err != nil {
		return "", nil, fmt.Errorf("from: %w", err)
	}
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("select requires explicit columns")
	}
	for _, c := range q.Columns {
		if !identPattern.MatchString(c) {
			return "", nil, fmt.Errorf("invalid column %q", c)
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(q.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.From)

	for _, j := range q.Joins {
		if err := checkTable(j.Table); err != nil {
			return "", nil, fmt.Errorf("join: %w", err)
		}
		if !identPattern.MatchString(j.Left) || !identPattern.MatchString(j.Right) {
			return "", nil, fmt.Errorf("invalid join condition %q = %q", j.Left, j.Right)
		}
		kind := "JOIN"
		if j.Outer {
			kind = "LEFT JOIN"
		}
		fmt.Fprintf(&b, " %s %s ON %s = %s", kind, j.Table, j.Left, j.Right)
	}

	params := make([]any, 0, len(q.Where))
	if len(q.Where) > 0 {
		parts := make([]string, 0, len(q.Where))
		for _, eq := range q.Where {
			if !identPattern.MatchString(eq.Column) {
				return "", nil, fmt.Errorf("invalid filter column %q", eq.Column)
			}
			parts = append(parts, eq.Column+" = ?")
			params = append(params, eq.Value)
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}

	// MANDATORY: deterministic ordering.
	order := q.OrderBy
	if len(order) == 0 {
		order = []string{stableOrderKey(q.From)}
	}
	for _, o := range order {
		if !orderPattern.MatchString(o) {
			return "", nil, fmt.Errorf("invalid order term %q", o)
		}
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(order, ", "))

	return b.String(), params, nil
}

// stableOrderKey orders by the primary key of the FROM table.
func stableOrderKey(from string) string {
	name, alias, _ := strings.Cut(from, " ")
	if alias != "" {
		return alias + ".id ASC"
	}
	return name + ".id ASC"
}

// checkTable validates "table" or "table alias".
func checkTable(ref string) error {
	name, alias, hasAlias := strings.Cut(ref, " ")
	if !identPattern.MatchString(name) || strings.Contains(name, ".") {
		return fmt.Errorf("invalid table %q", ref)
	}
	if hasAlias && (!identPattern.MatchString(alias) || strings.Contains(alias, ".")) {
		return fmt.Errorf("invalid table alias %q", ref)
	}
	return nil
}
