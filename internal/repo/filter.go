package repo

import (
	"time"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/querysql"
	"github.com/roach88/recordstore/internal/store"
)

// Filter is a conjunction of equality predicates on column names.
// The zero Filter matches every row.
type Filter struct {
	conds []querysql.Eq
}

// Where starts a filter with field = value.
func Where(field string, value any) Filter {
	return Filter{}.And(field, value)
}

// And adds field = value.
func (f Filter) And(field string, value any) Filter {
	conds := make([]querysql.Eq, len(f.conds), len(f.conds)+1)
	copy(conds, f.conds)
	return Filter{conds: append(conds, querysql.Eq{Column: field, Value: param(value)})}
}

// Empty reports whether the filter has no predicates.
func (f Filter) Empty() bool {
	return len(f.conds) == 0
}

// resolve checks every field against the table's filterable columns.
func (f Filter) resolve(entity string, allowed map[string]bool) ([]querysql.Eq, error) {
	for _, c := range f.conds {
		if !allowed[c.Column] {
			return nil, store.NewValidationError(entity, c.Column, "is not a filterable field")
		}
	}
	return f.conds, nil
}

// param converts a filter value into the form it is stored in.
func param(v any) any {
	switch x := v.(type) {
	case model.Date:
		return x.String()
	case time.Time:
		return model.Stamp(x).Format(model.TimestampLayout)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(x)
	case model.AttendanceStatus:
		return string(x)
	case model.TaskStatus:
		return string(x)
	case model.Priority:
		return string(x)
	}
	return v
}
