package model

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Row is one table row as a tuple of column values in table column order.
// Values are the native types the SQLite driver produces and accepts:
// int64, float64, string, []byte or nil.
type Row []any

// Record is implemented by every entity kind.
type Record interface {
	// PrimaryKey returns the backend-assigned id, or 0 before insertion.
	PrimaryKey() int64

	// ToRow returns the record in its table's column order.
	ToRow() Row
}

// Equal compares two records of the same kind. When both carry an
// assigned id, they are equal iff the ids match; otherwise every column
// value must match.
func Equal(a, b Record) bool {
	if a.PrimaryKey() != 0 && b.PrimaryKey() != 0 {
		return a.PrimaryKey() == b.PrimaryKey() && reflect.TypeOf(a) == reflect.TypeOf(b)
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b) && reflect.DeepEqual(a.ToRow(), b.ToRow())
}

// ToMap returns the record as a column-name keyed dictionary.
func ToMap(columns []string, r Record) map[string]any {
	row := r.ToRow()
	m := make(map[string]any, len(columns))
	for i, col := range columns {
		if i < len(row) {
			m[col] = row[i]
		}
	}
	return m
}

// FromMap rebuilds a record from a column-name keyed dictionary.
// Missing keys are treated as NULL.
func FromMap[T any](columns []string, m map[string]any, fromRow func(Row) (T, error)) (T, error) {
	row := make(Row, len(columns))
	for i, col := range columns {
		row[i] = m[col]
	}
	return fromRow(row)
}

// DecodeRows decodes every row with fromRow, stopping at the first error.
func DecodeRows[T any](rows []Row, fromRow func(Row) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// rowReader decodes a Row column by column, keeping the first error.
type rowReader struct {
	entity string
	cols   []string
	row    Row
	i      int
	err    error
}

func newRowReader(entity string, cols []string, row Row) *rowReader {
	r := &rowReader{entity: entity, cols: cols, row: row}
	if len(row) != len(cols) {
		r.err = fmt.Errorf("%s row: got %d columns, want %d", entity, len(row), len(cols))
	}
	return r
}

func (r *rowReader) next() (any, string, bool) {
	if r.err != nil || r.i >= len(r.row) {
		return nil, "", false
	}
	v, col := r.row[r.i], r.cols[r.i]
	r.i++
	return v, col, true
}

func (r *rowReader) fail(col string, v any, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("%s row: column %s: cannot read %T as %s", r.entity, col, v, want)
	}
}

func (r *rowReader) int64() int64 {
	v, col, ok := r.next()
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case nil:
		return 0
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			r.fail(col, v, "integer")
		}
		return n
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			r.fail(col, v, "integer")
		}
		return n
	default:
		r.fail(col, v, "integer")
		return 0
	}
}

func (r *rowReader) int() int {
	return int(r.int64())
}

func (r *rowReader) float() float64 {
	v, col, ok := r.next()
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			r.fail(col, v, "real")
		}
		return f
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			r.fail(col, v, "real")
		}
		return f
	default:
		r.fail(col, v, "real")
		return 0
	}
}

func (r *rowReader) bool() bool {
	return r.int64() != 0
}

func (r *rowReader) string() string {
	v, col, ok := r.next()
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		r.fail(col, v, "text")
		return ""
	}
}

func (r *rowReader) date() Date {
	v, col, ok := r.next()
	if !ok {
		return Date{}
	}
	var s string
	switch x := v.(type) {
	case nil:
		return Date{}
	case time.Time:
		return DateOf(x.UTC())
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		r.fail(col, v, "date")
		return Date{}
	}
	if s == "" {
		return Date{}
	}
	d, err := ParseDate(s)
	if err != nil {
		r.fail(col, v, "date")
	}
	return d
}

func (r *rowReader) timestamp() time.Time {
	v, col, ok := r.next()
	if !ok {
		return time.Time{}
	}
	var s string
	switch x := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return Stamp(x)
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		r.fail(col, v, "timestamp")
		return time.Time{}
	}
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		// CURRENT_TIMESTAMP defaults are written as "YYYY-MM-DD HH:MM:SS".
		t, err = time.Parse(time.DateTime, s)
		if err != nil {
			r.fail(col, v, "timestamp")
			return time.Time{}
		}
	}
	return Stamp(t)
}

// Encoding helpers for ToRow.

func encodeDate(d Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func encodeTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return Stamp(t).Format(TimestampLayout)
}

func encodeBool(b bool) any {
	if b {
		return int64(1)
	}
	return int64(0)
}

func encodeOptional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func encodeOptionalID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
