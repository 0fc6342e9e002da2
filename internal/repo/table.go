package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/querysql"
	"github.com/roach88/recordstore/internal/store"
)

// table holds the generic row plumbing shared by every repository.
type table[T model.Record] struct {
	s       *store.Store
	name    string
	entity  string
	columns []string
	fromRow func(model.Row) (T, error)

	// immutable columns are never written by update.
	immutable map[string]bool
	// filterable columns may appear in a Filter.
	filterable map[string]bool
}

func newTable[T model.Record](s *store.Store, name, entity string, columns []string, fromRow func(model.Row) (T, error)) table[T] {
	t := table[T]{
		s:          s,
		name:       name,
		entity:     entity,
		columns:    columns,
		fromRow:    fromRow,
		immutable:  map[string]bool{"id": true, "created_at": true},
		filterable: make(map[string]bool, len(columns)),
	}
	for _, c := range columns {
		if c != "password_hash" {
			t.filterable[c] = true
		}
	}
	return t
}

// insert writes every column but id and returns the assigned id.
func (t table[T]) insert(ctx context.Context, rec T) (int64, error) {
	row := rec.ToRow()
	cols := t.columns[1:]
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(cols, ", "), marks)

	res, err := t.s.Exec(ctx, query, row[1:]...)
	if err != nil {
		return 0, withEntity(err, t.entity)
	}
	return res.LastInsertID, nil
}

// get returns the row with id, or found=false.
func (t table[T]) get(ctx context.Context, id int64) (T, bool, error) {
	var zero T
	query, params, err := querysql.Compile(querysql.Select{
		From:    t.name,
		Columns: t.columns,
		Where:   []querysql.Eq{{Column: "id", Value: id}},
	})
	if err != nil {
		return zero, false, fmt.Errorf("compile %s get: %w", t.entity, err)
	}
	row, found, err := t.s.QueryOne(ctx, query, params...)
	if err != nil || !found {
		return zero, false, err
	}
	rec, err := t.fromRow(row)
	if err != nil {
		return zero, false, store.NewDecodeError(t.entity, err)
	}
	return rec, true, nil
}

// list returns every row matching f in insertion order.
func (t table[T]) list(ctx context.Context, f Filter) ([]T, error) {
	where, err := f.resolve(t.entity, t.filterable)
	if err != nil {
		return nil, err
	}
	query, params, err := querysql.Compile(querysql.Select{
		From:    t.name,
		Columns: t.columns,
		Where:   where,
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s list: %w", t.entity, err)
	}
	rows, err := t.s.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	out, err := model.DecodeRows(rows, t.fromRow)
	if err != nil {
		return nil, store.NewDecodeError(t.entity, err)
	}
	return out, nil
}

// update rewrites every mutable column of rec. Zero rows affected means
// the id does not exist.
func (t table[T]) update(ctx context.Context, rec T) error {
	row := rec.ToRow()
	var sets []string
	var args []any
	for i, c := range t.columns {
		if t.immutable[c] {
			continue
		}
		sets = append(sets, c+" = ?")
		args = append(args, row[i])
	}
	args = append(args, rec.PrimaryKey())
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(sets, ", "))

	res, err := t.s.Exec(ctx, query, args...)
	if err != nil {
		return withEntity(err, t.entity)
	}
	if res.RowsAffected == 0 {
		return store.NewNotFoundError(t.entity, rec.PrimaryKey())
	}
	return nil
}

// delete removes one row. It never cascades.
func (t table[T]) delete(ctx context.Context, id int64) error {
	res, err := t.s.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name), id)
	if err != nil {
		return withEntity(err, t.entity)
	}
	if res.RowsAffected == 0 {
		return store.NewNotFoundError(t.entity, id)
	}
	return nil
}

// withEntity fills in the entity on classified errors that lack one.
func withEntity(err error, entity string) error {
	if se, ok := err.(*store.Error); ok && se.Entity == "" {
		se.Entity = entity
	}
	return err
}
