// Package query holds read-only relation queries that span entities.
// Every query is one parameterized SELECT and returns rows in insertion
// order unless its doc says otherwise.
package query

import (
	"context"
	"fmt"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/querysql"
	"github.com/roach88/recordstore/internal/store"
)

// Queries runs relation queries against one store.
type Queries struct {
	s *store.Store
}

// New returns Queries over s.
func New(s *store.Store) *Queries {
	return &Queries{s: s}
}

// GradeFilter narrows GradesForClass. Zero fields are not applied.
type GradeFilter struct {
	Semester int
	Subject  string
}

// qualify prefixes every column with alias.
func qualify(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

// run compiles q and decodes every row.
func run[T any](ctx context.Context, s *store.Store, entity string, q querysql.Select, fromRow func(model.Row) (T, error)) ([]T, error) {
	sql, params, err := querysql.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile %s query: %w", entity, err)
	}
	rows, err := s.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	out, err := model.DecodeRows(rows, fromRow)
	if err != nil {
		return nil, store.NewDecodeError(entity, err)
	}
	return out, nil
}

// StudentsInClass returns the class's students.
func (q *Queries) StudentsInClass(ctx context.Context, classID int64) ([]model.Student, error) {
	return run(ctx, q.s, "student", querysql.Select{
		From:    "students",
		Columns: model.StudentColumns,
		Where:   []querysql.Eq{{Column: "class_id", Value: classID}},
	}, model.StudentFromRow)
}

// GradesForStudent returns every grade the student has.
func (q *Queries) GradesForStudent(ctx context.Context, studentID int64) ([]model.Grade, error) {
	return run(ctx, q.s, "grade", querysql.Select{
		From:    "grades",
		Columns: model.GradeColumns,
		Where:   []querysql.Eq{{Column: "student_id", Value: studentID}},
	}, model.GradeFromRow)
}

// GradesForClass returns grades of every student in the class, joined
// through students, optionally narrowed by semester and subject.
func (q *Queries) GradesForClass(ctx context.Context, classID int64, f GradeFilter) ([]model.Grade, error) {
	where := []querysql.Eq{{Column: "s.class_id", Value: classID}}
	if f.Semester != 0 {
		where = append(where, querysql.Eq{Column: "g.semester", Value: int64(f.Semester)})
	}
	if f.Subject != "" {
		where = append(where, querysql.Eq{Column: "g.subject", Value: f.Subject})
	}
	return run(ctx, q.s, "grade", querysql.Select{
		From:    "grades g",
		Columns: qualify("g", model.GradeColumns),
		Joins:   []querysql.Join{{Table: "students s", Left: "s.id", Right: "g.student_id"}},
		Where:   where,
	}, model.GradeFromRow)
}

// SubjectsInClass returns the distinct subjects graded in the class,
// sorted by name.
func (q *Queries) SubjectsInClass(ctx context.Context, classID int64) ([]string, error) {
	return run(ctx, q.s, "grade", querysql.Select{
		From:     "grades g",
		Columns:  []string{"g.subject"},
		Joins:    []querysql.Join{{Table: "students s", Left: "s.id", Right: "g.student_id"}},
		Where:    []querysql.Eq{{Column: "s.class_id", Value: classID}},
		Distinct: true,
		OrderBy:  []string{"g.subject ASC"},
	}, func(row model.Row) (string, error) {
		switch v := row[0].(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
		return "", fmt.Errorf("subject: cannot read %T as text", row[0])
	})
}

// AttendanceForStudent returns every attendance mark for the student.
func (q *Queries) AttendanceForStudent(ctx context.Context, studentID int64) ([]model.Attendance, error) {
	return run(ctx, q.s, "attendance", querysql.Select{
		From:    "attendance",
		Columns: model.AttendanceColumns,
		Where:   []querysql.Eq{{Column: "student_id", Value: studentID}},
	}, model.AttendanceFromRow)
}

// AttendanceForClass returns the marks recorded on date for students in
// the class. Students with no mark that day are simply absent from the
// result.
func (q *Queries) AttendanceForClass(ctx context.Context, classID int64, date model.Date) ([]model.Attendance, error) {
	return run(ctx, q.s, "attendance", querysql.Select{
		From:    "attendance a",
		Columns: qualify("a", model.AttendanceColumns),
		Joins:   []querysql.Join{{Table: "students s", Left: "s.id", Right: "a.student_id"}},
		Where: []querysql.Eq{
			{Column: "s.class_id", Value: classID},
			{Column: "a.date", Value: date.String()},
		},
	}, model.AttendanceFromRow)
}

// PostsByUser returns the user's posts.
func (q *Queries) PostsByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	return run(ctx, q.s, "post", querysql.Select{
		From:    "posts",
		Columns: model.PostColumns,
		Where:   []querysql.Eq{{Column: "user_id", Value: userID}},
	}, model.PostFromRow)
}

// CommentsOnPost returns the post's comment thread.
func (q *Queries) CommentsOnPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	return run(ctx, q.s, "comment", querysql.Select{
		From:    "comments",
		Columns: model.CommentColumns,
		Where:   []querysql.Eq{{Column: "post_id", Value: postID}},
	}, model.CommentFromRow)
}

// CommentsOnTask returns the task's comment thread.
func (q *Queries) CommentsOnTask(ctx context.Context, taskID int64) ([]model.TaskComment, error) {
	return run(ctx, q.s, "task comment", querysql.Select{
		From:    "task_comments",
		Columns: model.TaskCommentColumns,
		Where:   []querysql.Eq{{Column: "task_id", Value: taskID}},
	}, model.TaskCommentFromRow)
}

// TasksByUser returns the user's tasks.
func (q *Queries) TasksByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	return run(ctx, q.s, "task", querysql.Select{
		From:    "tasks",
		Columns: model.TaskColumns,
		Where:   []querysql.Eq{{Column: "user_id", Value: userID}},
	}, model.TaskFromRow)
}

// ReviewsForProduct returns the product's reviews.
func (q *Queries) ReviewsForProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	return run(ctx, q.s, "review", querysql.Select{
		From:    "reviews",
		Columns: model.ReviewColumns,
		Where:   []querysql.Eq{{Column: "product_id", Value: productID}},
	}, model.ReviewFromRow)
}

// ReviewsByUser returns every review the user wrote.
func (q *Queries) ReviewsByUser(ctx context.Context, userID int64) ([]model.Review, error) {
	return run(ctx, q.s, "review", querysql.Select{
		From:    "reviews",
		Columns: model.ReviewColumns,
		Where:   []querysql.Eq{{Column: "user_id", Value: userID}},
	}, model.ReviewFromRow)
}

// ProductsInCategory returns the category's products.
func (q *Queries) ProductsInCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return run(ctx, q.s, "product", querysql.Select{
		From:    "products",
		Columns: model.ProductColumns,
		Where:   []querysql.Eq{{Column: "category_id", Value: categoryID}},
	}, model.ProductFromRow)
}
