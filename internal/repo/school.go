package repo

import (
	"context"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/store"
)

// Classes stores school classes.
type Classes struct {
	t table[model.Class]
}

// NewClasses returns the classes repository over s.
func NewClasses(s *store.Store) *Classes {
	return &Classes{t: newTable(s, "classes", "class", model.ClassColumns, model.ClassFromRow)}
}

func (r *Classes) normalize(c *model.Class) {
	c.Name = clean(c.Name)
	c.Teacher = clean(c.Teacher)
	c.RoomNumber = clean(c.RoomNumber)
}

// Add inserts c and assigns c.ID.
func (r *Classes) Add(ctx context.Context, c *model.Class) (int64, error) {
	r.normalize(c)
	if err := check("class", c); err != nil {
		return 0, err
	}
	id, err := r.t.insert(ctx, *c)
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

// Get returns the class with id, or found=false.
func (r *Classes) Get(ctx context.Context, id int64) (model.Class, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the classes matching f in id order.
func (r *Classes) List(ctx context.Context, f Filter) ([]model.Class, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the stored class with c.
func (r *Classes) Update(ctx context.Context, c *model.Class) error {
	if err := requireID("class", c.ID); err != nil {
		return err
	}
	r.normalize(c)
	if err := check("class", c); err != nil {
		return err
	}
	return r.t.update(ctx, *c)
}

// Delete removes the class. Students still in the class make this a
// ConstraintViolation.
func (r *Classes) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// Students stores enrolled students.
type Students struct {
	t table[model.Student]
}

// NewStudents returns the students repository over s.
func NewStudents(s *store.Store) *Students {
	return &Students{t: newTable(s, "students", "student", model.StudentColumns, model.StudentFromRow)}
}

func (r *Students) normalize(s *model.Student) {
	s.Name = clean(s.Name)
	s.StudentNo = clean(s.StudentNo)
	s.Phone = clean(s.Phone)
	s.Address = nfc(s.Address)
}

// Add inserts s and assigns s.ID. A class_id that does not exist is a
// ConstraintViolation reported by the backend.
func (r *Students) Add(ctx context.Context, s *model.Student) (int64, error) {
	r.normalize(s)
	if err := check("student", s); err != nil {
		return 0, err
	}
	id, err := r.t.insert(ctx, *s)
	if err != nil {
		return 0, err
	}
	s.ID = id
	return id, nil
}

// Get returns the student with id, or found=false.
func (r *Students) Get(ctx context.Context, id int64) (model.Student, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the students matching f in id order.
func (r *Students) List(ctx context.Context, f Filter) ([]model.Student, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the stored student with s.
func (r *Students) Update(ctx context.Context, s *model.Student) error {
	if err := requireID("student", s.ID); err != nil {
		return err
	}
	r.normalize(s)
	if err := check("student", s); err != nil {
		return err
	}
	return r.t.update(ctx, *s)
}

// Delete removes the student. Grades or attendance still recorded for the
// student make this a ConstraintViolation.
func (r *Students) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// Grades stores exam scores.
type Grades struct {
	t table[model.Grade]
}

// NewGrades returns the grades repository over s.
func NewGrades(s *store.Store) *Grades {
	return &Grades{t: newTable(s, "grades", "grade", model.GradeColumns, model.GradeFromRow)}
}

// Add inserts g and assigns g.ID. Scores outside 0..100 are rejected.
func (r *Grades) Add(ctx context.Context, g *model.Grade) (int64, error) {
	g.Subject = clean(g.Subject)
	if err := check("grade", g); err != nil {
		return 0, err
	}
	id, err := r.t.insert(ctx, *g)
	if err != nil {
		return 0, err
	}
	g.ID = id
	return id, nil
}

// Get returns the grade with id, or found=false.
func (r *Grades) Get(ctx context.Context, id int64) (model.Grade, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the grades matching f in id order.
func (r *Grades) List(ctx context.Context, f Filter) ([]model.Grade, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the stored grade with g.
func (r *Grades) Update(ctx context.Context, g *model.Grade) error {
	if err := requireID("grade", g.ID); err != nil {
		return err
	}
	g.Subject = clean(g.Subject)
	if err := check("grade", g); err != nil {
		return err
	}
	return r.t.update(ctx, *g)
}

// Delete removes the grade.
func (r *Grades) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// AttendanceRepo stores attendance marks. Duplicate (student, date) rows
// are accepted and never merged.
type AttendanceRepo struct {
	t table[model.Attendance]
}

// NewAttendance returns the attendance repository over s.
func NewAttendance(s *store.Store) *AttendanceRepo {
	return &AttendanceRepo{t: newTable(s, "attendance", "attendance", model.AttendanceColumns, model.AttendanceFromRow)}
}

// Add inserts a and assigns a.ID.
func (r *AttendanceRepo) Add(ctx context.Context, a *model.Attendance) (int64, error) {
	a.Reason = nfc(a.Reason)
	if err := check("attendance", a); err != nil {
		return 0, err
	}
	id, err := r.t.insert(ctx, *a)
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// Get returns the attendance record with id, or found=false.
func (r *AttendanceRepo) Get(ctx context.Context, id int64) (model.Attendance, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the attendance records matching f in id order.
func (r *AttendanceRepo) List(ctx context.Context, f Filter) ([]model.Attendance, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the stored attendance record with a.
func (r *AttendanceRepo) Update(ctx context.Context, a *model.Attendance) error {
	if err := requireID("attendance", a.ID); err != nil {
		return err
	}
	a.Reason = nfc(a.Reason)
	if err := check("attendance", a); err != nil {
		return err
	}
	return r.t.update(ctx, *a)
}

// Delete removes the attendance record.
func (r *AttendanceRepo) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}
