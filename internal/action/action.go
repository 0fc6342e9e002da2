// Package action implements mutations that touch more than one row and
// must commit atomically. Each action runs inside store.Transaction:
// either every change persists or none does.
package action

import (
	"context"
	"fmt"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/query"
	"github.com/roach88/recordstore/internal/repo"
	"github.com/roach88/recordstore/internal/store"
)

// Actions runs transactional actions over one store.
type Actions struct {
	s     *store.Store
	repos *repo.Set
	q     *query.Queries
}

// New returns Actions sharing repositories and queries with the caller.
func New(s *store.Store, repos *repo.Set, q *query.Queries) *Actions {
	return &Actions{s: s, repos: repos, q: q}
}

// BulkAttendance records the same mark for every student currently in the
// class, in the order StudentsInClass returns them. A class with no
// students records nothing and is not an error.
func (a *Actions) BulkAttendance(ctx context.Context, classID int64, date model.Date, status model.AttendanceStatus, reason string) ([]model.Attendance, error) {
	if !status.Valid() {
		return nil, store.NewValidationError("attendance", "status", fmt.Sprintf("invalid value %s", status))
	}
	if date.IsZero() {
		return nil, store.NewValidationError("attendance", "date", "must not be empty")
	}

	var out []model.Attendance
	err := a.s.Transaction(ctx, func(ctx context.Context) error {
		students, err := a.q.StudentsInClass(ctx, classID)
		if err != nil {
			return err
		}
		out = make([]model.Attendance, 0, len(students))
		for _, st := range students {
			rec := model.Attendance{StudentID: st.ID, Date: date, Status: status, Reason: reason}
			if _, err := a.repos.Attendance.Add(ctx, &rec); err != nil {
				return fmt.Errorf("mark student %d: %w", st.ID, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MoveTask changes a task's status through the permitted transitions.
// Moving a task to the status it already has is an InvalidTransition.
func (a *Actions) MoveTask(ctx context.Context, taskID int64, to model.TaskStatus) (model.Task, error) {
	var task model.Task
	err := a.s.Transaction(ctx, func(ctx context.Context) error {
		t, found, err := a.repos.Tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}
		if !found {
			return store.NewNotFoundError("task", taskID)
		}
		if !model.CanTransition(t.Status, to) {
			return store.NewInvalidTransitionError(taskID, string(t.Status), string(to))
		}
		t.Status = to
		if err := a.repos.Tasks.Update(ctx, &t); err != nil {
			return err
		}
		task = t
		return nil
	})
	return task, err
}
