package core

import (
	"context"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/query"
	"github.com/roach88/recordstore/internal/stats"
)

// Reports computes class-level aggregates from relation queries.
type Reports struct {
	q *query.Queries
}

// ClassGradeStats summarises the class's grades, optionally narrowed by
// semester and subject.
func (r *Reports) ClassGradeStats(ctx context.Context, classID int64, f query.GradeFilter) (stats.GradeStats, error) {
	grades, err := r.q.GradesForClass(ctx, classID, f)
	if err != nil {
		return stats.GradeStats{}, err
	}
	return stats.Grades(grades), nil
}

// ClassAttendanceTally counts the class's marks on date by status.
// Students without a mark that day are not counted.
func (r *Reports) ClassAttendanceTally(ctx context.Context, classID int64, date model.Date) (stats.Tally, error) {
	rows, err := r.q.AttendanceForClass(ctx, classID, date)
	if err != nil {
		return nil, err
	}
	return stats.TallyAttendance(rows), nil
}

// SubjectStats returns per-subject statistics for the class, in subject
// order.
func (r *Reports) SubjectStats(ctx context.Context, classID int64, semester int) ([]SubjectStat, error) {
	subjects, err := r.q.SubjectsInClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	out := make([]SubjectStat, 0, len(subjects))
	for _, subject := range subjects {
		st, err := r.ClassGradeStats(ctx, classID, query.GradeFilter{Semester: semester, Subject: subject})
		if err != nil {
			return nil, err
		}
		out = append(out, SubjectStat{Subject: subject, GradeStats: st})
	}
	return out, nil
}

// SubjectStat is GradeStats for one subject.
type SubjectStat struct {
	Subject string `json:"subject"`
	stats.GradeStats
}
