// Package export moves class grades and attendance in and out of Excel
// workbooks.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/recordstore/internal/core"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/query"
)

// Sheet names.
const (
	GradeSheet      = "성적"
	StatsSheet      = "통계"
	AttendanceSheet = "출석"
)

// GradeColumns is the header row of the grade sheet. Import reads the
// same header, in any column order.
var GradeColumns = []string{"student_id", "name", "subject", "semester", "score", "exam_date"}

// WriteGrades writes a workbook with the class's grades on one sheet and
// per-subject statistics on another.
func WriteGrades(ctx context.Context, db *core.Store, classID int64, f query.GradeFilter, w io.Writer) error {
	grades, err := db.Queries.GradesForClass(ctx, classID, f)
	if err != nil {
		return err
	}
	names, err := studentNames(ctx, db, classID)
	if err != nil {
		return err
	}
	perSubject, err := db.Reports.SubjectStats(ctx, classID, f.Semester)
	if err != nil {
		return err
	}

	book := excelize.NewFile()
	defer book.Close()
	if err := book.SetSheetName("Sheet1", GradeSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{toAny(GradeColumns)}
	for _, g := range grades {
		st := names[g.StudentID]
		rows = append(rows, []any{st.StudentNo, st.Name, g.Subject, g.Semester, g.Score, g.ExamDate.String()})
	}
	if err := writeRows(book, GradeSheet, rows); err != nil {
		return err
	}

	if _, err := book.NewSheet(StatsSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	statRows := [][]any{{"subject", "count", "mean", "min", "max", "stddev"}}
	for _, s := range perSubject {
		if f.Subject != "" && s.Subject != f.Subject {
			continue
		}
		statRows = append(statRows, []any{s.Subject, s.Count, s.Mean, s.Min, s.Max, s.StdDev})
	}
	if err := writeRows(book, StatsSheet, statRows); err != nil {
		return err
	}

	if err := book.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteAttendance writes the class's marks for date followed by a tally.
func WriteAttendance(ctx context.Context, db *core.Store, classID int64, date model.Date, w io.Writer) error {
	marks, err := db.Queries.AttendanceForClass(ctx, classID, date)
	if err != nil {
		return err
	}
	names, err := studentNames(ctx, db, classID)
	if err != nil {
		return err
	}
	tally, err := db.Reports.ClassAttendanceTally(ctx, classID, date)
	if err != nil {
		return err
	}

	book := excelize.NewFile()
	defer book.Close()
	if err := book.SetSheetName("Sheet1", AttendanceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{{"student_id", "name", "date", "status", "reason"}}
	for _, m := range marks {
		st := names[m.StudentID]
		rows = append(rows, []any{st.StudentNo, st.Name, m.Date.String(), string(m.Status), m.Reason})
	}
	for _, s := range model.AttendanceStatuses {
		rows = append(rows, []any{string(s), tally[s]})
	}
	if err := writeRows(book, AttendanceSheet, rows); err != nil {
		return err
	}

	if err := book.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func studentNames(ctx context.Context, db *core.Store, classID int64) (map[int64]model.Student, error) {
	students, err := db.Queries.StudentsInClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]model.Student, len(students))
	for _, s := range students {
		out[s.ID] = s
	}
	return out, nil
}

func writeRows(book *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
