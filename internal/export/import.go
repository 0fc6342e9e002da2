package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/recordstore/internal/core"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/repo"
	"github.com/roach88/recordstore/internal/store"
)

// ErrInvalidWorkbook is returned for a workbook without a usable grade
// sheet.
var ErrInvalidWorkbook = errors.New("invalid workbook format")

// GradeRow is one parsed grade line. StudentNo is the school's student
// number, not the row id.
type GradeRow struct {
	Line      int
	StudentNo string
	Subject   string
	Semester  int
	Score     float64
	ExamDate  model.Date
}

var requiredColumns = []string{"student_id", "subject", "semester", "score", "exam_date"}

// ReadGrades parses the first sheet of a workbook. The header must carry
// every required column; "name" and unknown columns are ignored. Blank
// rows are skipped.
func ReadGrades(r io.Reader) ([]GradeRow, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrInvalidWorkbook
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 1 {
		return nil, ErrInvalidWorkbook
	}

	columns := make(map[string]int)
	for i, col := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrInvalidWorkbook, col)
		}
	}

	out := []GradeRow{}
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		g, err := parseGradeRow(row, columns, line)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func parseGradeRow(row []string, columns map[string]int, line int) (GradeRow, error) {
	get := func(col string) string {
		if idx, ok := columns[col]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	g := GradeRow{Line: line, StudentNo: get("student_id"), Subject: get("subject")}
	if g.StudentNo == "" {
		return GradeRow{}, errors.New("student_id is required")
	}
	if g.Subject == "" {
		return GradeRow{}, errors.New("subject is required")
	}

	var err error
	if g.Semester, err = strconv.Atoi(get("semester")); err != nil {
		return GradeRow{}, fmt.Errorf("invalid semester %q", get("semester"))
	}
	if g.Score, err = strconv.ParseFloat(get("score"), 64); err != nil {
		return GradeRow{}, fmt.Errorf("invalid score %q", get("score"))
	}
	if g.ExamDate, err = model.ParseDate(get("exam_date")); err != nil {
		return GradeRow{}, fmt.Errorf("invalid exam_date %q", get("exam_date"))
	}
	return g, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ImportGrades adds every row as a grade in one transaction. Rows are
// matched to students by student number; an unknown number fails the
// whole import.
func ImportGrades(ctx context.Context, db *core.Store, rows []GradeRow) ([]model.Grade, error) {
	var out []model.Grade
	err := db.Transaction(ctx, func(ctx context.Context) error {
		ids := make(map[string]int64)
		out = make([]model.Grade, 0, len(rows))
		for _, r := range rows {
			id, ok := ids[r.StudentNo]
			if !ok {
				students, err := db.Students.List(ctx, repo.Where("student_id", r.StudentNo))
				if err != nil {
					return err
				}
				if len(students) == 0 {
					return store.NewValidationError("grade", "student_id",
						fmt.Sprintf("row %d: unknown student %s", r.Line, r.StudentNo))
				}
				id = students[0].ID
				ids[r.StudentNo] = id
			}

			g := model.Grade{StudentID: id, Subject: r.Subject, Score: r.Score, Semester: r.Semester, ExamDate: r.ExamDate}
			if _, err := db.Grades.Add(ctx, &g); err != nil {
				return fmt.Errorf("row %d: %w", r.Line, err)
			}
			out = append(out, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
