package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/core"
	"github.com/roach88/recordstore/internal/export"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/query"
	"github.com/roach88/recordstore/internal/stats"
	"github.com/roach88/recordstore/internal/store"
)

// GradesOptions holds the grade filter flags shared by stats and export.
type GradesOptions struct {
	*RootOptions
	Semester int
	Subject  string
}

func (o *GradesOptions) filter() query.GradeFilter {
	return query.GradeFilter{Semester: o.Semester, Subject: o.Subject}
}

func (o *GradesOptions) bindFilter(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.Semester, "semester", 0, "only this semester (0 = all)")
	cmd.Flags().StringVar(&o.Subject, "subject", "", "only this subject")
}

type gradeStatsReport struct {
	Class    model.Class        `json:"class"`
	Semester int                `json:"semester,omitempty"`
	Subject  string             `json:"subject,omitempty"`
	Stats    *stats.GradeStats  `json:"stats,omitempty"`
	Subjects []core.SubjectStat `json:"subjects,omitempty"`
}

func (r gradeStatsReport) String() string {
	scope := "all semesters"
	if r.Semester > 0 {
		scope = "semester " + strconv.Itoa(r.Semester)
	}
	if r.Subject != "" {
		scope += ", " + r.Subject
	}

	if r.Stats != nil {
		st := *r.Stats
		return fmt.Sprintf("Class %s (id %d) grades, %s\n", r.Class.Name, r.Class.ID, scope) +
			fmt.Sprintf("  count   %d\n", st.Count) +
			fmt.Sprintf("  mean    %s\n", money(st.Mean)) +
			fmt.Sprintf("  min     %s\n", money(st.Min)) +
			fmt.Sprintf("  max     %s\n", money(st.Max)) +
			fmt.Sprintf("  stddev  %s", money(st.StdDev))
	}

	s := fmt.Sprintf("Class %s (id %d) grades by subject, %s", r.Class.Name, r.Class.ID, scope)
	if len(r.Subjects) == 0 {
		return s + "\n  no grades"
	}
	for _, sub := range r.Subjects {
		s += fmt.Sprintf("\n  %s: count=%d mean=%s min=%s max=%s stddev=%s",
			sub.Subject, sub.Count, money(sub.Mean), money(sub.Min), money(sub.Max), money(sub.StdDev))
	}
	return s
}

type importResult struct {
	File     string `json:"file"`
	Imported int    `json:"imported"`
}

func (r importResult) String() string {
	return fmt.Sprintf("Imported %d grades from %s", r.Imported, r.File)
}

type exportResult struct {
	File string `json:"file"`
	Rows int    `json:"rows"`
}

func (r exportResult) String() string {
	return fmt.Sprintf("Wrote %d rows to %s", r.Rows, r.File)
}

// NewGradesCommand creates the grades command group.
func NewGradesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grades",
		Short: "Grade statistics and spreadsheets",
	}
	cmd.AddCommand(newGradesStatsCommand(rootOpts))
	cmd.AddCommand(newGradesExportCommand(rootOpts))
	cmd.AddCommand(newGradesImportCommand(rootOpts))
	return cmd
}

// loadClass resolves a class id argument to the stored class.
func loadClass(ctx context.Context, db *core.Store, arg string) (model.Class, error) {
	id, err := parseID(arg, "class")
	if err != nil {
		return model.Class{}, err
	}
	c, found, err := db.Classes.Get(ctx, id)
	if err != nil {
		return model.Class{}, err
	}
	if !found {
		return model.Class{}, store.NewNotFoundError("class", id)
	}
	return c, nil
}

func newGradesStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GradesOptions{RootOptions: rootOpts}
	var bySubject bool

	cmd := &cobra.Command{
		Use:   "stats <class-id>",
		Short: "Summarise a class's grades",
		Long: `Print count, mean, min, max and population standard deviation of a
class's scores.

Examples:
  recordstore grades stats 1
  recordstore grades stats 1 --semester 1 --subject 수학
  recordstore grades stats 1 --by-subject`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				class, err := loadClass(ctx, s.db, args[0])
				if err != nil {
					return err
				}
				report := gradeStatsReport{Class: class, Semester: opts.Semester, Subject: opts.Subject}

				if bySubject {
					report.Subject = ""
					report.Subjects, err = s.db.Reports.SubjectStats(ctx, class.ID, opts.Semester)
				} else {
					var st stats.GradeStats
					st, err = s.db.Reports.ClassGradeStats(ctx, class.ID, opts.filter())
					report.Stats = &st
				}
				if err != nil {
					return err
				}
				return s.out.Success(report)
			})
		},
	}

	opts.bindFilter(cmd)
	cmd.Flags().BoolVar(&bySubject, "by-subject", false, "one line per subject (ignores --subject)")

	return cmd
}

func newGradesExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GradesOptions{RootOptions: rootOpts}
	var output string

	cmd := &cobra.Command{
		Use:   "export <class-id>",
		Short: "Write a class's grades to an Excel workbook",
		Long: `Write a class's grades to an Excel workbook with a grade sheet and a
statistics sheet.

Example:
  recordstore grades export 1 --semester 1 -o grades.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				class, err := loadClass(ctx, s.db, args[0])
				if err != nil {
					return err
				}
				grades, err := s.db.Queries.GradesForClass(ctx, class.ID, opts.filter())
				if err != nil {
					return err
				}

				var buf bytes.Buffer
				if err := export.WriteGrades(ctx, s.db, class.ID, opts.filter(), &buf); err != nil {
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return WrapExitError(ExitCommandError, "failed to write workbook", err)
				}
				slog.Info("exported grades", "class", class.ID, "rows", len(grades), "file", output)
				return s.out.Success(exportResult{File: output, Rows: len(grades)})
			})
		},
	}

	opts.bindFilter(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "workbook to write (required)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func newGradesImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Load grades from an Excel workbook",
		Long: `Load grades from the first sheet of an Excel workbook. The header row
must name student_id, subject, semester, score and exam_date; student_id
is the school's student number. All rows load in one transaction.

Example:
  recordstore grades import grades.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open workbook", err)
			}
			defer f.Close()

			rows, err := export.ReadGrades(f)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read workbook", err)
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				s.out.VerboseLog("Read %d rows from %s", len(rows), args[0])
				grades, err := export.ImportGrades(ctx, s.db, rows)
				if err != nil {
					return err
				}
				return s.out.Success(importResult{File: args[0], Imported: len(grades)})
			})
		},
	}
}
