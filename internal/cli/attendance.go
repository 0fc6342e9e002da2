package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/export"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/stats"
)

type markResult struct {
	ClassID int64                  `json:"class_id"`
	Date    model.Date             `json:"date"`
	Status  model.AttendanceStatus `json:"status"`
	Marked  int                    `json:"marked"`
}

func (r markResult) String() string {
	return fmt.Sprintf("Marked %d students %s on %s in class %d", r.Marked, r.Status, r.Date, r.ClassID)
}

type tallyResult struct {
	ClassID int64       `json:"class_id"`
	Date    model.Date  `json:"date"`
	Tally   stats.Tally `json:"tally"`
	Total   int         `json:"total"`
}

func (r tallyResult) String() string {
	s := fmt.Sprintf("Attendance for class %d on %s", r.ClassID, r.Date)
	for _, status := range model.AttendanceStatuses {
		s += fmt.Sprintf("\n  %s %d", status, r.Tally[status])
	}
	return s + fmt.Sprintf("\n  total %d", r.Total)
}

// NewAttendanceCommand creates the attendance command group.
func NewAttendanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Record and summarise attendance",
	}
	cmd.AddCommand(newAttendanceMarkCommand(rootOpts))
	cmd.AddCommand(newAttendanceTallyCommand(rootOpts))
	cmd.AddCommand(newAttendanceExportCommand(rootOpts))
	return cmd
}

func newAttendanceMarkCommand(rootOpts *RootOptions) *cobra.Command {
	var date, status, reason string

	cmd := &cobra.Command{
		Use:   "mark <class-id>",
		Short: "Mark every student in a class",
		Long: `Record the same mark for every student in a class. Either every
student is marked or none is.

Statuses: 출석 (present), 지각 (late), 조퇴 (left early), 결석 (absent).

Example:
  recordstore attendance mark 1 --date 2024-05-01 --status 출석`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date, "date")
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				class, err := loadClass(ctx, s.db, args[0])
				if err != nil {
					return err
				}
				marked, err := s.db.Actions.BulkAttendance(ctx, class.ID, day, model.AttendanceStatus(status), reason)
				if err != nil {
					return err
				}
				slog.Debug("marked attendance", "class", class.ID, "students", len(marked))
				return s.out.Success(markResult{ClassID: class.ID, Date: day, Status: model.AttendanceStatus(status), Marked: len(marked)})
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date to mark, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&status, "status", string(model.AttendancePresent), "attendance status")
	cmd.Flags().StringVar(&reason, "reason", "", "reason, for late or absent marks")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newAttendanceTallyCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "tally <class-id>",
		Short: "Count a class's marks on one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date, "date")
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				class, err := loadClass(ctx, s.db, args[0])
				if err != nil {
					return err
				}
				tally, err := s.db.Reports.ClassAttendanceTally(ctx, class.ID, day)
				if err != nil {
					return err
				}
				return s.out.Success(tallyResult{ClassID: class.ID, Date: day, Tally: tally, Total: tally.Total()})
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to count, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newAttendanceExportCommand(rootOpts *RootOptions) *cobra.Command {
	var date, output string

	cmd := &cobra.Command{
		Use:   "export <class-id>",
		Short: "Write a day's attendance to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date, "date")
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				class, err := loadClass(ctx, s.db, args[0])
				if err != nil {
					return err
				}
				marks, err := s.db.Queries.AttendanceForClass(ctx, class.ID, day)
				if err != nil {
					return err
				}

				var buf bytes.Buffer
				if err := export.WriteAttendance(ctx, s.db, class.ID, day, &buf); err != nil {
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return WrapExitError(ExitCommandError, "failed to write workbook", err)
				}
				return s.out.Success(exportResult{File: output, Rows: len(marks)})
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to export, YYYY-MM-DD (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "workbook to write (required)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
