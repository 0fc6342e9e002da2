package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/store"
)

type moveResult struct {
	TaskID int64            `json:"task_id"`
	From   model.TaskStatus `json:"from"`
	To     model.TaskStatus `json:"to"`
}

func (r moveResult) String() string {
	return fmt.Sprintf("Task %d: %s -> %s", r.TaskID, r.From, r.To)
}

type taskList []model.Task

func (l taskList) String() string {
	if len(l) == 0 {
		return "No tasks."
	}
	s := fmt.Sprintf("%d tasks", len(l))
	for _, t := range l {
		s += fmt.Sprintf("\n  %d [%s] %s (%s, due %s)", t.ID, t.Status, t.Title, t.Priority, t.DueDate)
	}
	return s
}

// NewTaskCommand creates the task command group.
func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "List tasks and move them between statuses",
	}
	cmd.AddCommand(newTaskListCommand(rootOpts))
	cmd.AddCommand(newTaskMoveCommand(rootOpts))
	return cmd
}

func newTaskListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				tasks, err := s.db.Queries.TasksByUser(ctx, userID)
				if err != nil {
					return err
				}
				return s.out.Success(taskList(tasks))
			})
		},
	}
}

func newTaskMoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Move a task to another status",
		Long: `Move a task to todo, in_progress or done. Any status may move to any
other; unknown statuses are rejected.

Example:
  recordstore task move 3 in_progress`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				current, found, err := s.db.Tasks.Get(ctx, id)
				if err != nil {
					return err
				}
				if !found {
					return store.NewNotFoundError("task", id)
				}
				moved, err := s.db.Actions.MoveTask(ctx, id, model.TaskStatus(args[1]))
				if err != nil {
					return err
				}
				return s.out.Success(moveResult{TaskID: id, From: current.Status, To: moved.Status})
			})
		},
	}
}
