package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/action"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/repo"
)

type userResult struct {
	model.User
}

func (r userResult) String() string {
	role := ""
	if r.IsAdmin {
		role = ", admin"
	}
	return fmt.Sprintf("User %d: %s <%s>%s", r.ID, r.Username, r.Email, role)
}

type userList []model.User

func (l userList) String() string {
	if len(l) == 0 {
		return "No users."
	}
	s := fmt.Sprintf("%d users", len(l))
	for _, u := range l {
		s += "\n  " + userResult{u}.String()
	}
	return s
}

type deleteResult struct {
	UserID  int64                `json:"user_id"`
	Removed action.CascadeReport `json:"removed,omitempty"`
}

func (r deleteResult) String() string {
	s := fmt.Sprintf("Deleted user %d", r.UserID)
	if len(r.Removed) > 0 {
		s += counts(r.Removed)
	}
	return s
}

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserListCommand(rootOpts))
	cmd.AddCommand(newUserDeleteCommand(rootOpts))
	return cmd
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	var password string
	var admin bool

	cmd := &cobra.Command{
		Use:   "add <username> <email>",
		Short: "Register a user",
		Long: `Register a user. The password is hashed before it is stored.

Example:
  recordstore user add alice alice@example.com --password s3cret --admin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				u, err := s.db.Users.Register(ctx, args[0], args[1], password, admin)
				if err != nil {
					return err
				}
				return s.out.Success(userResult{u})
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "plain-text password (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant administrator rights")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserListCommand(rootOpts *RootOptions) *cobra.Command {
	var admins bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				var f repo.Filter
				if admins {
					f = repo.Where("is_admin", true)
				}
				users, err := s.db.Users.List(ctx, f)
				if err != nil {
					return err
				}
				return s.out.Success(userList(users))
			})
		},
	}

	cmd.Flags().BoolVar(&admins, "admins", false, "only administrators")

	return cmd
}

func newUserDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Long: `Delete a user. A user that still owns posts, comments, orders, reviews
or tasks cannot be deleted unless --cascade is given, which removes all
of them in one transaction.

Example:
  recordstore user delete 2 --cascade`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if !cascade {
					if err := s.db.Users.Delete(ctx, id); err != nil {
						return err
					}
					return s.out.Success(deleteResult{UserID: id})
				}
				report, err := s.db.Actions.DeleteUserCascade(ctx, id)
				if err != nil {
					return err
				}
				return s.out.Success(deleteResult{UserID: id, Removed: report})
			})
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete everything the user owns")

	return cmd
}
