package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type initResult struct {
	Path string `json:"path"`
}

func (r initResult) String() string {
	return fmt.Sprintf("Initialized record store at %s", r.Path)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database file and schema",
		Long: `Create the database file and its schema. Running init on an existing
database is harmless.

Example:
  recordstore init --db ./school.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				return s.out.Success(initResult{Path: s.db.Path()})
			})
		},
	}
}
