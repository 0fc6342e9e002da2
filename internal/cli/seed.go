package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/seed"
)

type seedResult struct {
	Dataset string       `json:"dataset"`
	Rows    seed.Summary `json:"rows"`
	Total   int          `json:"total"`
}

func (r seedResult) String() string {
	return fmt.Sprintf("Seeded dataset %q: %d rows", r.Dataset, r.Total) + counts(r.Rows)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <dataset.yaml>",
		Short: "Load a YAML dataset",
		Long: `Load a YAML dataset into the store in a single transaction. If any row
is rejected nothing is written.

Example:
  recordstore seed --db ./school.db ./fixtures/demo.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := seed.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load dataset", err)
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				slog.Info("seeding", "dataset", ds.Name, "path", args[0])
				s.out.VerboseLog("Loading dataset %q from %s", ds.Name, args[0])
				sum, err := seed.Apply(ctx, s.db, ds)
				if err != nil {
					return err
				}
				slog.Info("seeded", "dataset", ds.Name, "rows", sum.Total())
				s.out.VerboseLog("Committed %d rows", sum.Total())
				return s.out.Success(seedResult{Dataset: ds.Name, Rows: sum, Total: sum.Total()})
			})
		},
	}
}
