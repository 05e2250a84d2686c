package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/graph-migration-engine/internal/config"
	"github.com/aqasim81/graph-migration-engine/internal/executor"
	"github.com/aqasim81/graph-migration-engine/internal/logging"
	"github.com/aqasim81/graph-migration-engine/internal/migration"
	"github.com/aqasim81/graph-migration-engine/internal/sparql"
)

var applyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "apply",
	Short: "Apply pending migrations",
	Long: `Wait for the SPARQL endpoint, then apply every migration that is not yet
in the ledger, in order. Statement files (.sparql) are sent as one update;
datasets (.ttl) are bulk loaded into their target graph. The run stops at the
first failure.`,
	RunE: runApply,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	applyCmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	applyCmd.Flags().Bool("no-wait", false, "do not wait for the endpoint to become ready")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	if cfg.SPARQLEndpoint == "" {
		return errEndpointRequired
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noWait, _ := cmd.Flags().GetBool("no-wait")

	ctx := commandContext(cmd)

	client, err := connect(cfg, out)
	if err != nil {
		return err
	}

	if !noWait {
		if err := waitForEndpoint(ctx, client, cfg); err != nil {
			return err
		}
	}

	sorted, err := loadMigrations(cfg.MigrationsDir, out)
	if err != nil || sorted == nil {
		return err
	}

	return executeMigrations(ctx, out, client, cfg, sorted, dryRun)
}

func executeMigrations(
	ctx context.Context,
	out io.Writer,
	client *sparql.Client,
	cfg *config.Config,
	sorted []migration.Migration,
	dryRun bool,
) error {
	t, err := newTracker(client, cfg)
	if err != nil {
		return err
	}

	loader, err := newBulkLoader(client, cfg)
	if err != nil {
		return err
	}

	exec := executor.New(t, client, loader,
		executor.WithDefaultGraph(cfg.DefaultGraph),
		executor.WithDryRun(dryRun),
		executor.WithLogger(logging.Component(logger, "executor")),
		executor.WithProgressCallback(func(event executor.ProgressEvent) {
			switch event.Status {
			case executor.StatusStarting:
				fmt.Fprintf(out, "  Applying %s ... ", event.Migration.Filename)
			case executor.StatusCompleted:
				fmt.Fprintf(out, "done (%s)\n", event.Duration.Truncate(time.Millisecond))
			case executor.StatusPending:
				fmt.Fprintf(out, "  Would apply %s (%s)\n", event.Migration.Filename, event.Migration.Kind)
			case executor.StatusFailed:
				fmt.Fprintf(out, "FAILED\n")
				fmt.Fprintf(out, "    Error: %v\n", event.Error)
			}
		}),
	)

	if dryRun {
		fmt.Fprintln(out, "\n--- DRY RUN (no changes will be made) ---")
	}

	summary, err := exec.Apply(ctx, sorted)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, summary.String())

	if dryRun {
		fmt.Fprintf(out, "\nDry run complete: %d migration(s) would be applied, %d already applied.\n",
			summary.Pending, summary.Skipped)
	} else {
		fmt.Fprintf(out, "\nApply complete: %d applied, %d skipped.\n", summary.Applied, summary.Skipped)
	}

	return nil
}
