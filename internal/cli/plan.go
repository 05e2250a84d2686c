package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/graph-migration-engine/internal/executor"
	"github.com/aqasim81/graph-migration-engine/internal/migration"
)

var planCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "plan",
	Short: "Show execution plan for pending migrations",
	Long: `Display the migrations that apply would run, in execution order, with
their kind and, for datasets, the graph they would be loaded into.`,
	RunE: runPlan,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	if cfg.SPARQLEndpoint == "" {
		return errEndpointRequired
	}

	client, err := connect(cfg, out)
	if err != nil {
		return err
	}

	sorted, err := loadMigrations(cfg.MigrationsDir, out)
	if err != nil || sorted == nil {
		return err
	}

	t, err := newTracker(client, cfg)
	if err != nil {
		return err
	}

	pending, err := executor.New(t, client, nil).Pending(commandContext(cmd), sorted)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		fmt.Fprintln(out, "Nothing to apply: all migrations are in the ledger.")
		return nil
	}

	fmt.Fprintf(out, "\n%d pending migration(s):\n", len(pending))

	for i := range pending {
		m := &pending[i]

		line, err := planLine(m, cfg.DefaultGraph)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "  %3d. %s\n", i+1, line)
	}

	return nil
}

func planLine(m *migration.Migration, defaultGraph string) (string, error) {
	if m.Kind != migration.KindDataset {
		return fmt.Sprintf("%s [%s]", m.Filename, m.Kind), nil
	}

	graph, err := m.TargetGraph(defaultGraph)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s [%s -> %s]", m.Filename, m.Kind, graph), nil
}
