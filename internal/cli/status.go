package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/graph-migration-engine/internal/tracker"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display every migration on disk as applied or pending, with the time it
was recorded, followed by ledger records whose file no longer exists.`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	if cfg.SPARQLEndpoint == "" {
		return errEndpointRequired
	}

	client, err := connect(cfg, out)
	if err != nil {
		return err
	}

	t, err := newTracker(client, cfg)
	if err != nil {
		return err
	}

	records, err := t.GetApplied(commandContext(cmd))
	if err != nil {
		return err
	}

	migrations, err := loadMigrations(cfg.MigrationsDir, out)
	if err != nil {
		return err
	}

	applied := make(map[string]tracker.AppliedMigration, len(records))
	for _, r := range records {
		applied[r.Filename] = r
	}

	pending := 0
	onDisk := make(map[string]struct{}, len(migrations))

	fmt.Fprintln(out)

	for _, m := range migrations {
		onDisk[m.Filename] = struct{}{}

		r, ok := applied[m.Filename]
		if !ok {
			pending++
			fmt.Fprintf(out, "  [pending]  %s\n", m.Path)

			continue
		}

		fmt.Fprintf(out, "  [applied]  %s  (%s)\n", m.Path, formatAppliedAt(r.AppliedAt))
	}

	var names []string

	for name := range applied {
		if _, ok := onDisk[name]; !ok {
			names = append(names, name)
		}
	}

	if len(names) > 0 {
		fmt.Fprintln(out, "\nRecorded in the ledger but not found on disk:")

		sort.Strings(names)

		for _, name := range names {
			fmt.Fprintf(out, "  %s  (%s)\n", name, formatAppliedAt(applied[name].AppliedAt))
		}
	}

	fmt.Fprintf(out, "\n%d migration(s) on disk, %d pending, %d recorded in the ledger.\n",
		len(migrations), pending, len(records))

	return nil
}

func formatAppliedAt(at time.Time) string {
	if at.IsZero() {
		return "time unknown"
	}

	return at.UTC().Format(time.RFC3339)
}
