package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aqasim81/graph-migration-engine/internal/bulkload"
	"github.com/aqasim81/graph-migration-engine/internal/config"
	"github.com/aqasim81/graph-migration-engine/internal/logging"
	"github.com/aqasim81/graph-migration-engine/internal/migration"
	"github.com/aqasim81/graph-migration-engine/internal/sparql"
	"github.com/aqasim81/graph-migration-engine/internal/tracker"
)

// errEndpointRequired is returned when no SPARQL endpoint is configured.
var errEndpointRequired = errors.New( //nolint:gochecknoglobals // sentinel error
	"SPARQL endpoint is required (set --sparql-endpoint, MIGRATE_SPARQL_ENDPOINT, or sparql_endpoint in config)",
)

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// connect builds the SPARQL client for cfg.
func connect(cfg *config.Config, out io.Writer) (*sparql.Client, error) {
	if cfg.SPARQLEndpoint == "" {
		return nil, errEndpointRequired
	}

	fmt.Fprintf(out, "Using SPARQL endpoint %s\n", config.RedactURL(cfg.SPARQLEndpoint))

	client, err := sparql.NewClient(cfg.SPARQLEndpoint,
		sparql.WithHeaders(cfg.Headers),
		sparql.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring SPARQL client: %w", err)
	}

	return client, nil
}

// waitForEndpoint blocks until the store answers queries.
func waitForEndpoint(ctx context.Context, client *sparql.Client, cfg *config.Config) error {
	return sparql.WaitUntilReady(ctx, client, cfg.WaitInterval, logging.Component(logger, "wait"))
}

func newTracker(client *sparql.Client, cfg *config.Config) (*tracker.Tracker, error) {
	t, err := tracker.New(client,
		tracker.WithGraph(cfg.MigrationsGraph),
		tracker.WithPageSize(cfg.CountBatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring ledger: %w", err)
	}

	return t, nil
}

func newBulkLoader(client *sparql.Client, cfg *config.Config) (*bulkload.Loader, error) {
	l, err := bulkload.New(client,
		bulkload.WithBatchSize(cfg.BatchSize),
		bulkload.WithMinBatchSize(cfg.MinimumBatchSize),
		bulkload.WithLogger(logging.Component(logger, "bulkload")),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring bulk loader: %w", err)
	}

	return l, nil
}

// loadMigrations discovers the migrations under dir in apply order and warns
// about filenames the ledger cannot tell apart. A nil result with a nil error
// means the directory holds no migrations.
func loadMigrations(dir string, out io.Writer) ([]migration.Migration, error) {
	migrations, err := migration.Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	if len(migrations) == 0 {
		fmt.Fprintln(out, "No migration files found.")
		return nil, nil //nolint:nilnil // nil,nil signals "no migrations, no error"
	}

	warnDuplicates(migration.Duplicates(migrations))

	return migrations, nil
}

func warnDuplicates(dups map[string][]string) {
	names := make([]string, 0, len(dups))
	for name := range dups {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		logger.Warn().
			Str("filename", name).
			Strs("paths", dups[name]).
			Msg("several migrations share a filename; the ledger records only one of them")
	}
}
