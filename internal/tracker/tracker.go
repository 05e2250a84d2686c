package tracker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aqasim81/graph-migration-engine/internal/sparql"
)

// Defaults for the ledger location and paging.
const (
	DefaultGraph    = "http://mu.semte.ch/graphs/migrations"
	DefaultPageSize = 100
)

// Querier is the subset of the SPARQL client the ledger needs.
type Querier interface {
	Ask(ctx context.Context, query string) (bool, error)
	Select(ctx context.Context, query string) ([]sparql.Binding, error)
	Update(ctx context.Context, update string) error
}

// AppliedMigration is a ledger record as read back from the store.
type AppliedMigration struct {
	Filename  string
	AppliedAt time.Time // zero when the record carries no timestamp
}

// RecordParams contains the fields needed to record a migration as applied.
type RecordParams struct {
	URI      string
	Filename string
}

// Snapshot is the set of applied filenames read at one point in time.
type Snapshot map[string]struct{}

// Contains reports whether filename was applied when the snapshot was taken.
func (s Snapshot) Contains(filename string) bool {
	_, ok := s[filename]
	return ok
}

// Tracker reads and writes the migration ledger kept in a graph of the store.
type Tracker struct {
	querier  Querier
	graph    string
	pageSize int
	now      func() time.Time
	newID    func() string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithGraph sets the graph holding the ledger.
func WithGraph(graph string) Option {
	return func(t *Tracker) { t.graph = graph }
}

// WithPageSize sets how many filenames each paginated query fetches.
func WithPageSize(n int) Option {
	return func(t *Tracker) { t.pageSize = n }
}

// WithClock overrides the time source used for executedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a Tracker backed by q.
func New(q Querier, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		querier:  q,
		graph:    DefaultGraph,
		pageSize: DefaultPageSize,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, t.pageSize)
	}

	return t, nil
}

// Graph returns the graph holding the ledger.
func (t *Tracker) Graph() string {
	return t.graph
}

// FetchApplied returns every applied filename. It counts the records first and
// then reads them page by page.
func (t *Tracker) FetchApplied(ctx context.Context) (Snapshot, error) {
	total, err := t.count(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := make(Snapshot, total)

	for offset := 0; offset < total; offset += t.pageSize {
		rows, err := t.querier.Select(ctx, filenamesQuery(t.graph, t.pageSize, offset))
		if err != nil {
			return nil, fmt.Errorf("querying applied migrations (offset %d): %w", offset, err)
		}

		for _, row := range rows {
			if name := row["filename"]; name != "" {
				snapshot[name] = struct{}{}
			}
		}
	}

	return snapshot, nil
}

// IsApplied asks the store directly whether filename has been recorded.
func (t *Tracker) IsApplied(ctx context.Context, filename string) (bool, error) {
	ok, err := t.querier.Ask(ctx, existsQuery(t.graph, filename))
	if err != nil {
		return false, fmt.Errorf("checking if migration %s is applied: %w", filename, err)
	}

	return ok, nil
}

// RecordApplied writes the ledger record of a migration whose payload has
// already been applied.
func (t *Tracker) RecordApplied(ctx context.Context, p RecordParams) error {
	if err := t.querier.Update(ctx, insertRecordQuery(t.graph, t.newID(), p, t.now())); err != nil {
		return fmt.Errorf("recording migration %s as applied: %w", p.Filename, err)
	}

	return nil
}

// GetApplied returns all ledger records ordered by execution time.
func (t *Tracker) GetApplied(ctx context.Context) ([]AppliedMigration, error) {
	var applied []AppliedMigration

	for offset := 0; ; offset += t.pageSize {
		rows, err := t.querier.Select(ctx, recordsQuery(t.graph, t.pageSize, offset))
		if err != nil {
			return nil, fmt.Errorf("querying applied migrations: %w", err)
		}

		for _, row := range rows {
			m := AppliedMigration{Filename: row["filename"]}

			if ts := row["executedAt"]; ts != "" {
				if at, err := time.Parse(time.RFC3339, ts); err == nil {
					m.AppliedAt = at
				}
			}

			applied = append(applied, m)
		}

		if len(rows) < t.pageSize {
			return applied, nil
		}
	}
}

func (t *Tracker) count(ctx context.Context) (int, error) {
	rows, err := t.querier.Select(ctx, countQuery(t.graph))
	if err != nil {
		return 0, fmt.Errorf("counting applied migrations: %w", err)
	}

	if len(rows) == 0 {
		return 0, nil
	}

	raw, ok := rows[0]["count"]
	if !ok {
		return 0, fmt.Errorf("%w: no count binding", ErrCountUnavailable)
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrCountUnavailable, raw)
	}

	return n, nil
}
