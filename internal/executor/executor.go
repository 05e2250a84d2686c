package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqasim81/graph-migration-engine/internal/bulkload"
	"github.com/aqasim81/graph-migration-engine/internal/migration"
	"github.com/aqasim81/graph-migration-engine/internal/tracker"
)

// DefaultGraph is where datasets without a graph file are loaded.
const DefaultGraph = "http://mu.semte.ch/application"

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusPending   = "pending"
)

// State is the phase of a run.
type State int

const (
	StateIdle State = iota
	StateFetchingLedger
	StateIterating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingLedger:
		return "fetching-ledger"
	case StateIterating:
		return "iterating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProgressEvent is emitted by the executor for each migration processed.
type ProgressEvent struct {
	Migration *migration.Migration
	Status    string
	Duration  time.Duration
	Error     error
}

// MigrationTracker abstracts the ledger operations for testability.
type MigrationTracker interface {
	FetchApplied(ctx context.Context) (tracker.Snapshot, error)
	IsApplied(ctx context.Context, filename string) (bool, error)
	RecordApplied(ctx context.Context, p tracker.RecordParams) error
}

// Updater sends a SPARQL update to the store.
type Updater interface {
	Update(ctx context.Context, update string) error
}

// DatasetLoader imports a dataset into a graph.
type DatasetLoader interface {
	Load(ctx context.Context, statements []string, target string) error
}

var _ DatasetLoader = (*bulkload.Loader)(nil)

// unitFunc applies the payload of a single migration.
type unitFunc func(ctx context.Context, m *migration.Migration) error

// Executor applies pending migrations one at a time, recording each in the
// ledger right after its payload succeeds.
type Executor struct {
	tracker      MigrationTracker
	updater      Updater
	loader       DatasetLoader
	defaultGraph string
	dryRun       bool
	onProgress   func(ProgressEvent)
	logger       zerolog.Logger
	state        State
	applyUnit    unitFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithDefaultGraph sets the graph datasets load into when they have no graph file.
func WithDefaultGraph(graph string) Option {
	return func(e *Executor) { e.defaultGraph = graph }
}

// WithDryRun enables dry-run mode where pending migrations are only reported.
func WithDryRun(b bool) Option {
	return func(e *Executor) { e.dryRun = b }
}

// WithProgressCallback sets a function called for each migration processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(e *Executor) { e.onProgress = fn }
}

// WithLogger sets the logger used for warnings and per-migration details.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// New creates an Executor that records to t, sends statement migrations
// through u and hands datasets to l.
func New(t MigrationTracker, u Updater, l DatasetLoader, opts ...Option) *Executor {
	e := &Executor{
		tracker:      t,
		updater:      u,
		loader:       l,
		defaultGraph: DefaultGraph,
		logger:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.applyUnit == nil {
		e.applyUnit = e.runUnit
	}

	return e
}

// State returns the phase the executor is in.
func (e *Executor) State() State {
	return e.state
}

// Apply runs every migration not yet in the ledger, in the given order. The
// first failure aborts the run. On success it returns one summary line per
// migration, each decided by asking the ledger again.
func (e *Executor) Apply(ctx context.Context, migrations []migration.Migration) (*Summary, error) {
	e.state = StateFetchingLedger

	applied, err := e.tracker.FetchApplied(ctx)
	if err != nil {
		e.state = StateFailed
		return nil, fmt.Errorf("fetching applied migrations: %w", err)
	}

	e.state = StateIterating
	summary := &Summary{}

	for i := range migrations {
		status, err := e.applyOne(ctx, &migrations[i], applied)
		if err != nil {
			e.state = StateFailed
			return nil, err
		}

		switch status {
		case StatusCompleted:
			summary.Applied++
		case StatusPending:
			summary.Pending++
		default:
			summary.Skipped++
		}
	}

	for i := range migrations {
		m := &migrations[i]

		ok, err := e.tracker.IsApplied(ctx, m.Filename)
		if err != nil {
			e.state = StateFailed
			return nil, fmt.Errorf("verifying migration %s: %w", m.Filename, err)
		}

		summary.Lines = append(summary.Lines, SummaryLine{Path: m.Path, Applied: ok})
	}

	e.state = StateDone

	return summary, nil
}

// Pending returns the migrations not yet in the ledger, in the given order.
func (e *Executor) Pending(ctx context.Context, migrations []migration.Migration) ([]migration.Migration, error) {
	applied, err := e.tracker.FetchApplied(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching applied migrations: %w", err)
	}

	var pending []migration.Migration

	for _, m := range migrations {
		if !applied.Contains(m.Filename) {
			pending = append(pending, m)
		}
	}

	return pending, nil
}

// applyOne handles a single migration: skip if applied, dry-run report,
// execute, record, and fire progress. It returns the final status.
func (e *Executor) applyOne(ctx context.Context, m *migration.Migration, applied tracker.Snapshot) (string, error) {
	if applied.Contains(m.Filename) {
		e.fireProgress(ProgressEvent{Migration: m, Status: StatusSkipped})
		return StatusSkipped, nil
	}

	if e.dryRun {
		e.fireProgress(ProgressEvent{Migration: m, Status: StatusPending})
		return StatusPending, nil
	}

	e.fireProgress(ProgressEvent{Migration: m, Status: StatusStarting})

	start := time.Now()
	execErr := e.applyUnit(ctx, m)
	duration := time.Since(start)

	if execErr != nil {
		e.fireProgress(ProgressEvent{
			Migration: m,
			Status:    StatusFailed,
			Duration:  duration,
			Error:     execErr,
		})

		return StatusFailed, fmt.Errorf("%w: %s: %w", ErrExecutionFailed, m.Filename, execErr)
	}

	if err := e.tracker.RecordApplied(ctx, tracker.RecordParams{
		URI:      m.URI(),
		Filename: m.Filename,
	}); err != nil {
		e.fireProgress(ProgressEvent{
			Migration: m,
			Status:    StatusFailed,
			Duration:  time.Since(start),
			Error:     err,
		})

		return StatusFailed, fmt.Errorf("recording migration %s: %w", m.Filename, err)
	}

	e.logger.Info().
		Str("filename", m.Filename).
		Stringer("kind", m.Kind).
		Dur("duration", duration).
		Msg("migration applied")

	e.fireProgress(ProgressEvent{
		Migration: m,
		Status:    StatusCompleted,
		Duration:  duration,
	})

	return StatusCompleted, nil
}

func (e *Executor) fireProgress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}

// SummaryLine reports whether one migration is in the ledger after a run.
type SummaryLine struct {
	Path    string
	Applied bool
}

func (l SummaryLine) String() string {
	if l.Applied {
		return "[DONE] " + l.Path
	}

	return "[NOT EXECUTED] " + l.Path
}

// Summary is the outcome of a successful run.
type Summary struct {
	Lines   []SummaryLine
	Applied int // executed during this run
	Skipped int // already in the ledger
	Pending int // left unapplied by a dry run
}

// String renders one line per migration.
func (s *Summary) String() string {
	var b strings.Builder

	for _, l := range s.Lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}

	return b.String()
}
