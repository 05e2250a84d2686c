// Package bulkload loads large datasets into a graph atomically: triples are
// staged into a scratch graph in adaptive batches and merged into the target
// graph with a single update once everything is staged.
package bulkload

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Default batch sizes.
const (
	DefaultBatchSize    = 12000
	DefaultMinBatchSize = 100
)

// ScratchGraphPrefix is prepended to a fresh UUID to name each scratch graph.
const ScratchGraphPrefix = "http://mu.semte.ch/graphs/tmp/"

// Gateway is the subset of the SPARQL client the loader needs.
type Gateway interface {
	InsertData(ctx context.Context, graph string, statements []string) error
	AddGraph(ctx context.Context, src, dst string) error
	DropGraph(ctx context.Context, graph string) error
}

// Loader stages and merges datasets.
type Loader struct {
	gateway      Gateway
	batchSize    int
	minBatchSize int
	newGraph     func() string
	logger       zerolog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize sets the initial number of statements per insert.
func WithBatchSize(n int) Option {
	return func(l *Loader) { l.batchSize = n }
}

// WithMinBatchSize sets the floor below which a shrinking batch size is fatal.
func WithMinBatchSize(n int) Option {
	return func(l *Loader) { l.minBatchSize = n }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// withGraphNamer overrides scratch graph naming (tests only).
func withGraphNamer(fn func() string) Option {
	return func(l *Loader) { l.newGraph = fn }
}

// New creates a Loader writing through gw.
func New(gw Gateway, opts ...Option) (*Loader, error) {
	l := &Loader{
		gateway:      gw,
		batchSize:    DefaultBatchSize,
		minBatchSize: DefaultMinBatchSize,
		logger:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.newGraph == nil {
		l.newGraph = func() string { return ScratchGraphPrefix + uuid.NewString() }
	}

	if l.minBatchSize <= 0 || l.batchSize < l.minBatchSize {
		return nil, fmt.Errorf("%w: batch size %d, minimum %d", ErrInvalidBatchSize, l.batchSize, l.minBatchSize)
	}

	return l, nil
}

// Load inserts statements into target. Either all statements become visible
// in target through one merge, or none do. The scratch graph is dropped
// before Load returns, whatever the outcome.
func (l *Loader) Load(ctx context.Context, statements []string, target string) (err error) {
	total := len(statements)
	if total == 0 {
		l.logger.Debug().Str("graph", target).Msg("empty dataset, nothing to load")
		return nil
	}

	scratch := l.newGraph()
	log := l.logger.With().Str("graph", target).Str("scratch", scratch).Logger()

	defer func() {
		// The scratch graph must go even when ctx was cancelled mid-load.
		if dropErr := l.gateway.DropGraph(context.WithoutCancel(ctx), scratch); dropErr != nil {
			log.Error().Err(dropErr).Msg("dropping scratch graph")

			if err == nil {
				err = fmt.Errorf("dropping scratch graph %s: %w", scratch, dropErr)
			}
		}
	}()

	if err := l.stage(ctx, statements, scratch, log); err != nil {
		return err
	}

	if err := l.gateway.AddGraph(ctx, scratch, target); err != nil {
		return fmt.Errorf("merging scratch graph into %s: %w", target, err)
	}

	log.Info().Int("triples", total).Msg("dataset loaded")

	return nil
}

// stage inserts every statement into scratch, halving the batch size after
// each failed insert.
func (l *Loader) stage(ctx context.Context, statements []string, scratch string, log zerolog.Logger) error {
	total := len(statements)
	size := l.batchSize

	for from := 0; from < total; {
		to := min(from+size, total)

		insertErr := l.gateway.InsertData(ctx, scratch, statements[from:to])
		if insertErr == nil {
			log.Debug().Int("from", from).Int("to", to).Int("total", total).Msg("batch staged")
			from = to

			continue
		}

		if ctx.Err() != nil {
			return fmt.Errorf("staging batch %d-%d: %w", from, to, ctx.Err())
		}

		next, err := shrink(size, l.minBatchSize)
		if err != nil {
			return fmt.Errorf("staging batch %d-%d: %w: %w", from, to, err, insertErr)
		}

		log.Warn().
			Err(insertErr).
			Int("batch_size", size).
			Int("next_batch_size", next).
			Msg("batch insert failed, retrying with smaller batches")

		size = next
	}

	return nil
}

// shrink halves size. It returns ErrBatchSizeExhausted when the halved size
// falls below minSize.
func shrink(size, minSize int) (int, error) {
	next := size / 2 //nolint:mnd // halving
	if next < minSize {
		return 0, fmt.Errorf("%w: %d < %d", ErrBatchSizeExhausted, next, minSize)
	}

	return next, nil
}
