package executor

import (
	"context"
	"fmt"

	"github.com/aqasim81/graph-migration-engine/internal/dataset"
	"github.com/aqasim81/graph-migration-engine/internal/migration"
)

// runUnit applies the payload of m according to its kind.
func (e *Executor) runUnit(ctx context.Context, m *migration.Migration) error {
	switch m.Kind {
	case migration.KindStatement:
		return e.applyStatement(ctx, m)
	case migration.KindDataset:
		return e.applyDataset(ctx, m)
	case migration.KindUnsupported:
		e.logger.Warn().
			Str("path", m.Path).
			Msg("unsupported migration type, nothing applied")

		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, m.Kind)
	}
}

// applyStatement sends the whole file as one update request.
func (e *Executor) applyStatement(ctx context.Context, m *migration.Migration) error {
	content, err := m.Content()
	if err != nil {
		return err
	}

	if err := e.updater.Update(ctx, content); err != nil {
		return fmt.Errorf("executing update: %w", err)
	}

	return nil
}

// applyDataset parses the Turtle file and bulk loads it into its target graph.
func (e *Executor) applyDataset(ctx context.Context, m *migration.Migration) error {
	ds, err := dataset.Load(m.Path)
	if err != nil {
		return err
	}

	target, err := m.TargetGraph(e.defaultGraph)
	if err != nil {
		return err
	}

	e.logger.Debug().
		Str("filename", m.Filename).
		Str("graph", target).
		Int("triples", ds.Len()).
		Msg("loading dataset")

	if err := e.loader.Load(ctx, ds.Statements, target); err != nil {
		return fmt.Errorf("loading dataset into %s: %w", target, err)
	}

	return nil
}
