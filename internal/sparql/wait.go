package sparql

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWaitInterval is the delay between two readiness probes.
const DefaultWaitInterval = 2 * time.Second

// Pinger is anything that can probe an endpoint for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitUntilReady probes p every interval until it answers. There is no
// attempt limit: it returns nil on the first successful probe, or the
// context error once ctx is done.
func WaitUntilReady(ctx context.Context, p Pinger, interval time.Duration, logger zerolog.Logger) error {
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	for attempt := 1; ; attempt++ {
		err := p.Ping(ctx)
		if err == nil {
			logger.Info().Int("attempts", attempt).Msg("sparql endpoint is ready")
			return nil
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", interval).
			Msg("sparql endpoint not ready")

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for sparql endpoint: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
}
