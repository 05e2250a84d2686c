package bulkload

import "errors"

// ErrBatchSizeExhausted indicates batch inserts kept failing until the batch
// size dropped below the configured minimum.
var ErrBatchSizeExhausted = errors.New("batch size fell below minimum")

// ErrInvalidBatchSize indicates a non-positive or inconsistent batch size configuration.
var ErrInvalidBatchSize = errors.New("invalid batch size")
