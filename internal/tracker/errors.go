package tracker

import "errors"

// ErrCountUnavailable indicates the ledger count query returned no usable number.
var ErrCountUnavailable = errors.New("migration count unavailable")

// ErrInvalidPageSize indicates a non-positive ledger page size.
var ErrInvalidPageSize = errors.New("invalid ledger page size")
