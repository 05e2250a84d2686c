package executor

import "errors"

// ErrExecutionFailed indicates a migration failed to execute.
var ErrExecutionFailed = errors.New("migration execution failed")

// ErrUnknownKind indicates a migration kind the executor has no unit for.
var ErrUnknownKind = errors.New("unknown migration kind")
