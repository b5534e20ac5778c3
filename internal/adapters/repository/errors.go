package repository

import "errors"

// Sentinel kinds for result store errors. Every store failure wraps
// ErrPersistence; ErrCorruptFile additionally marks unparseable files.
var (
	ErrPersistence = errors.New("round result persistence failed")
	ErrCorruptFile = errors.New("results file is not valid JSON")
)
