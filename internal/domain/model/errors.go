package model

import "errors"

// Sentinel kinds for domain model errors.
var (
	ErrValidation = errors.New("invalid participant record")
)
