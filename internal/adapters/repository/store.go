// Package repository persists ranked map results, one JSON file per UTC day.
package repository

import (
	"context"
	"time"

	"github.com/tbg-racing/rankingsaver/internal/domain/types"
)

// Store appends round results and reads back whole days.
type Store interface {
	// EnsureDir creates the results directory if it is missing.
	EnsureDir(ctx context.Context) error

	// Append adds a round to the end of today's file.
	Append(ctx context.Context, round types.RoundResult) error

	// Load returns every round stored for the UTC day containing day.
	// A day without a file yields an empty result, not an error.
	Load(ctx context.Context, day time.Time) (types.DayResults, error)

	// Days lists the UTC days that have a results file, oldest first.
	Days(ctx context.Context) ([]time.Time, error)
}
