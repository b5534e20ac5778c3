package testevents

import (
	"errors"
	"fmt"

	"github.com/tbg-racing/rankingsaver/internal/domain/timespan"
	"github.com/tbg-racing/rankingsaver/internal/domain/types"
)

// ErrInconsistent marks a ranked round that breaks competition ranking.
var ErrInconsistent = errors.New("inconsistent round")

// Verify checks a ranked round: finishers first and fastest first, equal
// times share a rank, everyone else holds their position.
func Verify(round types.RoundResult) error {
	var prev int64
	seenNoTime := false
	for i, r := range round.RacerResults {
		if !r.HasTime() {
			seenNoTime = true
			if r.Rank != i+1 {
				return fmt.Errorf("%w: %q without time has rank %d at position %d", ErrInconsistent, r.Nick, r.Rank, i+1)
			}
			continue
		}
		if seenNoTime {
			return fmt.Errorf("%w: %q has a time after racers without one", ErrInconsistent, r.Nick)
		}
		ms, err := timespan.Parse(r.BestTime)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInconsistent, r.Nick, err)
		}
		switch {
		case i > 0 && ms < prev:
			return fmt.Errorf("%w: %q is faster than the racer above", ErrInconsistent, r.Nick)
		case i > 0 && ms == prev:
			if r.Rank != round.RacerResults[i-1].Rank {
				return fmt.Errorf("%w: %q ties the racer above but has rank %d", ErrInconsistent, r.Nick, r.Rank)
			}
		case r.Rank != i+1:
			return fmt.Errorf("%w: %q has rank %d at position %d", ErrInconsistent, r.Nick, r.Rank, i+1)
		}
		prev = ms
	}
	return nil
}
