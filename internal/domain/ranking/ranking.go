// Package ranking orders the racers of a finished map and assigns
// standard competition ranks ("1, 2, 2, 4").
package ranking

import (
	"sort"

	"github.com/tbg-racing/rankingsaver/internal/domain/model"
	"github.com/tbg-racing/rankingsaver/internal/domain/style"
	"github.com/tbg-racing/rankingsaver/internal/domain/timespan"
	"github.com/tbg-racing/rankingsaver/internal/domain/types"
)

// Sanitizer cleans a display string before it enters a result.
type Sanitizer func(string) string

// Option applies a configuration option to a ranking call.
type Option func(*ranker)

// WithSanitizer replaces the default formatting-code stripper.
func WithSanitizer(fn Sanitizer) Option {
	return func(r *ranker) {
		if fn != nil {
			r.sanitize = fn
		}
	}
}

type ranker struct {
	sanitize Sanitizer
}

// Rank orders participants by best time and assigns ranks.
//
// Racers with a time come first, fastest to slowest. Racers without a time
// follow in the order a stable sort on the raw value leaves them. A racer
// whose time equals the previous racer's shares that racer's rank; everybody
// else gets their 1-based position. The input slice is not modified.
func Rank(participants []model.Participant, trackName, timestamp string, opts ...Option) types.RoundResult {
	r := ranker{sanitize: style.Strip}
	for _, opt := range opts {
		opt(&r)
	}

	sorted := make([]model.Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RawTime < sorted[j].RawTime })

	ordered := make([]model.Participant, 0, len(sorted))
	var noTime []model.Participant
	for _, p := range sorted {
		if p.HasTime() {
			ordered = append(ordered, p)
		} else {
			noTime = append(noTime, p)
		}
	}
	ordered = append(ordered, noTime...)

	results := make([]types.RankedResult, 0, len(ordered))
	for i, p := range ordered {
		res := types.RankedResult{
			Nick: r.sanitize(p.DisplayName),
			Rank: i + 1,
		}
		if p.HasTime() {
			if i > 0 && ordered[i-1].HasTime() && ordered[i-1].RawTime == p.RawTime {
				res.Rank = results[i-1].Rank
			}
			res.BestTime = timespan.Format(p.RawTime)
		}
		results = append(results, res)
	}

	return types.RoundResult{
		TrackName:    r.sanitize(trackName),
		RacedAtUtc:   timestamp,
		RacerResults: results,
	}
}

// Winner returns the round's first racer when that racer set a time.
// It reports false for an empty round and for a round nobody finished.
func Winner(round types.RoundResult) (types.RankedResult, bool) {
	if len(round.RacerResults) == 0 || !round.RacerResults[0].HasTime() {
		return types.RankedResult{}, false
	}
	return round.RacerResults[0], true
}
