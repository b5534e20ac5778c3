// Package types contains the result shapes shared by the ranker, the store
// and the exporters. Field names are part of the on-disk format.
package types

// TimestampLayout is the RacedAtUtc layout: naive UTC with microseconds.
// The fraction is always written, even when it is zero.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// RankedResult is one racer's line in a round result.
type RankedResult struct {
	Nick     string `json:"Nick"`
	Rank     int    `json:"Rank"`
	BestTime string `json:"BestTime,omitempty"`
}

// HasTime reports whether the racer set a valid time.
func (r RankedResult) HasTime() bool { return r.BestTime != "" }

// RoundResult is the ranked outcome of a single map.
type RoundResult struct {
	TrackName    string         `json:"TrackName"`
	RacedAtUtc   string         `json:"RacedAtUtc"`
	RacerResults []RankedResult `json:"RacerResults"`
}

// Finishers counts the racers that set a time.
func (r RoundResult) Finishers() int {
	n := 0
	for _, res := range r.RacerResults {
		if res.HasTime() {
			n++
		}
	}
	return n
}

// DayResults is the aggregate stored in one day's results file.
type DayResults struct {
	RoundResults []RoundResult `json:"RoundResults"`
}
