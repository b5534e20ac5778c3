// Package model contains domain models passed between layers.
package model

import "fmt"

// NoTime is the host's marker for a racer who never finished the map.
// A raw time of zero carries the same meaning.
const NoTime int64 = -1

// Participant is one racer handed to the ranker at the end of a map.
type Participant struct {
	DisplayName string
	RawTime     int64 // best race time in milliseconds, or NoTime / 0
}

// HasTime reports whether the participant recorded a usable time.
func (p Participant) HasTime() bool {
	return p.RawTime != NoTime && p.RawTime != 0
}

// HostPlayer is a player entry as carried by the host's scores signal.
// BestRaceTime is a pointer so that a missing field can be told apart from
// the NoTime sentinel.
type HostPlayer struct {
	Login        string `json:"login,omitempty"`
	Nickname     string `json:"nickname"`
	BestRaceTime *int64 `json:"best_race_time"`
}

// Participant validates the host entry and converts it for ranking.
func (h HostPlayer) Participant() (Participant, error) {
	if h.BestRaceTime == nil {
		return Participant{}, fmt.Errorf("%w: player %q has no best_race_time", ErrValidation, h.Nickname)
	}
	if *h.BestRaceTime < NoTime {
		return Participant{}, fmt.Errorf("%w: player %q has negative best_race_time %d", ErrValidation, h.Nickname, *h.BestRaceTime)
	}
	return Participant{DisplayName: h.Nickname, RawTime: *h.BestRaceTime}, nil
}

// Participants converts a whole roster, stopping at the first invalid entry.
func Participants(players []HostPlayer) ([]Participant, error) {
	out := make([]Participant, 0, len(players))
	for i, pl := range players {
		p, err := pl.Participant()
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// HostTeam is accepted alongside players on the scores signal. Time attack
// has no team scoring, so only the name is kept for logging.
type HostTeam struct {
	Name string `json:"name"`
}
