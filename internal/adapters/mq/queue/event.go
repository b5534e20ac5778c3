package queue

import (
	"encoding/json"
	"fmt"

	"github.com/tbg-racing/rankingsaver/internal/domain/model"
)

// Host event types.
const (
	TypeCommand = "command"
	TypeScores  = "scores"
	TypeMapEnd  = "map_end"
)

// HostEvent is one signal from the game server, in the order it was raised.
// It is also the line format of replay files.
type HostEvent struct {
	Type    string             `json:"type"`
	Command string             `json:"command,omitempty"`
	Section string             `json:"section,omitempty"`
	Map     string             `json:"map,omitempty"`
	Players []model.HostPlayer `json:"players,omitempty"`
	Teams   []model.HostTeam   `json:"teams,omitempty"`
}

// ParseHostEvent decodes and checks one JSON line.
func ParseHostEvent(line []byte) (HostEvent, error) {
	var e HostEvent
	if err := json.Unmarshal(line, &e); err != nil {
		return HostEvent{}, fmt.Errorf("%w: %w", ErrBadEvent, err)
	}
	switch e.Type {
	case TypeCommand:
		if e.Command == "" {
			return HostEvent{}, fmt.Errorf("%w: command event without command", ErrBadEvent)
		}
	case TypeScores, TypeMapEnd:
	default:
		return HostEvent{}, fmt.Errorf("%w: unknown type %q", ErrBadEvent, e.Type)
	}
	return e, nil
}
