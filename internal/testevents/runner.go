package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tbg-racing/rankingsaver/internal/adapters/mq/queue"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
)

// WriteEvents writes events as JSON lines, the replay file format.
func WriteEvents(ctx context.Context, w io.Writer, events []queue.HostEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("no events to write")
	}
	enc := json.NewEncoder(w)
	for i, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to write event %d: %w", i, err)
		}
	}
	logger.Get().Debug(ctx, "events written", logger.Int("count", len(events)))
	return nil
}

// Run generates a session and writes it to w.
func Run(ctx context.Context, cfg Config, w io.Writer) (Stats, error) {
	events, stats, err := Generate(ctx, cfg)
	if err != nil {
		return Stats{}, fmt.Errorf("event generation failed: %w", err)
	}
	if err := WriteEvents(ctx, w, events); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
