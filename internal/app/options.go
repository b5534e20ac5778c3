package service

import (
	"math/rand/v2"
	"time"

	"github.com/tbg-racing/rankingsaver/internal/adapters/chat"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithLogger sets a custom logger for the tracker.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithChat sets where announcements go.
func WithChat(sink chat.Sink) Option {
	return func(t *Tracker) {
		if sink != nil {
			t.chat = sink
		}
	}
}

// WithRestartDelay sets the pause between the start announcement and the
// map restart. Zero restarts immediately.
func WithRestartDelay(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.restartDelay = d
		}
	}
}

// WithPrefix sets the text put in front of every announcement.
func WithPrefix(prefix string) Option {
	return func(t *Tracker) {
		t.prefix = prefix
	}
}

// WithCongrats replaces the winner congratulation lines.
func WithCongrats(lines []string) Option {
	return func(t *Tracker) {
		if len(lines) > 0 {
			t.congrats = append([]string(nil), lines...)
		}
	}
}

// WithEndSection sets the scores section that marks the end of a map.
func WithEndSection(section string) Option {
	return func(t *Tracker) {
		if section != "" {
			t.endSection = section
		}
	}
}

// WithClock sets the time source for RacedAtUtc.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithRandom sets the source used to pick congratulation lines.
func WithRandom(r *rand.Rand) Option {
	return func(t *Tracker) {
		if r != nil {
			t.pick = r.IntN
		}
	}
}

// WithMetricsTextfile flushes metrics to path after every saved map.
func WithMetricsTextfile(path string) Option {
	return func(t *Tracker) {
		t.metricsTextfile = path
	}
}
