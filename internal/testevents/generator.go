package testevents

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/tbg-racing/rankingsaver/internal/adapters/mq/queue"
	"github.com/tbg-racing/rankingsaver/internal/domain/model"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
)

// Race time bounds in milliseconds.
const (
	minRaceTime = 25_000
	maxRaceTime = 140_000
)

// Nickname colour codes; racers love them.
var nickStyles = []string{"", "", "$f00", "$o", "$i$0af", "$s$fff"}

// Generate builds one tracked session: a start command, a scores event per
// map with a map end after each, then a stop command and a last map that
// concludes the session.
func Generate(ctx context.Context, cfg Config) ([]queue.HostEvent, Stats, error) {
	cfg = cfg.withDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	faker := gofakeit.New(seed)

	logger.Get().Info(ctx, "generating session",
		logger.Int("maps", cfg.Maps),
		logger.Int("players", cfg.Players),
		logger.Int64("seed", int64(seed)),
	)

	roster := make([]model.HostPlayer, cfg.Players)
	for i := range roster {
		style := nickStyles[faker.IntN(len(nickStyles))]
		roster[i] = model.HostPlayer{
			Login:    faker.UUID(),
			Nickname: style + faker.Username(),
		}
	}

	var stats Stats
	events := []queue.HostEvent{{Type: queue.TypeCommand, Command: "start"}}
	for m := 0; m < cfg.Maps; m++ {
		select {
		case <-ctx.Done():
			return nil, Stats{}, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		default:
		}
		if m == cfg.Maps-1 {
			events = append(events, queue.HostEvent{Type: queue.TypeCommand, Command: "stop"})
		}
		players := generateTimes(faker, roster, cfg, &stats)
		events = append(events,
			queue.HostEvent{
				Type:    queue.TypeScores,
				Section: cfg.Section,
				Map:     fmt.Sprintf("$o$0f0%s %02d", faker.City(), m+1),
				Players: players,
			},
			queue.HostEvent{Type: queue.TypeMapEnd},
		)
		stats.Maps++
	}
	stats.Events = len(events)

	logger.Get().Info(ctx, "generated session",
		logger.Int("events", stats.Events),
		logger.Int("finishers", stats.Finishers),
		logger.Int("noTime", stats.NoTime),
		logger.Int("ties", stats.Ties),
	)
	return events, stats, nil
}

// generateTimes draws one map's best times for the roster, in roster order.
func generateTimes(faker *gofakeit.Faker, roster []model.HostPlayer, cfg Config, stats *Stats) []model.HostPlayer {
	players := make([]model.HostPlayer, len(roster))
	var last int64
	for i, p := range roster {
		var t int64
		switch {
		case faker.Float64() < cfg.NoTimeRatio:
			// Both sentinels show up in real scores.
			t = model.NoTime
			if faker.Bool() {
				t = 0
			}
			stats.NoTime++
		case last > 0 && faker.Float64() < cfg.TieRatio:
			t = last
			stats.Ties++
			stats.Finishers++
		default:
			t = int64(faker.IntRange(minRaceTime, maxRaceTime))
			last = t
			stats.Finishers++
		}
		p.BestRaceTime = &t
		players[i] = p
	}
	return players
}
