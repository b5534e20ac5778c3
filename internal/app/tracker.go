// Package service runs a tournament tracking session on a game server: it
// follows start/stop commands and map ends, ranks every finished map and
// stores the result.
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tbg-racing/rankingsaver/internal/adapters/chat"
	"github.com/tbg-racing/rankingsaver/internal/adapters/repository"
	"github.com/tbg-racing/rankingsaver/internal/domain/model"
	"github.com/tbg-racing/rankingsaver/internal/domain/ranking"
	"github.com/tbg-racing/rankingsaver/internal/domain/types"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
	"github.com/tbg-racing/rankingsaver/pkg/metrics"
)

// Defaults for a new tracker.
const (
	defaultRestartDelay = 5 * time.Second
	defaultEndSection   = "EndMap"
)

// Host is the game server side the tracker drives.
type Host interface {
	// CurrentMapName returns the raw (formatted) name of the map being played.
	CurrentMapName(ctx context.Context) string
	// RestartMap restarts the current map.
	RestartMap(ctx context.Context) error
}

// Tracker owns the tracking state of one server session.
type Tracker struct {
	host  Host
	store repository.Store

	chat            chat.Sink
	logger          logger.Logger
	restartDelay    time.Duration
	prefix          string
	congrats        []string
	endSection      string
	now             func() time.Time
	pick            func(n int) int
	metricsTextfile string

	mu    sync.Mutex // guards state and serializes map result handling
	state State
}

// New creates an idle tracker.
func New(host Host, store repository.Store, opts ...Option) *Tracker {
	t := &Tracker{
		host:         host,
		store:        store,
		chat:         chat.NewLogSink(nil),
		logger:       logger.Discard(),
		restartDelay: defaultRestartDelay,
		prefix:       DefaultPrefix,
		congrats:     DefaultCongrats,
		endSection:   defaultEndSection,
		now:          time.Now,
		pick:         rand.IntN,
		state:        Idle,
	}
	for _, opt := range opts {
		opt(t)
	}
	metrics.UpdateTrackingState(t.state.metric())
	return t
}

// State returns the current tracking state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// HandleCommand routes an admin chat command: start/mstart or stop/mstop.
// A leading "//" or namespace ("tbg start") is accepted.
func (t *Tracker) HandleCommand(ctx context.Context, command string) error {
	fields := strings.Fields(strings.TrimLeft(strings.TrimSpace(command), "/"))
	if len(fields) == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	name := strings.ToLower(fields[len(fields)-1])
	if len(fields) == 2 && strings.ToLower(fields[0]) != "tbg" {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	if len(fields) > 2 {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	switch name {
	case "start", "mstart":
		return t.Start(ctx)
	case "stop", "mstop":
		t.Stop(ctx)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

// Start begins tracking, announces it and restarts the map after the
// configured delay so that the first tracked map is a full one.
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.store.EnsureDir(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	t.setState(ctx, Tracking)
	t.mu.Unlock()

	t.say(ctx, msgStart)

	if t.restartDelay > 0 {
		timer := time.NewTimer(t.restartDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrRestartMap, ctx.Err())
		case <-timer.C:
		}
	}

	if err := t.host.RestartMap(ctx); err != nil {
		t.logger.Error(ctx, "map restart failed", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrRestartMap, err)
	}
	return nil
}

// Stop asks tracking to end once the current map is over. It only has an
// effect while tracking.
func (t *Tracker) Stop(ctx context.Context) {
	t.mu.Lock()
	if t.state != Tracking {
		t.mu.Unlock()
		t.logger.Debug(ctx, "stop ignored", logger.String("state", t.State().String()))
		return
	}
	t.setState(ctx, Stopping)
	t.mu.Unlock()

	t.say(ctx, msgStop)
}

// MapEnd finishes a pending stop.
func (t *Tracker) MapEnd(ctx context.Context) {
	t.mu.Lock()
	if t.state != Stopping {
		t.mu.Unlock()
		return
	}
	t.setState(ctx, Idle)
	t.mu.Unlock()

	t.say(ctx, msgConcluded)
}

// Scores handles the host's scores signal. Only the end-of-map section is
// acted on, and only while recording; ranked reports whether that happened.
// The ranked map is announced and appended to today's results file.
//
// A save failure is announced in chat and returned along with the round.
func (t *Tracker) Scores(ctx context.Context, section string, players []model.HostPlayer, teams []model.HostTeam) (round types.RoundResult, ranked bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.Recording() || section != t.endSection {
		return types.RoundResult{}, false, nil
	}

	roundID := uuid.NewString()
	log := t.logger.Named("round")

	participants, err := model.Participants(players)
	if err != nil {
		metrics.RecordValidationError()
		log.Error(ctx, "invalid scores payload", logger.String("round_id", roundID), logger.Error(err))
		return types.RoundResult{}, false, err
	}

	round = ranking.Rank(participants, t.host.CurrentMapName(ctx), t.now().UTC().Format(types.TimestampLayout))
	metrics.RecordRoundRanked(len(round.RacerResults), round.Finishers())

	if winner, ok := ranking.Winner(round); ok {
		line := t.congrats[t.pick(len(t.congrats))]
		t.say(ctx, fmt.Sprintf(msgWinner, winner.Nick, line))
	} else {
		t.say(ctx, msgNoWinner)
	}

	log.Info(ctx, "round results",
		logger.String("round_id", roundID),
		logger.String("track", round.TrackName),
		logger.String("raced_at", round.RacedAtUtc),
		logger.Int("racers", len(round.RacerResults)),
		logger.Int("teams", len(teams)),
		logger.Any("results", round.RacerResults),
	)

	start := t.now()
	if err = t.store.Append(ctx, round); err != nil {
		metrics.RecordSaveError(t.now().Sub(start).Seconds())
		log.Error(ctx, "saving round failed", logger.String("round_id", roundID), logger.Error(err))
		t.say(ctx, msgSaveError)
		t.flushMetrics(ctx)
		return round, true, err
	}
	done := t.now()
	metrics.RecordRoundSaved(done.Sub(start).Seconds(), done.Unix())

	t.say(ctx, msgSaved)
	t.flushMetrics(ctx)
	return round, true, nil
}

// setState changes state. Callers hold t.mu.
func (t *Tracker) setState(ctx context.Context, next State) {
	if t.state != next {
		t.logger.Info(ctx, "tracking state changed",
			logger.String("from", t.state.String()),
			logger.String("to", next.String()),
		)
	}
	t.state = next
	metrics.UpdateTrackingState(next.metric())
}

func (t *Tracker) say(ctx context.Context, body string) {
	t.chat.Send(ctx, t.prefix+body)
}

func (t *Tracker) flushMetrics(ctx context.Context) {
	if t.metricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(t.metricsTextfile); err != nil {
		t.logger.Warn(ctx, "metrics textfile not written", logger.String("path", t.metricsTextfile), logger.Error(err))
	}
}

