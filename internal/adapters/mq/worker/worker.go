// Package worker applies queued host events to the tracker, one at a time.
package worker

import (
	"context"
	"fmt"

	"github.com/tbg-racing/rankingsaver/internal/adapters/mq/queue"
	"github.com/tbg-racing/rankingsaver/internal/domain/model"
	"github.com/tbg-racing/rankingsaver/internal/domain/types"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
	"github.com/tbg-racing/rankingsaver/pkg/metrics"
)

// Handler is the tracker surface the dispatcher drives.
type Handler interface {
	HandleCommand(ctx context.Context, command string) error
	Scores(ctx context.Context, section string, players []model.HostPlayer, teams []model.HostTeam) (types.RoundResult, bool, error)
	MapEnd(ctx context.Context)
}

// MapSetter receives the map name carried by a scores event.
type MapSetter interface {
	SetCurrentMap(name string)
}

// Source defines how the dispatcher receives events.
type Source interface {
	Events() <-chan queue.HostEvent
}

// Dispatcher drains a Source on a single goroutine so that host events are
// handled strictly in arrival order.
type Dispatcher struct {
	source  Source
	handler Handler
	maps    MapSetter
	name    string

	onError func(queue.HostEvent, error)
	onRound func(types.RoundResult)

	done chan struct{}

	logger logger.Logger
}

// NewDispatcher creates a dispatcher with configuration options.
func NewDispatcher(source Source, handler Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source:  source,
		handler: handler,
		name:    "dispatcher",
		onError: func(queue.HostEvent, error) {},
		onRound: func(types.RoundResult) {},
		done:    make(chan struct{}),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named(d.name)
	return d
}

// Run handles events until the source is closed and drained or ctx is
// cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	events := d.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := d.dispatch(ctx, e); err != nil {
				metrics.RecordDispatchError(e.Type)
				d.logger.Error(ctx, "error handling host event",
					logger.String("type", e.Type),
					logger.Error(err),
				)
				d.onError(e, err)
			}
		}
	}
}

// Start runs the dispatcher on its own goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.Run(ctx)
}

// Wait blocks until Run returns or ctx expires.
func (d *Dispatcher) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "wait timed out")
		return fmt.Errorf("dispatcher wait: %w", ctx.Err())
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, e queue.HostEvent) error {
	metrics.RecordEventDispatched(e.Type)

	switch e.Type {
	case queue.TypeCommand:
		return d.handler.HandleCommand(ctx, e.Command)
	case queue.TypeScores:
		if d.maps != nil && e.Map != "" {
			d.maps.SetCurrentMap(e.Map)
		}
		round, ranked, err := d.handler.Scores(ctx, e.Section, e.Players, e.Teams)
		if ranked {
			d.onRound(round)
		}
		return err
	case queue.TypeMapEnd:
		d.handler.MapEnd(ctx)
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", queue.ErrBadEvent, e.Type)
	}
}
