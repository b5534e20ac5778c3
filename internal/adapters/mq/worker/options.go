package worker

import (
	"github.com/tbg-racing/rankingsaver/internal/adapters/mq/queue"
	"github.com/tbg-racing/rankingsaver/internal/domain/types"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithName sets the dispatcher name used in logs.
func WithName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.name = name
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMapSetter forwards map names from scores events.
func WithMapSetter(m MapSetter) Option {
	return func(d *Dispatcher) {
		d.maps = m
	}
}

// WithErrorHandler is called for every event the handler failed on.
func WithErrorHandler(fn func(queue.HostEvent, error)) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.onError = fn
		}
	}
}

// WithRoundHandler is called for every ranked map, saved or not.
func WithRoundHandler(fn func(types.RoundResult)) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.onRound = fn
		}
	}
}
