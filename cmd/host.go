package main

import (
	"context"
	"sync"

	"github.com/tbg-racing/rankingsaver/pkg/logger"
)

// consoleHost stands in for the game server during replays: it remembers
// the map named by the last scores event and logs restart requests.
type consoleHost struct {
	logger logger.Logger

	mu       sync.Mutex
	mapName  string
	restarts int
}

func newConsoleHost(l logger.Logger) *consoleHost {
	return &consoleHost{logger: l.Named("host")}
}

func (h *consoleHost) CurrentMapName(context.Context) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mapName
}

func (h *consoleHost) SetCurrentMap(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mapName = name
}

func (h *consoleHost) RestartMap(ctx context.Context) error {
	h.mu.Lock()
	h.restarts++
	name := h.mapName
	h.mu.Unlock()

	h.logger.Info(ctx, "map restart requested", logger.String("map", name))
	return nil
}

func (h *consoleHost) Restarts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.restarts
}
