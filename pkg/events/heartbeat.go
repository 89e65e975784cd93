package events

import (
	"context"
	"time"

	"github.com/coinche/core/pkg/game"
)

// DefaultHeartbeatInterval is the default cadence between heartbeats.
const DefaultHeartbeatInterval = 15 * time.Second

// Heartbeater periodically pushes a system.heartbeat to every active
// subscriber of every game with at least one, bypassing the ordering queue
// and the replayable log entirely — heartbeats carry no version and are
// not durable.
type Heartbeater struct {
	dispatcher *Dispatcher
	interval   time.Duration
}

// NewHeartbeater builds a Heartbeater. interval <= 0 uses
// DefaultHeartbeatInterval.
func NewHeartbeater(d *Dispatcher, interval time.Duration) *Heartbeater {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Heartbeater{dispatcher: d, interval: interval}
}

// Run drives the heartbeat loop until ctx is cancelled. Intended to be
// launched in its own goroutine alongside the dispatcher's.
func (h *Heartbeater) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.tick(now)
		}
	}
}

func (h *Heartbeater) tick(now time.Time) {
	for _, gameID := range h.dispatcher.activeGames() {
		h.dispatcher.broadcastToGame(gameID, game.Event{
			Type:       game.EventSystemHeartbeat,
			OccurredAt: now,
			GameID:     gameID,
			Scope:      "public",
		})
	}
}
