package events

import "github.com/coinche/core/pkg/game"

// Replayer is the minimal surface pkg/events needs from a Game to serve
// listEvents(gameId, afterEventId); *game.Game satisfies it directly.
type Replayer interface {
	ListEvents(afterEventID int64) []game.Event
}

// Replay implements the listEvents(gameId, afterEventId): the
// suffix of g's log following afterEventID, or the entire log if
// afterEventID is zero or not found. The caller resolves the game id to g
// beforehand; the actual filtering is g's own, since it alone holds the
// lock guarding the log.
func Replay(g Replayer, afterEventID int64) []game.Event {
	return g.ListEvents(afterEventID)
}
