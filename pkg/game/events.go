package game

import (
	"strconv"
	"time"
)

// EventType enumerates every event a Game can emit.
type EventType string

const (
	EventRoundStarted      EventType = "round.started"
	EventHandDealt         EventType = "hand.dealt" // private
	EventBidPlaced         EventType = "bid.placed"
	EventBidPassed         EventType = "bid.passed"
	EventBidDoubled        EventType = "bid.doubled"
	EventBidRedoubled      EventType = "bid.redoubled"
	EventContractFinalized EventType = "contract.finalized"
	EventRedealRequired    EventType = "redeal.required"
	EventMoveAccepted      EventType = "move.accepted"
	EventMoveRejected      EventType = "move.rejected"
	EventHandUpdated       EventType = "hand.updated" // private
	EventTrickCompleted    EventType = "trick.completed"
	EventTurnChanged       EventType = "turn.changed"
	EventRoundCompleted    EventType = "round.completed"
	EventGameCompleted     EventType = "game.completed"
	EventGameCancelled     EventType = "game.cancelled"
	EventMoveInvalidated   EventType = "move.invalidated"
	EventGameAborted       EventType = "game.aborted"

	// EventSystemHeartbeat is emitted by the event fabric, not by Game
	// itself: it carries no version increment and is never appended to
	// eventLog.
	EventSystemHeartbeat EventType = "system.heartbeat"
)

// Event is the append-only envelope every Game emits. Scope is
// "public" or the owning seat's identity for private events; the event
// fabric (pkg/events) uses it to route delivery.
type Event struct {
	EventID    int64
	Type       EventType
	OccurredAt time.Time
	GameID     string
	Scope      string // "public" or a seat identity
	Payload    any
	Version    int64
}

// appendEvent allocates the next event id, appends to the replayable log,
// and pushes to the live publisher if one is configured. Must be called
// with g.mu held; publisher calls must not block (see Publisher's doc).
func (g *Game) appendEvent(typ EventType, scope string, payload any, version int64) Event {
	g.nextEventID++
	ev := Event{
		EventID:    g.nextEventID,
		Type:       typ,
		OccurredAt: time.Now(),
		GameID:     g.id,
		Scope:      scope,
		Payload:    payload,
		Version:    version,
	}
	g.eventLog = append(g.eventLog, ev)
	if g.publisher != nil {
		g.publisher.Publish(ev)
	}
	return ev
}

// ListEvents implements the replay(gameId, afterEventId): the
// suffix of the log following afterEventID, or the entire log if
// afterEventID is zero or not found (the caller is assumed to have lost
// context and needs a fresh baseline).
func (g *Game) ListEvents(afterEventID int64) []Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	if afterEventID == 0 {
		return append([]Event(nil), g.eventLog...)
	}
	for i, ev := range g.eventLog {
		if ev.EventID == afterEventID {
			return append([]Event(nil), g.eventLog[i+1:]...)
		}
	}
	return append([]Event(nil), g.eventLog...)
}

// MoveStatus is the outcome reported to the caller for an attempted action.
type MoveStatus string

const (
	MoveAccepted MoveStatus = "accepted"
	MoveRejected MoveStatus = "rejected"
)

// MoveResult is returned from every player action.
type MoveResult struct {
	MoveID          string
	ClientActionID  string
	Status          MoveStatus
	TurnID          int
	StateVersion    int64
	Effects         []EventType
	OccurredAt      time.Time
	SystemGenerated bool
}

// nextMoveIDString allocates and formats the next moveId. Must be called
// with g.mu held.
func (g *Game) nextMoveIDString() string {
	g.nextMoveID++
	return g.id + "-move-" + strconv.FormatInt(g.nextMoveID, 10)
}
