// Package room owns the pre-game lobby lifecycle: a fixed four-seat
// waiting area that becomes a Game once every seat is filled and ready.
// Grounded on pkg/poker/table.go's Table (seat map, sync.RWMutex,
// ready-check, start preconditions), generalized from a variable-size
// buy-in table to Coinche's fixed four-seat/two-team shape.
package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/coinche/core/pkg/apperr"
	"github.com/coinche/core/pkg/game"
)

// SeatCount is the fixed number of seats in a Coinche room.
const SeatCount = game.SeatCount

// Visibility controls whether a room shows up in an unfiltered list.
type Visibility int

const (
	Public Visibility = iota
	Private
)

// Status is the room's position in its own lifecycle.
type Status int

const (
	StatusLobby Status = iota
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusLobby:
		return "lobby"
	case StatusInProgress:
		return "in-progress"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Seat is one of the room's four fixed positions.
type Seat struct {
	Identity string
	Ready    bool
	IsBot    bool
}

func (s Seat) occupied() bool { return s.Identity != "" }

// EventType enumerates room-scoped lifecycle events (the game-scoped ones
// live in pkg/game/events.go).
type EventType string

const (
	EventRoomUpdated  EventType = "room.updated"
	EventPlayerJoined EventType = "room.player_joined"
	EventPlayerLeft   EventType = "room.player_left"
	EventGameStarted  EventType = "room.game_started"
)

// Event is a room-scoped event envelope.
type Event struct {
	Type       EventType
	RoomID     string
	OccurredAt time.Time
	Payload    any
}

// Publisher receives every event a Room produces. Calls must not block the
// caller, same contract as game.Publisher.
type Publisher interface {
	Publish(Event)
}

// Config configures a new Room.
type Config struct {
	ID            string
	HostID        string
	Visibility    Visibility
	TargetScore   int // forwarded to the Game this room eventually starts
	Seed          int64
	Publisher     Publisher
	GamePublisher game.Publisher // forwarded into the started Game's Config
}

// Room is the pre-game lobby for one table of four Coinche seats.
type Room struct {
	mu sync.Mutex

	id         string
	hostID     string
	visibility Visibility
	status     Status
	locked     bool
	seats      [SeatCount]Seat
	createdAt  time.Time

	targetScore   int
	seed          int64
	publisher     Publisher
	gamePublisher game.Publisher

	game *game.Game
}

// New constructs a Room in the lobby, unlocked, with every seat empty.
func New(cfg Config) *Room {
	return &Room{
		id:            cfg.ID,
		hostID:        cfg.HostID,
		visibility:    cfg.Visibility,
		status:        StatusLobby,
		createdAt:     time.Now(),
		targetScore:   cfg.TargetScore,
		seed:          cfg.Seed,
		publisher:     cfg.Publisher,
		gamePublisher: cfg.GamePublisher,
	}
}

// ID returns the room's identity.
func (r *Room) ID() string { return r.id }

// HostID returns the identity that created the room.
func (r *Room) HostID() string { return r.hostID }

// Status returns the room's current lifecycle position (thread-safe).
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Visibility returns whether the room is listed publicly.
func (r *Room) Visibility() Visibility {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visibility
}

// Seats returns a snapshot copy of the room's seats.
func (r *Room) Seats() [SeatCount]Seat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seats
}

// Locked reports whether the room currently rejects joins.
func (r *Room) Locked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

func (r *Room) publish(typ EventType, payload any) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(Event{Type: typ, RoomID: r.id, OccurredAt: time.Now(), Payload: payload})
}

// Start implements the start operation: every seat must be
// occupied and ready, and the room must be unlocked. On success the room
// locks, clears ready flags, transitions to in-progress, and a Game is
// constructed from the seat order with its initial round already started.
func (r *Room) Start(gameID string) (*game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusLobby {
		return nil, apperr.Newf(apperr.IllegalMove, "room %s is not in the lobby (status=%s)", r.id, r.status)
	}
	if r.locked {
		return nil, apperr.Newf(apperr.IllegalMove, "room %s is locked", r.id)
	}
	for i, s := range r.seats {
		if !s.occupied() {
			return nil, apperr.Newf(apperr.IllegalMove, "seat %d is empty", i)
		}
		if !s.Ready {
			return nil, apperr.Newf(apperr.IllegalMove, "seat %d (%s) is not ready", i, s.Identity)
		}
	}

	var occupants [SeatCount]string
	for i, s := range r.seats {
		occupants[i] = s.Identity
		r.seats[i].Ready = false
	}

	r.game = game.New(game.Config{
		GameID:      gameID,
		RoomID:      r.id,
		Seats:       occupants,
		TargetScore: r.targetScore,
		Seed:        r.seed,
		Publisher:   r.gamePublisher,
	})
	if _, err := r.game.StartRound(); err != nil {
		return nil, fmt.Errorf("room %s: starting initial round: %w", r.id, err)
	}

	r.locked = true
	r.status = StatusInProgress
	r.publish(EventGameStarted, map[string]any{"gameId": gameID})
	return r.game, nil
}

// Game returns the room's Game, or nil before Start.
func (r *Room) Game() *game.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game
}

// MarkCompleted transitions a room whose Game finished back out of
// in-progress, e.g. once the orchestration layer observes game.completed.
func (r *Room) MarkCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusCompleted
}

// MarkCancelled transitions the room to cancelled, independent of the
// underlying game's own cancellation (a room can be cancelled while still
// in the lobby, before any Game exists).
func (r *Room) MarkCancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusCancelled
}
