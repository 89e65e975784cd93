// Package game owns the Game aggregate: the sole writer of a Coinche
// match's state. Every mutating method takes the aggregate's lock, validates
// against pkg/rules, mutates, appends events, and releases the lock before
// returning.
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/slog"

	"github.com/coinche/core/pkg/rules"
	"github.com/coinche/core/pkg/statemachine"
)

// SeatCount is the fixed number of seats in a Coinche match.
const SeatCount = rules.SeatCount

// DefaultTargetScore is the cumulative score a team must reach (and exceed
// the other team's score) to win the match.
const DefaultTargetScore = 1000

// TricksPerRound is the number of tricks played before a round is scored
// (one per card in each seat's starting hand).
const TricksPerRound = 8

// GameStateFn follows Rob Pike's state-function pattern, driving the
// round-phase progression.
type GameStateFn = statemachine.StateFn[Game]

// Phase is the Game's top-level lifecycle position.
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseBidding
	PhasePlaying
	PhaseScoring
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhaseBidding:
		return "bidding"
	case PhasePlaying:
		return "playing"
	case PhaseScoring:
		return "scoring"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Hand is one seat's private, ordered set of cards.
type Hand struct {
	Cards   []rules.Card
	Version int64
}

// beloteKey identifies one (seat, suit, rank) King-or-Queen-of-trump play.
// Keying on suit as well as seat matters under all-trump, where every suit
// is trump: a seat playing K of one suit and Q of another must not count
// as holding Belote, only a King and Queen of the same suit does.
type beloteKey struct {
	seat int
	suit rules.Suit
	rank rules.Rank
}

// BiddingState tracks the running bid, its doubling status, and the
// consecutive-pass count, layered over the pure rules.BidState the kernel
// validates against.
type BiddingState struct {
	CurrentBid        *rules.Bid
	Doubled           bool
	DoubledBy         int
	Redoubled         bool
	ConsecutivePasses int
	BidLog            []rules.Bid
}

func (b *BiddingState) toRulesState(declarerOf func(int) rules.Team) rules.BidState {
	return rules.BidState{
		CurrentBid: b.CurrentBid,
		Doubled:    b.Doubled,
		Redoubled:  b.Redoubled,
		DeclarerOf: declarerOf,
	}
}

// Config configures a new Game.
type Config struct {
	GameID      string
	RoomID      string
	Seats       [SeatCount]string // occupant identity per seat; bot identities are just another string
	TargetScore int               // 0 defaults to DefaultTargetScore
	Seed        int64             // 0 seeds from wall-clock time
	Log         slog.Logger
	Publisher   Publisher // may be nil; events are still appended to the replayable log
}

// Publisher receives every event a Game produces, for live fan-out. Calls
// must never block the caller — pkg/events' dispatcher enqueues onto a
// bounded channel and returns immediately.
type Publisher interface {
	Publish(Event)
}

// Game is the sole authority over one match's bidding, play, and scoring.
type Game struct {
	mu sync.Mutex

	id     string
	roomID string
	seats  [SeatCount]string

	hands           [SeatCount]*Hand
	bidding         *BiddingState
	contract        *rules.Contract
	currentTrick    []rules.TrickEntry
	completedTricks []rules.CompletedTrick

	roundNumber     int
	dealer          int
	cumulativeScore [2]int // indexed by rules.Team
	turnCursor      int
	phase           Phase
	targetScore     int

	stateVersion int64
	idempotency  map[string]MoveResult
	eventLog     []Event
	nextEventID  int64
	nextMoveID   int64

	beloteSeats   map[int]bool       // seats that played both K and Q of the same trump suit this round
	beloteTracker map[beloteKey]bool // (seat, suit, rank) bits of King/Queen-of-trump played this round

	rng       *rand.Rand
	log       slog.Logger
	publisher Publisher

	stateMachine *statemachine.StateMachine[Game]

	abortErr error
}

// New constructs a Game in PhaseInitial, ready for StartRound.
func New(cfg Config) *Game {
	target := cfg.TargetScore
	if target <= 0 {
		target = DefaultTargetScore
	}
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}

	g := &Game{
		id:          cfg.GameID,
		roomID:      cfg.RoomID,
		seats:       cfg.Seats,
		dealer:      -1, // StartRound advances it to seat 0 for the first round
		phase:       PhaseInitial,
		targetScore: target,
		idempotency: make(map[string]MoveResult),
		beloteSeats: make(map[int]bool),
		rng:         rng,
		log:         log,
		publisher:   cfg.Publisher,
	}
	g.stateMachine = statemachine.NewStateMachine(g, stateInitial)
	return g
}

// ID returns the game's identity.
func (g *Game) ID() string { return g.id }

// StateVersion returns the current version (thread-safe).
func (g *Game) StateVersion() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateVersion
}

// CurrentPhase returns the current phase (thread-safe).
func (g *Game) CurrentPhase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// TurnCursor returns the seat allowed to act next (thread-safe).
func (g *Game) TurnCursor() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turnCursor
}

// OccupantOf returns the identity seated at seat (thread-safe).
func (g *Game) OccupantOf(seat int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seats[seat]
}

// seatOf resolves a caller identity to its seat index, or -1 if not seated.
func (g *Game) seatOf(identity string) int {
	for i, occupant := range g.seats {
		if occupant == identity {
			return i
		}
	}
	return -1
}

// bumpVersion increments stateVersion and returns the new value. Must be
// called with g.mu held.
func (g *Game) bumpVersion() int64 {
	g.stateVersion++
	return g.stateVersion
}

// abort marks the game as fatally broken: phase is forced to completed and
// an internal-invariant event is emitted. The caller must hold g.mu.
func (g *Game) abort(cause error) {
	g.log.Errorf("game %s: internal invariant violation, aborting: %v", g.id, cause)
	if g.log.Level() <= slog.LevelDebug {
		g.log.Debugf("game %s: aggregate dump for postmortem:\n%s", g.id, spew.Sdump(g))
	}
	g.abortErr = cause
	g.phase = PhaseCompleted
	g.advancePhase()
	version := g.bumpVersion()
	g.appendEvent(EventGameAborted, "", map[string]any{"reason": cause.Error()}, version)
}

// fmtSeat is a small helper for error messages.
func fmtSeat(seat int) string { return fmt.Sprintf("seat %d", seat) }
