package bot

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/coinche/core/pkg/game"
	"github.com/coinche/core/pkg/rules"
)

// DefaultMinThink and DefaultMaxThink bound the random delay (1-2 seconds)
// a bot waits before acting, simulating thought and yielding to concurrent
// human input.
const (
	DefaultMinThink = time.Second
	DefaultMaxThink = 2 * time.Second
)

// IsBot reports whether identity is a bot-controlled seat occupant.
type IsBot func(identity string) bool

// Driver schedules and executes bot actions. One Driver can serve any
// number of games concurrently; it tracks its own pending-timer set keyed
// by (gameId, seat) to enforce a single-in-flight-per-seat guard. Grounded
// on pkg/poker/game.go's
// scheduleAutoStart/cancelAutoStart (a time.AfterFunc-scheduled deferred
// action with a cancel flag checked inside the aggregate's lock),
// generalized from "one pending auto-start per table" to "one pending
// action per bot seat".
type Driver struct {
	log      slog.Logger
	rng      *rand.Rand
	rngMu    sync.Mutex
	minThink time.Duration
	maxThink time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// DriverConfig configures a Driver. Zero MinThink/MaxThink fall back to the
// package defaults.
type DriverConfig struct {
	MinThink time.Duration
	MaxThink time.Duration
	Seed     int64
	Log      slog.Logger
}

// NewDriver builds a Driver.
func NewDriver(cfg DriverConfig) *Driver {
	minThink, maxThink := cfg.MinThink, cfg.MaxThink
	if minThink <= 0 {
		minThink = DefaultMinThink
	}
	if maxThink <= 0 || maxThink < minThink {
		maxThink = DefaultMaxThink
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}
	return &Driver{
		log:      log,
		rng:      rand.New(rand.NewSource(seed)),
		minThink: minThink,
		maxThink: maxThink,
		pending:  make(map[string]*time.Timer),
	}
}

func seatKey(gameID string, seat int) string {
	return fmt.Sprintf("%s#%d", gameID, seat)
}

func (d *Driver) randomThinkDelay() time.Duration {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	span := d.maxThink - d.minThink
	if span <= 0 {
		return d.minThink
	}
	return d.minThink + time.Duration(d.rng.Int63n(int64(span)))
}

// decideBid guards the shared rng, which rand.Rand does not do itself,
// since timer callbacks for distinct seats can fire concurrently.
func (d *Driver) decideBid(hand []rules.Card, currentBid *rules.Bid) BidDecision {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	return DecideBid(hand, currentBid, d.rng)
}

// OnStateChanged is the orchestration hook: call it after every mutation on
// g (human or bot). If the seat on turn is bot-controlled per isBot and no
// action is already pending for that seat, it schedules one.
func (d *Driver) OnStateChanged(g *game.Game, isBot IsBot) {
	phase := g.CurrentPhase()
	if phase != game.PhaseBidding && phase != game.PhasePlaying {
		return
	}
	seat := g.TurnCursor()
	identity := g.OccupantOf(seat)
	if identity == "" || !isBot(identity) {
		return
	}

	key := seatKey(g.ID(), seat)
	d.mu.Lock()
	if _, exists := d.pending[key]; exists {
		d.mu.Unlock()
		return
	}
	delay := d.randomThinkDelay()
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.pending[key] == timer {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		d.act(g, seat, identity, isBot)
	})
	d.pending[key] = timer
	d.mu.Unlock()
}

// CancelSeat cancels any pending scheduled action for seat in g, e.g. when
// the game is cancelled or the seat is reassigned to a human mid-game.
func (d *Driver) CancelSeat(gameID string, seat int) {
	key := seatKey(gameID, seat)
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.pending[key]; ok {
		timer.Stop()
		delete(d.pending, key)
	}
}

// act re-checks preconditions — the world may have moved during the think
// delay — then performs the bot's action and chains into OnStateChanged so
// the next seat (bot or human) is evaluated without an external caller
// having to loop.
func (d *Driver) act(g *game.Game, seat int, identity string, isBot IsBot) {
	phase := g.CurrentPhase()
	if phase != game.PhaseBidding && phase != game.PhasePlaying {
		d.log.Debugf("bot %s: game %s no longer in an actionable phase (%s), skipping", identity, g.ID(), phase)
		return
	}
	if g.TurnCursor() != seat || g.OccupantOf(seat) != identity {
		d.log.Debugf("bot %s: seat %d no longer on turn or reassigned, skipping", identity, seat)
		return
	}

	var err error
	switch phase {
	case game.PhaseBidding:
		err = d.actBid(g, seat, identity)
	case game.PhasePlaying:
		err = d.actPlay(g, seat, identity)
	}
	if err != nil {
		d.log.Debugf("bot %s: action in game %s failed, swallowing: %v", identity, g.ID(), err)
	}

	d.OnStateChanged(g, isBot)
}

func (d *Driver) actBid(g *game.Game, seat int, identity string) error {
	hand, err := g.GetPrivateHand(identity)
	if err != nil {
		return err
	}
	decision := d.decideBid(hand.Cards, g.CurrentBid())
	actionID := fmt.Sprintf("bot-%s-%s-v%d", g.ID(), identity, g.StateVersion())
	if !decision.ShouldBid {
		_, err = g.SubmitPass(identity, actionID)
		return err
	}
	_, err = g.SubmitBid(identity, actionID, decision.Kind, decision.Value)
	return err
}

func (d *Driver) actPlay(g *game.Game, seat int, identity string) error {
	hand, err := g.GetPrivateHand(identity)
	if err != nil {
		return err
	}
	snap := g.GetStateSnapshot()
	if snap.Contract == nil {
		return fmt.Errorf("no contract installed while in playing phase")
	}
	mode, trumpSuit := snap.Contract.Kind.TrumpMode()
	legal := rules.LegalPlays(hand.Cards, snap.CurrentTrick, mode, trumpSuit, seat)
	if len(legal) == 0 {
		return fmt.Errorf("no legal plays available")
	}
	card := DecidePlay(legal, snap.CurrentTrick, mode, trumpSuit, seat)
	actionID := fmt.Sprintf("bot-%s-%s-v%d", g.ID(), identity, g.StateVersion())
	_, err = g.SubmitPlay(identity, actionID, card, 0)
	return err
}
