package game

import (
	"fmt"
	"time"

	"github.com/coinche/core/pkg/apperr"
	"github.com/coinche/core/pkg/rules"
)

// PublicSnapshot is a game's externally visible state: it must never
// include any seat's unplayed cards or counts broken down by seat beyond
// aggregate hand-counts. Built directly from the live Game aggregate under
// its lock — never by redacting a richer "full" DTO — so there is no
// richer in-memory representation a bug could accidentally leak from.
type PublicSnapshot struct {
	GameID          string
	RoomID          string
	Status          Phase
	TurnID          int
	Dealer          int
	TurnOrder       []int
	StateVersion    int64
	CumulativeScore [2]int
	Contract        *rules.Contract
	HandCounts      [SeatCount]int
	CurrentTrick    []rules.TrickEntry
	TrickHistoryCount int
	RoundNumber     int
	LastUpdatedAt   time.Time
}

// GetStateSnapshot implements the getState.
func (g *Game) GetStateSnapshot() PublicSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buildPublicSnapshot()
}

// buildPublicSnapshot projects the aggregate's public fields. Must be
// called with g.mu held.
func (g *Game) buildPublicSnapshot() PublicSnapshot {
	var handCounts [SeatCount]int
	for seat, h := range g.hands {
		if h != nil {
			handCounts[seat] = len(h.Cards)
		}
	}
	turnOrder := make([]int, SeatCount)
	for i := range turnOrder {
		turnOrder[i] = i
	}
	var lastUpdated time.Time
	if n := len(g.eventLog); n > 0 {
		lastUpdated = g.eventLog[n-1].OccurredAt
	}
	return PublicSnapshot{
		GameID:            g.id,
		RoomID:            g.roomID,
		Status:            g.phase,
		TurnID:            g.turnCursor,
		Dealer:            g.dealer,
		TurnOrder:         turnOrder,
		StateVersion:      g.stateVersion,
		CumulativeScore:   g.cumulativeScore,
		Contract:          g.contract,
		HandCounts:        handCounts,
		CurrentTrick:      append([]rules.TrickEntry(nil), g.currentTrick...),
		TrickHistoryCount: len(g.completedTricks),
		RoundNumber:       g.roundNumber,
		LastUpdatedAt:     lastUpdated,
	}
}

// GetStateSince implements the getStateSince(version): it returns the
// current snapshot whatever version is passed; callers compare
// StateVersion themselves.
func (g *Game) GetStateSince(version int64) PublicSnapshot {
	return g.GetStateSnapshot()
}

// PrivateHandResponse is one seat's own hand, accessible only to that
// seat's owner (enforcement of that is the orchestration layer's
// responsibility; this method just returns the data).
type PrivateHandResponse struct {
	SeatIdentity  string
	GameID        string
	Cards         []rules.Card
	HandVersion   int64
	LastUpdatedAt time.Time
}

// GetPrivateHand implements the getPrivateHand(seatIdentity).
func (g *Game) GetPrivateHand(identity string) (PrivateHandResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat := g.seatOf(identity)
	if seat < 0 {
		return PrivateHandResponse{}, apperr.New(apperr.NotFound, fmt.Errorf("no seat occupied by %q", identity))
	}
	hand := g.hands[seat]
	if hand == nil {
		return PrivateHandResponse{SeatIdentity: identity, GameID: g.id}, nil
	}
	var lastUpdated time.Time
	if n := len(g.eventLog); n > 0 {
		lastUpdated = g.eventLog[n-1].OccurredAt
	}
	return PrivateHandResponse{
		SeatIdentity:  identity,
		GameID:        g.id,
		Cards:         append([]rules.Card(nil), hand.Cards...),
		HandVersion:   hand.Version,
		LastUpdatedAt: lastUpdated,
	}, nil
}

// GetTurn returns the seat index currently permitted to act.
func (g *Game) GetTurn() int {
	return g.TurnCursor()
}

// CurrentBid returns a copy of the live bid during bidding, or nil if none
// has been placed yet or bidding has not started.
func (g *Game) CurrentBid() *rules.Bid {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bidding == nil || g.bidding.CurrentBid == nil {
		return nil
	}
	bid := *g.bidding.CurrentBid
	return &bid
}
