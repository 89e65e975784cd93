package game

import (
	"fmt"

	"github.com/coinche/core/pkg/apperr"
	"github.com/coinche/core/pkg/rules"
)

// nextSeat returns the seat clockwise from seat.
func nextSeat(seat int) int { return (seat + 1) % SeatCount }

// withLockedIdempotency takes the lock, consults the idempotency index for
// clientActionID, and otherwise runs fn under the lock and caches its
// result, giving at-most-once semantics: a cache hit returns the prior
// MoveResult unchanged and does not touch stateVersion.
func (g *Game) withLockedIdempotency(clientActionID string, fn func() (MoveResult, error)) (MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if clientActionID != "" {
		if prior, ok := g.idempotency[clientActionID]; ok {
			return prior, nil
		}
	}
	result, err := fn()
	if err == nil && clientActionID != "" {
		g.idempotency[clientActionID] = result
	}
	return result, err
}

// setTurnCursor updates turnCursor and emits turn.changed at the given
// version. Must be called with g.mu held.
func (g *Game) setTurnCursor(seat int, version int64) {
	g.turnCursor = seat
	g.appendEvent(EventTurnChanged, "public", map[string]any{"seat": seat}, version)
}

func (g *Game) activeTrumpMode() (rules.TrumpMode, rules.Suit) {
	if g.contract == nil {
		return rules.NoTrump, ""
	}
	return g.contract.Kind.TrumpMode()
}

// StartRound implements the startRound operation.
func (g *Game) StartRound() (MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doStartRound()
}

func (g *Game) doStartRound() (MoveResult, error) {
	if g.phase != PhaseInitial && g.phase != PhaseScoring {
		return MoveResult{}, apperr.Newf(apperr.IllegalMove, "cannot start a round from phase %s", g.phase)
	}

	g.dealer = nextSeat(g.dealer)
	deck := rules.NewDeck()
	deck.Shuffle(g.rng)
	hands := deck.Deal(SeatCount)

	for seat := 0; seat < SeatCount; seat++ {
		g.hands[seat] = &Hand{Cards: hands[seat], Version: 1}
	}
	g.bidding = &BiddingState{}
	g.contract = nil
	g.currentTrick = nil
	g.completedTricks = nil
	g.beloteSeats = make(map[int]bool)
	g.beloteTracker = make(map[beloteKey]bool)
	g.roundNumber++
	g.phase = PhaseBidding
	g.advancePhase()

	version := g.bumpVersion()
	g.appendEvent(EventRoundStarted, "public", map[string]any{
		"roundNumber": g.roundNumber,
		"dealer":      g.dealer,
	}, version)
	for seat := 0; seat < SeatCount; seat++ {
		g.appendEvent(EventHandDealt, g.seats[seat], map[string]any{
			"seat":    seat,
			"cards":   append([]rules.Card(nil), g.hands[seat].Cards...),
			"version": g.hands[seat].Version,
		}, version)
	}
	g.setTurnCursor(nextSeat(g.dealer), version)

	return MoveResult{
		MoveID:       g.nextMoveIDString(),
		Status:       MoveAccepted,
		StateVersion: version,
		Effects:      []EventType{EventRoundStarted, EventHandDealt},
		OccurredAt:   g.eventLog[len(g.eventLog)-1].OccurredAt,
	}, nil
}

// SubmitBid implements the submitBid operation.
func (g *Game) SubmitBid(caller string, clientActionID string, kind rules.ContractKind, value int) (MoveResult, error) {
	return g.withLockedIdempotency(clientActionID, func() (MoveResult, error) {
		seat := g.seatOf(caller)
		if seat < 0 {
			return MoveResult{}, apperr.New(apperr.Unauthorized, fmt.Errorf("caller is not seated in this game"))
		}
		if g.phase != PhaseBidding {
			return MoveResult{}, apperr.Newf(apperr.IllegalMove, "not in bidding phase")
		}
		if seat != g.turnCursor {
			return MoveResult{}, apperr.New(apperr.Forbidden, fmt.Errorf("it is not %s's turn to bid", fmtSeat(seat)))
		}

		candidate := rules.NewBid(seat, kind, value)
		if err := rules.ValidateBid(g.bidding.toRulesState(rules.SeatTeam), candidate); err != nil {
			return MoveResult{}, apperr.NewIllegalMove(err.Error())
		}

		g.bidding.CurrentBid = &candidate
		g.bidding.ConsecutivePasses = 0
		g.bidding.BidLog = append(g.bidding.BidLog, candidate)

		version := g.bumpVersion()
		g.appendEvent(EventBidPlaced, "public", candidate, version)
		g.setTurnCursor(nextSeat(seat), version)

		return MoveResult{
			MoveID:         g.nextMoveIDString(),
			ClientActionID: clientActionID,
			Status:         MoveAccepted,
			TurnID:         g.turnCursor,
			StateVersion:   version,
			Effects:        []EventType{EventBidPlaced, EventTurnChanged},
			OccurredAt:     g.eventLog[len(g.eventLog)-1].OccurredAt,
		}, nil
	})
}

// SubmitPass implements the submitPass operation.
func (g *Game) SubmitPass(caller string, clientActionID string) (MoveResult, error) {
	return g.withLockedIdempotency(clientActionID, func() (MoveResult, error) {
		seat := g.seatOf(caller)
		if seat < 0 {
			return MoveResult{}, apperr.New(apperr.Unauthorized, fmt.Errorf("caller is not seated in this game"))
		}
		if g.phase != PhaseBidding {
			return MoveResult{}, apperr.Newf(apperr.IllegalMove, "not in bidding phase")
		}
		if seat != g.turnCursor {
			return MoveResult{}, apperr.New(apperr.Forbidden, fmt.Errorf("it is not %s's turn to act", fmtSeat(seat)))
		}

		g.bidding.ConsecutivePasses++
		version := g.bumpVersion()
		g.appendEvent(EventBidPassed, "public", map[string]any{"seat": seat}, version)

		effects := []EventType{EventBidPassed}

		switch {
		case g.bidding.CurrentBid == nil && g.bidding.ConsecutivePasses == SeatCount:
			g.appendEvent(EventRedealRequired, "public", nil, version)
			effects = append(effects, EventRedealRequired)
			g.phase = PhaseInitial // redeal (=initial) per the state diagram
			g.advancePhase()
			if _, err := g.doStartRound(); err != nil {
				g.abort(fmt.Errorf("redeal failed: %w", err))
			}
		case g.bidding.CurrentBid != nil && g.bidding.ConsecutivePasses == SeatCount-1:
			g.finalizeContract(version)
			effects = append(effects, EventContractFinalized)
		default:
			g.setTurnCursor(nextSeat(seat), version)
		}

		return MoveResult{
			MoveID:         g.nextMoveIDString(),
			ClientActionID: clientActionID,
			Status:         MoveAccepted,
			TurnID:         g.turnCursor,
			StateVersion:   g.stateVersion,
			Effects:        effects,
			OccurredAt:     g.eventLog[len(g.eventLog)-1].OccurredAt,
		}, nil
	})
}

// finalizeContract freezes the winning bid as the contract, transitions to
// playing, and resets turnCursor to the seat left of the dealer. Must be
// called with g.mu held.
func (g *Game) finalizeContract(version int64) {
	bid := *g.bidding.CurrentBid
	g.contract = &rules.Contract{
		Kind:       bid.Kind,
		Value:      bid.Value,
		Doubled:    g.bidding.Doubled,
		Redoubled:  g.bidding.Redoubled,
		Declarer:   rules.SeatTeam(bid.Seat),
		DeclaredBy: bid.Seat,
	}
	g.phase = PhasePlaying
	g.advancePhase()
	g.appendEvent(EventContractFinalized, "public", *g.contract, version)
	g.setTurnCursor(nextSeat(g.dealer), version)
}

// SubmitCoinche implements the submitCoinche operation. Any opposing-team
// seat may call it out of turn, unlike bidding and play.
func (g *Game) SubmitCoinche(caller string, clientActionID string) (MoveResult, error) {
	return g.withLockedIdempotency(clientActionID, func() (MoveResult, error) {
		seat := g.seatOf(caller)
		if seat < 0 {
			return MoveResult{}, apperr.New(apperr.Unauthorized, fmt.Errorf("caller is not seated in this game"))
		}
		if g.phase != PhaseBidding {
			return MoveResult{}, apperr.Newf(apperr.IllegalMove, "not in bidding phase")
		}
		if err := rules.ValidateCoinche(g.bidding.toRulesState(rules.SeatTeam), seat); err != nil {
			return MoveResult{}, apperr.NewIllegalMove(err.Error())
		}

		g.bidding.Doubled = true
		g.bidding.DoubledBy = seat
		version := g.bumpVersion()
		g.appendEvent(EventBidDoubled, "public", map[string]any{"seat": seat}, version)
		g.finalizeContract(version)

		return MoveResult{
			MoveID:         g.nextMoveIDString(),
			ClientActionID: clientActionID,
			Status:         MoveAccepted,
			TurnID:         g.turnCursor,
			StateVersion:   version,
			Effects:        []EventType{EventBidDoubled, EventContractFinalized},
			OccurredAt:     g.eventLog[len(g.eventLog)-1].OccurredAt,
		}, nil
	})
}

// SubmitSurcoinche implements the submitSurcoinche operation.
func (g *Game) SubmitSurcoinche(caller string, clientActionID string) (MoveResult, error) {
	return g.withLockedIdempotency(clientActionID, func() (MoveResult, error) {
		seat := g.seatOf(caller)
		if seat < 0 {
			return MoveResult{}, apperr.New(apperr.Unauthorized, fmt.Errorf("caller is not seated in this game"))
		}
		if g.phase != PhaseBidding {
			return MoveResult{}, apperr.Newf(apperr.IllegalMove, "not in bidding phase")
		}
		if err := rules.ValidateSurcoinche(g.bidding.toRulesState(rules.SeatTeam), seat); err != nil {
			return MoveResult{}, apperr.NewIllegalMove(err.Error())
		}

		g.bidding.Redoubled = true
		version := g.bumpVersion()
		g.appendEvent(EventBidRedoubled, "public", map[string]any{"seat": seat}, version)
		g.finalizeContract(version)

		return MoveResult{
			MoveID:         g.nextMoveIDString(),
			ClientActionID: clientActionID,
			Status:         MoveAccepted,
			TurnID:         g.turnCursor,
			StateVersion:   version,
			Effects:        []EventType{EventBidRedoubled, EventContractFinalized},
			OccurredAt:     g.eventLog[len(g.eventLog)-1].OccurredAt,
		}, nil
	})
}

// SubmitPlay implements the submitPlay operation.
// expectedVersion of 0 skips the optimistic-concurrency check.
func (g *Game) SubmitPlay(caller string, clientActionID string, card rules.Card, expectedVersion int64) (MoveResult, error) {
	return g.withLockedIdempotency(clientActionID, func() (MoveResult, error) {
		if expectedVersion != 0 && expectedVersion != g.stateVersion {
			return MoveResult{}, apperr.NewVersionConflict(g.stateVersion)
		}
		seat := g.seatOf(caller)
		if seat < 0 {
			return MoveResult{}, apperr.New(apperr.Unauthorized, fmt.Errorf("caller is not seated in this game"))
		}
		if g.phase != PhasePlaying {
			return MoveResult{}, apperr.Newf(apperr.IllegalMove, "not in playing phase")
		}
		if seat != g.turnCursor {
			return MoveResult{}, apperr.New(apperr.Forbidden, fmt.Errorf("it is not %s's turn to play", fmtSeat(seat)))
		}

		hand := g.hands[seat]
		idx := indexOfCard(hand.Cards, card)
		if idx < 0 {
			return MoveResult{}, apperr.NewIllegalMove(fmt.Sprintf("seat %d does not hold %v", seat, card))
		}

		mode, trumpSuit := g.activeTrumpMode()
		if !rules.ValidatePlay(hand.Cards, g.currentTrick, mode, trumpSuit, seat, card) {
			return MoveResult{}, apperr.NewIllegalMove(fmt.Sprintf("%v is not a legal play", card))
		}

		hand.Cards = append(hand.Cards[:idx], hand.Cards[idx+1:]...)
		hand.Version++
		g.currentTrick = append(g.currentTrick, rules.TrickEntry{Seat: seat, Card: card})
		g.trackBelote(seat, card, mode, trumpSuit)

		version := g.bumpVersion()
		g.appendEvent(EventMoveAccepted, "public", map[string]any{"seat": seat, "card": card}, version)
		g.appendEvent(EventHandUpdated, g.seats[seat], map[string]any{
			"seat": seat, "cards": append([]rules.Card(nil), hand.Cards...), "version": hand.Version,
		}, version)

		effects := []EventType{EventMoveAccepted, EventHandUpdated}

		if len(g.currentTrick) == SeatCount {
			winner := rules.TrickWinner(g.currentTrick, mode, trumpSuit)
			points := rules.TrickPoints(g.currentTrick, mode, trumpSuit)
			completed := rules.CompletedTrick{
				Entries: g.currentTrick,
				Winner:  winner,
				Points:  points,
			}
			g.completedTricks = append(g.completedTricks, completed)
			g.currentTrick = nil
			g.appendEvent(EventTrickCompleted, "public", map[string]any{
				"winner": winner, "points": points, "trickNumber": len(g.completedTricks),
			}, version)
			effects = append(effects, EventTrickCompleted)
			g.setTurnCursor(winner, version)

			if len(g.completedTricks) == TricksPerRound {
				roundEffects := g.finishRound(version)
				effects = append(effects, roundEffects...)
			}
		}

		return MoveResult{
			MoveID:         g.nextMoveIDString(),
			ClientActionID: clientActionID,
			Status:         MoveAccepted,
			TurnID:         g.turnCursor,
			StateVersion:   g.stateVersion,
			Effects:        effects,
			OccurredAt:     g.eventLog[len(g.eventLog)-1].OccurredAt,
		}, nil
	})
}

// trackBelote records whether seat has now played both the King and Queen
// of the same trump suit this round. A no-op under no-trump, where there
// is no trump suit to track. Under all-trump every suit is trump, so the
// King and Queen must additionally be of the same suit as each other —
// keying on (seat, suit, rank) rather than (seat, rank) is what enforces
// that.
func (g *Game) trackBelote(seat int, card rules.Card, mode rules.TrumpMode, trumpSuit rules.Suit) {
	if mode == rules.NoTrump || !rules.IsTrump(card, mode, trumpSuit) {
		return
	}
	if card.Rank != rules.King && card.Rank != rules.Queen {
		return
	}
	if g.beloteTracker == nil {
		g.beloteTracker = make(map[beloteKey]bool)
	}
	g.beloteTracker[beloteKey{seat: seat, suit: card.Suit, rank: card.Rank}] = true
	hasKing := g.beloteTracker[beloteKey{seat: seat, suit: card.Suit, rank: rules.King}]
	hasQueen := g.beloteTracker[beloteKey{seat: seat, suit: card.Suit, rank: rules.Queen}]
	if hasKing && hasQueen {
		g.beloteSeats[seat] = true
	}
}

// finishRound scores the completed round, folds it into cumulative score,
// and either ends the game or starts the next round — all within the same
// locked call, so observers never see an 8th completedTrick in the
// playing phase. Must be called with g.mu held. Returns the additional
// events emitted for the caller's Effects list.
func (g *Game) finishRound(version int64) []EventType {
	g.phase = PhaseScoring
	g.advancePhase()

	var beloteSeat int = -1
	for seat := range g.beloteSeats {
		beloteSeat = seat
		break
	}

	result := rules.ScoreRound(rules.RoundInput{
		Tricks:       g.completedTricks,
		Contract:     *g.contract,
		BeloteSeat:   beloteSeat,
		BeloteExists: beloteSeat >= 0,
	})

	g.cumulativeScore[rules.TeamA] += result.TeamAAwarded
	g.cumulativeScore[rules.TeamB] += result.TeamBAwarded

	g.appendEvent(EventRoundCompleted, "public", map[string]any{
		"roundNumber": g.roundNumber,
		"teamAPoints": result.TeamAAwarded,
		"teamBPoints": result.TeamBAwarded,
		"fulfilled":   result.Fulfilled,
	}, version)
	effects := []EventType{EventRoundCompleted}

	over, winner := rules.GameOver(g.cumulativeScore[rules.TeamA], g.cumulativeScore[rules.TeamB], g.targetScore)
	if over {
		g.phase = PhaseCompleted
		g.advancePhase()
		g.appendEvent(EventGameCompleted, "public", map[string]any{"winner": winner}, version)
		effects = append(effects, EventGameCompleted)
		return effects
	}

	if _, err := g.doStartRound(); err != nil {
		g.abort(fmt.Errorf("next round failed to start: %w", err))
		effects = append(effects, EventGameAborted)
		return effects
	}
	effects = append(effects, EventRoundStarted, EventHandDealt)
	return effects
}

// InvalidateMove implements the invalidateMove operation: a
// tournament-only escape hatch that surfaces an event for operator
// workflow without attempting any rollback.
func (g *Game) InvalidateMove(adminCaller string, moveID string) (MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	version := g.bumpVersion()
	g.appendEvent(EventMoveInvalidated, "public", map[string]any{"moveId": moveID, "by": adminCaller}, version)

	return MoveResult{
		MoveID:       g.nextMoveIDString(),
		Status:       MoveAccepted,
		StateVersion: version,
		Effects:      []EventType{EventMoveInvalidated},
		OccurredAt:   g.eventLog[len(g.eventLog)-1].OccurredAt,
	}, nil
}

// Cancel implements the cancellation: transitions phase to
// completed with a cancellation reason.
func (g *Game) Cancel(reason string) (MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseCompleted {
		return MoveResult{}, apperr.Newf(apperr.IllegalMove, "game already completed")
	}
	g.phase = PhaseCompleted
	g.advancePhase()
	version := g.bumpVersion()
	g.appendEvent(EventGameCancelled, "public", map[string]any{"reason": reason}, version)

	return MoveResult{
		MoveID:       g.nextMoveIDString(),
		Status:       MoveAccepted,
		StateVersion: version,
		Effects:      []EventType{EventGameCancelled},
		OccurredAt:   g.eventLog[len(g.eventLog)-1].OccurredAt,
	}, nil
}

func indexOfCard(cards []rules.Card, c rules.Card) int {
	for i, have := range cards {
		if have == c {
			return i
		}
	}
	return -1
}
