package game

import (
	"os"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/coinche/core/pkg/rules"
)

func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("test")
	log.SetLevel(slog.LevelError)
	return log
}

func newTestGame(t *testing.T) *Game {
	t.Helper()
	return New(Config{
		GameID: "g1",
		RoomID: "r1",
		Seats:  [SeatCount]string{"p0", "p1", "p2", "p3"},
		Seed:   42,
		Log:    testLogger(),
	})
}

func TestStartRoundDealsEightCardsPerSeatAndSetsBidding(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	require.Equal(t, PhaseBidding, g.CurrentPhase())
	require.Equal(t, int64(1), g.StateVersion())

	seen := make(map[rules.Card]bool)
	for _, h := range g.hands {
		require.Len(t, h.Cards, 8)
		for _, c := range h.Cards {
			require.False(t, seen[c], "card %v dealt twice", c)
			seen[c] = true
		}
	}
	require.Len(t, seen, 32)
	require.Equal(t, nextSeat(g.dealer), g.TurnCursor())
}

func TestStartRoundRejectsWrongPhase(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	_, err = g.StartRound()
	require.Error(t, err, "cannot start a round while already bidding")
}

func TestSubmitBidRejectsOutOfTurn(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	offTurn := nextSeat(g.TurnCursor())
	_, err = g.SubmitBid(g.seats[offTurn], "a1", rules.KindSpades, 80)
	require.Error(t, err)
}

func TestSubmitBidDominanceEnforced(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	opener := g.TurnCursor()
	_, err = g.SubmitBid(g.seats[opener], "a1", rules.KindSpades, 80)
	require.NoError(t, err)

	next := g.TurnCursor()
	_, err = g.SubmitBid(g.seats[next], "a2", rules.KindHearts, 80)
	require.Error(t, err, "hearts does not dominate spades at equal value")

	_, err = g.SubmitBid(g.seats[next], "a3", rules.KindNoTrump, 80)
	require.NoError(t, err, "no-trump should dominate spades at equal value")
}

func TestSubmitBidIdempotentOnRepeatedClientActionID(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	opener := g.TurnCursor()
	first, err := g.SubmitBid(g.seats[opener], "dup-1", rules.KindSpades, 80)
	require.NoError(t, err)
	versionAfterFirst := g.StateVersion()

	second, err := g.SubmitBid(g.seats[opener], "dup-1", rules.KindSpades, 80)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, versionAfterFirst, g.StateVersion(), "replayed action must not bump the version")
}

func TestThreePassesAfterABidFinalizesContract(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	opener := g.TurnCursor()
	_, err = g.SubmitBid(g.seats[opener], "bid1", rules.KindSpades, 80)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		seat := g.TurnCursor()
		_, err = g.SubmitPass(g.seats[seat], "pass"+string(rune('1'+i)))
		require.NoError(t, err)
	}

	require.Equal(t, PhasePlaying, g.CurrentPhase())
	require.NotNil(t, g.contract)
	require.Equal(t, rules.KindSpades, g.contract.Kind)
	require.Equal(t, nextSeat(g.dealer), g.TurnCursor())
}

func TestFourPassesWithNoBidTriggersRedeal(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)
	firstDealer := g.dealer

	for i := 0; i < 4; i++ {
		seat := g.TurnCursor()
		_, err = g.SubmitPass(g.seats[seat], "pass"+string(rune('1'+i)))
		require.NoError(t, err)
	}

	require.Equal(t, PhaseBidding, g.CurrentPhase(), "a redeal lands back in bidding with a fresh deal")
	require.Equal(t, nextSeat(firstDealer), g.dealer)
}

func TestCoincheDoublesAndFinalizesImmediately(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	opener := g.TurnCursor()
	_, err = g.SubmitBid(g.seats[opener], "bid1", rules.KindSpades, 80)
	require.NoError(t, err)

	opponent := nextSeat(opener)
	_, err = g.SubmitCoinche(g.seats[opponent], "coinche1")
	require.NoError(t, err)

	require.Equal(t, PhasePlaying, g.CurrentPhase())
	require.True(t, g.contract.Doubled)
}

func TestVersionConflictOnStaleSubmitPlay(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)
	stale := g.StateVersion()

	opener := g.TurnCursor()
	_, err = g.SubmitBid(g.seats[opener], "bid1", rules.KindSpades, 80)
	require.NoError(t, err)

	_, err = g.SubmitPlay(g.seats[g.TurnCursor()], "play1", g.hands[g.TurnCursor()].Cards[0], stale)
	require.Error(t, err)
	var apperr2 interface{ Error() string } = err
	require.Contains(t, apperr2.Error(), "version-conflict")
}

func TestTrickWinnerBecomesNextTurnCursor(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	opener := g.TurnCursor()
	_, err = g.SubmitBid(g.seats[opener], "bid1", rules.KindSpades, 80)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = g.SubmitPass(g.seats[g.TurnCursor()], "pass"+string(rune('1'+i)))
		require.NoError(t, err)
	}
	require.Equal(t, PhasePlaying, g.CurrentPhase())

	mode, trumpSuit := g.activeTrumpMode()
	var entries []rules.TrickEntry
	for i := 0; i < SeatCount; i++ {
		seat := g.TurnCursor()
		hand := g.hands[seat]
		legal := rules.LegalPlays(hand.Cards, entries, mode, trumpSuit, seat)
		require.NotEmpty(t, legal)
		card := legal[0]
		_, err = g.SubmitPlay(g.seats[seat], "play-"+string(rune('a'+i)), card, 0)
		require.NoError(t, err)
		entries = append(entries, rules.TrickEntry{Seat: seat, Card: card})
	}

	expectedWinner := rules.TrickWinner(entries, mode, trumpSuit)
	require.Equal(t, expectedWinner, g.TurnCursor())
	require.Len(t, g.completedTricks, 1)
}

func TestGetStateSnapshotNeverExposesHands(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	snap := g.GetStateSnapshot()
	for _, count := range snap.HandCounts {
		require.Equal(t, 8, count)
	}
	// PublicSnapshot has no field capable of carrying a seat's cards; the
	// compiler itself enforces this, this assertion documents the intent.
	require.Equal(t, 0, snap.TrickHistoryCount)
}

func TestGetPrivateHandOnlyResolvesSeatedIdentity(t *testing.T) {
	g := newTestGame(t)
	_, err := g.StartRound()
	require.NoError(t, err)

	resp, err := g.GetPrivateHand("p0")
	require.NoError(t, err)
	require.Len(t, resp.Cards, 8)

	_, err = g.GetPrivateHand("ghost")
	require.Error(t, err)
}

func TestTrackBeloteRequiresSameSuitUnderAllTrump(t *testing.T) {
	g := newTestGame(t)

	g.beloteSeats = make(map[int]bool)
	g.beloteTracker = make(map[beloteKey]bool)

	g.trackBelote(0, rules.Card{Suit: rules.Spades, Rank: rules.King}, rules.AllTrump, "")
	g.trackBelote(0, rules.Card{Suit: rules.Diamonds, Rank: rules.Queen}, rules.AllTrump, "")
	require.False(t, g.beloteSeats[0], "King of spades and Queen of diamonds must not count as Belote under all-trump")

	g.trackBelote(0, rules.Card{Suit: rules.Spades, Rank: rules.Queen}, rules.AllTrump, "")
	require.True(t, g.beloteSeats[0], "King and Queen of the same suit under all-trump is Belote")
}

func TestTrackBeloteSuitedContract(t *testing.T) {
	g := newTestGame(t)

	g.beloteSeats = make(map[int]bool)
	g.beloteTracker = make(map[beloteKey]bool)

	g.trackBelote(1, rules.Card{Suit: rules.Hearts, Rank: rules.King}, rules.FixedTrump, rules.Hearts)
	require.False(t, g.beloteSeats[1])
	g.trackBelote(1, rules.Card{Suit: rules.Hearts, Rank: rules.Queen}, rules.FixedTrump, rules.Hearts)
	require.True(t, g.beloteSeats[1])
}
