package bot

import (
	"math/rand"
	"testing"

	"github.com/coinche/core/pkg/rules"
)

func card(suit rules.Suit, rank rules.Rank) rules.Card {
	return rules.Card{Suit: suit, Rank: rank}
}

func TestCountHighCards(t *testing.T) {
	hand := []rules.Card{
		card(rules.Spades, rules.Ace),
		card(rules.Hearts, rules.Ten),
		card(rules.Clubs, rules.King),
		card(rules.Diamonds, rules.Jack),
		card(rules.Spades, rules.Seven),
	}
	if got := countHighCards(hand); got != 4 {
		t.Fatalf("countHighCards() = %d, want 4", got)
	}
}

func TestDecideBidPassesOnExistingBid(t *testing.T) {
	hand := []rules.Card{
		card(rules.Spades, rules.Ace), card(rules.Hearts, rules.Ten),
		card(rules.Clubs, rules.King), card(rules.Diamonds, rules.Jack),
	}
	live := rules.NewBid(0, rules.KindSpades, 80)
	d := DecideBid(hand, &live, rand.New(rand.NewSource(1)))
	if d.ShouldBid {
		t.Fatalf("should never bid over a live bid")
	}
}

func TestDecideBidPassesOnWeakHand(t *testing.T) {
	hand := []rules.Card{
		card(rules.Spades, rules.Seven), card(rules.Hearts, rules.Eight),
		card(rules.Clubs, rules.Nine), card(rules.Diamonds, rules.Queen),
	}
	d := DecideBid(hand, nil, rand.New(rand.NewSource(1)))
	if d.ShouldBid {
		t.Fatalf("should never bid on a hand with under %d high cards", minHighCardsToOpen)
	}
}

func TestDecideBidNeverOpensAboveMinValue(t *testing.T) {
	hand := []rules.Card{
		card(rules.Spades, rules.Ace), card(rules.Hearts, rules.Ten),
		card(rules.Clubs, rules.King), card(rules.Diamonds, rules.Jack),
	}
	found := false
	for seed := int64(0); seed < 200; seed++ {
		d := DecideBid(hand, nil, rand.New(rand.NewSource(seed)))
		if d.ShouldBid {
			found = true
			if d.Value != rules.MinBidValue {
				t.Fatalf("opened at %d, want %d", d.Value, rules.MinBidValue)
			}
			switch d.Kind {
			case rules.KindClubs, rules.KindDiamonds, rules.KindHearts, rules.KindSpades:
			default:
				t.Fatalf("opened with non-suit kind %v", d.Kind)
			}
		}
	}
	if !found {
		t.Fatalf("a qualifying hand never opened across 200 seeds, openProbability looks broken")
	}
}

func TestDecidePlayLeadsHighestInStrongestSuit(t *testing.T) {
	legal := []rules.Card{
		card(rules.Spades, rules.Ace), card(rules.Spades, rules.King),
		card(rules.Hearts, rules.Seven),
	}
	got := DecidePlay(legal, nil, rules.NoTrump, "", 0)
	if got != card(rules.Spades, rules.Ace) {
		t.Fatalf("DecidePlay() = %v, want ace of spades (highest in the stronger suit)", got)
	}
}

func TestDecidePlayDumpsLowWhenPartnerWinning(t *testing.T) {
	trick := []rules.TrickEntry{
		{Seat: 0, Card: card(rules.Hearts, rules.Ace)}, // seat 0, partner of seat 2
	}
	legal := []rules.Card{card(rules.Hearts, rules.Seven), card(rules.Hearts, rules.King)}
	got := DecidePlay(legal, trick, rules.NoTrump, "", 2)
	if got != card(rules.Hearts, rules.Seven) {
		t.Fatalf("DecidePlay() = %v, want the low card since partner already wins", got)
	}
}

func TestDecidePlayTakesHighWhenOpponentWinning(t *testing.T) {
	trick := []rules.TrickEntry{
		{Seat: 1, Card: card(rules.Hearts, rules.Ace)},
	}
	legal := []rules.Card{card(rules.Hearts, rules.Seven), card(rules.Hearts, rules.King)}
	got := DecidePlay(legal, trick, rules.NoTrump, "", 2)
	if got != card(rules.Hearts, rules.King) {
		t.Fatalf("DecidePlay() = %v, want the high card since seat 2's opponent is winning", got)
	}
}
