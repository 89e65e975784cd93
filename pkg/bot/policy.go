// Package bot implements a heuristic substitute player: simple bidding and
// play rules good enough to keep a table moving when a human seat is
// unoccupied, not a competitive AI.
package bot

import (
	"math/rand"

	"github.com/coinche/core/pkg/rules"
)

// fixedTrumpKinds are the four suit-declaring contract kinds a bot may open
// with; it never opens no-trump or all-trump.
var fixedTrumpKinds = []rules.ContractKind{
	rules.KindClubs, rules.KindDiamonds, rules.KindHearts, rules.KindSpades,
}

// openProbability is the chance a qualifying hand actually opens.
const openProbability = 0.2

// minHighCardsToOpen is the high-card threshold (A, 10, K, J) a hand needs
// before the bot will ever consider opening.
const minHighCardsToOpen = 4

func isHighCard(r rules.Rank) bool {
	return r == rules.Ace || r == rules.Ten || r == rules.King || r == rules.Jack
}

// countHighCards counts a hand's aces, tens, kings, and jacks.
func countHighCards(hand []rules.Card) int {
	n := 0
	for _, c := range hand {
		if isHighCard(c.Rank) {
			n++
		}
	}
	return n
}

// BidDecision is the bot's chosen action during the bidding phase.
type BidDecision struct {
	ShouldBid bool
	Kind      rules.ContractKind
	Value     int
}

// passDecision is the always-safe fallback.
var passDecision = BidDecision{ShouldBid: false}

// DecideBid implements the bidding policy: default pass; if
// there is no live bid and the hand holds at least minHighCardsToOpen high
// cards, open at MinBidValue on a randomly chosen trump suit with
// openProbability. Never coinches or surcoinches — callers simply never
// invoke SubmitCoinche/SubmitSurcoinche for a bot seat.
func DecideBid(hand []rules.Card, currentBid *rules.Bid, rng *rand.Rand) BidDecision {
	if currentBid != nil {
		return passDecision
	}
	if countHighCards(hand) < minHighCardsToOpen {
		return passDecision
	}
	if rng.Float64() >= openProbability {
		return passDecision
	}
	kind := fixedTrumpKinds[rng.Intn(len(fixedTrumpKinds))]
	return BidDecision{ShouldBid: true, Kind: kind, Value: rules.MinBidValue}
}

// rankValue is a card's trick-taking order under mode, the basis for
// "highest-ranked legal card".
func rankValue(c rules.Card, mode rules.TrumpMode, trumpSuit rules.Suit) int {
	return rules.Order(c, rules.IsTrump(c, mode, trumpSuit))
}

// DecidePlay implements the play policy. legal must already be
// the output of rules.LegalPlays for this seat/hand/trick/contract; trick
// is the cards played so far in the current, still-incomplete trick.
func DecidePlay(legal []rules.Card, trick []rules.TrickEntry, mode rules.TrumpMode, trumpSuit rules.Suit, seat int) rules.Card {
	switch {
	case len(trick) == 0:
		return highestInStrongestSuit(legal, mode, trumpSuit)
	case rules.Partner(seat) == currentWinner(trick, mode, trumpSuit):
		return lowestRanked(legal, mode, trumpSuit)
	default:
		return highestRanked(legal, mode, trumpSuit)
	}
}

func currentWinner(trick []rules.TrickEntry, mode rules.TrumpMode, trumpSuit rules.Suit) int {
	return rules.TrickWinner(trick, mode, trumpSuit)
}

func highestRanked(cards []rules.Card, mode rules.TrumpMode, trumpSuit rules.Suit) rules.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if rankValue(c, mode, trumpSuit) > rankValue(best, mode, trumpSuit) {
			best = c
		}
	}
	return best
}

func lowestRanked(cards []rules.Card, mode rules.TrumpMode, trumpSuit rules.Suit) rules.Card {
	worst := cards[0]
	for _, c := range cards[1:] {
		if rankValue(c, mode, trumpSuit) < rankValue(worst, mode, trumpSuit) {
			worst = c
		}
	}
	return worst
}

// highestInStrongestSuit picks the bot's best suit to lead — the one
// carrying the most trick-taking point value under the active contract —
// and plays its highest card.
func highestInStrongestSuit(cards []rules.Card, mode rules.TrumpMode, trumpSuit rules.Suit) rules.Card {
	points := make(map[rules.Suit]int)
	for _, c := range cards {
		points[c.Suit] += rules.Points(c, rules.IsTrump(c, mode, trumpSuit))
	}
	var strongest rules.Suit
	best := -1
	for suit, total := range points {
		if total > best {
			best, strongest = total, suit
		}
	}
	var inSuit []rules.Card
	for _, c := range cards {
		if c.Suit == strongest {
			inSuit = append(inSuit, c)
		}
	}
	return highestRanked(inSuit, mode, trumpSuit)
}
