package rules

// TrickEntry is one (seat, card) play within a trick.
type TrickEntry struct {
	Seat int
	Card Card
}

// SeatCount is the fixed number of seats at a Coinche table.
const SeatCount = 4

// Partner returns the seat across the table from seat: partners are always
// two seats apart.
func Partner(seat int) int {
	return (seat + 2) % SeatCount
}

// TrickWinner returns the seat of the entry that wins the trick: the
// highest trump if any trump was played, else the highest card of the led
// suit. entries must be non-empty.
func TrickWinner(entries []TrickEntry, mode TrumpMode, trumpSuit Suit) int {
	led := entries[0].Card.Suit
	best := entries[0]
	bestIsTrump := IsTrump(best.Card, mode, trumpSuit)
	for _, e := range entries[1:] {
		eIsTrump := IsTrump(e.Card, mode, trumpSuit)
		switch {
		case eIsTrump && !bestIsTrump:
			best, bestIsTrump = e, true
		case eIsTrump == bestIsTrump && e.Card.Suit == best.Card.Suit:
			if Order(e.Card, eIsTrump) > Order(best.Card, bestIsTrump) {
				best, bestIsTrump = e, eIsTrump
			}
		case !eIsTrump && !bestIsTrump && e.Card.Suit != led:
			// neither trump, not the led suit: cannot win regardless of best
		}
	}
	return best.Seat
}

// TrickPoints sums the point value of every card in a completed trick under
// the contract's mode.
func TrickPoints(entries []TrickEntry, mode TrumpMode, trumpSuit Suit) int {
	total := 0
	for _, e := range entries {
		total += Points(e.Card, IsTrump(e.Card, mode, trumpSuit))
	}
	return total
}

// currentTrickWinner resolves the seat currently winning an in-progress
// (possibly incomplete) trick; used by the partner-winning exception. Panics
// if entries is empty — callers must only consult this with a non-empty
// trick.
func currentTrickWinner(entries []TrickEntry, mode TrumpMode, trumpSuit Suit) int {
	return TrickWinner(entries, mode, trumpSuit)
}

// hasSuit reports whether hand holds at least one card of suit s.
func hasSuit(hand []Card, s Suit) bool {
	for _, c := range hand {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// hasTrump reports whether hand holds at least one trump card under mode.
func hasTrump(hand []Card, mode TrumpMode, trumpSuit Suit) bool {
	for _, c := range hand {
		if IsTrump(c, mode, trumpSuit) {
			return true
		}
	}
	return false
}

// highestTrumpInTrick returns the highest trump order value currently lying
// in the trick, and whether any trump lies there at all.
func highestTrumpInTrick(entries []TrickEntry, mode TrumpMode, trumpSuit Suit) (int, bool) {
	best, found := 0, false
	for _, e := range entries {
		if !IsTrump(e.Card, mode, trumpSuit) {
			continue
		}
		if o := Order(e.Card, true); !found || o > best {
			best, found = o, true
		}
	}
	return best, found
}

// canBeatTrump reports whether hand holds a trump strictly higher than
// threshold.
func canBeatTrump(hand []Card, threshold int, mode TrumpMode, trumpSuit Suit) bool {
	for _, c := range hand {
		if IsTrump(c, mode, trumpSuit) && Order(c, true) > threshold {
			return true
		}
	}
	return false
}

// LegalPlays returns the subset of hand that is legal to play next, given
// the cards already in the current (incomplete) trick and the active
// contract: follow suit, must-overtrump-if-able when the led suit is
// trump, the partner-winning discard exception, and the must-trump
// fallback.
func LegalPlays(hand []Card, trick []TrickEntry, mode TrumpMode, trumpSuit Suit, seat int) []Card {
	if len(trick) == 0 {
		return append([]Card(nil), hand...)
	}
	led := trick[0].Card.Suit
	ledIsTrump := IsTrump(Card{Suit: led}, mode, trumpSuit)

	if hasSuit(hand, led) {
		if !ledIsTrump {
			return filterSuit(hand, led)
		}
		// Led suit is trump: must play trump, and overtrump if able.
		threshold, anyTrump := highestTrumpInTrick(trick, mode, trumpSuit)
		candidates := filterSuit(hand, led)
		if !anyTrump {
			return candidates
		}
		if higher := filterAboveTrump(candidates, threshold, mode, trumpSuit); len(higher) > 0 {
			return higher
		}
		return candidates
	}

	// Void in the led suit.
	winnerSeat := currentTrickWinner(trick, mode, trumpSuit)
	if Partner(seat) == winnerSeat {
		return append([]Card(nil), hand...)
	}
	if hasTrump(hand, mode, trumpSuit) {
		threshold, anyTrump := highestTrumpInTrick(trick, mode, trumpSuit)
		if anyTrump {
			if higher := filterAboveTrump(filterTrump(hand, mode, trumpSuit), threshold, mode, trumpSuit); len(higher) > 0 {
				return higher
			}
		}
		return filterTrump(hand, mode, trumpSuit)
	}
	return append([]Card(nil), hand...)
}

func filterSuit(hand []Card, s Suit) []Card {
	var out []Card
	for _, c := range hand {
		if c.Suit == s {
			out = append(out, c)
		}
	}
	return out
}

func filterTrump(hand []Card, mode TrumpMode, trumpSuit Suit) []Card {
	var out []Card
	for _, c := range hand {
		if IsTrump(c, mode, trumpSuit) {
			out = append(out, c)
		}
	}
	return out
}

func filterAboveTrump(cards []Card, threshold int, mode TrumpMode, trumpSuit Suit) []Card {
	var out []Card
	for _, c := range cards {
		if IsTrump(c, mode, trumpSuit) && Order(c, true) > threshold {
			out = append(out, c)
		}
	}
	return out
}

// ValidatePlay reports whether playing card is legal for seat given hand,
// the current trick, and the contract. It re-derives LegalPlays rather than
// duplicating the rule, so the two can never drift.
func ValidatePlay(hand []Card, trick []TrickEntry, mode TrumpMode, trumpSuit Suit, seat int, card Card) bool {
	for _, c := range LegalPlays(hand, trick, mode, trumpSuit, seat) {
		if c == card {
			return true
		}
	}
	return false
}
