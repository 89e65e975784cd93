package rules

// Team identifies one of the two partnerships. Seat i belongs to TeamA if
// i is even, TeamB otherwise.
type Team int

const (
	TeamA Team = iota
	TeamB
)

func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// SeatTeam returns the team owning seat index i.
func SeatTeam(seat int) Team {
	if seat%2 == 0 {
		return TeamA
	}
	return TeamB
}

// ContractKind names what a contract declares: one of the four trump
// suits, no-trump, or all-trump, ordered by priority (clubs < diamonds <
// hearts < spades < no-trump < all-trump).
type ContractKind int

const (
	KindClubs ContractKind = iota
	KindDiamonds
	KindHearts
	KindSpades
	KindNoTrump
	KindAllTrump
)

// kindSuit maps the four fixed-trump kinds to their Suit; zero value for
// the other two kinds is never consulted (see TrumpMode/trumpSuit below).
var kindSuit = map[ContractKind]Suit{
	KindClubs:    Clubs,
	KindDiamonds: Diamonds,
	KindHearts:   Hearts,
	KindSpades:   Spades,
}

// TrumpMode returns the trump evaluation mode and, for FixedTrump, the
// trump suit for this contract kind.
func (k ContractKind) TrumpMode() (TrumpMode, Suit) {
	switch k {
	case KindNoTrump:
		return NoTrump, ""
	case KindAllTrump:
		return AllTrump, ""
	default:
		return FixedTrump, kindSuit[k]
	}
}

// MinBidValue is the minimum value any opening bid may declare.
const MinBidValue = 80

// Contract is the declaring team's commitment, installed once bidding
// resolves.
type Contract struct {
	Kind       ContractKind
	Value      int
	Doubled    bool
	Redoubled  bool
	Declarer   Team
	DeclaredBy int // seat index of the player whose bid won
}

// NormalizationCoefficient is the factor for card-point totals compared
// against the contract value under all-trump and no-trump, where raw totals
// aren't directly comparable to a suited contract's. It is 1, and ScoreRound
// compares raw totals without applying it; see DESIGN.md's Open Question
// decisions.
const NormalizationCoefficient = 1

// Multiplier returns the score multiplier implied by doubling state.
func (c Contract) Multiplier() int {
	switch {
	case c.Redoubled:
		return 4
	case c.Doubled:
		return 2
	default:
		return 1
	}
}
