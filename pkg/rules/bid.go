package rules

import "fmt"

// Bid is one player's declaration during the bidding phase.
type Bid struct {
	Seat     int
	Kind     ContractKind
	Value    int
	Priority int // ContractKind's ordering; cached so dominance doesn't recompute it
}

// priorityOf ranks a ContractKind for dominance comparison: the higher the
// number, the stronger the bid at equal value.
func priorityOf(k ContractKind) int {
	return int(k)
}

// NewBid builds a Bid with its priority filled in from kind.
func NewBid(seat int, kind ContractKind, value int) Bid {
	return Bid{Seat: seat, Kind: kind, Value: value, Priority: priorityOf(kind)}
}

// BidDominance reports whether candidate strictly dominates prior: value
// strictly greater, or equal value with strictly greater priority.
func BidDominance(prior, candidate Bid) bool {
	if candidate.Value != prior.Value {
		return candidate.Value > prior.Value
	}
	return candidate.Priority > prior.Priority
}

// BidState is the minimal slice of BiddingState the kernel needs to judge
// legality; the caller (pkg/game) owns the full aggregate shape.
type BidState struct {
	CurrentBid *Bid
	Doubled    bool
	Redoubled  bool
	DeclarerOf func(seat int) Team // team owning the current bid's seat, nil when CurrentBid is nil
}

// ValidateBid checks whether candidate is a legal next bid given state. The
// first bid of a round has state.CurrentBid == nil and must meet
// MinBidValue; every subsequent bid must strictly dominate the current one
// and bidding must not already be closed by a double/redouble.
func ValidateBid(state BidState, candidate Bid) error {
	if state.Doubled || state.Redoubled {
		return fmt.Errorf("rules: bidding closed by double/redouble")
	}
	if state.CurrentBid == nil {
		if candidate.Value < MinBidValue {
			return fmt.Errorf("rules: opening bid must be at least %d, got %d", MinBidValue, candidate.Value)
		}
		return nil
	}
	if !BidDominance(*state.CurrentBid, candidate) {
		return fmt.Errorf("rules: bid %d/%v does not dominate current bid %d/%v",
			candidate.Value, candidate.Kind, state.CurrentBid.Value, state.CurrentBid.Kind)
	}
	return nil
}

// ValidateCoinche checks whether seat may double the current bid: a live
// undoubled bid must exist and seat's team must not be the declarer's.
func ValidateCoinche(state BidState, seat int) error {
	if state.CurrentBid == nil {
		return fmt.Errorf("rules: no live bid to coinche")
	}
	if state.Doubled {
		return fmt.Errorf("rules: bid already doubled")
	}
	if state.DeclarerOf(state.CurrentBid.Seat) == SeatTeam(seat) {
		return fmt.Errorf("rules: cannot coinche your own team's bid")
	}
	return nil
}

// ValidateSurcoinche checks whether seat may redouble: the bid must already
// be doubled, not yet redoubled, and seat's team must be the declarer's.
func ValidateSurcoinche(state BidState, seat int) error {
	if state.CurrentBid == nil {
		return fmt.Errorf("rules: no live bid to surcoinche")
	}
	if !state.Doubled {
		return fmt.Errorf("rules: bid not yet doubled")
	}
	if state.Redoubled {
		return fmt.Errorf("rules: bid already redoubled")
	}
	if state.DeclarerOf(state.CurrentBid.Seat) != SeatTeam(seat) {
		return fmt.Errorf("rules: only the declaring team may surcoinche")
	}
	return nil
}
