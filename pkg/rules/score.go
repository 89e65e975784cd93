package rules

// RoundInput is everything the scoring function needs about one completed
// round: the eight completed tricks in play order, the contract that was
// active, and which seat (if any) played both King and Queen of the trump
// suit during the round.
type RoundInput struct {
	Tricks       []CompletedTrick
	Contract     Contract
	BeloteSeat   int  // -1 if no seat declared Belote/Rebelote
	BeloteExists bool
}

// CompletedTrick is a finalized trick: who played what, who won, and its
// point total. Kept in pkg/rules (rather than pkg/game) so scoring stays a
// pure function of plain values.
type CompletedTrick struct {
	Entries []TrickEntry
	Winner  int
	Points  int
}

// RoundResult is the outcome of scoring one round, before it is folded into
// a Game's cumulative score.
type RoundResult struct {
	TeamAPoints    int
	TeamBPoints    int
	Fulfilled      bool
	CapotTeam      *Team
	BelotePoints   int
	BeloteTeam     *Team
	TeamAAwarded   int // final, rounded, post-multiplier
	TeamBAwarded   int
}

const totalRoundPoints = 162 // 152 card points + 10 dix-de-der

// ScoreRound implements the round-scoring algorithm: card points,
// dix-de-der, Belote/Rebelote, Capot, the fulfilment check, the doubling
// multiplier, and rounding to the nearest 10.
func ScoreRound(in RoundInput) RoundResult {
	var teamA, teamB int
	for i, t := range in.Tricks {
		pts := t.Points
		if i == len(in.Tricks)-1 {
			pts += 10 // dix-de-der
		}
		if SeatTeam(t.Winner) == TeamA {
			teamA += pts
		} else {
			teamB += pts
		}
	}

	result := RoundResult{TeamAPoints: teamA, TeamBPoints: teamB}

	mode, trumpSuit := in.Contract.Kind.TrumpMode()
	_ = trumpSuit

	// Belote/Rebelote: only meaningful when a real trump suit exists.
	if in.BeloteExists && mode != NoTrump {
		team := SeatTeam(in.BeloteSeat)
		result.BeloteTeam = &team
		result.BelotePoints = 20
	}

	// Capot: one team took all eight tricks. A capot's totals (250/500/0)
	// are final and bypass the generic fulfilment reassignment below —
	// otherwise a defending-team capot's fixed 500 would be immediately
	// overwritten by the failed-contract formula, since the declarer's
	// total is trivially 0 after reassignment. Capot is treated as a
	// terminal outcome rather than just a high card-point total.
	capotTeam := soleWinner(in.Tricks)
	if capotTeam != nil {
		declarer := in.Contract.Declarer
		if *capotTeam == declarer {
			teamA, teamB = assignCapot(*capotTeam, 250, 0)
			result.Fulfilled = true
		} else {
			teamA, teamB = assignCapot(*capotTeam, 500, 0)
			result.Fulfilled = false
		}
		result.CapotTeam = capotTeam
	} else {
		declarerPoints := teamA
		if in.Contract.Declarer == TeamB {
			declarerPoints = teamB
		}
		fulfilled := declarerPoints >= in.Contract.Value
		result.Fulfilled = fulfilled

		if !fulfilled {
			// Failed contract: declarer scores 0, defenders score
			// 160 + all round card points (both teams') + dix-de-der,
			// per the Open Question decision recorded in DESIGN.md.
			failValue := 160 + teamA + teamB
			if in.Contract.Declarer == TeamA {
				teamA, teamB = 0, failValue
			} else {
				teamA, teamB = failValue, 0
			}
		}
	}

	if result.BeloteTeam != nil {
		if *result.BeloteTeam == TeamA {
			teamA += result.BelotePoints
		} else {
			teamB += result.BelotePoints
		}
	}

	mult := in.Contract.Multiplier()
	teamA *= mult
	teamB *= mult

	result.TeamAAwarded = roundToNearestTen(teamA)
	result.TeamBAwarded = roundToNearestTen(teamB)
	return result
}

// soleWinner returns the team that won every trick, or nil if the tricks
// were split between the two teams.
func soleWinner(tricks []CompletedTrick) *Team {
	if len(tricks) == 0 {
		return nil
	}
	first := SeatTeam(tricks[0].Winner)
	for _, t := range tricks[1:] {
		if SeatTeam(t.Winner) != first {
			return nil
		}
	}
	return &first
}

func assignCapot(winner Team, winnerScore, loserScore int) (teamA, teamB int) {
	if winner == TeamA {
		return winnerScore, loserScore
	}
	return loserScore, winnerScore
}

// roundToNearestTen rounds n to the nearest multiple of 10, .5 rounding up:
// a value ending in 5 when divided by 10 rounds up.
func roundToNearestTen(n int) int {
	if n < 0 {
		return -roundToNearestTen(-n)
	}
	rem := n % 10
	if rem >= 5 {
		return n - rem + 10
	}
	return n - rem
}

// GameOver reports whether the game has ended given post-round cumulative
// scores and the configured target. Per the Open Question decision in
// DESIGN.md, a simultaneous cross with equal scores does not end the game:
// play continues until one team is strictly ahead while at or past target.
func GameOver(teamA, teamB, target int) (over bool, winner Team) {
	aOver := teamA >= target
	bOver := teamB >= target
	switch {
	case aOver && bOver:
		if teamA == teamB {
			return false, 0
		}
		if teamA > teamB {
			return true, TeamA
		}
		return true, TeamB
	case aOver:
		return true, TeamA
	case bOver:
		return true, TeamB
	default:
		return false, 0
	}
}
