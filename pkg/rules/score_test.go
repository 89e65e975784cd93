package rules

import "testing"

func trick(winner, points int) CompletedTrick {
	return CompletedTrick{Winner: winner, Points: points}
}

// TestScoreRoundCleanFulfilledContract mirrors the "minimum bid, fulfilled,
// clean round" scenario: team A (declarer, spades 80) captures 82 card
// points plus the last trick, team B captures 70.
func TestScoreRoundCleanFulfilledContract(t *testing.T) {
	tricks := make([]CompletedTrick, 8)
	// Seven tricks split so the raw (pre-dix-de-der) totals are 82/70, team A
	// wins the eighth (last) trick.
	tricks[0] = trick(0, 20)
	tricks[1] = trick(1, 20)
	tricks[2] = trick(0, 20)
	tricks[3] = trick(1, 20)
	tricks[4] = trick(0, 20)
	tricks[5] = trick(1, 20)
	tricks[6] = trick(1, 10)
	tricks[7] = trick(0, 22) // last trick, +10 dix-de-der

	contract := Contract{Kind: KindSpades, Value: 80, Declarer: TeamA}
	result := ScoreRound(RoundInput{Tricks: tricks, Contract: contract})

	if !result.Fulfilled {
		t.Fatalf("expected contract to be fulfilled")
	}
	if result.TeamAAwarded != 90 {
		t.Errorf("expected team A awarded 90, got %d", result.TeamAAwarded)
	}
	if result.TeamBAwarded != 70 {
		t.Errorf("expected team B awarded 70, got %d", result.TeamBAwarded)
	}
}

// TestScoreRoundFailedContract mirrors the "failed contract" scenario: team
// A bids hearts 100, team A collects 60, team B collects 92; declarer
// scores 0, defenders score 160 + 60 + 92 + 10 = 322, rounded to 320.
func TestScoreRoundFailedContract(t *testing.T) {
	tricks := []CompletedTrick{
		trick(0, 30),
		trick(1, 30),
		trick(0, 30),
		trick(1, 30),
		trick(1, 20),
		trick(1, 2),
		trick(1, 0),
		trick(1, 10), // last trick, +10 dix-de-der to team B
	}

	contract := Contract{Kind: KindHearts, Value: 100, Declarer: TeamA}
	result := ScoreRound(RoundInput{Tricks: tricks, Contract: contract})

	if result.Fulfilled {
		t.Fatalf("expected contract to fail")
	}
	if result.TeamAAwarded != 0 {
		t.Errorf("expected declarer to score 0 on a failed contract, got %d", result.TeamAAwarded)
	}
	if result.TeamBAwarded != 320 {
		t.Errorf("expected defenders to score 320, got %d", result.TeamBAwarded)
	}
}

// TestScoreRoundCoincheDoublesStakes mirrors the "coinche doubles the
// stakes" scenario: same clean fulfilled round as above, but doubled, so
// team A ends up at 180 and team B at 140.
func TestScoreRoundCoincheDoublesStakes(t *testing.T) {
	tricks := make([]CompletedTrick, 8)
	tricks[0] = trick(0, 20)
	tricks[1] = trick(1, 20)
	tricks[2] = trick(0, 20)
	tricks[3] = trick(1, 20)
	tricks[4] = trick(0, 20)
	tricks[5] = trick(1, 20)
	tricks[6] = trick(1, 10)
	tricks[7] = trick(0, 22)

	contract := Contract{Kind: KindSpades, Value: 80, Declarer: TeamA, Doubled: true}
	result := ScoreRound(RoundInput{Tricks: tricks, Contract: contract})

	if result.TeamAAwarded != 180 {
		t.Errorf("expected team A awarded 180 after doubling, got %d", result.TeamAAwarded)
	}
	if result.TeamBAwarded != 140 {
		t.Errorf("expected team B awarded 140 after doubling, got %d", result.TeamBAwarded)
	}
}

// TestScoreRoundCapotByDeclarer mirrors the "capot by declarer" scenario:
// team A wins all 8 tricks on a spades-100 contract, so team A is awarded
// 250 before multipliers and team B gets 0.
func TestScoreRoundCapotByDeclarer(t *testing.T) {
	tricks := make([]CompletedTrick, 8)
	for i := range tricks {
		tricks[i] = trick(0, 162/8)
	}
	contract := Contract{Kind: KindSpades, Value: 100, Declarer: TeamA}
	result := ScoreRound(RoundInput{Tricks: tricks, Contract: contract})

	if result.CapotTeam == nil || *result.CapotTeam != TeamA {
		t.Fatalf("expected team A to be flagged as capot winner")
	}
	if result.TeamAAwarded != 250 {
		t.Errorf("expected team A awarded 250 for a declarer capot, got %d", result.TeamAAwarded)
	}
	if result.TeamBAwarded != 0 {
		t.Errorf("expected team B awarded 0, got %d", result.TeamBAwarded)
	}
}

func TestScoreRoundCapotByDefenders(t *testing.T) {
	tricks := make([]CompletedTrick, 8)
	for i := range tricks {
		tricks[i] = trick(1, 162/8)
	}
	contract := Contract{Kind: KindSpades, Value: 100, Declarer: TeamA}
	result := ScoreRound(RoundInput{Tricks: tricks, Contract: contract})

	if result.TeamBAwarded != 500 {
		t.Errorf("expected defenders awarded 500 for a defending capot, got %d", result.TeamBAwarded)
	}
}

func TestRoundToNearestTen(t *testing.T) {
	cases := map[int]int{0: 0, 4: 0, 5: 10, 15: 20, 92: 90, 95: 100, 322: 320}
	for in, want := range cases {
		if got := roundToNearestTen(in); got != want {
			t.Errorf("roundToNearestTen(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestGameOverSimultaneousEqualScoresContinues(t *testing.T) {
	over, _ := GameOver(1000, 1000, 1000)
	if over {
		t.Error("equal simultaneous crossing of the target should not end the game")
	}
}

func TestGameOverHigherScoreWinsOnSimultaneousCross(t *testing.T) {
	over, winner := GameOver(1010, 1000, 1000)
	if !over || winner != TeamA {
		t.Errorf("expected team A to win, got over=%v winner=%v", over, winner)
	}
}

func TestGameOverRequiresCrossingTarget(t *testing.T) {
	over, _ := GameOver(990, 500, 1000)
	if over {
		t.Error("game should not be over until a team reaches the target")
	}
}
