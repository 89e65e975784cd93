package game

import "github.com/coinche/core/pkg/statemachine"

// State functions following Rob Pike's pattern. Each function's real
// work — dealing, bid bookkeeping, trick resolution — happens inside
// actions.go under the aggregate's lock;
// these functions exist so every phase transition also fires through
// stateMachine.Dispatch, giving callers a uniform (stateName, event) hook
// for logging independent of which action method caused the transition.

func stateInitial(entity *Game, callback func(stateName string, event statemachine.StateEvent)) GameStateFn {
	if callback != nil {
		callback("initial", statemachine.StateEntered)
	}
	switch entity.phase {
	case PhaseBidding:
		return stateBidding
	case PhaseCompleted:
		return stateCompleted
	default:
		return stateInitial
	}
}

func stateBidding(entity *Game, callback func(stateName string, event statemachine.StateEvent)) GameStateFn {
	if callback != nil {
		callback("bidding", statemachine.StateEntered)
	}
	switch entity.phase {
	case PhasePlaying:
		return statePlaying
	case PhaseInitial:
		return stateInitial
	case PhaseCompleted:
		return stateCompleted
	default:
		return stateBidding
	}
}

func statePlaying(entity *Game, callback func(stateName string, event statemachine.StateEvent)) GameStateFn {
	if callback != nil {
		callback("playing", statemachine.StateEntered)
	}
	switch entity.phase {
	case PhaseScoring:
		return stateScoring
	case PhaseCompleted:
		return stateCompleted
	default:
		return statePlaying
	}
}

func stateScoring(entity *Game, callback func(stateName string, event statemachine.StateEvent)) GameStateFn {
	if callback != nil {
		callback("scoring", statemachine.StateEntered)
	}
	switch entity.phase {
	case PhaseBidding:
		return stateBidding
	case PhaseCompleted:
		return stateCompleted
	default:
		return stateScoring
	}
}

func stateCompleted(entity *Game, callback func(stateName string, event statemachine.StateEvent)) GameStateFn {
	if callback != nil {
		callback("completed", statemachine.StateEntered)
	}
	return nil
}

// advancePhase re-enters the state machine once so its current stateFn
// reflects entity.phase, firing the (stateName, event) callback for the
// phase just crossed through logPhaseTransition. Must be called with g.mu
// held. Called once per phase transition rather than looped, since Game's
// phase field (not the stateFn chain) is the authoritative driver — this
// only keeps the chain's notifications, and the debug log they drive, in
// sync.
func (g *Game) advancePhase() {
	g.stateMachine.Dispatch(g.logPhaseTransition)
}

// logPhaseTransition is the callback every phase's state function invokes
// when Dispatch runs it; it is the one observable effect of routing
// transitions through stateMachine rather than just assigning g.phase
// directly. Dispatch runs the state function of the phase being left, so
// stateName names that phase, not the one g.phase now holds.
func (g *Game) logPhaseTransition(stateName string, event statemachine.StateEvent) {
	g.log.Debugf("game %s: phase machine leaving %s (event=%v)", g.id, stateName, event)
}
