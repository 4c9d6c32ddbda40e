// Package game wraps the pure engine state machine with a phase-lifecycle
// notification layer, so a Room can log or broadcast on phase transitions
// without the engine itself knowing about observers.
package game

import (
	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/statemachine"
)

// Game owns one hand's mutable state: the rule in force, the current
// engine.State, a monotonic count of applied commands, and the RNG capable
// of reproducing this hand's dealing and tie-breaks.
type Game struct {
	rule          rule.Rule
	state         engine.State
	historyNumber uint64
	rng           engine.RNG
	sm            *statemachine.Machine[Game]
	observer      statemachine.Observer
}

// New deals a fresh hand under r and wires obs (which may be nil) to
// receive phase-entered/phase-exited notifications as the hand progresses.
func New(r rule.Rule, rng engine.RNG, obs statemachine.Observer) *Game {
	g := &Game{rule: r, rng: rng, observer: obs}
	g.state = engine.NewState(r, rng)
	g.sm = statemachine.New(g, phaseFnFor(g.state.Phase))
	return g
}

// Restore rehydrates a Game directly from a persisted state, without
// re-dealing or firing entry notifications for the restored phase — used
// when a Room reloads from the Store after a restart (see internal/store).
func Restore(r rule.Rule, state engine.State, historyNumber uint64, rng engine.RNG, obs statemachine.Observer) *Game {
	g := &Game{rule: r, state: state, historyNumber: historyNumber, rng: rng, observer: obs}
	g.sm = statemachine.New(g, phaseFnFor(state.Phase))
	return g
}

// Next applies cmd from userID and reports whether the hand has concluded.
// On error the Game's state is left untouched.
func (g *Game) Next(userID int, cmd engine.Command) (finished bool, err error) {
	next, err := engine.Next(g.state, userID, cmd, g.rule, g.rng)
	if err != nil {
		return g.state.IsFinished(), err
	}
	g.state = next
	g.historyNumber++
	g.sm.Dispatch(g.observer)
	return g.state.IsFinished(), nil
}

// GetState returns the current engine state.
func (g *Game) GetState() engine.State { return g.state }

// Rule returns the rule this hand is being played under.
func (g *Game) Rule() rule.Rule { return g.rule }

// HistoryNumber returns the count of commands successfully applied so far.
func (g *Game) HistoryNumber() uint64 { return g.historyNumber }

// ValidUsers reports which seats may act next.
func (g *Game) ValidUsers() uint8 { return g.state.ValidUsers(g.rule) }

func phaseFnFor(p engine.Phase) statemachine.PhaseFn[Game] {
	switch p {
	case engine.PhaseElection:
		return electionPhase
	case engine.PhaseSelectFriend:
		return selectFriendPhase
	case engine.PhaseInGame:
		return inGamePhase
	default:
		return gameEndedPhase
	}
}

func electionPhase(g *Game, obs statemachine.Observer) statemachine.PhaseFn[Game] {
	return transition(g, engine.PhaseElection.String(), obs)
}

func selectFriendPhase(g *Game, obs statemachine.Observer) statemachine.PhaseFn[Game] {
	return transition(g, engine.PhaseSelectFriend.String(), obs)
}

func inGamePhase(g *Game, obs statemachine.Observer) statemachine.PhaseFn[Game] {
	return transition(g, engine.PhaseInGame.String(), obs)
}

func gameEndedPhase(g *Game, obs statemachine.Observer) statemachine.PhaseFn[Game] {
	return transition(g, engine.PhaseGameEnded.String(), obs)
}

// transition fires Exited(from)/Entered(to) when the engine has moved the
// game into a new phase since this PhaseFn was last installed, then returns
// the PhaseFn for wherever the game currently stands.
func transition(g *Game, from string, obs statemachine.Observer) statemachine.PhaseFn[Game] {
	to := g.state.Phase.String()
	if to != from && obs != nil {
		obs(from, statemachine.PhaseExited)
		obs(to, statemachine.PhaseEntered)
	}
	return phaseFnFor(g.state.Phase)
}
