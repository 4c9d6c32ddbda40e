package engine

import (
	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/rule"
)

// Next is the engine's sole entry point: given the current state, the
// acting user, their command, the rule in force, and a source of
// randomness, it returns the next state or an error. Next never mutates
// its arguments; every returned State is a fresh value.
func Next(s State, userID int, cmd Command, r rule.Rule, rng RNG) (State, error) {
	switch s.Phase {
	case PhaseElection:
		return handleElection(s, userID, cmd, r, rng)
	case PhaseSelectFriend:
		return handleSelectFriend(s, userID, cmd, r, rng)
	case PhaseInGame:
		return nextInGame(s, userID, cmd, r, rng)
	case PhaseGameEnded:
		return s, &Error{Kind: KindInvalidCommand, Expected: "no further commands once the hand has ended"}
	default:
		return s, &Error{Kind: KindInternalError, Msg: "unrecognized phase"}
	}
}

func nextInGame(s State, userID int, cmd Command, r rule.Rule, rng RNG) (State, error) {
	switch cmd.Kind {
	case CmdGo:
		return handleGo(s, userID, cmd, r, rng)
	case CmdRandom:
		return handleGo(s, userID, randomLegalGo(s, userID, rng), r, rng)
	default:
		return s, &Error{Kind: KindInvalidCommand, Expected: "Go"}
	}
}

// randomLegalGo picks a uniformly random legal card for userID to play: any
// card when leading (declaring a compatible rush_type for a joker lead), or
// a rush-satisfying card when following if one is held.
func randomLegalGo(s State, userID int, rng RNG) Command {
	hand := s.Hand[userID]
	if userID == *s.StartUser {
		c := hand[rng.Intn(len(hand))]
		rush := c.RushOf()
		return NewGo(c, rush, false)
	}

	legal := make([]card.Card, 0, len(hand))
	for _, c := range hand {
		if s.CurrentRush.IsValid(c) {
			legal = append(legal, c)
		}
	}
	pool := legal
	if len(pool) == 0 {
		pool = hand
	}
	c := pool[rng.Intn(len(pool))]
	return NewGo(c, card.RushNone, false)
}
