// Package session adapts the three transport-facing roles — a seated
// player, an observer, and a lobby lister — onto a *room.Room, translating
// frames to Room calls and Room events back to frames.
package session

import (
	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/engine"
)

// Project redacts an engine.State for one recipient before it is serialized
// into a frame: every seat's hand other than viewerSeat is blanked, and the
// president's chosen friend is blanked unless the hand has already revealed
// it (state.IsFriendKnown). isObserver blanks every hand, viewerSeat
// included, since an observer holds no seat of its own.
//
// Grounded on the teacher's Table.Subscribe, which includes a seat's hand in
// a broadcast only "if this is the requesting player's own data or if the
// game is in showdown phase" — generalized here to Mighty's per-command
// visibility (there is no single showdown event; a hand stays private for
// its entire life unless the viewer owns it) and to friend-identity
// redaction, which poker has no equivalent of.
func Project(state engine.State, viewerSeat int, isObserver bool) engine.State {
	out := state

	if len(state.Hand) > 0 {
		out.Hand = make([][]card.Card, len(state.Hand))
		for i := range state.Hand {
			if !isObserver && i == viewerSeat {
				out.Hand[i] = state.Hand[i]
			}
		}
	}

	if !state.IsFriendKnown {
		out.Friend = nil
	}

	return out
}
