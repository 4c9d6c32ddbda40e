package session

import (
	"testing"

	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/engine"
)

func sampleState() engine.State {
	friend := 2
	return engine.State{
		Hand: [][]card.Card{
			{card.NewNormal(card.Spade, 1)},
			{card.NewNormal(card.Heart, 2)},
			{card.NewNormal(card.Clover, 3)},
		},
		President:     0,
		Friend:        &friend,
		IsFriendKnown: false,
	}
}

func TestProjectHidesOtherSeatsHands(t *testing.T) {
	state := sampleState()
	out := Project(state, 1, false)

	if out.Hand[1] == nil {
		t.Fatal("viewer's own hand should remain visible")
	}
	if out.Hand[0] != nil || out.Hand[2] != nil {
		t.Fatal("other seats' hands should be blanked")
	}
}

func TestProjectHidesEveryHandForObservers(t *testing.T) {
	state := sampleState()
	out := Project(state, 0, true)

	for i, h := range out.Hand {
		if h != nil {
			t.Fatalf("seat %d hand should be blanked for an observer", i)
		}
	}
}

func TestProjectHidesFriendUntilKnown(t *testing.T) {
	state := sampleState()
	out := Project(state, 0, false)
	if out.Friend != nil {
		t.Fatal("friend identity should be blanked while unknown")
	}

	state.IsFriendKnown = true
	out = Project(state, 0, false)
	if out.Friend == nil || *out.Friend != 2 {
		t.Fatal("friend identity should be revealed once known")
	}
}
