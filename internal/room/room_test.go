package room

import (
	"testing"

	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/rule"
)

type fakeHub struct {
	removed []RoomID
	counter int
}

func (h *fakeHub) RemoveRoom(id RoomID) { h.removed = append(h.removed, id) }
func (h *fakeHub) MakeGameID() GameID {
	h.counter++
	return GameID("game-fake")
}

func newTestRoom() (*Room, *[]Event) {
	var events []Event
	hub := &fakeHub{}
	rm := New("room-1", "table one", rule.NewRule(), "alice", hub, nil, func(ev Event) {
		events = append(events, ev)
	})
	return rm, &events
}

func TestJoinSeatsIntoFirstOpenSlot(t *testing.T) {
	rm, _ := newTestRoom()
	seat, err := rm.Join("bob")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if seat != 1 {
		t.Fatalf("seat = %d, want 1", seat)
	}
}

func TestJoinRejectsDuplicateUser(t *testing.T) {
	rm, _ := newTestRoom()
	if _, err := rm.Join("alice"); err == nil {
		t.Fatal("expected an error seating a user already at the table")
	}
}

func TestLeaveReassignsHeadToOccupiedSeat(t *testing.T) {
	rm, _ := newTestRoom()
	if _, err := rm.Join("bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := rm.Leave("alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	info := rm.GetInfo()
	if info.Head != "bob" {
		t.Fatalf("Head = %q, want bob (the only remaining occupied seat)", info.Head)
	}
}

func TestLeaveEmptiesRoomTriggersHubRemoval(t *testing.T) {
	var events []Event
	hub := &fakeHub{}
	rm := New("room-2", "solo", rule.NewRule(), "alice", hub, nil, func(ev Event) {
		events = append(events, ev)
	})

	if err := rm.Leave("alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if len(hub.removed) != 1 || hub.removed[0] != "room-2" {
		t.Fatalf("hub.removed = %v, want [room-2]", hub.removed)
	}
}

func TestStartRequiresHeadAndFullSeating(t *testing.T) {
	rm, _ := newTestRoom()
	if _, err := rm.Start("bob", 1); err == nil {
		t.Fatal("expected an error: bob is not the head")
	}
	if _, err := rm.Start("alice", 1); err == nil {
		t.Fatal("expected an error: not every seat is filled")
	}
}

func TestStartAndGoDriveAHand(t *testing.T) {
	rm, events := newTestRoom()
	r := rule.NewRule()
	names := []UserID{"alice", "bob", "carol", "dave", "erin"}
	for _, n := range names[1:] {
		if _, err := rm.Join(n); err != nil {
			t.Fatalf("Join(%s): %v", n, err)
		}
	}

	gid, err := rm.Start("alice", 42)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if gid == "" {
		t.Fatal("expected a non-empty game id")
	}

	info := rm.GetInfo()
	if !info.IsGame {
		t.Fatal("IsGame should be true once a hand has started")
	}

	if err := rm.Go("bob", engine.NewBid(nil, r.Pledge.Min)); err == nil {
		t.Fatal("expected an out-of-turn bid from bob to be rejected")
	}

	foundStarted := false
	for _, ev := range *events {
		if ev.Type == EventGameStarted {
			foundStarted = true
		}
	}
	if !foundStarted {
		t.Fatal("expected an EventGameStarted notification")
	}
}

func TestChangeRuleRejectsSeatCountMismatch(t *testing.T) {
	rm, _ := newTestRoom()
	bad := rule.NewRule()
	bad.UserCnt = 4
	if err := rm.ChangeRule("alice", bad); err == nil {
		t.Fatal("expected a seat-count mismatch error")
	}
}

func TestChangeNameRequiresHead(t *testing.T) {
	rm, _ := newTestRoom()
	if err := rm.ChangeName("bob", "new name"); err == nil {
		t.Fatal("expected an error: bob is not the head")
	}
	if err := rm.ChangeName("alice", "new name"); err != nil {
		t.Fatalf("ChangeName: %v", err)
	}
	if rm.GetInfo().Name != "new name" {
		t.Fatal("name was not updated")
	}
}

func TestRatingDeltasDoublePresidentOnly(t *testing.T) {
	state := engine.State{
		Hand:       make([][]card.Card, 5),
		President:  0,
		WinnerMask: 0b00011, // president (seat 0) and friend (seat 1) won
		Score:      4,
	}
	deltas := ratingDeltas(state)
	want := []int{8, 4, -4, -4, -4}
	for i := range want {
		if deltas[i] != want[i] {
			t.Fatalf("deltas[%d] = %d, want %d (got %v)", i, deltas[i], want[i], deltas)
		}
	}
}
