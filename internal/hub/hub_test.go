package hub

import (
	"testing"

	"github.com/mighty/server/internal/room"
	"github.com/mighty/server/internal/rule"
)

type fakeConn struct{ id room.UserID }

func (c fakeConn) UserID() room.UserID { return c.id }

func TestMakeRoomRegistersAndIsFindable(t *testing.T) {
	h := New(nil, nil)
	rm := h.MakeRoom("table one", rule.NewRule(), "alice")

	info := rm.GetInfo()
	got, ok := h.GetRoom(info.ID)
	if !ok {
		t.Fatal("room not registered")
	}
	if got != rm {
		t.Fatal("GetRoom returned a different *room.Room")
	}
}

func TestMakeGameIDsAreUnique(t *testing.T) {
	h := New(nil, nil)
	a := h.MakeGameID()
	b := h.MakeGameID()
	if a == b {
		t.Fatalf("MakeGameID produced a duplicate: %s", a)
	}
}

func TestRoomSelfRemovesFromHubWhenEmptied(t *testing.T) {
	h := New(nil, nil)
	rm := h.MakeRoom("solo", rule.NewRule(), "alice")
	info := rm.GetInfo()

	if err := rm.Leave("alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	if _, ok := h.GetRoom(info.ID); ok {
		t.Fatal("expected the room to be unregistered once it emptied")
	}
}

func TestConnectAndDisconnect(t *testing.T) {
	h := New(nil, nil)
	h.Connect("alice", fakeConn{id: "alice"})

	conn, ok := h.GetUser("alice")
	if !ok || conn.UserID() != "alice" {
		t.Fatal("expected alice's connection to be registered")
	}

	h.Disconnect("alice")
	if _, ok := h.GetUser("alice"); ok {
		t.Fatal("expected alice's connection to be gone after Disconnect")
	}
}

func TestListRooms(t *testing.T) {
	h := New(nil, nil)
	h.MakeRoom("one", rule.NewRule(), "alice")
	h.MakeRoom("two", rule.NewRule(), "bob")

	rooms := h.ListRooms()
	if len(rooms) != 2 {
		t.Fatalf("ListRooms returned %d rooms, want 2", len(rooms))
	}
}
