package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mighty/server/internal/room"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/transport"
)

// fakeTransport is an in-memory transport.Transport for tests: Send appends
// to Sent, and test code feeds Inbound by writing to In directly.
type fakeTransport struct {
	In   chan transport.Frame
	Sent []transport.Frame
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{In: make(chan transport.Frame, 16)}
}

func (f *fakeTransport) Send(_ context.Context, tag string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.Sent = append(f.Sent, transport.Frame{Tag: tag, Payload: b})
	return nil
}

func (f *fakeTransport) Inbound() <-chan transport.Frame { return f.In }
func (f *fakeTransport) Err() error                      { return nil }
func (f *fakeTransport) Close() error                     { close(f.In); return nil }

type fakeHub struct{ counter int }

func (h *fakeHub) RemoveRoom(room.RoomID) {}
func (h *fakeHub) MakeGameID() room.GameID {
	h.counter++
	return room.GameID("game-1")
}

func waitForTag(t *testing.T, tr *fakeTransport, tag string, timeout time.Duration) transport.Frame {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, fr := range tr.Sent {
			if fr.Tag == tag {
				return fr
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for a %q frame; got %+v", tag, tr.Sent)
	return transport.Frame{}
}

func TestPlayerSessionStartAndMove(t *testing.T) {
	hub := &fakeHub{}
	mgr := NewManager()
	rm := room.New("room-1", "table", rule.NewRule(), "alice", hub, nil, mgr.Publish)
	for _, u := range []room.UserID{"bob", "carol", "dave", "erin"} {
		if _, err := rm.Join(u); err != nil {
			t.Fatalf("Join(%s): %v", u, err)
		}
	}

	tr := newFakeTransport()
	sess := NewPlayerSession(tr, rm, mgr, "alice", 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	tr.In <- transport.Frame{Tag: "start", Payload: []byte("null")}
	waitForTag(t, tr, "game_state", time.Second)

	info := rm.GetInfo()
	if !info.IsGame {
		t.Fatal("expected a hand to have started")
	}
}

func TestObserveSessionNeverSeesHands(t *testing.T) {
	hub := &fakeHub{}
	mgr := NewManager()
	rm := room.New("room-2", "table", rule.NewRule(), "alice", hub, nil, mgr.Publish)
	for _, u := range []room.UserID{"bob", "carol", "dave", "erin"} {
		if _, err := rm.Join(u); err != nil {
			t.Fatalf("Join(%s): %v", u, err)
		}
	}
	rm.Observe("spectator")

	tr := newFakeTransport()
	sess := NewObserveSession(tr, rm, mgr, "spectator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)
	// Run sends room_info only after subscribing to the room's events.
	waitForTag(t, tr, "room_info", time.Second)

	if _, err := rm.Start("alice", 7); err != nil {
		t.Fatalf("Start: %v", err)
	}

	fr := waitForTag(t, tr, "game_state", time.Second)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(fr.Payload, &raw); err != nil {
		t.Fatalf("unmarshal game_state: %v", err)
	}
	var hands []json.RawMessage
	if err := json.Unmarshal(raw["Hand"], &hands); err != nil {
		t.Fatalf("unmarshal Hand: %v", err)
	}
	for i, h := range hands {
		if string(h) != "null" {
			t.Fatalf("seat %d hand should be null for an observer, got %s", i, h)
		}
	}
}

func TestListSessionPublishesRoomSummaries(t *testing.T) {
	hub := &fakeHub{}
	mgr := NewManager()
	rm := room.New("room-3", "lobby table", rule.NewRule(), "alice", hub, nil, mgr.Publish)

	lister := &fakeLister{rooms: []room.Info{rm.GetInfo()}}
	tr := newFakeTransport()
	sess := NewListSession(tr, lister)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	fr := waitForTag(t, tr, "room", time.Second)
	var summary SimpleRoomInfo
	if err := json.Unmarshal(fr.Payload, &summary); err != nil {
		t.Fatalf("unmarshal room summary: %v", err)
	}
	if summary.Name != "lobby table" {
		t.Fatalf("summary.Name = %q, want %q", summary.Name, "lobby table")
	}
}

type fakeLister struct{ rooms []room.Info }

func (l *fakeLister) ListRooms() []room.Info { return l.rooms }
