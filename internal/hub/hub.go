// Package hub is the server-wide registry of rooms and connected users: it
// mints ids, owns the map of live *room.Room actors, and tracks which
// connection belongs to which user.
//
// Like a Room, a Hub is a message-passing, single-writer actor: the id
// counter and both registries are owned exclusively by one goroutine, and
// every exported method is a thin call() wrapper that hands a closure to it
// over a channel and blocks for the result — the same pattern internal/room
// adopted from the ebiten-fullstack-template hub.go select loop, applied here
// to the original actor's id generator (a name-spaced UUIDv5 over a counter)
// and the teacher's Server.tables registry (pkg/server/server.go).
package hub

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mighty/server/internal/room"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/store"
)

// Connection is the minimal capability a Hub needs from a connected user's
// transport, kept narrow so internal/transport implementations need not
// depend on this package beyond satisfying this interface.
type Connection interface {
	// UserID identifies the connected user (stable across reconnects).
	UserID() room.UserID
}

// Hub is the process-wide registry of rooms and connected users.
type Hub struct {
	inbox chan func()

	rooms map[room.RoomID]*room.Room
	users map[room.UserID]Connection

	store   store.Store
	publish room.EventPublisher

	counter uint64

	vacate map[room.UserID]*time.Timer
}

// New creates an empty Hub backed by st (which may be nil for a
// non-persistent, in-memory server), wires publish (which may be nil) as the
// EventPublisher every Room it creates will use, and starts its actor
// goroutine.
func New(st store.Store, publish room.EventPublisher) *Hub {
	h := &Hub{
		inbox:   make(chan func()),
		rooms:   make(map[room.RoomID]*room.Room),
		users:   make(map[room.UserID]Connection),
		store:   st,
		publish: publish,
		vacate:  make(map[room.UserID]*time.Timer),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for fn := range h.inbox {
		fn()
	}
}

func (h *Hub) call(fn func()) {
	done := make(chan struct{})
	h.inbox <- func() {
		fn()
		close(done)
	}
	<-done
}

// LoadFromStore repopulates the Hub's room registry from persisted lobby
// metadata, used on startup to recover rooms that existed before a restart.
// Room.Restore performs its own Store I/O outside the Hub's actor loop (it
// is not yet registered, so nothing else can observe it mid-construction);
// only the final registry insert runs on the actor.
func (h *Hub) LoadFromStore() error {
	if h.store == nil {
		return nil
	}
	ids, err := h.store.ListRoomIDs()
	if err != nil {
		return fmt.Errorf("hub: list rooms: %w", err)
	}
	for _, id := range ids {
		rec, err := h.store.LoadRoom(id)
		if err != nil {
			return fmt.Errorf("hub: load room %s: %w", id, err)
		}
		r, err := h.store.LoadRule(rec.RuleHash)
		if err != nil {
			return fmt.Errorf("hub: load rule for room %s: %w", id, err)
		}
		rm, err := room.Restore(rec, r, h, h.store, h.publish)
		if err != nil {
			return fmt.Errorf("hub: restore room %s: %w", id, err)
		}
		h.call(func() { h.rooms[room.RoomID(id)] = rm })
	}
	return nil
}

// MakeRoom creates and registers a new room named name, under r, with head
// as its sole initial occupant. room.New starts the new Room's own actor
// goroutine outside any Hub call(), so the Hub's actor is never held across
// the two.
func (h *Hub) MakeRoom(name string, r rule.Rule, head room.UserID) *room.Room {
	id := room.RoomID(h.generateUUID("room"))
	rm := room.New(id, name, r, head, h, h.store, h.publish)
	if h.store != nil {
		_ = h.store.SaveRule(r)
	}

	h.call(func() { h.rooms[id] = rm })
	return rm
}

// GetRoom looks up a room by id.
func (h *Hub) GetRoom(id room.RoomID) (*room.Room, bool) {
	var rm *room.Room
	var ok bool
	h.call(func() { rm, ok = h.rooms[id] })
	return rm, ok
}

// ListRooms returns a snapshot slice of every registered room's lobby info.
//
// GetInfo is itself a call into the target Room's actor, so it is invoked
// only after the Hub's own call() has returned: a Room that is removing
// itself calls back into the Hub, and that must never wait on a Hub blocked
// on the Room.
func (h *Hub) ListRooms() []room.Info {
	var rooms []*room.Room
	h.call(func() {
		rooms = make([]*room.Room, 0, len(h.rooms))
		for _, rm := range h.rooms {
			rooms = append(rooms, rm)
		}
	})
	out := make([]room.Info, len(rooms))
	for i, rm := range rooms {
		out[i] = rm.GetInfo()
	}
	return out
}

// RemoveRoom unregisters a room, called by a Room itself once it empties.
// Satisfies room.HubHandle.
func (h *Hub) RemoveRoom(id room.RoomID) {
	h.call(func() { delete(h.rooms, id) })
}

// MakeGameID mints a fresh game id. Satisfies room.HubHandle.
func (h *Hub) MakeGameID() room.GameID {
	return room.GameID(h.generateUUID("game"))
}

// Connect registers a user's live connection, replacing any prior one for
// the same user (a reconnect).
func (h *Hub) Connect(u room.UserID, conn Connection) {
	h.call(func() { h.users[u] = conn })
}

// GetUser looks up a connected user's connection.
func (h *Hub) GetUser(u room.UserID) (Connection, bool) {
	var conn Connection
	var ok bool
	h.call(func() { conn, ok = h.users[u] })
	return conn, ok
}

// Disconnect removes a user's live connection (the user's seat in any room
// they occupy is left untouched — disconnect is not the same as leaving).
func (h *Hub) Disconnect(u room.UserID) {
	h.call(func() { delete(h.users, u) })
}

// ScheduleVacate arms a RECONNECTION_TIME timer for u: if CancelVacate isn't
// called for u before after elapses, u is removed from rm (vacating its
// seat or observer slot). Re-arming (a second disconnect before the first
// timer fires) replaces the pending timer rather than stacking another one.
//
// Grounded on the teacher's poker.Game.scheduleAutoStart/cancelAutoStart
// pair (game.go): a self-cancelling time.AfterFunc held in a field, reset
// on every call rather than left to accumulate. This folds the historical
// source's separate User actor's Offline-transition timer into the Hub,
// since nothing else in this repo needs User status as a first-class value
// beyond "is a seat still reserved for this disconnected player" — see
// DESIGN.md's Open Question decision for the User actor.
func (h *Hub) ScheduleVacate(u room.UserID, rm *room.Room, after time.Duration) {
	h.call(func() {
		if t, ok := h.vacate[u]; ok {
			t.Stop()
		}
		h.vacate[u] = time.AfterFunc(after, func() {
			_ = rm.Leave(u)
			h.call(func() { delete(h.vacate, u) })
		})
	})
}

// CancelVacate disarms u's pending RECONNECTION_TIME timer, if any — called
// when u reconnects before its seat was vacated.
func (h *Hub) CancelVacate(u room.UserID) {
	h.call(func() {
		if t, ok := h.vacate[u]; ok {
			t.Stop()
			delete(h.vacate, u)
		}
	})
}

var _ room.HubHandle = (*Hub)(nil)

// generateUUID mints a name-spaced, collision-resistant id: a UUIDv5 over
// tag, the current time, and a monotonic counter, mirroring the original
// hub actor's id generator. The counter increment runs on the actor so
// concurrent callers never observe a repeated value.
func (h *Hub) generateUUID(tag string) string {
	var n uint64
	h.call(func() {
		h.counter++
		n = h.counter
	})
	name := fmt.Sprintf("%s-%d-%d", tag, time.Now().UnixNano(), n)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
