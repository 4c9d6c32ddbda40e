package session

import (
	"context"
	"time"

	"github.com/mighty/server/internal/room"
	"github.com/mighty/server/internal/transport"
)

// listPollInterval mirrors the teacher's Table.Subscribe ticker period; a
// lobby listing has no natural single upstream event stream the way one
// Room's own state does; polling the Hub's registry on a fixed tick is both
// simpler and matches that precedent directly rather than inventing a
// separate room-created/room-removed broadcast channel on the Hub.
const listPollInterval = 2 * time.Second

// SimpleRoomInfo is the compacted room summary a list session receives,
// grounded on the original's SimpleRoomInfo projection of RoomInfo (name,
// seat occupancy, whether a hand is underway — not the full roster or rule).
type SimpleRoomInfo struct {
	ID       room.RoomID `json:"id"`
	Name     string      `json:"name"`
	SeatCnt  int         `json:"seat_cnt"`
	Occupied int         `json:"occupied"`
	IsGame   bool        `json:"is_game"`
}

func simplify(info room.Info) SimpleRoomInfo {
	occupied := 0
	for _, u := range info.Users {
		if u != "" {
			occupied++
		}
	}
	return SimpleRoomInfo{
		ID:       info.ID,
		Name:     info.Name,
		SeatCnt:  len(info.Users),
		Occupied: occupied,
		IsGame:   info.IsGame,
	}
}

// RoomLister is the slice of Hub a ListSession needs to enumerate rooms,
// kept narrow and local to avoid importing internal/hub.
type RoomLister interface {
	ListRooms() []room.Info
}

// ListSession subscribes a lobby-browser connection to room-listing updates
// only: no seating, no chat, no game state — just a periodic compacted
// snapshot of every known room, one "room" frame per room per tick.
//
// Grounded on client/src/ws/observe.rs's ListSession role (tag "list",
// receiving ListToClient::Room(SimpleRoomInfo) deltas) and mechanically on
// the teacher's Table.Subscribe ticker loop.
type ListSession struct {
	tr     transport.Transport
	lister RoomLister
}

// NewListSession constructs a session that polls lister for its lifetime.
func NewListSession(tr transport.Transport, lister RoomLister) *ListSession {
	return &ListSession{tr: tr, lister: lister}
}

// Run drives the session until ctx is cancelled or the transport closes.
// Inbound frames are ignored entirely — a list session is receive-only.
func (s *ListSession) Run(ctx context.Context) {
	ticker := time.NewTicker(listPollInterval)
	defer ticker.Stop()

	s.pushAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-s.tr.Inbound():
			if !ok {
				return
			}
		case <-ticker.C:
			s.pushAll(ctx)
		}
	}
}

func (s *ListSession) pushAll(ctx context.Context) {
	for _, info := range s.lister.ListRooms() {
		_ = s.tr.Send(ctx, "room", simplify(info))
	}
}
