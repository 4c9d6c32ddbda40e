package session

import (
	"context"
	"encoding/json"

	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/room"
	"github.com/mighty/server/internal/transport"
)

// ObserveSession mirrors the player channel without hand contents: an
// observer may chat, but every inbound frame besides "chat" is ignored, and
// every outbound game_state frame has every seat's hand blanked regardless
// of any seat number (Project's isObserver=true).
//
// Grounded on the same client/src/ws/observe.rs role split as PlayerSession,
// and on the teacher's Table.Subscribe omitting hand contents for anyone
// who isn't the requesting player (an observer is nobody's seat).
type ObserveSession struct {
	tr   transport.Transport
	rm   *room.Room
	user room.UserID
	mgr  *Manager
}

// NewObserveSession constructs a session bound to user's spectator slot in
// rm (the caller must already have called rm.Observe(user)).
func NewObserveSession(tr transport.Transport, rm *room.Room, mgr *Manager, user room.UserID) *ObserveSession {
	return &ObserveSession{tr: tr, rm: rm, user: user, mgr: mgr}
}

// Run drives the session until ctx is cancelled or the transport closes.
func (s *ObserveSession) Run(ctx context.Context) {
	info := s.rm.GetInfo()
	events, unsubscribe := s.mgr.Subscribe(info.ID)
	defer unsubscribe()

	_ = s.tr.Send(ctx, "room_info", roomInfoOf(info))

	for {
		select {
		case <-ctx.Done():
			return
		case fr, ok := <-s.tr.Inbound():
			if !ok {
				return
			}
			if fr.Tag == "chat" {
				var text string
				if err := json.Unmarshal(fr.Payload, &text); err == nil {
					s.rm.Chat(s.user, text)
				}
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *ObserveSession) handleEvent(ctx context.Context, ev room.Event) {
	switch ev.Type {
	case room.EventUserJoined, room.EventUserLeft, room.EventHeadChanged, room.EventRoomUpdated:
		_ = s.tr.Send(ctx, "room_info", roomInfoOf(s.rm.GetInfo()))
	case room.EventGameStarted, room.EventGameMove:
		if state, ok := ev.Payload.(engine.State); ok {
			_ = s.tr.Send(ctx, "game_state", Project(state, 0, true))
		}
	case room.EventGameEnded:
		if snap, ok := ev.Payload.(room.GameEndedSnapshot); ok {
			_ = s.tr.Send(ctx, "game_state", Project(snap.State, 0, true))
		}
	case room.EventChat:
		if msg, ok := ev.Payload.(room.ChatMessage); ok {
			_ = s.tr.Send(ctx, "chat", [2]interface{}{msg.Text, msg.From})
		}
	}
}
