package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/room"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/transport"
)

// roomInfoFrame is the outbound wire shape for the "room_info" tag.
type roomInfoFrame struct {
	ID          room.RoomID   `json:"id"`
	Name        string        `json:"name"`
	Users       []room.UserID `json:"users"`
	Head        room.UserID   `json:"head"`
	IsGame      bool          `json:"is_game"`
	ObserverCnt int           `json:"observer_cnt"`
}

func roomInfoOf(info room.Info) roomInfoFrame {
	return roomInfoFrame{
		ID:          info.ID,
		Name:        info.Name,
		Users:       info.Users,
		Head:        info.Head,
		IsGame:      info.IsGame,
		ObserverCnt: info.ObserverCnt,
	}
}

// PlayerSession adapts one seated player's Transport to its Room: frames in
// become Start/ChangeName/ChangeRule/Go/Chat calls, Room events out become
// room_info/game_state/chat frames with the player's own seat's hand the
// only one left unredacted.
//
// Grounded on client/src/ws/room_user.rs's UserSession (tag "room";
// RoomUserToServer::{Start,ChangeName,ChangeRule,Command} in, ("room_info" |
// "game_state" | "chat", payload) out) — reimplemented server-side since
// this repo's session adapters live on the server, not in a wasm client.
type PlayerSession struct {
	tr   transport.Transport
	rm   *room.Room
	user room.UserID
	seat int
	mgr  *Manager

	dealSeed int64 // 0 means "derive a fresh seed from time.Now() per deal"
}

// NewPlayerSession constructs a session bound to user's existing seat in rm
// (seat must already have been assigned, e.g. by a prior rm.Join call made
// by the connection handler before handing off to a session).
func NewPlayerSession(tr transport.Transport, rm *room.Room, mgr *Manager, user room.UserID, seat int) *PlayerSession {
	return &PlayerSession{tr: tr, rm: rm, user: user, seat: seat, mgr: mgr}
}

// SetDealSeed fixes the RNG seed every subsequent "start" frame deals with,
// overriding the default of a fresh time.Now()-derived seed per hand. Used
// by cmd/mightysrv's -seed flag to make e2e test runs reproducible.
func (s *PlayerSession) SetDealSeed(seed int64) { s.dealSeed = seed }

// Run drives the session until ctx is cancelled or the transport closes.
// Per the Scheduling model's cancellation rule, a disconnect here leaves the
// seat occupied; the RECONNECTION_TIME vacancy timer is the Hub's
// ScheduleVacate, armed by the connection handler, not this adapter.
func (s *PlayerSession) Run(ctx context.Context) {
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
			s.handleFrame(fr)
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

// handleFrame applies one inbound frame. Parsing failures are dropped
// silently rather than closing the session — §4.7 reserves session closure
// for the transport's own frame-delimiting failures.
func (s *PlayerSession) handleFrame(fr transport.Frame) {
	switch fr.Tag {
	case "start":
		seed := s.dealSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		_, _ = s.rm.Start(s.user, seed)
	case "change_name":
		var name string
		if err := json.Unmarshal(fr.Payload, &name); err != nil {
			return
		}
		_ = s.rm.ChangeName(s.user, name)
	case "change_rule":
		var r rule.Rule
		if err := json.Unmarshal(fr.Payload, &r); err != nil {
			return
		}
		_ = s.rm.ChangeRule(s.user, r)
	case "command":
		cmd, err := decodeCommand(fr.Payload)
		if err != nil {
			return
		}
		_ = s.rm.Go(s.user, cmd)
	case "chat":
		var text string
		if err := json.Unmarshal(fr.Payload, &text); err == nil {
			s.rm.Chat(s.user, text)
		}
	}
}

func (s *PlayerSession) handleEvent(ctx context.Context, ev room.Event) {
	switch ev.Type {
	case room.EventUserJoined, room.EventUserLeft, room.EventHeadChanged, room.EventRoomUpdated:
		_ = s.tr.Send(ctx, "room_info", roomInfoOf(s.rm.GetInfo()))
	case room.EventGameStarted, room.EventGameMove:
		if state, ok := ev.Payload.(engine.State); ok {
			_ = s.tr.Send(ctx, "game_state", Project(state, s.seat, false))
		}
	case room.EventGameEnded:
		if snap, ok := ev.Payload.(room.GameEndedSnapshot); ok {
			_ = s.tr.Send(ctx, "game_state", Project(snap.State, s.seat, false))
		}
	case room.EventChat:
		if msg, ok := ev.Payload.(room.ChatMessage); ok {
			_ = s.tr.Send(ctx, "chat", [2]interface{}{msg.Text, msg.From})
		}
	}
}
