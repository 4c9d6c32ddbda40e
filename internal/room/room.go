// Package room implements the lobby-and-table actor a group of players sit
// at: seating, naming, rule changes, starting a hand, and forwarding moves
// into the pure engine via internal/game.
//
// A Room is a message-passing, single-writer actor: one goroutine owns all
// of its state and processes one request to completion before accepting the
// next, grounded on the register/unregister/broadcast select-loop style of
// a classic Go websocket hub (see other_examples' ebiten-fullstack-template
// hub.go) generalized from three fixed channels to one channel of request
// closures, since a Room has far more distinct operations than a chat hub.
// Exported methods never touch Room state directly; they build a closure,
// hand it to the actor goroutine over a channel, and block for its result.
package room

import (
	"fmt"
	"time"

	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/game"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/statemachine"
	"github.com/mighty/server/internal/store"
)

// RoomID, UserID and GameID are defined locally (rather than imported from
// internal/hub) so that hub can hold *Room values without room importing
// hub back.
type RoomID string
type UserID string
type GameID string

// HubHandle is the slice of the Hub registry a Room needs. Kept narrow and
// local to this package to avoid the import cycle described above.
type HubHandle interface {
	RemoveRoom(RoomID)
	MakeGameID() GameID
}

// EventType enumerates the kinds of change a Room publishes to subscribers.
type EventType string

const (
	EventUserJoined   EventType = "user_joined"
	EventUserLeft     EventType = "user_left"
	EventHeadChanged  EventType = "head_changed"
	EventRoomUpdated  EventType = "room_updated"
	EventGameStarted  EventType = "game_started"
	EventGameMove     EventType = "game_move"
	EventGameEnded    EventType = "game_ended"
	EventChat         EventType = "chat"
	EventPhaseEntered EventType = "phase_entered"
)

// Event is a published, immutable notification. Payload is one of the
// *Snapshot types below depending on Type.
type Event struct {
	Type    EventType
	RoomID  RoomID
	Payload interface{}
}

// EventPublisher receives every Event a Room emits. Called from the Room's
// own actor goroutine; a slow publisher stalls that one room only, so
// internal/session's fan-out must not block on a slow peer here.
type EventPublisher func(ev Event)

// ChatMessage is the payload of an EventChat event.
type ChatMessage struct {
	From UserID
	Text string
}

// GameEndedSnapshot is the payload of an EventGameEnded event: the final
// engine state plus the rating delta awarded to each seat.
type GameEndedSnapshot struct {
	GameID  GameID
	State   engine.State
	Ratings []int // indexed by seat
}

// Info is the externally visible lobby snapshot of a room.
type Info struct {
	ID          RoomID
	Name        string
	Rule        rule.Rule
	Users       []UserID // seat order; "" marks an empty seat
	Head        UserID
	IsGame      bool
	ObserverCnt int
}

// Room is one table: its seating, its rule, and (while a hand is underway)
// the Game driving it. All fields below are owned exclusively by run's
// goroutine; nothing outside this file may read or write them directly.
type Room struct {
	inbox chan func()

	info Info

	g      *game.Game
	gameID GameID
	rng    engine.RNG

	hub     HubHandle
	store   store.Store
	publish EventPublisher

	observers map[UserID]struct{}

	createdAt  time.Time
	lastAction time.Time
}

// New creates an empty room with head seated at seat 0 and starts its actor
// goroutine.
func New(id RoomID, name string, r rule.Rule, head UserID, hub HubHandle, st store.Store, publish EventPublisher) *Room {
	rm := &Room{
		inbox: make(chan func()),
		info: Info{
			ID:    id,
			Name:  name,
			Rule:  r,
			Users: make([]UserID, r.UserCnt),
			Head:  head,
		},
		hub:        hub,
		store:      st,
		publish:    publish,
		observers:  make(map[UserID]struct{}),
		createdAt:  time.Now(),
		lastAction: time.Now(),
	}
	rm.info.Users[0] = head
	go rm.run()
	return rm
}

// Restore rebuilds a Room from persisted lobby metadata and, if a hand was
// in progress, its last saved engine.State — without firing any of the
// notifications a live Join/Start/Go would — and starts its actor goroutine.
func Restore(rec store.RoomRecord, r rule.Rule, hub HubHandle, st store.Store, publish EventPublisher) (*Room, error) {
	rm := &Room{
		inbox: make(chan func()),
		info: Info{
			ID:          RoomID(rec.ID),
			Name:        rec.Name,
			Rule:        r,
			Users:       make([]UserID, len(rec.Users)),
			Head:        UserID(rec.Head),
			IsGame:      rec.IsGame,
			ObserverCnt: rec.ObserverCnt,
		},
		hub:        hub,
		store:      st,
		publish:    publish,
		observers:  make(map[UserID]struct{}),
		createdAt:  time.Now(),
		lastAction: time.Now(),
	}
	for i, u := range rec.Users {
		rm.info.Users[i] = UserID(u)
	}
	if rec.IsGame {
		rm.gameID = GameID(rec.GameID)
		state, historyNumber, err := st.LoadState(rec.GameID)
		if err != nil {
			return nil, fmt.Errorf("room: restore %s: %w", rec.ID, err)
		}
		rm.rng = engine.NewRand(time.Now().UnixNano())
		rm.g = game.Restore(r, state, historyNumber, rm.rng, nil)
	}
	go rm.run()
	return rm, nil
}

// run is the actor loop: one request closure at a time, to completion,
// before the next is accepted.
func (rm *Room) run() {
	for fn := range rm.inbox {
		fn()
	}
}

// call hands fn to the actor goroutine and blocks until it has run to
// completion. Every exported method is exactly one call to this.
func (rm *Room) call(fn func()) {
	done := make(chan struct{})
	rm.inbox <- func() {
		fn()
		close(done)
	}
	<-done
}

// Stop terminates the actor goroutine. It is safe only once no other caller
// still holds a pointer to the room (e.g. during server shutdown, or some
// time after RemoveRoom) — closing inbox while a concurrent call() is still
// in flight would panic that sender, so this is never called from inside the
// actor itself. Neither the Hub nor the Room calls it.
func (rm *Room) Stop() {
	close(rm.inbox)
}

func (rm *Room) touch() { rm.lastAction = time.Now() }

// persist saves the room's current lobby metadata. Must only be called from
// the actor goroutine.
func (rm *Room) persist() {
	if rm.store == nil {
		return
	}
	users := make([]string, len(rm.info.Users))
	for i, u := range rm.info.Users {
		users[i] = string(u)
	}
	_ = rm.store.SaveRoom(store.RoomRecord{
		ID:          string(rm.info.ID),
		Name:        rm.info.Name,
		RuleHash:    rm.info.Rule.Hash(),
		Users:       users,
		Head:        string(rm.info.Head),
		IsGame:      rm.info.IsGame,
		GameID:      string(rm.gameID),
		ObserverCnt: rm.info.ObserverCnt,
	})
}

func (rm *Room) emit(typ EventType, payload interface{}) {
	if rm.publish == nil {
		return
	}
	rm.publish(Event{Type: typ, RoomID: rm.info.ID, Payload: payload})
}

func (rm *Room) seatOf(u UserID) (int, bool) {
	for i, seat := range rm.info.Users {
		if seat == u {
			return i, true
		}
	}
	return 0, false
}

// Seat returns u's current seat index, if any — used by a reconnecting
// player session to rediscover its seat instead of calling Join again
// (which rejects an already-seated user).
func (rm *Room) Seat(u UserID) (int, bool) {
	var seat int
	var ok bool
	rm.call(func() {
		seat, ok = rm.seatOf(u)
	})
	return seat, ok
}

// GetInfo returns a snapshot of the room's lobby state.
func (rm *Room) GetInfo() Info {
	var out Info
	rm.call(func() {
		out = rm.info
		out.Users = append([]UserID(nil), rm.info.Users...)
	})
	return out
}

// Join seats u in the first open seat. Returns the seat index.
func (rm *Room) Join(u UserID) (int, error) {
	var seat int
	var err error
	rm.call(func() {
		seat, err = rm.join(u)
	})
	return seat, err
}

func (rm *Room) join(u UserID) (int, error) {
	if rm.info.IsGame {
		return 0, fmt.Errorf("room: %s: a hand is in progress, join as an observer instead", rm.info.ID)
	}
	if _, ok := rm.seatOf(u); ok {
		return 0, fmt.Errorf("room: %s: user already seated", rm.info.ID)
	}
	for i, seat := range rm.info.Users {
		if seat == "" {
			rm.info.Users[i] = u
			rm.setHead()
			rm.touch()
			rm.persist()
			rm.emit(EventUserJoined, u)
			return i, nil
		}
	}
	return 0, fmt.Errorf("room: %s: full", rm.info.ID)
}

// Observe registers u as a spectator of an in-progress or future hand.
func (rm *Room) Observe(u UserID) {
	rm.call(func() {
		if _, already := rm.observers[u]; already {
			return
		}
		rm.observers[u] = struct{}{}
		rm.info.ObserverCnt = len(rm.observers)
		rm.touch()
		rm.persist()
	})
}

// Leave removes u from its seat (or the observer set) and reassigns the
// room head if u held it.
//
// The teacher's original reassignment left the vacated head at seat 0
// unconditionally even when another occupied seat was found; here the
// first occupied seat actually becomes head.
func (rm *Room) Leave(u UserID) error {
	var err error
	rm.call(func() {
		err = rm.leave(u)
	})
	return err
}

func (rm *Room) leave(u UserID) error {
	if _, ok := rm.observers[u]; ok {
		delete(rm.observers, u)
		rm.info.ObserverCnt = len(rm.observers)
		rm.touch()
		rm.onVacancy()
		return nil
	}

	seat, ok := rm.seatOf(u)
	if !ok {
		return fmt.Errorf("room: %s: user not present", rm.info.ID)
	}
	rm.info.Users[seat] = ""
	rm.setHead()
	rm.touch()
	rm.emit(EventUserLeft, u)
	rm.onVacancy()
	return nil
}

// onVacancy persists the room, or — if it is now wholly empty — tells the
// Hub to forget it and drops its persisted record instead.
func (rm *Room) onVacancy() {
	if rm.allSeatsEmpty() && len(rm.observers) == 0 {
		if rm.hub != nil {
			rm.hub.RemoveRoom(rm.info.ID)
		}
		if rm.store != nil {
			_ = rm.store.DeleteRoom(string(rm.info.ID))
		}
		return
	}
	rm.persist()
}

func (rm *Room) allSeatsEmpty() bool {
	for _, seat := range rm.info.Users {
		if seat != "" {
			return false
		}
	}
	return true
}

// setHead ensures Head names an occupied seat, preferring to leave it
// unchanged when it still does. When the head seat is vacant it assigns
// head to the first occupied seat it finds, or "" if the room is empty.
func (rm *Room) setHead() {
	if _, stillSeated := rm.seatOf(rm.info.Head); stillSeated {
		return
	}
	for _, seat := range rm.info.Users {
		if seat != "" {
			if rm.info.Head != seat {
				rm.info.Head = seat
				rm.emit(EventHeadChanged, seat)
			}
			return
		}
	}
	rm.info.Head = ""
}

// ChangeName renames the room. Only the head may do this, and only between
// hands.
func (rm *Room) ChangeName(u UserID, name string) error {
	var err error
	rm.call(func() {
		if err = rm.requireHeadAndIdle(u); err != nil {
			return
		}
		rm.info.Name = name
		rm.touch()
		rm.persist()
		rm.emit(EventRoomUpdated, rm.info)
	})
	return err
}

// ChangeRule replaces the room's rule. Only the head may do this, and only
// between hands; the seat count must still match the current seating.
func (rm *Room) ChangeRule(u UserID, r rule.Rule) error {
	var err error
	rm.call(func() {
		if err = rm.requireHeadAndIdle(u); err != nil {
			return
		}
		if int(r.UserCnt) != len(rm.info.Users) {
			err = fmt.Errorf("room: %s: rule seat count %d does not match current seating of %d", rm.info.ID, r.UserCnt, len(rm.info.Users))
			return
		}
		if !r.Valid() {
			err = fmt.Errorf("room: %s: invalid rule", rm.info.ID)
			return
		}
		rm.info.Rule = r
		if rm.store != nil {
			_ = rm.store.SaveRule(r)
		}
		rm.touch()
		rm.persist()
		rm.emit(EventRoomUpdated, rm.info)
	})
	return err
}

func (rm *Room) requireHeadAndIdle(u UserID) error {
	if rm.info.Head != u {
		return fmt.Errorf("room: %s: only the room head may do this", rm.info.ID)
	}
	if rm.info.IsGame {
		return fmt.Errorf("room: %s: a hand is in progress", rm.info.ID)
	}
	return nil
}

// Chat broadcasts a chat line from u, regardless of seat/observer status.
func (rm *Room) Chat(u UserID, text string) {
	rm.call(func() {
		rm.touch()
		rm.emit(EventChat, ChatMessage{From: u, Text: text})
	})
}

// Start deals a fresh hand. Only the head may start, and only when every
// seat is filled.
func (rm *Room) Start(u UserID, seed int64) (GameID, error) {
	var gameID GameID
	var err error
	rm.call(func() {
		gameID, err = rm.start(u, seed)
	})
	return gameID, err
}

func (rm *Room) start(u UserID, seed int64) (GameID, error) {
	if rm.info.Head != u {
		return "", fmt.Errorf("room: %s: only the room head may start", rm.info.ID)
	}
	if rm.info.IsGame {
		return "", fmt.Errorf("room: %s: a hand is already in progress", rm.info.ID)
	}
	for _, seat := range rm.info.Users {
		if seat == "" {
			return "", fmt.Errorf("room: %s: all seats must be filled to start", rm.info.ID)
		}
	}

	gameID := GameID(fmt.Sprintf("game_%s_%d", rm.info.ID, time.Now().UnixNano()))
	if rm.hub != nil {
		gameID = rm.hub.MakeGameID()
	}

	rm.rng = engine.NewRand(seed)
	rm.g = game.New(rm.info.Rule, rm.rng, rm.phaseObserver())
	rm.gameID = gameID
	rm.info.IsGame = true

	if rm.store != nil {
		users := make([]string, len(rm.info.Users))
		for i, u := range rm.info.Users {
			users[i] = string(u)
		}
		_ = rm.store.MakeGame(store.GameRecord{
			GameID:   string(gameID),
			RoomID:   string(rm.info.ID),
			Users:    users,
			IsRank:   true,
			RuleHash: rm.info.Rule.Hash(),
		})
		_ = rm.store.SaveState(string(gameID), rm.g.HistoryNumber(), rm.g.GetState())
	}

	rm.touch()
	rm.persist()
	rm.emit(EventGameStarted, rm.g.GetState())
	return gameID, nil
}

// phaseObserver is invoked synchronously, from within the actor goroutine,
// by game.Game.Next. Phase transitions are published as their own event
// type (distinct from EventRoomUpdated, which always carries an Info
// payload) so a subscriber can tell the two apart by Type alone without
// inspecting Payload.
func (rm *Room) phaseObserver() statemachine.Observer {
	return func(phaseName string, ev statemachine.PhaseEvent) {
		if ev != statemachine.PhaseEntered {
			return
		}
		rm.emit(EventPhaseEntered, phaseName)
	}
}

// Go applies one command from seat u's user to the in-progress hand.
func (rm *Room) Go(u UserID, cmd engine.Command) error {
	var err error
	rm.call(func() {
		err = rm.doGo(u, cmd)
	})
	return err
}

func (rm *Room) doGo(u UserID, cmd engine.Command) error {
	if !rm.info.IsGame || rm.g == nil {
		return fmt.Errorf("room: %s: no hand in progress", rm.info.ID)
	}
	seat, ok := rm.seatOf(u)
	if !ok {
		return fmt.Errorf("room: %s: user not seated", rm.info.ID)
	}

	finished, err := rm.g.Next(seat, cmd)
	if err != nil {
		return err
	}
	rm.touch()

	if rm.store != nil {
		_ = rm.store.SaveState(string(rm.gameID), rm.g.HistoryNumber(), rm.g.GetState())
	}

	if finished {
		state := rm.g.GetState()
		ratings := ratingDeltas(state)
		if rm.store != nil {
			for i, delta := range ratings {
				_ = rm.store.SaveRating(store.RatingRecord{
					GameID: string(rm.gameID),
					UserID: string(rm.info.Users[i]),
					Delta:  delta,
				})
			}
		}
		rm.g = nil
		rm.info.IsGame = false
		rm.persist()
		rm.emit(EventGameEnded, GameEndedSnapshot{GameID: rm.gameID, State: state, Ratings: ratings})
		return nil
	}

	rm.emit(EventGameMove, rm.g.GetState())
	return nil
}
