package session

import "github.com/mighty/server/internal/room"

// Manager fans a single EventPublisher stream (one room.Room wires exactly
// one publish func, shared across every room a Hub creates) out to however
// many player and observe sessions currently care about it (list sessions
// poll the Hub instead of subscribing here). Like
// Room and Hub, it is a single-writer actor: its subscriber maps are owned
// exclusively by its own goroutine.
//
// Grounded on the teacher's pkg/server/events.go EventProcessor/eventWorker
// queue (a central dispatcher fanning one upstream event source out to many
// subscriber channels), adapted from a worker-pool of queue consumers to a
// per-subscriber buffered channel, since session adapters process events in
// program order for their own room/viewer rather than concurrently.
type Manager struct {
	inbox chan func()

	nextID int
	subs   map[room.RoomID]map[int]chan room.Event
}

// NewManager creates a Manager and starts its actor goroutine.
func NewManager() *Manager {
	m := &Manager{
		inbox: make(chan func()),
		subs:  make(map[room.RoomID]map[int]chan room.Event),
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	for fn := range m.inbox {
		fn()
	}
}

func (m *Manager) call(fn func()) {
	done := make(chan struct{})
	m.inbox <- func() {
		fn()
		close(done)
	}
	<-done
}

// Publish fans ev out to every subscriber of ev.RoomID. Satisfies
// room.EventPublisher; wire a Manager's Publish method as the EventPublisher
// every Room created by a Hub uses.
//
// A subscriber's channel is buffered (see Subscribe); Publish drops the
// event for any subscriber whose buffer is full rather than blocking the
// Room actor that called it, so one stalled session can never wedge a room.
func (m *Manager) Publish(ev room.Event) {
	m.call(func() {
		for _, ch := range m.subs[ev.RoomID] {
			select {
			case ch <- ev:
			default:
			}
		}
	})
}

// Subscribe registers a new subscriber to id's events, returning a receive
// channel and an unsubscribe func the caller must invoke when it stops
// reading (typically in a deferred call as its session loop exits).
func (m *Manager) Subscribe(id room.RoomID) (<-chan room.Event, func()) {
	ch := make(chan room.Event, 32)
	var subID int
	m.call(func() {
		m.nextID++
		subID = m.nextID
		if m.subs[id] == nil {
			m.subs[id] = make(map[int]chan room.Event)
		}
		m.subs[id][subID] = ch
	})
	unsubscribe := func() {
		m.call(func() {
			delete(m.subs[id], subID)
			if len(m.subs[id]) == 0 {
				delete(m.subs, id)
			}
		})
	}
	return ch, unsubscribe
}
