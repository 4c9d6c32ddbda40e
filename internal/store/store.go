// Package store defines the persistence boundary between a running Room and
// its durable backing store: rules, in-progress game state, room metadata,
// and per-hand rating deltas.
package store

import (
	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/rule"
)

// RoomRecord is the persisted shape of a room's lobby metadata, independent
// of the in-memory Room actor's own representation.
type RoomRecord struct {
	ID          string
	Name        string
	RuleHash    [32]byte
	Users       []string // seat order; "" marks an empty seat
	Head        string
	IsGame      bool
	GameID      string // the active hand's id, valid only when IsGame
	ObserverCnt int
}

// GameRecord is the persisted shape of one hand's identity and linkage.
type GameRecord struct {
	GameID  string
	RoomID  string
	Users   []string
	IsRank  bool
	RuleHash [32]byte
}

// RatingRecord is one user's rating delta for a finished hand, kept as a
// supplemented feature (§ SPEC_FULL "Supplemented features").
type RatingRecord struct {
	GameID string
	UserID string
	Delta  int
}

// Store is the capability every Room depends on for durability. A Room
// calls these synchronously from its own goroutine; implementations must
// not block appreciably or hold the actor's single writer hostage.
type Store interface {
	SaveRule(r rule.Rule) error
	LoadRule(hash [32]byte) (rule.Rule, error)

	SaveRoom(rec RoomRecord) error
	LoadRoom(roomID string) (RoomRecord, error)
	DeleteRoom(roomID string) error
	ListRoomIDs() ([]string, error)

	MakeGame(rec GameRecord) error
	SaveState(gameID string, historyNumber uint64, state engine.State) error
	LoadState(gameID string) (engine.State, uint64, error)

	SaveRating(rec RatingRecord) error
}
