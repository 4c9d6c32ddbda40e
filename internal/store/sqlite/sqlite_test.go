package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadRoom(t *testing.T) {
	db := openTestDB(t)
	r := rule.NewRule()

	rec := store.RoomRecord{
		ID:          "room-1",
		Name:        "table one",
		RuleHash:    r.Hash(),
		Users:       []string{"alice", "", "bob", "", ""},
		Head:        "alice",
		IsGame:      false,
		ObserverCnt: 2,
	}
	require.NoError(t, db.SaveRoom(rec))

	loaded, err := db.LoadRoom("room-1")
	require.NoError(t, err)
	require.Equal(t, rec, loaded)
}

func TestSaveAndLoadRule(t *testing.T) {
	db := openTestDB(t)
	r := rule.NewRule()

	require.NoError(t, db.SaveRule(r))

	loaded, err := db.LoadRule(r.Hash())
	require.NoError(t, err)
	require.Equal(t, r.Hash(), loaded.Hash())
}

func TestSaveAndLoadState(t *testing.T) {
	db := openTestDB(t)
	r := rule.NewRule()
	require.NoError(t, db.MakeGame(store.GameRecord{
		GameID:   "game-1",
		RoomID:   "room-1",
		Users:    []string{"alice", "bob", "carol", "dave", "erin"},
		IsRank:   true,
		RuleHash: r.Hash(),
	}))

	state := engine.NewState(r, engine.NewRand(1))
	require.NoError(t, db.SaveState("game-1", 3, state))

	loaded, historyNumber, err := db.LoadState("game-1")
	require.NoError(t, err)
	require.Equal(t, uint64(3), historyNumber)
	require.Equal(t, state.Phase, loaded.Phase)
	require.Equal(t, len(state.Hand), len(loaded.Hand))
}

func TestListRoomIDs(t *testing.T) {
	db := openTestDB(t)
	r := rule.NewRule()
	require.NoError(t, db.SaveRoom(store.RoomRecord{ID: "a", RuleHash: r.Hash()}))
	require.NoError(t, db.SaveRoom(store.RoomRecord{ID: "b", RuleHash: r.Hash()}))

	ids, err := db.ListRoomIDs()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestSaveRating(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveRating(store.RatingRecord{GameID: "game-1", UserID: "alice", Delta: 4}))
}
