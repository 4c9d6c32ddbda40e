// Package sqlite implements store.Store over mattn/go-sqlite3, following
// the schema and INSERT-OR-REPLACE/blob-as-JSON style of the teacher's
// internal database layer.
package sqlite

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/store"
)

// DB wraps a sqlite-backed store.Store.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures the schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store/sqlite: open %s: %w", path, err)
	}
	db := &DB{conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rules (
			hash TEXT PRIMARY KEY,
			rule TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			rule_hash TEXT NOT NULL,
			users TEXT NOT NULL DEFAULT '[]',
			head TEXT NOT NULL DEFAULT '',
			is_game BOOLEAN NOT NULL DEFAULT FALSE,
			game_id TEXT NOT NULL DEFAULT '',
			observer_cnt INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			users TEXT NOT NULL DEFAULT '[]',
			is_rank BOOLEAN NOT NULL DEFAULT FALSE,
			rule_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_states (
			game_id TEXT PRIMARY KEY,
			history_number INTEGER NOT NULL,
			state TEXT NOT NULL,
			FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			delta INTEGER NOT NULL,
			FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("store/sqlite: create schema: %w", err)
		}
	}
	return nil
}

func hashHex(h [32]byte) string { return fmt.Sprintf("%x", h) }

// SaveRule persists r under its canonical hash, if not already present.
func (db *DB) SaveRule(r rule.Rule) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store/sqlite: marshal rule: %w", err)
	}
	_, err = db.Exec(
		`INSERT OR IGNORE INTO rules (hash, rule) VALUES (?, ?)`,
		hashHex(r.Hash()), string(b),
	)
	return err
}

// LoadRule loads a previously saved rule by its hash.
func (db *DB) LoadRule(hash [32]byte) (rule.Rule, error) {
	var blob string
	err := db.QueryRow(`SELECT rule FROM rules WHERE hash = ?`, hashHex(hash)).Scan(&blob)
	if err == sql.ErrNoRows {
		return rule.Rule{}, fmt.Errorf("store/sqlite: rule %x not found", hash)
	}
	if err != nil {
		return rule.Rule{}, err
	}
	var r rule.Rule
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return rule.Rule{}, fmt.Errorf("store/sqlite: unmarshal rule: %w", err)
	}
	return r, nil
}

// SaveRoom upserts a room's lobby metadata.
func (db *DB) SaveRoom(rec store.RoomRecord) error {
	usersJSON, err := json.Marshal(rec.Users)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO rooms (id, name, rule_hash, users, head, is_game, game_id, observer_cnt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rule_hash = excluded.rule_hash,
			users = excluded.users,
			head = excluded.head,
			is_game = excluded.is_game,
			game_id = excluded.game_id,
			observer_cnt = excluded.observer_cnt
	`, rec.ID, rec.Name, hashHex(rec.RuleHash), string(usersJSON), rec.Head, rec.IsGame, rec.GameID, rec.ObserverCnt)
	return err
}

// LoadRoom loads a room's lobby metadata by id.
func (db *DB) LoadRoom(roomID string) (store.RoomRecord, error) {
	var rec store.RoomRecord
	var ruleHashHex, usersJSON string
	err := db.QueryRow(`
		SELECT id, name, rule_hash, users, head, is_game, game_id, observer_cnt
		FROM rooms WHERE id = ?
	`, roomID).Scan(&rec.ID, &rec.Name, &ruleHashHex, &usersJSON, &rec.Head, &rec.IsGame, &rec.GameID, &rec.ObserverCnt)
	if err == sql.ErrNoRows {
		return store.RoomRecord{}, fmt.Errorf("store/sqlite: room %s not found", roomID)
	}
	if err != nil {
		return store.RoomRecord{}, err
	}
	decoded, err := hex.DecodeString(ruleHashHex)
	if err != nil || len(decoded) != len(rec.RuleHash) {
		return store.RoomRecord{}, fmt.Errorf("store/sqlite: decode rule hash %q: %w", ruleHashHex, err)
	}
	copy(rec.RuleHash[:], decoded)
	if err := json.Unmarshal([]byte(usersJSON), &rec.Users); err != nil {
		return store.RoomRecord{}, fmt.Errorf("store/sqlite: unmarshal users: %w", err)
	}
	return rec, nil
}

// DeleteRoom removes a room's lobby metadata once the room empties.
func (db *DB) DeleteRoom(roomID string) error {
	_, err := db.Exec(`DELETE FROM rooms WHERE id = ?`, roomID)
	return err
}

// ListRoomIDs returns every persisted room id, used to repopulate the Hub
// registry on startup.
func (db *DB) ListRoomIDs() ([]string, error) {
	rows, err := db.Query(`SELECT id FROM rooms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MakeGame records a newly started hand's identity and participants.
func (db *DB) MakeGame(rec store.GameRecord) error {
	usersJSON, err := json.Marshal(rec.Users)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT OR REPLACE INTO games (game_id, room_id, users, is_rank, rule_hash)
		VALUES (?, ?, ?, ?, ?)
	`, rec.GameID, rec.RoomID, string(usersJSON), rec.IsRank, hashHex(rec.RuleHash))
	return err
}

// SaveState persists the current engine.State for gameID, replacing the
// prior snapshot (the engine itself is pure; only the latest state and the
// command count matter for rehydration).
func (db *DB) SaveState(gameID string, historyNumber uint64, state engine.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("store/sqlite: marshal state: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO game_states (game_id, history_number, state)
		VALUES (?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			history_number = excluded.history_number,
			state = excluded.state
	`, gameID, historyNumber, string(b))
	return err
}

// LoadState rehydrates a previously saved engine.State and its history
// count, for a Room restoring after a restart.
func (db *DB) LoadState(gameID string) (engine.State, uint64, error) {
	var historyNumber uint64
	var blob string
	err := db.QueryRow(`
		SELECT history_number, state FROM game_states WHERE game_id = ?
	`, gameID).Scan(&historyNumber, &blob)
	if err == sql.ErrNoRows {
		return engine.State{}, 0, fmt.Errorf("store/sqlite: no state for game %s", gameID)
	}
	if err != nil {
		return engine.State{}, 0, err
	}
	var s engine.State
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return engine.State{}, 0, fmt.Errorf("store/sqlite: unmarshal state: %w", err)
	}
	return s, historyNumber, nil
}

// SaveRating appends one user's rating delta for a finished hand.
func (db *DB) SaveRating(rec store.RatingRecord) error {
	_, err := db.Exec(`
		INSERT INTO ratings (game_id, user_id, delta) VALUES (?, ?, ?)
	`, rec.GameID, rec.UserID, rec.Delta)
	return err
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.DB.Close() }

var _ store.Store = (*DB)(nil)
