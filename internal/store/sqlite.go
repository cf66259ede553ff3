package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/cardroom/holdem/internal/event"
)

// SQLite is a durable event store backed by a SQLite database. The primary key
// on (game_id, hand_num, seq) makes concurrent appends of the same sequence
// number fail, which surfaces as event.ErrConcurrentMutation.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path and ensures
// the schema exists. Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// Serialized access keeps batch appends atomic without busy retries.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			game_id    TEXT NOT NULL,
			hand_num   INTEGER NOT NULL,
			seq        INTEGER NOT NULL,
			type       TEXT NOT NULL,
			player_id  TEXT NOT NULL DEFAULT '',
			amount     INTEGER NOT NULL DEFAULT 0,
			payload    BLOB,
			at         TIMESTAMP NOT NULL,
			PRIMARY KEY (game_id, hand_num, seq)
		)
	`)
	if err != nil {
		return fmt.Errorf("create events table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			game_id   TEXT NOT NULL,
			hand_num  INTEGER NOT NULL,
			last_seq  INTEGER NOT NULL,
			state     BLOB NOT NULL,
			at        TIMESTAMP NOT NULL,
			PRIMARY KEY (game_id, hand_num)
		)
	`)
	if err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// AppendEvents inserts a batch in one transaction. Every event must extend
// its hand's log by exactly one sequence number; a gap or clash rolls back the
// whole batch with event.ErrConcurrentMutation.
func (s *SQLite) AppendEvents(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	type handKey struct {
		gameID  string
		handNum uint64
	}
	next := make(map[handKey]uint64)
	for _, e := range events {
		key := handKey{e.GameID, e.HandNum}
		if _, ok := next[key]; !ok {
			var last uint64
			err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(seq), 0) FROM events WHERE game_id = ? AND hand_num = ?`,
				e.GameID, e.HandNum).Scan(&last)
			if err != nil {
				return fmt.Errorf("query last seq for %s/%d: %w", e.GameID, e.HandNum, err)
			}
			next[key] = last
		}
		if e.Seq != next[key]+1 {
			return fmt.Errorf("%w: event seq %d for %s/%d, expected %d",
				event.ErrConcurrentMutation, e.Seq, e.GameID, e.HandNum, next[key]+1)
		}
		next[key] = e.Seq
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (game_id, hand_num, seq, type, player_id, amount, payload, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx, e.GameID, e.HandNum, e.Seq, string(e.Type),
			e.PlayerID, e.Amount, []byte(e.Payload), e.At)
		if err != nil {
			var serr sqlite3.Error
			if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
				return fmt.Errorf("%w: event seq %d for %s/%d already exists",
					event.ErrConcurrentMutation, e.Seq, e.GameID, e.HandNum)
			}
			return fmt.Errorf("insert event seq %d: %w", e.Seq, err)
		}
	}
	return tx.Commit()
}

// LoadEvents returns the events of a hand with seq >= fromSeq in order.
func (s *SQLite) LoadEvents(ctx context.Context, gameID string, handNum uint64, fromSeq uint64) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, hand_num, seq, type, player_id, amount, payload, at
		FROM events
		WHERE game_id = ? AND hand_num = ? AND seq >= ?
		ORDER BY seq
	`, gameID, handNum, fromSeq)
	if err != nil {
		return nil, fmt.Errorf("load events for %s/%d: %w", gameID, handNum, err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var e event.Event
		var typ string
		var payload []byte
		if err := rows.Scan(&e.GameID, &e.HandNum, &e.Seq, &typ, &e.PlayerID, &e.Amount, &payload, &e.At); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = event.Type(typ)
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}

// SaveSnapshot upserts the latest snapshot for a hand. Older snapshots are
// never resurrected over newer ones.
func (s *SQLite) SaveSnapshot(ctx context.Context, snap event.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (game_id, hand_num, last_seq, state, at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (game_id, hand_num) DO UPDATE SET
			last_seq = excluded.last_seq,
			state = excluded.state,
			at = excluded.at
		WHERE excluded.last_seq > snapshots.last_seq
	`, snap.GameID, snap.HandNum, snap.LastSeq, []byte(snap.State), snap.At)
	if err != nil {
		return fmt.Errorf("save snapshot for %s/%d: %w", snap.GameID, snap.HandNum, err)
	}
	return nil
}

// LoadSnapshot returns the latest snapshot for a hand, or nil when none exists.
func (s *SQLite) LoadSnapshot(ctx context.Context, gameID string, handNum uint64) (*event.Snapshot, error) {
	var snap event.Snapshot
	var state []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT game_id, hand_num, last_seq, state, at
		FROM snapshots
		WHERE game_id = ? AND hand_num = ?
	`, gameID, handNum).Scan(&snap.GameID, &snap.HandNum, &snap.LastSeq, &state, &snap.At)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s/%d: %w", gameID, handNum, err)
	}
	snap.State = state
	return &snap, nil
}
