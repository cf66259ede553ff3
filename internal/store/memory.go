// Package store provides event.Store implementations: an in-memory store for
// tests and simulations, and a SQLite store for durable games.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cardroom/holdem/internal/event"
)

type handKey struct {
	gameID  string
	handNum uint64
}

// Memory is an in-memory event store. Appends are atomic per batch and
// sequence conflicts are rejected, matching the durable store's contract.
type Memory struct {
	mu        sync.RWMutex
	events    map[handKey][]event.Event
	snapshots map[handKey]event.Snapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		events:    make(map[handKey][]event.Event),
		snapshots: make(map[handKey]event.Snapshot),
	}
}

// AppendEvents appends a batch atomically. Every event must extend its hand's
// log by exactly one sequence number; any clash or gap rejects the whole batch
// with event.ErrConcurrentMutation.
func (m *Memory) AppendEvents(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate the whole batch against current state before mutating.
	next := make(map[handKey]uint64)
	for _, e := range events {
		key := handKey{e.GameID, e.HandNum}
		if _, ok := next[key]; !ok {
			next[key] = uint64(len(m.events[key]))
		}
		if e.Seq != next[key]+1 {
			return fmt.Errorf("%w: event seq %d for %s/%d, expected %d",
				event.ErrConcurrentMutation, e.Seq, e.GameID, e.HandNum, next[key]+1)
		}
		next[key] = e.Seq
	}

	for _, e := range events {
		key := handKey{e.GameID, e.HandNum}
		m.events[key] = append(m.events[key], e)
	}
	return nil
}

// LoadEvents returns the events of a hand with Seq >= fromSeq, ordered.
func (m *Memory) LoadEvents(ctx context.Context, gameID string, handNum uint64, fromSeq uint64) ([]event.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.events[handKey{gameID, handNum}]
	idx := sort.Search(len(all), func(i int) bool { return all[i].Seq >= fromSeq })
	return append([]event.Event(nil), all[idx:]...), nil
}

// SaveSnapshot stores the latest snapshot for a hand, replacing any older one.
func (m *Memory) SaveSnapshot(ctx context.Context, snap event.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := handKey{snap.GameID, snap.HandNum}
	if old, ok := m.snapshots[key]; ok && old.LastSeq > snap.LastSeq {
		return nil
	}
	m.snapshots[key] = snap
	return nil
}

// LoadSnapshot returns the latest snapshot for a hand, or nil when none exists.
func (m *Memory) LoadSnapshot(ctx context.Context, gameID string, handNum uint64) (*event.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[handKey{gameID, handNum}]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}
