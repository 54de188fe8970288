package memory

import (
	"context"
	"encoding/json"
	"sync"

	"deckgen-backend/application/ports"
	"deckgen-backend/domain/core/valueobjects"
	pkgerrors "deckgen-backend/pkg/errors"
)

// InMemoryHistoryStore provides an in-memory implementation of
// ports.HistoryStore. Snapshots are stored as JSON so a load always
// returns a deep copy with the same payload shapes as a durable store.
type InMemoryHistoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewInMemoryHistoryStore creates a new in-memory history store
func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{
		snapshots: make(map[string][]byte),
	}
}

// Save persists the deck's history snapshot, replacing any previous one
func (s *InMemoryHistoryStore) Save(ctx context.Context, deckID valueobjects.DeckID, snapshot *ports.HistorySnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal history", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[deckID.String()] = payload
	return nil
}

// Load retrieves the deck's history snapshot
func (s *InMemoryHistoryStore) Load(ctx context.Context, deckID valueobjects.DeckID) (*ports.HistorySnapshot, error) {
	s.mu.RLock()
	payload, ok := s.snapshots[deckID.String()]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewNotFoundError("history for deck " + deckID.String())
	}

	snapshot := &ports.HistorySnapshot{}
	if err := json.Unmarshal(payload, snapshot); err != nil {
		return nil, pkgerrors.NewDatabaseError("decode history snapshot", err)
	}
	return snapshot, nil
}

// Delete removes the deck's stored history snapshot
func (s *InMemoryHistoryStore) Delete(ctx context.Context, deckID valueobjects.DeckID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, deckID.String())
	return nil
}
