package commands

import (
	"sync"

	"deckgen-backend/domain/core/valueobjects"
)

// HistoryManager holds one CommandHistory per deck, created lazily on
// first access.
//
// The manager's map is touched by many request goroutines concurrently and
// is guarded by its own mutex. Each deck entry additionally carries a
// mutex establishing the per-deck serialization boundary: at most one
// in-flight edit per deck, with distinct decks proceeding fully in
// parallel.
//
// Entries are never evicted, so the map grows with the number of decks
// seen over the process lifetime. The upstream system does not define an
// eviction policy for abandoned decks; see DESIGN.md.
type HistoryManager struct {
	mu         sync.Mutex
	entries    map[valueobjects.DeckID]*deckEntry
	maxHistory int
}

type deckEntry struct {
	mu      sync.Mutex
	history *CommandHistory
}

// NewHistoryManager creates a manager whose histories use the given
// capacity.
func NewHistoryManager(maxHistory int) *HistoryManager {
	return &HistoryManager{
		entries:    make(map[valueobjects.DeckID]*deckEntry),
		maxHistory: maxHistory,
	}
}

// WithHistory runs fn with the deck's history while holding that deck's
// lock. The lock spans fn entirely, command I/O included, so commands for a
// fixed deck are observed and applied in exactly the order submitted.
func (m *HistoryManager) WithHistory(deckID valueobjects.DeckID, fn func(h *CommandHistory) error) error {
	entry := m.entry(deckID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.history)
}

// Replace swaps in a restored history for a deck, e.g. after materializing
// a persisted snapshot.
func (m *HistoryManager) Replace(deckID valueobjects.DeckID, history *CommandHistory) {
	entry := m.entry(deckID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.history = history
}

// Len returns the number of decks with a tracked history
func (m *HistoryManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *HistoryManager) entry(deckID valueobjects.DeckID) *deckEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[deckID]
	if !ok {
		entry = &deckEntry{history: NewCommandHistory(m.maxHistory)}
		m.entries[deckID] = entry
	}
	return entry
}
