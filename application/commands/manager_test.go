package commands

import (
	"context"
	"sync"
	"testing"

	"deckgen-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryManager_CreatesHistoriesLazily(t *testing.T) {
	m := NewHistoryManager(10)
	assert.Zero(t, m.Len())

	deckID := valueobjects.NewDeckID()
	err := m.WithHistory(deckID, func(h *CommandHistory) error {
		assert.Zero(t, h.Size())
		assert.Equal(t, 10, h.MaxHistory())
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	// Same deck resolves to the same history.
	err = m.WithHistory(deckID, func(h *CommandHistory) error {
		return h.Execute(context.Background(), nil, newStubCommand("x"))
	})
	require.NoError(t, err)
	err = m.WithHistory(deckID, func(h *CommandHistory) error {
		assert.Equal(t, 1, h.Size())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestHistoryManager_DecksAreIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewHistoryManager(10)
	deckA := valueobjects.NewDeckID()
	deckB := valueobjects.NewDeckID()

	require.NoError(t, m.WithHistory(deckA, func(h *CommandHistory) error {
		return h.Execute(ctx, nil, newStubCommand("a"))
	}))

	require.NoError(t, m.WithHistory(deckB, func(h *CommandHistory) error {
		assert.Zero(t, h.Size())
		return nil
	}))
	assert.Equal(t, 2, m.Len())
}

func TestHistoryManager_SerializesEditsPerDeck(t *testing.T) {
	ctx := context.Background()
	m := NewHistoryManager(200)
	deckID := valueobjects.NewDeckID()

	const goroutines = 8
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_ = m.WithHistory(deckID, func(h *CommandHistory) error {
					return h.Execute(ctx, nil, newStubCommand("concurrent"))
				})
			}
		}()
	}
	wg.Wait()

	require.NoError(t, m.WithHistory(deckID, func(h *CommandHistory) error {
		assert.Equal(t, goroutines*perGoroutine, h.Size())
		assert.Equal(t, goroutines*perGoroutine-1, h.Cursor())
		return nil
	}))
}

func TestHistoryManager_ReplaceSwapsHistory(t *testing.T) {
	m := NewHistoryManager(10)
	deckID := valueobjects.NewDeckID()

	restored := NewCommandHistory(10)
	require.NoError(t, restored.Execute(context.Background(), nil, newStubCommand("restored")))
	m.Replace(deckID, restored)

	require.NoError(t, m.WithHistory(deckID, func(h *CommandHistory) error {
		assert.Equal(t, 1, h.Size())
		return nil
	}))
}
