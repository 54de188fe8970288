package services

import (
	"context"
	"testing"

	"deckgen-backend/application/commands"
	"deckgen-backend/domain/core/valueobjects"
	"deckgen-backend/domain/events"
	"deckgen-backend/infrastructure/messaging"
	"deckgen-backend/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEditor(t *testing.T) (*EditorService, *memory.InMemorySlideRepository, *memory.InMemoryHistoryStore) {
	t.Helper()
	repo := memory.NewInMemorySlideRepository()
	store := memory.NewInMemoryHistoryStore()
	bus := messaging.NewInMemoryEventBus(zap.NewNop())
	editor := NewEditorService(
		repo,
		commands.NewHistoryManager(10),
		commands.DefaultRegistry(),
		store,
		bus,
		nil, // metrics
		nil, // tracer
		zap.NewNop(),
	)
	return editor, repo, store
}

func TestEditorService_CreateSlideAppendsByDefault(t *testing.T) {
	ctx := context.Background()
	editor, _, _ := newTestEditor(t)
	deckID := valueobjects.NewDeckID()

	first, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "One"})
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, 0, first.ResultingState["order"])

	second, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "Two"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.ResultingState["order"])

	slides, err := editor.ListSlides(ctx, deckID)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "One", slides[0].Title())
	assert.Equal(t, "Two", slides[1].Title())
}

func TestEditorService_UndoNothingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	editor, _, _ := newTestEditor(t)
	deckID := valueobjects.NewDeckID()

	result, err := editor.Undo(ctx, deckID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "nothing to undo", result.Description)
	assert.Nil(t, result.ResultingState)

	result, err = editor.Redo(ctx, deckID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "nothing to redo", result.Description)
}

func TestEditorService_EditUndoRedoFlow(t *testing.T) {
	ctx := context.Background()
	editor, _, _ := newTestEditor(t)
	deckID := valueobjects.NewDeckID()

	created, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "Draft"})
	require.NoError(t, err)
	slideID, err := valueobjects.NewSlideIDFromString(created.ResultingState["id"].(string))
	require.NoError(t, err)

	_, err = editor.UpdateSlide(ctx, deckID, slideID, map[string]interface{}{"title": "Final"})
	require.NoError(t, err)

	undone, err := editor.Undo(ctx, deckID)
	require.NoError(t, err)
	assert.True(t, undone.Success)
	assert.Equal(t, "Draft", undone.ResultingState["title"])

	redone, err := editor.Redo(ctx, deckID)
	require.NoError(t, err)
	assert.True(t, redone.Success)
	assert.Equal(t, "Final", redone.ResultingState["title"])

	state := editor.History(deckID)
	assert.True(t, state.CanUndo)
	assert.False(t, state.CanRedo)
	assert.Equal(t, 2, state.HistorySize)
	assert.Equal(t, 1, state.CurrentIndex)
}

func TestEditorService_DeleteAndUndoKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	editor, _, _ := newTestEditor(t)
	deckID := valueobjects.NewDeckID()

	created, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "Keep me"})
	require.NoError(t, err)
	slideID, err := valueobjects.NewSlideIDFromString(created.ResultingState["id"].(string))
	require.NoError(t, err)

	_, err = editor.DeleteSlide(ctx, deckID, slideID)
	require.NoError(t, err)
	_, err = editor.GetSlide(ctx, slideID)
	assert.Error(t, err)

	result, err := editor.Undo(ctx, deckID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	slide, err := editor.GetSlide(ctx, slideID)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", slide.Title())
}

func TestEditorService_MoveSlideReordersDeck(t *testing.T) {
	ctx := context.Background()
	editor, _, _ := newTestEditor(t)
	deckID := valueobjects.NewDeckID()

	a, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "A"})
	require.NoError(t, err)
	_, err = editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "B"})
	require.NoError(t, err)
	aID, err := valueobjects.NewSlideIDFromString(a.ResultingState["id"].(string))
	require.NoError(t, err)

	moved, err := editor.MoveSlide(ctx, deckID, aID, 1)
	require.NoError(t, err)
	assert.True(t, moved.Success)

	slides, err := editor.ListSlides(ctx, deckID)
	require.NoError(t, err)
	assert.Equal(t, "B", slides[0].Title())
	assert.Equal(t, "A", slides[1].Title())
}

func TestEditorService_UndoManyReportsEachStep(t *testing.T) {
	ctx := context.Background()
	editor, _, _ := newTestEditor(t)
	deckID := valueobjects.NewDeckID()

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": title})
		require.NoError(t, err)
	}

	results, err := editor.UndoMany(ctx, deckID, 5)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Success)
	}

	slides, err := editor.ListSlides(ctx, deckID)
	require.NoError(t, err)
	assert.Empty(t, slides)

	redone, err := editor.RedoMany(ctx, deckID, 2)
	require.NoError(t, err)
	assert.Len(t, redone, 2)

	state := editor.History(deckID)
	assert.Equal(t, 1, state.CurrentIndex)
	assert.True(t, state.CanRedo)
}

func TestEditorService_ClearHistoryKeepsDocumentState(t *testing.T) {
	ctx := context.Background()
	editor, _, _ := newTestEditor(t)
	deckID := valueobjects.NewDeckID()

	_, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "Stays"})
	require.NoError(t, err)

	editor.ClearHistory(deckID)

	state := editor.History(deckID)
	assert.False(t, state.CanUndo)
	assert.Zero(t, state.HistorySize)

	slides, err := editor.ListSlides(ctx, deckID)
	require.NoError(t, err)
	assert.Len(t, slides, 1)
}

func TestEditorService_PersistAndRestoreHistory(t *testing.T) {
	ctx := context.Background()
	editor, repo, store := newTestEditor(t)
	deckID := valueobjects.NewDeckID()

	_, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "Persisted"})
	require.NoError(t, err)
	require.NoError(t, editor.PersistHistory(ctx, deckID))

	// A fresh service sharing the store and repository picks the history up.
	other := NewEditorService(
		repo,
		commands.NewHistoryManager(10),
		commands.DefaultRegistry(),
		store,
		messaging.NewInMemoryEventBus(zap.NewNop()),
		nil,
		nil,
		zap.NewNop(),
	)
	require.NoError(t, other.RestoreHistory(ctx, deckID))

	state := other.History(deckID)
	assert.Equal(t, 1, state.HistorySize)
	assert.True(t, state.CanUndo)

	result, err := other.Undo(ctx, deckID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	slides, err := other.ListSlides(ctx, deckID)
	require.NoError(t, err)
	assert.Empty(t, slides)
}

func TestEditorService_PersistWithoutStoreFails(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInMemorySlideRepository()
	editor := NewEditorService(
		repo,
		commands.NewHistoryManager(10),
		commands.DefaultRegistry(),
		nil, // no store
		messaging.NewInMemoryEventBus(zap.NewNop()),
		nil,
		nil,
		zap.NewNop(),
	)

	assert.Error(t, editor.PersistHistory(ctx, valueobjects.NewDeckID()))
	assert.Error(t, editor.RestoreHistory(ctx, valueobjects.NewDeckID()))
}

func TestEditorService_PublishesDomainEvents(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInMemorySlideRepository()
	bus := messaging.NewInMemoryEventBus(zap.NewNop())

	var received []events.DomainEvent
	bus.Subscribe("", func(ctx context.Context, event events.DomainEvent) {
		received = append(received, event)
	})

	editor := NewEditorService(
		repo,
		commands.NewHistoryManager(10),
		commands.DefaultRegistry(),
		nil,
		bus,
		nil,
		nil,
		zap.NewNop(),
	)
	deckID := valueobjects.NewDeckID()

	_, err := editor.CreateSlide(ctx, deckID, map[string]interface{}{"title": "Announce"})
	require.NoError(t, err)
	_, err = editor.Undo(ctx, deckID)
	require.NoError(t, err)

	require.Len(t, received, 2)
	assert.Equal(t, "slide.created", received[0].GetEventType())
	assert.Equal(t, "deck.edit_reverted", received[1].GetEventType())
}
