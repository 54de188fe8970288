package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"deckgen-backend/application/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCommand is a minimal reversible command used to exercise the history
// state machine without a repository.
type stubCommand struct {
	baseCommand
	label       string
	executions  int
	undos       int
	failExecute bool
	failUndo    bool
}

func newStubCommand(label string) *stubCommand {
	return &stubCommand{
		baseCommand: newBaseCommand("stub"),
		label:       label,
	}
}

func (c *stubCommand) Description() string { return "stub " + c.label }

func (c *stubCommand) Execute(ctx context.Context, repo ports.SlideRepository) error {
	if c.failExecute {
		return errors.New("execute failed")
	}
	c.executions++
	c.markExecuted()
	return nil
}

func (c *stubCommand) Undo(ctx context.Context, repo ports.SlideRepository) error {
	if c.failUndo {
		return errors.New("undo failed")
	}
	c.undos++
	c.markUndone()
	return nil
}

func (c *stubCommand) Serialize() (map[string]interface{}, error) {
	payload := c.serializeBase()
	payload["label"] = c.label
	return payload, nil
}

func executeStubs(t *testing.T, h *CommandHistory, n int) []*stubCommand {
	t.Helper()
	ctx := context.Background()
	cmds := make([]*stubCommand, 0, n)
	for i := 0; i < n; i++ {
		cmd := newStubCommand(fmt.Sprintf("c%d", i))
		require.NoError(t, h.Execute(ctx, nil, cmd))
		cmds = append(cmds, cmd)
	}
	return cmds
}

func TestCommandHistory_ExecuteAdvancesCursor(t *testing.T) {
	h := NewCommandHistory(10)

	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.Equal(t, -1, h.Cursor())

	executeStubs(t, h, 3)

	assert.Equal(t, 3, h.Size())
	assert.Equal(t, 2, h.Cursor())
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestCommandHistory_UndoRedoRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(10)
	cmds := executeStubs(t, h, 2)

	undone, err := h.Undo(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, cmds[1], undone)
	assert.Equal(t, 0, h.Cursor())
	assert.True(t, h.CanRedo())

	redone, err := h.Redo(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, cmds[1], redone)
	assert.Equal(t, 1, h.Cursor())
	assert.Equal(t, 2, cmds[1].executions)
	assert.Equal(t, 1, cmds[1].undos)
}

func TestCommandHistory_EmptyUndoRedoAreNoOps(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(10)

	cmd, err := h.Undo(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, cmd)

	cmd, err = h.Redo(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, cmd)

	// At the tip there is nothing to redo either.
	executeStubs(t, h, 1)
	cmd, err = h.Redo(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, cmd)
}

func TestCommandHistory_NewExecuteDiscardsRedoBranch(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(10)
	cmds := executeStubs(t, h, 3)

	_, err := h.Undo(ctx, nil)
	require.NoError(t, err)
	_, err = h.Undo(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Cursor())

	replacement := newStubCommand("replacement")
	require.NoError(t, h.Execute(ctx, nil, replacement))

	assert.Equal(t, 2, h.Size())
	assert.Equal(t, 1, h.Cursor())
	assert.False(t, h.CanRedo())

	held := h.Commands()
	assert.Same(t, cmds[0], held[0])
	assert.Same(t, replacement, held[1])
}

func TestCommandHistory_CapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(3)
	cmds := executeStubs(t, h, 3)

	overflow := newStubCommand("overflow")
	require.NoError(t, h.Execute(ctx, nil, overflow))

	assert.Equal(t, 3, h.Size())
	assert.Equal(t, 2, h.Cursor())

	held := h.Commands()
	assert.Same(t, cmds[1], held[0])
	assert.Same(t, overflow, held[2])

	// The evicted command is beyond reach: three undos drain the history.
	for i := 0; i < 3; i++ {
		cmd, err := h.Undo(ctx, nil)
		require.NoError(t, err)
		require.NotNil(t, cmd)
	}
	assert.False(t, h.CanUndo())
	assert.Zero(t, cmds[0].undos)
}

func TestCommandHistory_ExecuteFailureLeavesHistoryUntouched(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(10)
	executeStubs(t, h, 2)

	failing := newStubCommand("failing")
	failing.failExecute = true
	err := h.Execute(ctx, nil, failing)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Same(t, Command(failing), execErr.Command)
	assert.Equal(t, 2, h.Size())
	assert.Equal(t, 1, h.Cursor())
}

func TestCommandHistory_UndoFailureKeepsCursor(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(10)
	cmds := executeStubs(t, h, 2)
	cmds[1].failUndo = true

	cmd, err := h.Undo(ctx, nil)

	var undoErr *UndoError
	require.ErrorAs(t, err, &undoErr)
	assert.Same(t, Command(cmds[1]), undoErr.Command)
	assert.Nil(t, cmd)
	assert.Equal(t, 1, h.Cursor())

	// The failing command stays current: a retry hits it again.
	_, err = h.Undo(ctx, nil)
	assert.ErrorAs(t, err, &undoErr)
}

func TestCommandHistory_UndoManyStopsAtBottom(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(10)
	executeStubs(t, h, 2)

	done, err := h.UndoMany(ctx, nil, 5)

	require.NoError(t, err)
	assert.Len(t, done, 2)
	assert.False(t, h.CanUndo())
}

func TestCommandHistory_UndoManyIsNotAtomic(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(10)
	cmds := executeStubs(t, h, 3)
	cmds[1].failUndo = true

	done, err := h.UndoMany(ctx, nil, 3)

	var undoErr *UndoError
	require.ErrorAs(t, err, &undoErr)
	// The first step completed and stays undone.
	assert.Len(t, done, 1)
	assert.Same(t, cmds[2], done[0].(*stubCommand))
	assert.Equal(t, 1, cmds[2].undos)
	assert.Equal(t, 1, h.Cursor())
}

func TestCommandHistory_RedoManyCollectsPrefix(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(10)
	executeStubs(t, h, 3)
	_, err := h.UndoMany(ctx, nil, 3)
	require.NoError(t, err)

	done, err := h.RedoMany(ctx, nil, 10)

	require.NoError(t, err)
	assert.Len(t, done, 3)
	assert.Equal(t, 2, h.Cursor())
	assert.False(t, h.CanRedo())
}

func TestCommandHistory_ClearDiscardsBookkeepingOnly(t *testing.T) {
	h := NewCommandHistory(10)
	cmds := executeStubs(t, h, 2)

	h.Clear()

	assert.Zero(t, h.Size())
	assert.Equal(t, -1, h.Cursor())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	// Clearing never reverses document state.
	assert.Zero(t, cmds[0].undos)
	assert.Zero(t, cmds[1].undos)
}

func TestCommandHistory_NonPositiveCapacityUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxHistory, NewCommandHistory(0).MaxHistory())
	assert.Equal(t, DefaultMaxHistory, NewCommandHistory(-5).MaxHistory())
}

func TestCommandHistory_SerializeCapturesCursorAndCapacity(t *testing.T) {
	ctx := context.Background()
	h := NewCommandHistory(7)
	executeStubs(t, h, 3)
	_, err := h.Undo(ctx, nil)
	require.NoError(t, err)

	snapshot, err := h.Serialize()

	require.NoError(t, err)
	assert.Equal(t, 7, snapshot.MaxHistory)
	assert.Equal(t, 1, snapshot.CurrentIndex)
	require.Len(t, snapshot.Commands, 3)
	assert.Equal(t, "stub", snapshot.Commands[0]["type"])
}

func TestMaterializeHistory_SkipsUnknownTags(t *testing.T) {
	registry := DefaultRegistry()
	snapshot := &ports.HistorySnapshot{
		MaxHistory:   10,
		CurrentIndex: 2,
		Commands: []map[string]interface{}{
			{"type": "stub", "label": "evicted build's command"},
			{"type": CommandTypeMoveSlide, "slideId": "d1f5cbb1-4f4a-4a39-9f41-5dd29f3b1e65", "newOrder": 1},
			{"type": CommandTypeMoveSlide, "slideId": "d1f5cbb1-4f4a-4a39-9f41-5dd29f3b1e65", "newOrder": 2},
			{"type": "another_unknown"},
		},
	}

	h, err := MaterializeHistory(snapshot, registry)

	require.NoError(t, err)
	assert.Equal(t, 2, h.Size())
	// One skipped entry sat at or below the cursor, so it shifts down once.
	assert.Equal(t, 1, h.Cursor())
	assert.Equal(t, 10, h.MaxHistory())
}

func TestMaterializeHistory_RejectsMalformedPayload(t *testing.T) {
	registry := DefaultRegistry()
	snapshot := &ports.HistorySnapshot{
		MaxHistory:   10,
		CurrentIndex: 0,
		Commands: []map[string]interface{}{
			{"type": CommandTypeMoveSlide}, // registered tag, missing slideId
		},
	}

	_, err := MaterializeHistory(snapshot, registry)

	assert.Error(t, err)
}

func TestMaterializeHistory_ClampsCursor(t *testing.T) {
	registry := DefaultRegistry()
	snapshot := &ports.HistorySnapshot{
		MaxHistory:   10,
		CurrentIndex: 9,
		Commands: []map[string]interface{}{
			{"type": CommandTypeMoveSlide, "slideId": "d1f5cbb1-4f4a-4a39-9f41-5dd29f3b1e65", "newOrder": 0},
		},
	}

	h, err := MaterializeHistory(snapshot, registry)

	require.NoError(t, err)
	assert.Equal(t, 0, h.Cursor())
}

func TestCommandHistory_SnapshotSurvivesJSONRoundTrip(t *testing.T) {
	deckID, slideID := testDeckID(t), testSlideID(t)
	h := NewCommandHistory(10)

	move, err := NewMoveSlideCommand(slideID, 3)
	require.NoError(t, err)
	create, err := NewCreateSlideCommand(deckID, map[string]interface{}{"title": "Intro"})
	require.NoError(t, err)
	h.commands = append(h.commands, create, move)
	h.cursor = 1

	snapshot, err := h.Serialize()
	require.NoError(t, err)
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	decoded := &ports.HistorySnapshot{}
	require.NoError(t, json.Unmarshal(raw, decoded))

	restored, err := MaterializeHistory(decoded, DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Size())
	assert.Equal(t, 1, restored.Cursor())

	held := restored.Commands()
	assert.Equal(t, create.ID(), held[0].ID())
	assert.Equal(t, CommandTypeCreateSlide, held[0].CommandType())
	restoredMove, ok := held[1].(*MoveSlideCommand)
	require.True(t, ok)
	assert.Equal(t, 3, restoredMove.NewOrder())
	assert.True(t, restoredMove.SlideID().Equals(slideID))
}
