package commands

import (
	"context"
	"errors"

	"deckgen-backend/application/ports"
)

// DefaultMaxHistory is the capacity used when none is configured
const DefaultMaxHistory = 50

// CommandHistory is a bounded, linear undo/redo stack scoped to one deck.
//
// The cursor ranges over [-1, len-1]; -1 means no commands applied.
// Commands at 0..cursor are applied, commands at cursor+1..end are
// redoable. Executing a new command discards the redoable suffix; exceeding
// capacity evicts the oldest entry and re-clamps the cursor.
//
// CommandHistory does no locking of its own: callers serialize access per
// deck (see HistoryManager). Bookkeeping never performs I/O; only the
// commands' Execute/Undo touch the repository.
type CommandHistory struct {
	commands   []Command
	cursor     int
	maxHistory int
}

// NewCommandHistory creates an empty history with the given capacity.
// A non-positive capacity falls back to DefaultMaxHistory.
func NewCommandHistory(maxHistory int) *CommandHistory {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &CommandHistory{
		commands:   make([]Command, 0, maxHistory),
		cursor:     -1,
		maxHistory: maxHistory,
	}
}

// CanUndo reports whether at least one applied command can be reversed
func (h *CommandHistory) CanUndo() bool { return h.cursor >= 0 }

// CanRedo reports whether a previously undone command can be replayed
func (h *CommandHistory) CanRedo() bool { return h.cursor < len(h.commands)-1 }

// Size returns the number of commands currently held
func (h *CommandHistory) Size() int { return len(h.commands) }

// Cursor returns the current cursor position
func (h *CommandHistory) Cursor() int { return h.cursor }

// MaxHistory returns the configured capacity
func (h *CommandHistory) MaxHistory() int { return h.maxHistory }

// Commands returns the ordered command list as a copy; the entries
// themselves remain owned by the history.
func (h *CommandHistory) Commands() []Command {
	out := make([]Command, len(h.commands))
	copy(out, h.commands)
	return out
}

// Execute runs the command and records it. On failure the error is
// propagated as a *ExecutionError and the history is left untouched. On
// success the redo branch beyond the cursor is discarded, the command is
// appended (evicting the oldest entry when at capacity) and the cursor
// moves to the new tip.
func (h *CommandHistory) Execute(ctx context.Context, repo ports.SlideRepository, cmd Command) error {
	if err := cmd.Execute(ctx, repo); err != nil {
		return &ExecutionError{Command: cmd, Err: err}
	}

	// Discard the redo branch
	h.commands = h.commands[:h.cursor+1]
	h.commands = append(h.commands, cmd)

	// Ring-buffer eviction of the oldest entry
	if len(h.commands) > h.maxHistory {
		h.commands = h.commands[1:]
	}
	h.cursor = len(h.commands) - 1
	return nil
}

// Undo reverses the command under the cursor. Returns (nil, nil) when
// there is nothing to undo. On failure the cursor is unchanged and a
// *UndoError is returned.
func (h *CommandHistory) Undo(ctx context.Context, repo ports.SlideRepository) (Command, error) {
	if !h.CanUndo() {
		return nil, nil
	}

	cmd := h.commands[h.cursor]
	if err := cmd.Undo(ctx, repo); err != nil {
		return nil, &UndoError{Command: cmd, Err: err}
	}
	h.cursor--
	return cmd, nil
}

// Redo replays the command just beyond the cursor. Returns (nil, nil) when
// there is nothing to redo. On failure the cursor is unchanged and a
// *ExecutionError is returned.
func (h *CommandHistory) Redo(ctx context.Context, repo ports.SlideRepository) (Command, error) {
	if !h.CanRedo() {
		return nil, nil
	}

	cmd := h.commands[h.cursor+1]
	if err := cmd.Execute(ctx, repo); err != nil {
		return nil, &ExecutionError{Command: cmd, Err: err}
	}
	h.cursor++
	return cmd, nil
}

// UndoMany performs up to k undo steps, collecting the reversed commands in
// order. It stops at the first failure; steps already completed within the
// batch are not rolled back.
func (h *CommandHistory) UndoMany(ctx context.Context, repo ports.SlideRepository, k int) ([]Command, error) {
	var done []Command
	for i := 0; i < k; i++ {
		cmd, err := h.Undo(ctx, repo)
		if err != nil {
			return done, err
		}
		if cmd == nil {
			break
		}
		done = append(done, cmd)
	}
	return done, nil
}

// RedoMany performs up to k redo steps, collecting the replayed commands in
// order. It stops at the first failure; steps already completed within the
// batch are not rolled back.
func (h *CommandHistory) RedoMany(ctx context.Context, repo ports.SlideRepository, k int) ([]Command, error) {
	var done []Command
	for i := 0; i < k; i++ {
		cmd, err := h.Redo(ctx, repo)
		if err != nil {
			return done, err
		}
		if cmd == nil {
			break
		}
		done = append(done, cmd)
	}
	return done, nil
}

// Clear resets the history to empty without undoing anything: it discards
// bookkeeping only, never document state.
func (h *CommandHistory) Clear() {
	h.commands = h.commands[:0]
	h.cursor = -1
}

// Serialize returns the persisted representation of the history: capacity,
// cursor and the ordered command list.
func (h *CommandHistory) Serialize() (*ports.HistorySnapshot, error) {
	snapshot := &ports.HistorySnapshot{
		MaxHistory:   h.maxHistory,
		CurrentIndex: h.cursor,
		Commands:     make([]map[string]interface{}, 0, len(h.commands)),
	}
	for _, cmd := range h.commands {
		payload, err := cmd.Serialize()
		if err != nil {
			return nil, err
		}
		snapshot.Commands = append(snapshot.Commands, payload)
	}
	return snapshot, nil
}

// MaterializeHistory rebuilds a history from a snapshot using the registry.
// Commands whose type tag is not registered are skipped rather than
// failing, tolerating histories written by newer or older builds; the
// cursor shifts down by the number of skipped entries at or before it.
// Payloads a registered factory rejects are reported as errors.
func MaterializeHistory(snapshot *ports.HistorySnapshot, registry *Registry) (*CommandHistory, error) {
	h := NewCommandHistory(snapshot.MaxHistory)

	cursor := snapshot.CurrentIndex
	for i, payload := range snapshot.Commands {
		cmd, err := registry.Create(payload)
		if err != nil {
			var regErr *RegistryError
			if errors.As(err, &regErr) {
				if i <= snapshot.CurrentIndex {
					cursor--
				}
				continue
			}
			return nil, err
		}
		h.commands = append(h.commands, cmd)
	}

	if cursor < -1 {
		cursor = -1
	}
	if cursor > len(h.commands)-1 {
		cursor = len(h.commands) - 1
	}
	h.cursor = cursor
	return h, nil
}
