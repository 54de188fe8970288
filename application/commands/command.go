// Package commands implements the per-deck undo/redo engine: the reversible
// Command contract, the tag registry used for serialization round-trips, the
// bounded CommandHistory state machine, and the concrete slide mutation
// commands executed against the slide repository.
package commands

import (
	"context"
	"time"

	"deckgen-backend/application/ports"

	"github.com/google/uuid"
)

// Command type tags. These are the wire discriminators carried by
// serialized histories, so they must stay stable.
const (
	CommandTypeCreateSlide = "create_slide"
	CommandTypeUpdateSlide = "update_slide"
	CommandTypeDeleteSlide = "delete_slide"
	CommandTypeMoveSlide   = "move_slide"
)

// Command is a self-contained, reversible unit of mutation.
//
// Execute mutates repository state and, on success, records an executed
// timestamp. Undo must reverse exactly the effect of the immediately
// preceding Execute of the same instance and records an undone timestamp.
// Undo is only valid immediately after a successful Execute; that is a
// precondition of the history that owns the command, not something the
// command checks at runtime.
//
// The repository is passed explicitly to Execute/Undo so commands carry no
// reference to the storage layer; a command owns nothing but its intent and
// its reversal data.
type Command interface {
	// ID returns the unique identifier of this command instance
	ID() string

	// CommandType returns the type tag used for registry dispatch
	CommandType() string

	// Description returns a human-readable summary of the mutation
	Description() string

	// Execute applies the mutation through the repository
	Execute(ctx context.Context, repo ports.SlideRepository) error

	// Undo reverses the mutation through the repository
	Undo(ctx context.Context, repo ports.SlideRepository) error

	// Serialize returns the transport representation of the command,
	// including its type tag under the "type" key
	Serialize() (map[string]interface{}, error)
}

// baseCommand carries the bookkeeping shared by every concrete command:
// identity, type tag and the executed/undone lifecycle timestamps.
type baseCommand struct {
	id          string
	commandType string
	executedAt  *time.Time
	undoneAt    *time.Time
}

func newBaseCommand(commandType string) baseCommand {
	return baseCommand{
		id:          uuid.New().String(),
		commandType: commandType,
	}
}

// ID returns the command instance identifier
func (c *baseCommand) ID() string { return c.id }

// CommandType returns the command's type tag
func (c *baseCommand) CommandType() string { return c.commandType }

// ExecutedAt returns when the command last executed successfully, or nil
func (c *baseCommand) ExecutedAt() *time.Time { return c.executedAt }

// UndoneAt returns when the command was last undone, or nil
func (c *baseCommand) UndoneAt() *time.Time { return c.undoneAt }

// markExecuted records a successful execution. A redo re-marks the command
// executed and clears the undone timestamp.
func (c *baseCommand) markExecuted() {
	now := time.Now()
	c.executedAt = &now
	c.undoneAt = nil
}

// markUndone records a successful undo
func (c *baseCommand) markUndone() {
	now := time.Now()
	c.undoneAt = &now
}

// serializeBase seeds a payload map with the shared fields
func (c *baseCommand) serializeBase() map[string]interface{} {
	payload := map[string]interface{}{
		"type": c.commandType,
		"id":   c.id,
	}
	if c.executedAt != nil {
		payload["executedAt"] = c.executedAt.Format(time.RFC3339Nano)
	}
	if c.undoneAt != nil {
		payload["undoneAt"] = c.undoneAt.Format(time.RFC3339Nano)
	}
	return payload
}

// restoreBase rebuilds the shared fields from a payload. A payload without
// an id gets a fresh one; timestamps are optional.
func restoreBase(commandType string, payload map[string]interface{}) baseCommand {
	base := baseCommand{commandType: commandType}

	if id, ok := payloadString(payload, "id"); ok && id != "" {
		base.id = id
	} else {
		base.id = uuid.New().String()
	}
	if ts, ok := payloadTime(payload, "executedAt"); ok {
		base.executedAt = &ts
	}
	if ts, ok := payloadTime(payload, "undoneAt"); ok {
		base.undoneAt = &ts
	}
	return base
}
