package commands

import "fmt"

// ExecutionError reports that a command's Execute failed. The offending
// command is attached for diagnostics; the history that dispatched it has
// not advanced its cursor.
type ExecutionError struct {
	Command Command
	Err     error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command %s (%s) failed to execute: %v", e.Command.CommandType(), e.Command.ID(), e.Err)
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error { return e.Err }

// UndoError reports that a command's Undo failed, typically because the
// entity was mutated externally since execution. The cursor is left
// unchanged.
type UndoError struct {
	Command Command
	Err     error
}

// Error implements the error interface
func (e *UndoError) Error() string {
	return fmt.Sprintf("command %s (%s) failed to undo: %v", e.Command.CommandType(), e.Command.ID(), e.Err)
}

// Unwrap returns the underlying error
func (e *UndoError) Unwrap() error { return e.Err }

// RegistryError reports an unknown or missing type tag during command
// reconstruction.
type RegistryError struct {
	Tag string
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	if e.Tag == "" {
		return "command payload is missing a type tag"
	}
	return fmt.Sprintf("no command registered for type tag %q", e.Tag)
}
