package commands

import (
	"context"
	"fmt"

	"deckgen-backend/application/ports"
	"deckgen-backend/domain/core/valueobjects"
	pkgerrors "deckgen-backend/pkg/errors"
)

// MoveSlideCommand changes a slide's position within its deck. Execute
// snapshots the prior order index before applying the new one; the
// repository reindexes siblings as part of the order change. Undo restores
// only the moved slide's prior index — sibling reindexing is not reversed.
type MoveSlideCommand struct {
	baseCommand
	slideID       valueobjects.SlideID
	newOrder      int
	previousOrder int
}

// NewMoveSlideCommand builds an unexecuted move command
func NewMoveSlideCommand(slideID valueobjects.SlideID, newOrder int) (*MoveSlideCommand, error) {
	if slideID.IsZero() {
		return nil, pkgerrors.NewValidationError("slideID cannot be empty")
	}
	if newOrder < 0 {
		return nil, pkgerrors.NewValidationError("order cannot be negative")
	}
	return &MoveSlideCommand{
		baseCommand: newBaseCommand(CommandTypeMoveSlide),
		slideID:     slideID,
		newOrder:    newOrder,
	}, nil
}

// SlideID returns the identifier of the slide being moved
func (c *MoveSlideCommand) SlideID() valueobjects.SlideID { return c.slideID }

// NewOrder returns the target order index
func (c *MoveSlideCommand) NewOrder() int { return c.newOrder }

// PreviousOrder returns the order index recorded before the move
func (c *MoveSlideCommand) PreviousOrder() int { return c.previousOrder }

// Description returns a human-readable summary of the mutation
func (c *MoveSlideCommand) Description() string {
	return fmt.Sprintf("move slide %s to position %d", c.slideID, c.newOrder)
}

// Execute records the prior order index and applies the new one
func (c *MoveSlideCommand) Execute(ctx context.Context, repo ports.SlideRepository) error {
	slide, err := repo.GetByID(ctx, c.slideID)
	if err != nil {
		return err
	}

	previous := slide.Order()
	if err := slide.SetOrder(c.newOrder); err != nil {
		return err
	}
	if err := repo.Update(ctx, slide); err != nil {
		return err
	}

	c.previousOrder = previous
	c.markExecuted()
	return nil
}

// Undo restores the moved slide's prior order index
func (c *MoveSlideCommand) Undo(ctx context.Context, repo ports.SlideRepository) error {
	slide, err := repo.GetByID(ctx, c.slideID)
	if err != nil {
		return err
	}
	if err := slide.SetOrder(c.previousOrder); err != nil {
		return err
	}
	if err := repo.Update(ctx, slide); err != nil {
		return err
	}
	c.markUndone()
	return nil
}

// Serialize returns the transport representation of the command
func (c *MoveSlideCommand) Serialize() (map[string]interface{}, error) {
	payload := c.serializeBase()
	payload["slideId"] = c.slideID.String()
	payload["newOrder"] = c.newOrder
	payload["previousOrder"] = c.previousOrder
	return payload, nil
}

// newMoveSlideFromPayload is the registry factory for move commands
func newMoveSlideFromPayload(payload map[string]interface{}) (Command, error) {
	raw, ok := payloadString(payload, "slideId")
	if !ok {
		return nil, pkgerrors.NewValidationError("move_slide payload is missing slideId")
	}
	slideID, err := valueobjects.NewSlideIDFromString(raw)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	newOrder, ok := payloadInt(payload, "newOrder")
	if !ok || newOrder < 0 {
		return nil, pkgerrors.NewValidationError("move_slide payload has an invalid newOrder")
	}

	cmd := &MoveSlideCommand{
		baseCommand: restoreBase(CommandTypeMoveSlide, payload),
		slideID:     slideID,
		newOrder:    newOrder,
	}
	if previous, ok := payloadInt(payload, "previousOrder"); ok {
		cmd.previousOrder = previous
	}
	return cmd, nil
}
