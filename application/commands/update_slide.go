package commands

import (
	"context"
	"fmt"
	"sort"

	"deckgen-backend/application/ports"
	"deckgen-backend/domain/core/valueobjects"
	pkgerrors "deckgen-backend/pkg/errors"
)

// UpdateSlideCommand applies a partial field update to a slide. Before
// mutating, Execute snapshots only the fields about to change; Undo
// restores exactly that snapshot. Fields not named in the update are
// untouched in either direction.
type UpdateSlideCommand struct {
	baseCommand
	slideID  valueobjects.SlideID
	updates  map[string]interface{}
	previous map[string]interface{}
}

// NewUpdateSlideCommand builds an unexecuted update command
func NewUpdateSlideCommand(slideID valueobjects.SlideID, updates map[string]interface{}) (*UpdateSlideCommand, error) {
	if slideID.IsZero() {
		return nil, pkgerrors.NewValidationError("slideID cannot be empty")
	}
	if len(updates) == 0 {
		return nil, pkgerrors.NewValidationError("update requires at least one field")
	}
	return &UpdateSlideCommand{
		baseCommand: newBaseCommand(CommandTypeUpdateSlide),
		slideID:     slideID,
		updates:     cloneFields(updates),
	}, nil
}

// SlideID returns the identifier of the slide being updated
func (c *UpdateSlideCommand) SlideID() valueobjects.SlideID { return c.slideID }

// Description returns a human-readable summary of the mutation
func (c *UpdateSlideCommand) Description() string {
	return fmt.Sprintf("update %v on slide %s", c.updatedFieldNames(), c.slideID)
}

// UpdatedFieldNames returns the names of the fields this command changes,
// sorted for stable output.
func (c *UpdateSlideCommand) UpdatedFieldNames() []string {
	return c.updatedFieldNames()
}

func (c *UpdateSlideCommand) updatedFieldNames() []string {
	names := make([]string, 0, len(c.updates))
	for name := range c.updates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute snapshots the prior values of the fields being changed, then
// applies the update.
func (c *UpdateSlideCommand) Execute(ctx context.Context, repo ports.SlideRepository) error {
	slide, err := repo.GetByID(ctx, c.slideID)
	if err != nil {
		return err
	}

	previous, err := slide.SnapshotFields(c.updatedFieldNames())
	if err != nil {
		return err
	}
	if err := slide.ApplyFields(c.updates); err != nil {
		return err
	}
	if err := repo.Update(ctx, slide); err != nil {
		return err
	}

	c.previous = previous
	c.markExecuted()
	return nil
}

// Undo restores the snapshot captured by the preceding Execute
func (c *UpdateSlideCommand) Undo(ctx context.Context, repo ports.SlideRepository) error {
	slide, err := repo.GetByID(ctx, c.slideID)
	if err != nil {
		return err
	}
	if err := slide.ApplyFields(c.previous); err != nil {
		return err
	}
	if err := repo.Update(ctx, slide); err != nil {
		return err
	}
	c.markUndone()
	return nil
}

// Serialize returns the transport representation of the command
func (c *UpdateSlideCommand) Serialize() (map[string]interface{}, error) {
	payload := c.serializeBase()
	payload["slideId"] = c.slideID.String()
	payload["updates"] = cloneFields(c.updates)
	if c.previous != nil {
		payload["previous"] = cloneFields(c.previous)
	}
	return payload, nil
}

// newUpdateSlideFromPayload is the registry factory for update commands
func newUpdateSlideFromPayload(payload map[string]interface{}) (Command, error) {
	raw, ok := payloadString(payload, "slideId")
	if !ok {
		return nil, pkgerrors.NewValidationError("update_slide payload is missing slideId")
	}
	slideID, err := valueobjects.NewSlideIDFromString(raw)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	updates, ok := payloadMap(payload, "updates")
	if !ok || len(updates) == 0 {
		return nil, pkgerrors.NewValidationError("update_slide payload is missing updates")
	}

	cmd := &UpdateSlideCommand{
		baseCommand: restoreBase(CommandTypeUpdateSlide, payload),
		slideID:     slideID,
		updates:     cloneFields(updates),
	}
	if previous, ok := payloadMap(payload, "previous"); ok {
		cmd.previous = cloneFields(previous)
	}
	return cmd, nil
}
