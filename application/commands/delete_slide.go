package commands

import (
	"context"
	"fmt"
	"time"

	"deckgen-backend/application/ports"
	"deckgen-backend/domain/core/entities"
	"deckgen-backend/domain/core/valueobjects"
	pkgerrors "deckgen-backend/pkg/errors"
)

// DeleteSlideCommand removes a slide. Execute snapshots the whole entity
// first; Undo re-creates an entity carrying the same identifier, ordering
// index and field values. This is re-creation from the snapshot, not
// resurrection of the original storage record.
type DeleteSlideCommand struct {
	baseCommand
	slideID valueobjects.SlideID

	// Reversal snapshot, captured on Execute
	deckID    valueobjects.DeckID
	order     int
	fields    map[string]interface{}
	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewDeleteSlideCommand builds an unexecuted delete command
func NewDeleteSlideCommand(slideID valueobjects.SlideID) (*DeleteSlideCommand, error) {
	if slideID.IsZero() {
		return nil, pkgerrors.NewValidationError("slideID cannot be empty")
	}
	return &DeleteSlideCommand{
		baseCommand: newBaseCommand(CommandTypeDeleteSlide),
		slideID:     slideID,
	}, nil
}

// SlideID returns the identifier of the slide being deleted
func (c *DeleteSlideCommand) SlideID() valueobjects.SlideID { return c.slideID }

// Description returns a human-readable summary of the mutation
func (c *DeleteSlideCommand) Description() string {
	return fmt.Sprintf("delete slide %s", c.slideID)
}

// Execute snapshots the entity then deletes it
func (c *DeleteSlideCommand) Execute(ctx context.Context, repo ports.SlideRepository) error {
	slide, err := repo.GetByID(ctx, c.slideID)
	if err != nil {
		return err
	}

	c.deckID = slide.DeckID()
	c.order = slide.Order()
	c.fields = slide.Snapshot()
	c.version = slide.Version()
	c.createdAt = slide.CreatedAt()
	c.updatedAt = slide.UpdatedAt()

	if err := repo.Delete(ctx, c.slideID); err != nil {
		return err
	}
	c.markExecuted()
	return nil
}

// Undo re-creates the slide from the snapshot captured by Execute
func (c *DeleteSlideCommand) Undo(ctx context.Context, repo ports.SlideRepository) error {
	slide, err := entities.ReconstructSlide(c.slideID, c.deckID, c.order, c.fields, c.version, c.createdAt, c.updatedAt)
	if err != nil {
		return err
	}
	if err := repo.Create(ctx, slide); err != nil {
		return err
	}
	c.markUndone()
	return nil
}

// Serialize returns the transport representation of the command
func (c *DeleteSlideCommand) Serialize() (map[string]interface{}, error) {
	payload := c.serializeBase()
	payload["slideId"] = c.slideID.String()
	if c.fields != nil {
		payload["deckId"] = c.deckID.String()
		payload["order"] = c.order
		payload["fields"] = cloneFields(c.fields)
		payload["version"] = c.version
		payload["createdAt"] = c.createdAt.Format(time.RFC3339Nano)
		payload["updatedAt"] = c.updatedAt.Format(time.RFC3339Nano)
	}
	return payload, nil
}

// newDeleteSlideFromPayload is the registry factory for delete commands
func newDeleteSlideFromPayload(payload map[string]interface{}) (Command, error) {
	raw, ok := payloadString(payload, "slideId")
	if !ok {
		return nil, pkgerrors.NewValidationError("delete_slide payload is missing slideId")
	}
	slideID, err := valueobjects.NewSlideIDFromString(raw)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	cmd := &DeleteSlideCommand{
		baseCommand: restoreBase(CommandTypeDeleteSlide, payload),
		slideID:     slideID,
	}
	if fields, ok := payloadMap(payload, "fields"); ok {
		cmd.fields = cloneFields(fields)
		if rawDeck, ok := payloadString(payload, "deckId"); ok {
			deckID, err := valueobjects.NewDeckIDFromString(rawDeck)
			if err != nil {
				return nil, pkgerrors.NewValidationError(err.Error())
			}
			cmd.deckID = deckID
		}
		if order, ok := payloadInt(payload, "order"); ok {
			cmd.order = order
		}
		if version, ok := payloadInt(payload, "version"); ok {
			cmd.version = version
		}
		if ts, ok := payloadTime(payload, "createdAt"); ok {
			cmd.createdAt = ts
		}
		if ts, ok := payloadTime(payload, "updatedAt"); ok {
			cmd.updatedAt = ts
		}
	}
	return cmd, nil
}
