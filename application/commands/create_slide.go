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

// CreateSlideCommand inserts a new slide into a deck. The identifier
// assigned at creation time is recorded so undo can remove exactly that
// slide, and so a redo re-creates it under the same identifier.
type CreateSlideCommand struct {
	baseCommand
	deckID    valueobjects.DeckID
	fields    map[string]interface{}
	createdID valueobjects.SlideID
}

// NewCreateSlideCommand builds an unexecuted create command
func NewCreateSlideCommand(deckID valueobjects.DeckID, fields map[string]interface{}) (*CreateSlideCommand, error) {
	if deckID.IsZero() {
		return nil, pkgerrors.NewValidationError("deckID cannot be empty")
	}
	return &CreateSlideCommand{
		baseCommand: newBaseCommand(CommandTypeCreateSlide),
		deckID:      deckID,
		fields:      cloneFields(fields),
	}, nil
}

// Description returns a human-readable summary of the mutation
func (c *CreateSlideCommand) Description() string {
	return fmt.Sprintf("create slide in deck %s", c.deckID)
}

// CreatedSlideID returns the identifier assigned on first execution; zero
// until the command has executed.
func (c *CreateSlideCommand) CreatedSlideID() valueobjects.SlideID { return c.createdID }

// Execute inserts the slide. The first execution mints a fresh identifier
// and records it; a re-execution (redo) reconstructs the slide under the
// recorded identifier so later commands referencing it stay valid.
func (c *CreateSlideCommand) Execute(ctx context.Context, repo ports.SlideRepository) error {
	var slide *entities.Slide
	var err error

	if c.createdID.IsZero() {
		slide, err = entities.NewSlide(c.deckID, c.fields)
		if err != nil {
			return err
		}
		c.createdID = slide.ID()
	} else {
		now := time.Now()
		slide, err = entities.ReconstructSlide(c.createdID, c.deckID, 0, c.fields, 1, now, now)
		if err != nil {
			return err
		}
	}

	if err := repo.Create(ctx, slide); err != nil {
		return err
	}
	c.markExecuted()
	return nil
}

// Undo deletes the slide created by the preceding Execute
func (c *CreateSlideCommand) Undo(ctx context.Context, repo ports.SlideRepository) error {
	if err := repo.Delete(ctx, c.createdID); err != nil {
		return err
	}
	c.markUndone()
	return nil
}

// Serialize returns the transport representation of the command
func (c *CreateSlideCommand) Serialize() (map[string]interface{}, error) {
	payload := c.serializeBase()
	payload["deckId"] = c.deckID.String()
	payload["fields"] = cloneFields(c.fields)
	if !c.createdID.IsZero() {
		payload["createdId"] = c.createdID.String()
	}
	return payload, nil
}

// newCreateSlideFromPayload is the registry factory for create commands
func newCreateSlideFromPayload(payload map[string]interface{}) (Command, error) {
	rawDeckID, ok := payloadString(payload, "deckId")
	if !ok {
		return nil, pkgerrors.NewValidationError("create_slide payload is missing deckId")
	}
	deckID, err := valueobjects.NewDeckIDFromString(rawDeckID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	cmd := &CreateSlideCommand{
		baseCommand: restoreBase(CommandTypeCreateSlide, payload),
		deckID:      deckID,
	}
	if fields, ok := payloadMap(payload, "fields"); ok {
		cmd.fields = cloneFields(fields)
	}
	if raw, ok := payloadString(payload, "createdId"); ok {
		id, err := valueobjects.NewSlideIDFromString(raw)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		cmd.createdID = id
	}
	return cmd, nil
}

// cloneFields copies a field map so a command's reversal data cannot be
// mutated by the caller after capture.
func cloneFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
