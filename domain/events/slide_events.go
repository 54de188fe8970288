package events

import (
	"time"

	"deckgen-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Slide events. The aggregate is the deck: one undo history, one event
// stream per deck.

// SlideCreated is raised when a new slide is inserted into a deck
type SlideCreated struct {
	BaseEvent
	SlideID valueobjects.SlideID `json:"slide_id"`
	DeckID  valueobjects.DeckID  `json:"deck_id"`
	Order   int                  `json:"order"`
}

// NewSlideCreated creates a SlideCreated event
func NewSlideCreated(slideID valueobjects.SlideID, deckID valueobjects.DeckID, order int, timestamp time.Time) SlideCreated {
	return SlideCreated{
		BaseEvent: BaseEvent{
			AggregateID: deckID.String(),
			EventType:   "slide.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		SlideID: slideID,
		DeckID:  deckID,
		Order:   order,
	}
}

// SlideUpdated is raised when slide fields change
type SlideUpdated struct {
	BaseEvent
	SlideID       valueobjects.SlideID `json:"slide_id"`
	DeckID        valueobjects.DeckID  `json:"deck_id"`
	UpdatedFields []string             `json:"updated_fields"`
}

// NewSlideUpdated creates a SlideUpdated event
func NewSlideUpdated(slideID valueobjects.SlideID, deckID valueobjects.DeckID, updatedFields []string, timestamp time.Time) SlideUpdated {
	return SlideUpdated{
		BaseEvent: BaseEvent{
			AggregateID: deckID.String(),
			EventType:   "slide.updated",
			Timestamp:   timestamp,
			Version:     1,
		},
		SlideID:       slideID,
		DeckID:        deckID,
		UpdatedFields: updatedFields,
	}
}

// SlideDeleted is raised when a slide is removed from a deck
type SlideDeleted struct {
	BaseEvent
	SlideID valueobjects.SlideID `json:"slide_id"`
	DeckID  valueobjects.DeckID  `json:"deck_id"`
}

// NewSlideDeleted creates a SlideDeleted event
func NewSlideDeleted(slideID valueobjects.SlideID, deckID valueobjects.DeckID, timestamp time.Time) SlideDeleted {
	return SlideDeleted{
		BaseEvent: BaseEvent{
			AggregateID: deckID.String(),
			EventType:   "slide.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		SlideID: slideID,
		DeckID:  deckID,
	}
}

// SlideMoved is raised when a slide changes position within its deck
type SlideMoved struct {
	BaseEvent
	SlideID  valueobjects.SlideID `json:"slide_id"`
	DeckID   valueobjects.DeckID  `json:"deck_id"`
	OldOrder int                  `json:"old_order"`
	NewOrder int                  `json:"new_order"`
}

// NewSlideMoved creates a SlideMoved event
func NewSlideMoved(slideID valueobjects.SlideID, deckID valueobjects.DeckID, oldOrder, newOrder int, timestamp time.Time) SlideMoved {
	return SlideMoved{
		BaseEvent: BaseEvent{
			AggregateID: deckID.String(),
			EventType:   "slide.moved",
			Timestamp:   timestamp,
			Version:     1,
		},
		SlideID:  slideID,
		DeckID:   deckID,
		OldOrder: oldOrder,
		NewOrder: newOrder,
	}
}

// EditReverted is raised when an edit is undone or redone through the
// deck's command history
type EditReverted struct {
	BaseEvent
	DeckID      valueobjects.DeckID `json:"deck_id"`
	CommandType string              `json:"command_type"`
	Direction   string              `json:"direction"` // "undo" or "redo"
}

// NewEditReverted creates an EditReverted event
func NewEditReverted(deckID valueobjects.DeckID, commandType, direction string, timestamp time.Time) EditReverted {
	return EditReverted{
		BaseEvent: BaseEvent{
			AggregateID: deckID.String(),
			EventType:   "deck.edit_reverted",
			Timestamp:   timestamp,
			Version:     1,
		},
		DeckID:      deckID,
		CommandType: commandType,
		Direction:   direction,
	}
}
