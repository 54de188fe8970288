package ports

import (
	"context"

	"deckgen-backend/domain/core/entities"
	"deckgen-backend/domain/core/valueobjects"
	"deckgen-backend/domain/events"
)

// SlideRepository defines the interface for slide persistence
// This is a port in hexagonal architecture - the domain doesn't know about
// the implementation. Mutation commands invoke only GetByID, Create, Update
// and Delete; the list operations serve the query side.
type SlideRepository interface {
	// GetByID retrieves a slide by its ID
	GetByID(ctx context.Context, id valueobjects.SlideID) (*entities.Slide, error)

	// Create persists a new slide. The slide carries its own identifier so
	// that a delete-undo or create-redo can restore the original ID.
	// Implementations reindex sibling ordering when the insertion lands
	// between existing slides.
	Create(ctx context.Context, slide *entities.Slide) error

	// Update persists changes to an existing slide. When the slide's order
	// index changed, implementations reindex its siblings.
	Update(ctx context.Context, slide *entities.Slide) error

	// Delete removes a slide
	Delete(ctx context.Context, id valueobjects.SlideID) error

	// ListByDeck retrieves all slides of a deck ordered by their index
	ListByDeck(ctx context.Context, deckID valueobjects.DeckID) ([]*entities.Slide, error)

	// CountByDeck returns the number of slides in a deck
	CountByDeck(ctx context.Context, deckID valueobjects.DeckID) (int, error)
}

// EventBus publishes domain events to interested subscribers
type EventBus interface {
	// Publish delivers a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch delivers multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// HistorySnapshot is the persisted/transmitted representation of a deck's
// command history.
type HistorySnapshot struct {
	MaxHistory   int                      `json:"maxHistory"`
	CurrentIndex int                      `json:"currentIndex"`
	Commands     []map[string]interface{} `json:"commands"`
}

// HistoryStore persists command-history snapshots across process
// boundaries. Optional: the engine itself is purely in-memory.
type HistoryStore interface {
	// Save persists the snapshot for a deck, replacing any previous one
	Save(ctx context.Context, deckID valueobjects.DeckID, snapshot *HistorySnapshot) error

	// Load retrieves the snapshot for a deck; returns a NotFound error
	// when none has been saved
	Load(ctx context.Context, deckID valueobjects.DeckID) (*HistorySnapshot, error)

	// Delete removes the snapshot for a deck
	Delete(ctx context.Context, deckID valueobjects.DeckID) error
}
