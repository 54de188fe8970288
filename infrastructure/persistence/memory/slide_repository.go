// Package memory provides in-memory persistence used by tests and by
// local development wiring.
package memory

import (
	"context"
	"sort"
	"sync"

	"deckgen-backend/domain/core/entities"
	"deckgen-backend/domain/core/valueobjects"
	pkgerrors "deckgen-backend/pkg/errors"
)

// InMemorySlideRepository provides an in-memory implementation of
// ports.SlideRepository. It maintains the same ordering contract as the
// DynamoDB implementation: slide order indexes within a deck are kept
// dense (0..n-1), and inserting or moving a slide reindexes its siblings.
type InMemorySlideRepository struct {
	mu     sync.RWMutex
	slides map[string]*entities.Slide
}

// NewInMemorySlideRepository creates a new in-memory slide repository
func NewInMemorySlideRepository() *InMemorySlideRepository {
	return &InMemorySlideRepository{
		slides: make(map[string]*entities.Slide),
	}
}

// GetByID retrieves a slide by its ID
func (r *InMemorySlideRepository) GetByID(ctx context.Context, id valueobjects.SlideID) (*entities.Slide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slide, ok := r.slides[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("slide " + id.String())
	}
	cp := *slide
	return &cp, nil
}

// Create persists a new slide, inserting it at its order index and
// shifting siblings at or beyond that index.
func (r *InMemorySlideRepository) Create(ctx context.Context, slide *entities.Slide) error {
	if slide == nil {
		return pkgerrors.NewValidationError("slide cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slides[slide.ID().String()]; exists {
		return pkgerrors.NewConflictError("slide already exists: " + slide.ID().String())
	}

	cp := *slide
	r.slides[cp.ID().String()] = &cp
	r.reindexDeck(cp.DeckID(), &cp, cp.Order())
	return nil
}

// Update persists changes to an existing slide, reindexing siblings when
// the order index changed.
func (r *InMemorySlideRepository) Update(ctx context.Context, slide *entities.Slide) error {
	if slide == nil {
		return pkgerrors.NewValidationError("slide cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.slides[slide.ID().String()]
	if !ok {
		return pkgerrors.NewNotFoundError("slide " + slide.ID().String())
	}

	orderChanged := stored.Order() != slide.Order()
	cp := *slide
	r.slides[cp.ID().String()] = &cp
	if orderChanged {
		r.reindexDeck(cp.DeckID(), &cp, cp.Order())
	}
	return nil
}

// Delete removes a slide and closes the ordering gap it leaves behind
func (r *InMemorySlideRepository) Delete(ctx context.Context, id valueobjects.SlideID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slide, ok := r.slides[id.String()]
	if !ok {
		return pkgerrors.NewNotFoundError("slide " + id.String())
	}

	deckID := slide.DeckID()
	delete(r.slides, id.String())
	r.reindexDeck(deckID, nil, 0)
	return nil
}

// ListByDeck retrieves all slides of a deck ordered by their index
func (r *InMemorySlideRepository) ListByDeck(ctx context.Context, deckID valueobjects.DeckID) ([]*entities.Slide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slides := r.deckSlides(deckID)
	out := make([]*entities.Slide, 0, len(slides))
	for _, slide := range slides {
		cp := *slide
		out = append(out, &cp)
	}
	return out, nil
}

// CountByDeck returns the number of slides in a deck
func (r *InMemorySlideRepository) CountByDeck(ctx context.Context, deckID valueobjects.DeckID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.deckSlides(deckID)), nil
}

// deckSlides returns the deck's slides sorted by order index, with
// identifier as the tiebreak. Callers hold the lock.
func (r *InMemorySlideRepository) deckSlides(deckID valueobjects.DeckID) []*entities.Slide {
	var slides []*entities.Slide
	for _, slide := range r.slides {
		if slide.DeckID().Equals(deckID) {
			slides = append(slides, slide)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		if slides[i].Order() != slides[j].Order() {
			return slides[i].Order() < slides[j].Order()
		}
		return slides[i].ID().String() < slides[j].ID().String()
	})
	return slides
}

// reindexDeck renumbers a deck's slides to a dense 0..n-1 sequence. When
// moved is non-nil it is forced to the desired index and its siblings
// shift around it. Callers hold the lock.
func (r *InMemorySlideRepository) reindexDeck(deckID valueobjects.DeckID, moved *entities.Slide, desired int) {
	slides := r.deckSlides(deckID)
	if moved != nil {
		// Pull the moved slide out, clamp the target, splice it back in
		filtered := slides[:0]
		for _, slide := range slides {
			if !slide.ID().Equals(moved.ID()) {
				filtered = append(filtered, slide)
			}
		}
		if desired < 0 {
			desired = 0
		}
		if desired > len(filtered) {
			desired = len(filtered)
		}
		slides = append(filtered[:desired:desired], append([]*entities.Slide{moved}, filtered[desired:]...)...)
	}

	for i, slide := range slides {
		if slide.Order() != i {
			slide.SetOrder(i)
		}
	}
}
