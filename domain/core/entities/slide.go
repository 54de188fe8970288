package entities

import (
	"fmt"
	"strings"
	"time"

	"deckgen-backend/domain/core/valueobjects"
	pkgerrors "deckgen-backend/pkg/errors"
)

// SlideLayout identifies the layout template a slide renders with
type SlideLayout string

const (
	LayoutTitle        SlideLayout = "title"
	LayoutTitleContent SlideLayout = "title_content"
	LayoutTwoColumn    SlideLayout = "two_column"
	LayoutImageFull    SlideLayout = "image_full"
	LayoutBlank        SlideLayout = "blank"
)

// Mutable slide field names. These are the only keys accepted by
// ApplyFields/SnapshotFields; the set is closed so that partial snapshots
// taken before an update always restore cleanly.
const (
	FieldTitle      = "title"
	FieldBody       = "body"
	FieldLayout     = "layout"
	FieldNotes      = "notes"
	FieldBackground = "background"
	FieldOrder      = "order"
)

// MaxTitleLength bounds slide titles; bodies hold rendered markdown
const (
	MaxTitleLength = 300
	MaxBodyLength  = 100000
)

// Slide is the entity tracked by the undo/redo engine. It is a rich domain
// model: fields are private and every mutation goes through a method that
// keeps version and updatedAt coherent.
type Slide struct {
	id         valueobjects.SlideID
	deckID     valueobjects.DeckID
	order      int
	title      string
	body       string
	layout     SlideLayout
	notes      string
	background string
	version    int
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSlide creates a new slide with business rule validation.
// Unknown or malformed fields are rejected before any state is assigned.
func NewSlide(deckID valueobjects.DeckID, fields map[string]interface{}) (*Slide, error) {
	if deckID.IsZero() {
		return nil, pkgerrors.NewValidationError("deckID cannot be empty")
	}

	now := time.Now()
	slide := &Slide{
		id:        valueobjects.NewSlideID(),
		deckID:    deckID,
		layout:    LayoutTitleContent,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}

	if err := slide.applyFields(fields); err != nil {
		return nil, err
	}
	return slide, nil
}

// ReconstructSlide rebuilds a slide from persisted data, preserving its
// identity, ordering index, timestamps and version. Used by repositories
// and by delete-undo, which re-creates the entity from a snapshot.
func ReconstructSlide(
	id valueobjects.SlideID,
	deckID valueobjects.DeckID,
	order int,
	fields map[string]interface{},
	version int,
	createdAt time.Time,
	updatedAt time.Time,
) (*Slide, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("slide ID cannot be empty")
	}
	if deckID.IsZero() {
		return nil, pkgerrors.NewValidationError("deckID cannot be empty")
	}
	if version < 1 {
		version = 1
	}

	slide := &Slide{
		id:        id,
		deckID:    deckID,
		order:     order,
		layout:    LayoutTitleContent,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}

	if err := slide.applyFields(fields); err != nil {
		return nil, err
	}
	// applyFields bumps these; restore the persisted values
	slide.version = version
	slide.updatedAt = updatedAt
	return slide, nil
}

// ID returns the slide identifier
func (s *Slide) ID() valueobjects.SlideID { return s.id }

// DeckID returns the identifier of the owning deck
func (s *Slide) DeckID() valueobjects.DeckID { return s.deckID }

// Order returns the slide's position within its deck
func (s *Slide) Order() int { return s.order }

// Title returns the slide title
func (s *Slide) Title() string { return s.title }

// Body returns the slide body content
func (s *Slide) Body() string { return s.body }

// Layout returns the slide layout
func (s *Slide) Layout() SlideLayout { return s.layout }

// Notes returns the speaker notes
func (s *Slide) Notes() string { return s.notes }

// Background returns the background descriptor
func (s *Slide) Background() string { return s.background }

// Version returns the entity version, incremented on every mutation
func (s *Slide) Version() int { return s.version }

// CreatedAt returns the creation timestamp
func (s *Slide) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last modification timestamp
func (s *Slide) UpdatedAt() time.Time { return s.updatedAt }

// SetOrder moves the slide to a new position within its deck
func (s *Slide) SetOrder(order int) error {
	if order < 0 {
		return pkgerrors.NewValidationError("order cannot be negative")
	}
	s.order = order
	s.touch()
	return nil
}

// SnapshotFields captures the current values of the named fields.
// The returned map feeds an update command's reversal data, so it contains
// exactly the requested keys and nothing else.
func (s *Slide) SnapshotFields(names []string) (map[string]interface{}, error) {
	snapshot := make(map[string]interface{}, len(names))
	for _, name := range names {
		switch name {
		case FieldTitle:
			snapshot[name] = s.title
		case FieldBody:
			snapshot[name] = s.body
		case FieldLayout:
			snapshot[name] = string(s.layout)
		case FieldNotes:
			snapshot[name] = s.notes
		case FieldBackground:
			snapshot[name] = s.background
		case FieldOrder:
			snapshot[name] = s.order
		default:
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown slide field %q", name))
		}
	}
	return snapshot, nil
}

// Snapshot captures every mutable field plus the ordering index.
// Used by delete commands, which must be able to re-create the whole entity.
func (s *Slide) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		FieldTitle:      s.title,
		FieldBody:       s.body,
		FieldLayout:     string(s.layout),
		FieldNotes:      s.notes,
		FieldBackground: s.background,
		FieldOrder:      s.order,
	}
}

// ApplyFields applies a partial field update. Fields absent from the map
// are left untouched. The whole update is validated before any field is
// written, so a rejected update never half-applies.
func (s *Slide) ApplyFields(fields map[string]interface{}) error {
	if len(fields) == 0 {
		return pkgerrors.NewValidationError("no fields to apply")
	}
	return s.applyFields(fields)
}

func (s *Slide) applyFields(fields map[string]interface{}) error {
	staged := *s
	for name, value := range fields {
		if err := staged.setField(name, value); err != nil {
			return err
		}
	}
	staged.touch()
	*s = staged
	return nil
}

func (s *Slide) setField(name string, value interface{}) error {
	switch name {
	case FieldTitle:
		title, ok := value.(string)
		if !ok {
			return pkgerrors.NewValidationError("title must be a string")
		}
		if len(title) > MaxTitleLength {
			return pkgerrors.NewValidationError("title exceeds maximum length")
		}
		s.title = title
	case FieldBody:
		body, ok := value.(string)
		if !ok {
			return pkgerrors.NewValidationError("body must be a string")
		}
		if len(body) > MaxBodyLength {
			return pkgerrors.NewValidationError("body exceeds maximum length")
		}
		s.body = body
	case FieldLayout:
		layout, ok := layoutValue(value)
		if !ok {
			return pkgerrors.NewValidationError("layout is not a recognized layout name")
		}
		s.layout = layout
	case FieldNotes:
		notes, ok := value.(string)
		if !ok {
			return pkgerrors.NewValidationError("notes must be a string")
		}
		s.notes = notes
	case FieldBackground:
		background, ok := value.(string)
		if !ok {
			return pkgerrors.NewValidationError("background must be a string")
		}
		s.background = background
	case FieldOrder:
		order, ok := intValue(value)
		if !ok || order < 0 {
			return pkgerrors.NewValidationError("order must be a non-negative integer")
		}
		s.order = order
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown slide field %q", name))
	}
	return nil
}

func (s *Slide) touch() {
	s.version++
	s.updatedAt = time.Now()
}

// layoutValue coerces a layout field value, accepting both the typed
// constant and its string form (serialized payloads carry strings).
func layoutValue(value interface{}) (SlideLayout, bool) {
	var name string
	switch v := value.(type) {
	case SlideLayout:
		name = string(v)
	case string:
		name = v
	default:
		return "", false
	}

	switch SlideLayout(strings.ToLower(name)) {
	case LayoutTitle, LayoutTitleContent, LayoutTwoColumn, LayoutImageFull, LayoutBlank:
		return SlideLayout(strings.ToLower(name)), true
	}
	return "", false
}

// intValue coerces an integer field value. JSON round-trips deliver
// numbers as float64, so both forms are accepted.
func intValue(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}
