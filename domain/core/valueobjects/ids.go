package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// SlideID is a value object representing a unique slide identifier
// Value objects are immutable and have no identity beyond their value
type SlideID struct {
	value string
}

// NewSlideID creates a new random SlideID
func NewSlideID() SlideID {
	return SlideID{value: uuid.New().String()}
}

// NewSlideIDFromString creates a SlideID from an existing string
func NewSlideIDFromString(id string) (SlideID, error) {
	if id == "" {
		return SlideID{}, errors.New("slide ID cannot be empty")
	}
	if !isValidUUID(id) {
		return SlideID{}, errors.New("slide ID must be a valid UUID")
	}
	return SlideID{value: id}, nil
}

// String returns the string representation of the SlideID
func (id SlideID) String() string {
	return id.value
}

// Equals checks if two SlideIDs are equal
func (id SlideID) Equals(other SlideID) bool {
	return id.value == other.value
}

// IsZero checks if the SlideID is the zero value
func (id SlideID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id SlideID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *SlideID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("SlideID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// DeckID identifies the presentation a slide belongs to.
// Deck identifiers are minted by the presentation service, so any non-empty
// string is accepted here.
type DeckID struct {
	value string
}

// NewDeckID creates a new random DeckID
func NewDeckID() DeckID {
	return DeckID{value: uuid.New().String()}
}

// NewDeckIDFromString creates a DeckID from an existing string
func NewDeckIDFromString(id string) (DeckID, error) {
	if id == "" {
		return DeckID{}, errors.New("deck ID cannot be empty")
	}
	return DeckID{value: id}, nil
}

// String returns the string representation of the DeckID
func (id DeckID) String() string {
	return id.value
}

// Equals checks if two DeckIDs are equal
func (id DeckID) Equals(other DeckID) bool {
	return id.value == other.value
}

// IsZero checks if the DeckID is the zero value
func (id DeckID) IsZero() bool {
	return id.value == ""
}

// isValidUUID validates if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
