package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlideID_RequiresValidUUID(t *testing.T) {
	_, err := NewSlideIDFromString("")
	assert.Error(t, err)

	_, err = NewSlideIDFromString("not-a-uuid")
	assert.Error(t, err)

	id := NewSlideID()
	parsed, err := NewSlideIDFromString(id.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equals(id))
}

func TestSlideID_JSONRoundTrip(t *testing.T) {
	id := NewSlideID()

	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(raw))

	var decoded SlideID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Equals(id))
}

func TestSlideID_IsZero(t *testing.T) {
	assert.True(t, SlideID{}.IsZero())
	assert.False(t, NewSlideID().IsZero())
}

func TestDeckID_AcceptsAnyNonEmptyString(t *testing.T) {
	_, err := NewDeckIDFromString("")
	assert.Error(t, err)

	// Deck identifiers are minted upstream and need not be UUIDs.
	id, err := NewDeckIDFromString("deck-2024-q3-review")
	require.NoError(t, err)
	assert.Equal(t, "deck-2024-q3-review", id.String())
}

func TestDeckID_Equality(t *testing.T) {
	a, err := NewDeckIDFromString("deck-a")
	require.NoError(t, err)
	b, err := NewDeckIDFromString("deck-a")
	require.NoError(t, err)
	c := NewDeckID()

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.True(t, DeckID{}.IsZero())
}
