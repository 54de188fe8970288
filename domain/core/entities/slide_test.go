package entities

import (
	"strings"
	"testing"

	"deckgen-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlide_Defaults(t *testing.T) {
	deckID := valueobjects.NewDeckID()

	slide, err := NewSlide(deckID, nil)

	require.NoError(t, err)
	assert.False(t, slide.ID().IsZero())
	assert.True(t, slide.DeckID().Equals(deckID))
	assert.Equal(t, LayoutTitleContent, slide.Layout())
	assert.Equal(t, 0, slide.Order())
	assert.Equal(t, 1, slide.Version())
}

func TestNewSlide_AppliesFields(t *testing.T) {
	slide, err := NewSlide(valueobjects.NewDeckID(), map[string]interface{}{
		FieldTitle:  "Quarterly Review",
		FieldBody:   "## Agenda",
		FieldLayout: "two_column",
		FieldOrder:  3,
	})

	require.NoError(t, err)
	assert.Equal(t, "Quarterly Review", slide.Title())
	assert.Equal(t, "## Agenda", slide.Body())
	assert.Equal(t, LayoutTwoColumn, slide.Layout())
	assert.Equal(t, 3, slide.Order())
}

func TestNewSlide_Validation(t *testing.T) {
	deckID := valueobjects.NewDeckID()

	cases := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"unknown field", map[string]interface{}{"speakerVideo": "x"}},
		{"title too long", map[string]interface{}{FieldTitle: strings.Repeat("a", MaxTitleLength+1)}},
		{"bad layout", map[string]interface{}{FieldLayout: "fancy"}},
		{"negative order", map[string]interface{}{FieldOrder: -1}},
		{"non-string title", map[string]interface{}{FieldTitle: 42}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSlide(deckID, tc.fields)
			assert.Error(t, err)
		})
	}

	_, err := NewSlide(valueobjects.DeckID{}, nil)
	assert.Error(t, err)
}

func TestApplyFields_RejectedUpdateChangesNothing(t *testing.T) {
	slide, err := NewSlide(valueobjects.NewDeckID(), map[string]interface{}{FieldTitle: "Before"})
	require.NoError(t, err)
	version := slide.Version()

	err = slide.ApplyFields(map[string]interface{}{
		FieldTitle:  "After",
		FieldLayout: "not-a-layout",
	})

	require.Error(t, err)
	// The valid field in the same batch must not have been applied.
	assert.Equal(t, "Before", slide.Title())
	assert.Equal(t, version, slide.Version())
}

func TestApplyFields_BumpsVersion(t *testing.T) {
	slide, err := NewSlide(valueobjects.NewDeckID(), nil)
	require.NoError(t, err)
	version := slide.Version()

	require.NoError(t, slide.ApplyFields(map[string]interface{}{FieldTitle: "Changed"}))

	assert.Equal(t, version+1, slide.Version())
}

func TestSnapshotFields_RoundTrip(t *testing.T) {
	slide, err := NewSlide(valueobjects.NewDeckID(), map[string]interface{}{
		FieldTitle: "Original",
		FieldNotes: "Keep",
	})
	require.NoError(t, err)

	snapshot, err := slide.SnapshotFields([]string{FieldTitle})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{FieldTitle: "Original"}, snapshot)

	require.NoError(t, slide.ApplyFields(map[string]interface{}{FieldTitle: "Changed"}))
	require.NoError(t, slide.ApplyFields(snapshot))

	assert.Equal(t, "Original", slide.Title())
	assert.Equal(t, "Keep", slide.Notes())
}

func TestSnapshotFields_UnknownFieldFails(t *testing.T) {
	slide, err := NewSlide(valueobjects.NewDeckID(), nil)
	require.NoError(t, err)

	_, err = slide.SnapshotFields([]string{"transitions"})
	assert.Error(t, err)
}

func TestApplyFields_CoercesJSONValues(t *testing.T) {
	slide, err := NewSlide(valueobjects.NewDeckID(), nil)
	require.NoError(t, err)

	// Payloads that crossed a JSON boundary deliver numbers as float64.
	require.NoError(t, slide.ApplyFields(map[string]interface{}{
		FieldOrder:  float64(4),
		FieldLayout: "Blank",
	}))

	assert.Equal(t, 4, slide.Order())
	assert.Equal(t, LayoutBlank, slide.Layout())

	err = slide.ApplyFields(map[string]interface{}{FieldOrder: 2.5})
	assert.Error(t, err)
}

func TestReconstructSlide_PreservesPersistedValues(t *testing.T) {
	original, err := NewSlide(valueobjects.NewDeckID(), map[string]interface{}{FieldTitle: "Saved"})
	require.NoError(t, err)

	rebuilt, err := ReconstructSlide(
		original.ID(),
		original.DeckID(),
		5,
		original.Snapshot(),
		7,
		original.CreatedAt(),
		original.UpdatedAt(),
	)

	require.NoError(t, err)
	assert.True(t, rebuilt.ID().Equals(original.ID()))
	assert.Equal(t, "Saved", rebuilt.Title())
	assert.Equal(t, 7, rebuilt.Version())
	assert.Equal(t, original.UpdatedAt(), rebuilt.UpdatedAt())
}

func TestSetOrder(t *testing.T) {
	slide, err := NewSlide(valueobjects.NewDeckID(), nil)
	require.NoError(t, err)

	require.NoError(t, slide.SetOrder(9))
	assert.Equal(t, 9, slide.Order())

	assert.Error(t, slide.SetOrder(-1))
	assert.Equal(t, 9, slide.Order())
}
