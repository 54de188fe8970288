package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_KnowsBuiltInCommands(t *testing.T) {
	registry := DefaultRegistry()

	assert.True(t, registry.Has(CommandTypeCreateSlide))
	assert.True(t, registry.Has(CommandTypeUpdateSlide))
	assert.True(t, registry.Has(CommandTypeDeleteSlide))
	assert.True(t, registry.Has(CommandTypeMoveSlide))
	assert.False(t, registry.Has("merge_decks"))
}

func TestRegistry_CreateDispatchesOnTypeTag(t *testing.T) {
	registry := DefaultRegistry()

	cmd, err := registry.Create(map[string]interface{}{
		"type":     CommandTypeMoveSlide,
		"slideId":  "d1f5cbb1-4f4a-4a39-9f41-5dd29f3b1e65",
		"newOrder": 4,
	})

	require.NoError(t, err)
	move, ok := cmd.(*MoveSlideCommand)
	require.True(t, ok)
	assert.Equal(t, 4, move.NewOrder())
	assert.Equal(t, CommandTypeMoveSlide, move.CommandType())
}

func TestRegistry_CreateMissingTypeTag(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.Create(map[string]interface{}{"slideId": "abc"})

	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Empty(t, regErr.Tag)
}

func TestRegistry_CreateUnknownTag(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.Create(map[string]interface{}{"type": "merge_decks"})

	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "merge_decks", regErr.Tag)
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	registry := NewRegistry()
	first := newStubCommand("first")
	second := newStubCommand("second")

	registry.Register("stub", func(payload map[string]interface{}) (Command, error) {
		return first, nil
	})
	registry.Register("stub", func(payload map[string]interface{}) (Command, error) {
		return second, nil
	})

	cmd, err := registry.Create(map[string]interface{}{"type": "stub"})
	require.NoError(t, err)
	assert.Same(t, Command(second), cmd)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := DefaultRegistry()
	registry.Unregister(CommandTypeMoveSlide)

	assert.False(t, registry.Has(CommandTypeMoveSlide))

	_, err := registry.Create(map[string]interface{}{"type": CommandTypeMoveSlide})
	var regErr *RegistryError
	assert.ErrorAs(t, err, &regErr)
}

func TestRegistry_JSONNumbersAreCoerced(t *testing.T) {
	registry := DefaultRegistry()

	// A JSON round trip turns ints into float64s.
	cmd, err := registry.Create(map[string]interface{}{
		"type":     CommandTypeMoveSlide,
		"slideId":  "d1f5cbb1-4f4a-4a39-9f41-5dd29f3b1e65",
		"newOrder": float64(2),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, cmd.(*MoveSlideCommand).NewOrder())
}
