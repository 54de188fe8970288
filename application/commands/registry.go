package commands

import (
	"sync"
	"time"
)

// Factory reconstructs a command from its serialized payload
type Factory func(payload map[string]interface{}) (Command, error)

// Registry maps command type tags to factories. It is an explicit handle
// owned by the service layer, never ambient global state, and is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry creates a registry with the built-in slide mutation
// commands pre-registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CommandTypeCreateSlide, newCreateSlideFromPayload)
	r.Register(CommandTypeUpdateSlide, newUpdateSlideFromPayload)
	r.Register(CommandTypeDeleteSlide, newDeleteSlideFromPayload)
	r.Register(CommandTypeMoveSlide, newMoveSlideFromPayload)
	return r
}

// Register binds a factory to a type tag. The most recent registration for
// a tag wins.
func (r *Registry) Register(tag string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = factory
}

// Unregister removes the factory bound to a type tag
func (r *Registry) Unregister(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, tag)
}

// Has reports whether a factory is registered for the tag
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Create reconstructs a command from a serialized payload. The type tag is
// read from the payload's "type" key; a missing or unregistered tag yields
// a *RegistryError.
func (r *Registry) Create(payload map[string]interface{}) (Command, error) {
	tag, ok := payloadString(payload, "type")
	if !ok || tag == "" {
		return nil, &RegistryError{}
	}

	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, &RegistryError{Tag: tag}
	}

	return factory(payload)
}

// Payload accessors shared by the command factories. Serialized payloads
// may arrive either fresh from Serialize (typed values) or through a JSON
// round trip (strings and float64s), so each accessor coerces both forms.

func payloadString(payload map[string]interface{}, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func payloadInt(payload map[string]interface{}, key string) (int, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func payloadMap(payload map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := payload[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

func payloadTime(payload map[string]interface{}, key string) (time.Time, bool) {
	s, ok := payloadString(payload, key)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
