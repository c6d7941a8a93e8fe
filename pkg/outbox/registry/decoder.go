package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/restock-backend/pkg/enums"
)

// DecoderFunc turns a raw envelope payload into its typed event struct.
type DecoderFunc func(data json.RawMessage) (interface{}, error)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry maps (event type, envelope version) pairs to payload
// decoders, so a consumer handling several event kinds picks the right
// schema per delivery.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[decoderKey]DecoderFunc
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[decoderKey]DecoderFunc)}
}

// Register binds a decoder to an event type and envelope version. Nil
// decoders are ignored.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decode DecoderFunc) {
	if decode == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[decoderKey{eventType: eventType, version: version}] = decode
}

// Decode resolves the registered decoder and runs it against the payload.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	decode, ok := r.decoders[decoderKey{eventType: eventType, version: version}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no decoder registered for %s version %d", eventType, version)
	}
	return decode(data)
}
