package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/restock-backend/pkg/enums"
	"github.com/angelmondragon/restock-backend/pkg/outbox/payloads"
)

func TestDecoderRegistryDecode(t *testing.T) {
	decoders := NewDecoderRegistry()
	decoders.Register(enums.EventStockReplenished, 1, func(data json.RawMessage) (interface{}, error) {
		var event payloads.StockReplenishedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})

	decoded, err := decoders.Decode(enums.EventStockReplenished, 1, json.RawMessage(`{"stock_quantity":5}`))
	require.NoError(t, err)

	event, ok := decoded.(*payloads.StockReplenishedEvent)
	require.True(t, ok, "unexpected payload type %T", decoded)
	require.Equal(t, 5, event.StockQuantity)
}

func TestDecoderRegistryUnknownVersion(t *testing.T) {
	decoders := NewDecoderRegistry()
	decoders.Register(enums.EventStockReplenished, 1, func(data json.RawMessage) (interface{}, error) {
		return nil, nil
	})

	_, err := decoders.Decode(enums.EventStockReplenished, 2, json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestDecoderRegistryIgnoresNilDecoder(t *testing.T) {
	decoders := NewDecoderRegistry()
	decoders.Register(enums.EventStockReplenished, 1, nil)

	_, err := decoders.Decode(enums.EventStockReplenished, 1, json.RawMessage(`{}`))
	require.Error(t, err)
}
