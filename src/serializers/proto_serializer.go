package serializers

import (
	"encoding/json"
	"fmt"

	"data-syncer/src/interfaces"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// -----------------------------------------------------------------------------

// ProtoSerializer implements interfaces.ISerializer on the protobuf wire
// format using the well-known Value type, so arbitrary JSON-shaped payloads
// can be carried without a dedicated message schema.
type ProtoSerializer struct{}

// -----------------------------------------------------------------------------

// NewProtoSerializer creates a new instance of the protobuf serializer.
func NewProtoSerializer() interfaces.ISerializer {
	return &ProtoSerializer{}
}

// -----------------------------------------------------------------------------

// Marshal normalizes the object to its JSON shape and encodes it as a
// protobuf Value.
func (p *ProtoSerializer) Marshal(obj any) ([]byte, error) {
	// Round-trip through JSON so struct types collapse to maps structpb accepts
	normalized, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("proto marshal error (normalize): %w", err)
	}
	var plain any
	if err := json.Unmarshal(normalized, &plain); err != nil {
		return nil, fmt.Errorf("proto marshal error (normalize): %w", err)
	}

	value, err := structpb.NewValue(plain)
	if err != nil {
		return nil, fmt.Errorf("proto marshal error: %w", err)
	}

	data, err := proto.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("proto marshal error: %w", err)
	}
	return data, nil
}

// -----------------------------------------------------------------------------

// Unmarshal decodes a protobuf Value back into the target object.
func (p *ProtoSerializer) Unmarshal(data []byte, obj any) error {
	value := &structpb.Value{}
	if err := proto.Unmarshal(data, value); err != nil {
		return fmt.Errorf("proto unmarshal error: %w", err)
	}

	normalized, err := json.Marshal(value.AsInterface())
	if err != nil {
		return fmt.Errorf("proto unmarshal error (normalize): %w", err)
	}
	if err := json.Unmarshal(normalized, obj); err != nil {
		return fmt.Errorf("proto unmarshal error: %w", err)
	}
	return nil
}
