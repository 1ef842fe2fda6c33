package messages

import "github.com/bytedance/sonic"

// Marshal encodes a message for the wire. Audio chunks flow through here on
// every capture frame, so this uses sonic rather than encoding/json.
func Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal decodes a wire message.
func Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}
