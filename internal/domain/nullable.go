package domain

import (
	"bytes"
	"encoding/json"
)

// NullableInt tells an absent JSON field apart from an explicit null.
// Set is true whenever the field was present in the payload.
type NullableInt struct {
	Set   bool
	Value *int
}

func NullInt() NullableInt {
	return NullableInt{Set: true}
}

func SomeInt(v int) NullableInt {
	return NullableInt{Set: true, Value: &v}
}

func (n *NullableInt) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n NullableInt) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
