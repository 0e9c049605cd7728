package curation

import "encoding/json"

// Nullable is a JSON field that distinguishes three states: absent from the
// request body, explicitly null, and set to a value. The decision endpoint
// needs the distinction because an absent ECOD field leaves the stored
// value untouched while an explicit null clears it.
type Nullable[T any] struct {
	Present bool
	Value   *T
}

// UnmarshalJSON marks the field present; a JSON null leaves Value nil.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Present = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// MarshalJSON renders the value, or null when unset or explicitly null.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
