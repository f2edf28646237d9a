package models

import (
	"bytes"
	"encoding/json"
)

// OptionalID carries PATCH semantics for a nullable reference:
//   - Present=false: field absent, leave untouched
//   - Present=true, Value=nil: JSON null, clear the reference
//   - Present=true, Value=&id: point at id
type OptionalID struct {
	Present bool
	Value   *string
}

func SetID(id string) OptionalID {
	return OptionalID{Present: true, Value: &id}
}

func ClearID() OptionalID {
	return OptionalID{Present: true}
}

// UnmarshalJSON is only invoked when the key is present in the payload.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalID) MarshalJSON() ([]byte, error) {
	if !o.Present || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
