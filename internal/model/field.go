package model

import "encoding/json"

// Field is an optional string attribute on a Lead. The zero value is unset.
// Unset is distinct from an empty string: downstream scoring and export need
// to tell "we never found this" apart from "we found it and it was empty".
type Field struct {
	value string
	set   bool
}

// NewField returns a set Field holding v.
func NewField(v string) Field {
	return Field{value: v, set: true}
}

// Set returns true when the field holds a value.
func (f Field) Set() bool { return f.set }

// Value returns the held value, or "" when unset.
func (f Field) Value() string { return f.value }

// Or returns the held value, or fallback when unset.
func (f Field) Or(fallback string) string {
	if f.set {
		return f.value
	}
	return fallback
}

// String renders the field for display, using "N/A" for unset.
func (f Field) String() string {
	return f.Or("N/A")
}

// MarshalJSON encodes set fields as strings and unset fields as null.
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes null as unset and any string as set.
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = NewField(s)
	return nil
}
