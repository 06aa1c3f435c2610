package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string stored as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// JSONBlob holds pre-marshalled JSON (warning/error lists) as a text column.
// The pipeline owns the concrete shapes; the status row just stores them.
type JSONBlob []byte

func (b JSONBlob) Value() (driver.Value, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return string(b), nil
}

func (b *JSONBlob) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*b = append((*b)[:0], v...)
		return nil
	case string:
		*b = JSONBlob(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into JSONBlob", value)
	}
}

func (b JSONBlob) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

func (b *JSONBlob) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}
