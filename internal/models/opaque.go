package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Opaque holds a JSON document that is stored and returned as-is.
type Opaque []byte

func (o Opaque) Value() (driver.Value, error) {
	if len(o) == 0 {
		return nil, nil
	}
	return string(o), nil
}

func (o *Opaque) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = nil
	case []byte:
		*o = append((*o)[:0], v...)
	case string:
		*o = Opaque(v)
	default:
		return fmt.Errorf("opaque: unsupported scan type %T", src)
	}
	return nil
}

func (Opaque) GormDataType() string {
	return "text"
}

func (o Opaque) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("null"), nil
	}
	return o, nil
}

func (o *Opaque) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = nil
		return nil
	}
	if !json.Valid(data) {
		return fmt.Errorf("opaque: invalid json")
	}
	*o = append((*o)[:0], data...)
	return nil
}
