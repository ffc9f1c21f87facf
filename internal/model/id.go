package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a backend identifier. The backend sends numbers, the app keeps strings.
type ID string

func (id ID) String() string {
	return string(id)
}

// IsNumeric reports whether the id is a canonical integer and round-trips as a JSON number.
// Phone-like values such as "0770000001" or "+221770000001" stay strings.
func (id ID) IsNumeric() bool {
	if id == "" {
		return false
	}
	value, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(value, 10) == string(id)
}

// Int returns the numeric value of the id.
func (id ID) Int() (int64, error) {
	value, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not numeric: %w", string(id), err)
	}
	return value, nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*id = ID(raw)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(number.String())
	return nil
}
