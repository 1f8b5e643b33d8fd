package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TableNumber is a free-text table identifier. Clients send it either as a
// JSON string or a JSON number; both decode to the same string form. The
// number 0 decodes to the empty table so it fails the required-table check.
type TableNumber string

func (t *TableNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TableNumber(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("table number must be a string or number: %w", err)
	}
	if f, err := n.Float64(); err == nil && f == 0 {
		*t = ""
		return nil
	}
	*t = TableNumber(n.String())
	return nil
}

func (t TableNumber) String() string {
	return string(t)
}
