package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString is a string field the backend may send as a JSON string or a
// JSON number. Integer literals are kept as written; fractions and exponents
// are rewritten in plain decimal, so 1e5 becomes "100000". It always encodes
// as a JSON string.
type FlexString string

// UnmarshalJSON accepts a string, a number, or null.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = FlexString(formatNumber(n))
	return nil
}

func formatNumber(n json.Number) string {
	lit := n.String()
	if !bytes.ContainsAny([]byte(lit), ".eE") {
		return lit
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String returns the underlying text.
func (f FlexString) String() string {
	return string(f)
}
