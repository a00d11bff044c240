package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// decodeStringArray decodes the upstream's double-encoded array fields
// (a JSON array serialized as a string inside the JSON payload, e.g.
// "[\"Yes\",\"No\"]"). It never fails: any malformed input, or input that is
// not an array, yields nil. A plain JSON array is accepted too, since some
// upstream iterations stopped double-encoding.
func decodeStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" || s == "null" {
			return nil
		}
		raw = json.RawMessage(s)
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil
	}
	return arr
}

// flexFloat is a float64 that tolerates the upstream's habit of stringifying
// numbers. Missing, null or unparsable values decode to 0, never to an error.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		*f = flexFloat(n)
	}
	return nil
}

// flexString is a string that also accepts a bare JSON number, since upstream
// ids flip between the two across iterations.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	*f = ""
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
	}
	return nil
}

// coerceFloat best-effort parses a numeric string; failure yields 0.
func coerceFloat(s string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return n
}
