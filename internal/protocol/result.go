// internal/protocol/result.go
package protocol

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Result is the decoded result object of one reply.
// Every accessor returns ok == false for a missing or null field.
// A missing field is "not reported", never zero.
type Result map[string]interface{}

// Number reads any JSON number (or numeric string) as float64.
func (r Result) Number(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Int reads a number and truncates it toward zero.
func (r Result) Int(key string) (int, bool) {
	f, ok := r.Number(key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// Flag maps boolean-like status values onto on/off.
// Accepted: true/false, any number (non-zero = on), "true"/"false", "on"/"off", "1"/"0".
func (r Result) Flag(key string) (bool, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case json.Number, float64:
		f, _ := r.Number(key)
		return f != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "on", "1":
			return true, true
		case "false", "off", "0":
			return false, true
		}
	}
	return false, false
}

// Text reads a string field. Numbers and booleans are rendered as text.
func (r Result) Text(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		return strconv.FormatBool(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	}
	return "", false
}
