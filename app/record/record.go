// Package record gives read-only, panic-free access to the loosely structured
// payloads returned by the search provider.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one raw result as decoded from provider JSON. It is never mutated.
type Record map[string]any

// Map returns the nested object stored under key, or nil when the value is
// absent or not an object.
func (r Record) Map(key string) Record {
	if r == nil {
		return nil
	}
	return asRecord(r[key])
}

// Str returns the string stored under key. Non-string values read as "".
func (r Record) Str(key string) string {
	if r == nil {
		return ""
	}
	s, _ := r[key].(string)
	return s
}

// Text returns r[key]["text"], the provider's usual wrapper for display text.
func (r Record) Text(key string) string {
	return r.Map(key).Str("text")
}

// List returns the array stored under key, or nil.
func (r Record) List(key string) []any {
	if r == nil {
		return nil
	}
	l, _ := r[key].([]any)
	return l
}

// Has reports whether key is present, regardless of its value.
func (r Record) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r[key]
	return ok
}

// Get returns the raw value under key.
func (r Record) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// Path walks nested objects and returns the object at the end of keys.
func (r Record) Path(keys ...string) Record {
	cur := r
	for _, k := range keys {
		cur = cur.Map(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// MapAt returns the i-th element of the array under key when it is an object.
func (r Record) MapAt(key string, i int) Record {
	l := r.List(key)
	if i < 0 || i >= len(l) {
		return nil
	}
	return asRecord(l[i])
}

// Maps returns the object elements of the array under key, skipping
// anything that is not an object.
func (r Record) Maps(key string) []Record {
	l := r.List(key)
	out := make([]Record, 0, len(l))
	for _, v := range l {
		if m := asRecord(v); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// JSON serializes the record with sorted keys and without HTML escaping.
func (r Record) JSON() string {
	return Stringify(map[string]any(r))
}

// FirstMap returns the first non-empty object, mirroring "a or b" lookups
// across the wrapper and the unwrapped body.
func FirstMap(candidates ...Record) Record {
	for _, c := range candidates {
		if len(c) > 0 {
			return c
		}
	}
	return nil
}

// Truthy reports whether v carries a value: non-empty strings, collections
// and non-zero numbers.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		return t.String() != "" && t.String() != "0"
	case map[string]any:
		return len(t) > 0
	case Record:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// Stringify renders any decoded JSON value as text. Strings are returned
// verbatim, integral numbers without a fraction, structures as JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case int, int64:
		return fmt.Sprint(t)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Number converts a decoded JSON number (or numeric string) to float64.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func asRecord(v any) Record {
	switch t := v.(type) {
	case map[string]any:
		return Record(t)
	case Record:
		return t
	}
	return nil
}
