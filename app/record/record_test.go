package record

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, s string) Record {
	t.Helper()
	var r Record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		t.Fatalf("Failed to decode fixture: %v", err)
	}
	return r
}

func TestClassifyWrapped(t *testing.T) {
	r := decode(t, `{"update": {"commentary": {"text": {"text": "hi"}}}, "trackingUrn": "urn:li:activity:1"}`)

	env, ok := Classify(r)
	if !ok {
		t.Fatal("Expected wrapped record to classify")
	}
	if !env.Wrapped() {
		t.Errorf("Expected wrapped shape, got %s", env.Shape)
	}
	if env.Body.Path("commentary", "text").Str("text") != "hi" {
		t.Error("Expected body to be the unwrapped update")
	}
	if env.Raw.Str("trackingUrn") != "urn:li:activity:1" {
		t.Error("Expected raw record to be preserved")
	}
}

func TestClassifyFlat(t *testing.T) {
	r := decode(t, `{"trackingUrn": "urn:li:activity:2", "summary": {"text": "hello"}}`)

	env, ok := Classify(r)
	if !ok {
		t.Fatal("Expected flat record to classify")
	}
	if env.Wrapped() {
		t.Error("Expected flat shape")
	}
	if env.Body.Text("summary") != "hello" {
		t.Errorf("Expected body to read summary text, got %q", env.Body.Text("summary"))
	}
}

func TestClassifySkipsEmptyUpdate(t *testing.T) {
	tests := []string{
		`{"update": {}}`,
		`{"update": null}`,
		`{"update": "not an object"}`,
		`{}`,
	}

	for _, tc := range tests {
		if _, ok := Classify(decode(t, tc)); ok {
			t.Errorf("Expected %s to be skipped", tc)
		}
	}
}

func TestAccessorsTolerateWrongTypes(t *testing.T) {
	r := decode(t, `{"a": "string", "b": [1, {"c": "d"}], "e": 5}`)

	if r.Map("a") != nil {
		t.Error("Expected string node to read as absent object")
	}
	if r.Path("a", "b", "c") != nil {
		t.Error("Expected path through non-object to be nil")
	}
	if r.Str("e") != "" {
		t.Error("Expected number to read as empty string")
	}
	if r.MapAt("b", 0) != nil {
		t.Error("Expected non-object element to be nil")
	}
	if r.MapAt("b", 1).Str("c") != "d" {
		t.Error("Expected second element to be readable")
	}
	if r.MapAt("b", 7) != nil {
		t.Error("Expected out of range index to be nil")
	}
	if len(r.Maps("b")) != 1 {
		t.Errorf("Expected 1 object element, got %d", len(r.Maps("b")))
	}

	var nilRecord Record
	if nilRecord.Text("x") != "" || nilRecord.Has("x") || nilRecord.List("x") != nil {
		t.Error("Expected nil record to be safe to read")
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{float64(123), "123"},
		{1.5, "1.5"},
		{true, "true"},
		{map[string]any{"b": 1.0, "a": "<x>"}, `{"a":"<x>","b":1}`},
	}

	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	if Truthy("") || Truthy(nil) || Truthy(0.0) || Truthy(map[string]any{}) || Truthy([]any{}) {
		t.Error("Expected empty values to be falsy")
	}
	if !Truthy("x") || !Truthy(1.0) || !Truthy(map[string]any{"a": 1}) || !Truthy([]any{1}) {
		t.Error("Expected populated values to be truthy")
	}
}
