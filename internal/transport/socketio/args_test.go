package socketio

import (
	"errors"
	"testing"
)

func TestFloatArg(t *testing.T) {
	tests := []struct {
		name   string
		args   []any
		want   float64
		wantOK bool
	}{
		{"no args", nil, 0, false},
		{"nil arg", []any{nil}, 0, false},
		{"bare float", []any{12.5}, 12.5, true},
		{"bare int", []any{3}, 3, true},
		{"object field", []any{map[string]any{"value": 42.0}}, 42, true},
		{"object int64", []any{map[string]any{"value": int64(7)}}, 7, true},
		{"missing field", []any{map[string]any{"other": 1.0}}, 0, false},
		{"wrong type", []any{"12"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := floatArg(tt.args, "value")
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("floatArg() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStringAndBoolArgs(t *testing.T) {
	if s, ok := stringArg([]any{"cue-1"}, "id"); !ok || s != "cue-1" {
		t.Errorf("bare string = %q, %v", s, ok)
	}
	if s, ok := stringArg([]any{map[string]any{"id": "cue-2"}}, "id"); !ok || s != "cue-2" {
		t.Errorf("object string = %q, %v", s, ok)
	}
	if _, ok := stringArg([]any{5.0}, "id"); ok {
		t.Error("number should not read as string")
	}
	if b, ok := boolArg([]any{true}, "value"); !ok || !b {
		t.Errorf("bare bool = %v, %v", b, ok)
	}
	if b, ok := boolArg([]any{map[string]any{"value": false}}, "value"); !ok || b {
		t.Errorf("object bool = %v, %v", b, ok)
	}
}

func TestGetFloatFromMap(t *testing.T) {
	tests := []struct {
		name       string
		m          map[string]any
		defaultVal float64
		want       float64
	}{
		{"nil map", nil, -1, -1},
		{"missing key", map[string]any{"other": 5.0}, -1, -1},
		{"float64 value", map[string]any{"x": 42.5}, -1, 42.5},
		{"int value", map[string]any{"x": 42}, -1, 42},
		{"string value", map[string]any{"x": "42"}, -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getFloatFromMap(tt.m, "x", tt.defaultVal); got != tt.want {
				t.Errorf("getFloatFromMap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeArg(t *testing.T) {
	var dst struct {
		Path     string `json:"path"`
		KeepCues bool   `json:"keepCues"`
	}

	if err := decodeArg(nil, &dst); err != nil || dst.Path != "" {
		t.Errorf("empty args: %v, %+v", err, dst)
	}
	if err := decodeArg([]any{map[string]any{"path": "/a.mp3", "keepCues": true}}, &dst); err != nil {
		t.Fatalf("decodeArg: %v", err)
	}
	if dst.Path != "/a.mp3" || !dst.KeepCues {
		t.Errorf("decoded %+v", dst)
	}

	var peaks []float64
	if err := decodeArg([]any{map[string]any{"path": 1}}, &peaks); !errors.Is(err, ErrBadPayload) {
		t.Errorf("expected ErrBadPayload, got %v", err)
	}
}
