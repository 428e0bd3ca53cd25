package socketio

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadPayload is returned when an event payload has the wrong shape.
var ErrBadPayload = errors.New("invalid event payload")

// Clients send either a bare value or an object such as {"value": 12.5}.

func firstMap(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	m, _ := args[0].(map[string]any)
	return m
}

// argValue returns args[0] itself, or its key field when it is an object.
func argValue(args []any, key string) (any, bool) {
	if len(args) == 0 || args[0] == nil {
		return nil, false
	}
	if m, ok := args[0].(map[string]any); ok {
		v, ok := m[key]
		return v, ok && v != nil
	}
	return args[0], true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func floatArg(args []any, key string) (float64, bool) {
	v, ok := argValue(args, key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func stringArg(args []any, key string) (string, bool) {
	v, ok := argValue(args, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolArg(args []any, key string) (bool, bool) {
	v, ok := argValue(args, key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// getFloatFromMap reads a numeric field of an object payload.
func getFloatFromMap(m map[string]any, key string, defaultVal float64) float64 {
	if m == nil {
		return defaultVal
	}
	if f, ok := toFloat(m[key]); ok {
		return f
	}
	return defaultVal
}

func requireFloat(args []any, key string) (float64, error) {
	f, ok := floatArg(args, key)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadPayload, key)
	}
	return f, nil
}

func requireString(args []any, key string) (string, error) {
	s, ok := stringArg(args, key)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrBadPayload, key)
	}
	return s, nil
}

// decodeArg converts the first payload argument into dst through JSON.
// A missing payload leaves dst untouched.
func decodeArg(args []any, dst any) error {
	if len(args) == 0 || args[0] == nil {
		return nil
	}
	data, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
