package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/mytoken/internal/ir"
)

// formatKey renders a uint64 as 16 hex digits so that keys sort
// numerically under BINARY collation.
func formatKey(k uint64) string {
	return fmt.Sprintf("%016x", k)
}

func parseKey(s string) (uint64, error) {
	k, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse key %q: %w", s, err)
	}
	return k, nil
}

func parseName(s string) (ir.Name, error) {
	n, err := ir.ParseName(s)
	if err != nil {
		return 0, fmt.Errorf("stored name: %w", err)
	}
	return n, nil
}

// marshalData converts decoded action data to canonical JSON TEXT.
func marshalData(data ir.IRObject) (string, error) {
	if data == nil {
		data = ir.IRObject{}
	}
	b, err := ir.MarshalCanonical(data)
	if err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	return string(b), nil
}

// unmarshalData parses canonical JSON TEXT to IRObject.
func unmarshalData(s string) (ir.IRObject, error) {
	if s == "" || s == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return obj, nil
}

// marshalJSON is used for values that are plain Go structs (authorization
// lists, packed actions, signatures).
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	return string(b), nil
}

func unmarshalJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return nil
}
