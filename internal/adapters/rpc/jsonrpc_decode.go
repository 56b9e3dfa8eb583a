package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errInvalidParams = errors.New("invalid params")

// decodeGreetParams accepts ["name"] or {"name": "..."}. An empty name is valid.
func decodeGreetParams(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", errInvalidParams
	}

	// Preferred shape: [ "name" ]
	var arr []json.RawMessage
	if err := json.Unmarshal(trimmed, &arr); err == nil {
		if len(arr) != 1 {
			return "", errInvalidParams
		}
		return decodeStrictString(arr[0])
	}

	// Alternative shape: { "name": "..." }
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return "", errInvalidParams
	}
	value, ok := wrapper["name"]
	if !ok || len(wrapper) != 1 {
		return "", errInvalidParams
	}
	return decodeStrictString(value)
}

// decodeNoParams accepts an absent params member, null, [] or {}.
func decodeNoParams(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(trimmed, &arr); err == nil {
		if len(arr) == 0 {
			return nil
		}
		return errInvalidParams
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil && len(obj) == 0 {
		return nil
	}
	return errInvalidParams
}

func decodeStrictString(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", errInvalidParams
	}
	var out string
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return "", errInvalidParams
	}
	return out, nil
}
