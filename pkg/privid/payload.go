package privid

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const imageFormatKey = "input_image_format"

var emptyObject = []byte("{}")

// parsePayload checks that p is absent or a JSON object.
func parsePayload(p []byte) (map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(p)) == 0 {
		return nil, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(p, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrInvalidConfig)
	}
	return m, nil
}

// sessionPayload returns the payload handed to the engine for a session; an
// absent payload becomes the empty object.
func sessionPayload(p []byte) []byte {
	if len(bytes.TrimSpace(p)) == 0 {
		return emptyObject
	}
	return p
}

// callPayload returns the per-call payload with input_image_format set to f.
// A payload that already names a different format is ErrInvalidConfig.
func callPayload(p []byte, f ImageFormat) ([]byte, error) {
	m, err := parsePayload(p)
	if err != nil {
		return nil, err
	}
	if f == "" {
		if m == nil {
			return nil, nil
		}
		return p, nil
	}
	if raw, ok := m[imageFormatKey]; ok {
		var got string
		if err := json.Unmarshal(raw, &got); err != nil {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidConfig, imageFormatKey)
		}
		if ImageFormat(got) != f {
			return nil, fmt.Errorf("%w: %s %q does not match image format %q", ErrInvalidConfig, imageFormatKey, got, f)
		}
		return p, nil
	}
	if m == nil {
		m = make(map[string]json.RawMessage, 1)
	}
	m[imageFormatKey] = json.RawMessage(`"` + string(f) + `"`)
	return json.Marshal(m)
}
