package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-success response from the API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError is a failure to reach the API or read its response
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type field struct {
	key   string
	value json.RawMessage
}

// ErrorMessage turns an error response body into one displayable line.
// Field-keyed validation maps yield "<field>: <first message>" for the first
// field in document order, a "detail" body yields its text, and anything else
// yields the raw body.
func ErrorMessage(status int, body []byte) string {
	raw := strings.TrimSpace(string(body))
	fallback := raw
	if fallback == "" {
		fallback = http.StatusText(status)
	}

	fields, ok := orderedObject(body)
	if !ok {
		return fallback
	}

	for _, f := range fields {
		if f.key != "detail" {
			continue
		}
		var detail string
		if err := json.Unmarshal(f.value, &detail); err != nil {
			break
		}
		// Some servers nest a serialized field map inside detail
		nested, ok := orderedObject([]byte(detail))
		if !ok {
			return detail
		}
		if msg, ok := firstPair(nested); ok {
			return msg
		}
		return detail
	}

	if msg, ok := firstPair(fields); ok {
		return msg
	}
	return fallback
}

func firstPair(fields []field) (string, bool) {
	if len(fields) == 0 {
		return "", false
	}
	first := fields[0]

	var s string
	if err := json.Unmarshal(first.value, &s); err == nil {
		return first.key + ": " + s, true
	}
	var list []string
	if err := json.Unmarshal(first.value, &list); err == nil && len(list) > 0 {
		return first.key + ": " + list[0], true
	}
	return "", false
}

// orderedObject decodes the top-level members of a JSON object in order
func orderedObject(data []byte) ([]field, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		fields = append(fields, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	return fields, true
}
