package bunq

import (
	"encoding/json"
)

// Mode selects how the Response array of an envelope is turned into a value.
// Endpoints are fixed to one mode; it is never guessed from the payload.
type Mode int

const (
	// ModeNormal decodes the Response array directly into the target slice
	ModeNormal Mode = iota
	// ModeFlattened merges an array of single-key objects into one object
	// before decoding. Installation, device-server and session-server use it.
	ModeFlattened
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeFlattened:
		return "flattened"
	default:
		return "unknown"
	}
}

// Pagination holds the cursors of a list response. Each cursor is a
// ready-made path (with query) relative to the API host.
type Pagination struct {
	FutureURL *string `json:"future_url"`
	NewerURL  *string `json:"newer_url"`
	OlderURL  *string `json:"older_url"`
}

// Older returns the cursor to the next page of older items
func (p *Pagination) Older() (string, bool) {
	if p == nil || p.OlderURL == nil || *p.OlderURL == "" {
		return "", false
	}
	return *p.OlderURL, true
}

// Envelope is the raw response shape shared by every endpoint
type Envelope struct {
	Response   []json.RawMessage `json:"Response"`
	Pagination *Pagination       `json:"Pagination"`
}

// Result is a decoded envelope
type Result[T any] struct {
	Value      T
	Pagination *Pagination
}

// Decode parses body as an envelope and decodes its Response array into T
// according to mode.
func Decode[T any](body []byte, mode Mode) (*Result[T], error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, decodeErr("envelope: %v", err)
	}
	if env.Response == nil {
		return nil, decodeErr("envelope has no Response field")
	}

	var payload []byte
	switch mode {
	case ModeNormal:
		raw, err := json.Marshal(env.Response)
		if err != nil {
			return nil, decodeErr("response array: %v", err)
		}
		payload = raw
	case ModeFlattened:
		merged, err := flatten(env.Response)
		if err != nil {
			return nil, err
		}
		payload = merged
	default:
		return nil, decodeErr("unknown decode mode %d", mode)
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, decodeErr("%s payload: %v", mode, err)
	}
	return &Result[T]{Value: value, Pagination: env.Pagination}, nil
}

// flatten merges [{"A": x}, {"B": y}] into {"A": x, "B": y}
func flatten(items []json.RawMessage) ([]byte, error) {
	if len(items) == 0 {
		return nil, decodeErr("empty Response array")
	}
	merged := make(map[string]json.RawMessage, len(items))
	for i, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			return nil, decodeErr("element %d is not an object", i)
		}
		if len(obj) != 1 {
			return nil, decodeErr("element %d has %d keys, want 1", i, len(obj))
		}
		for k, v := range obj {
			merged[k] = v
		}
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, decodeErr("merge: %v", err)
	}
	return out, nil
}
