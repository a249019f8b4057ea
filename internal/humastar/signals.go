package humastar

import (
	"encoding/json"
	"slices"

	"github.com/danielgtaylor/huma/v2"
)

// Signals is the flat JSON object Datastar posts with each action.
type Signals map[string]any

// ParseSignals decodes a Datastar request body.
func ParseSignals(body []byte) (Signals, error) {
	var s Signals
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// String returns the string signal key, or "" when absent or not a string.
func (s Signals) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Choice returns the string signal key when it is one of allowed.
func (s Signals) Choice(key string, allowed ...string) (string, bool) {
	v := s.String(key)
	return v, slices.Contains(allowed, v)
}

// SignalsInput receives the raw Datastar body of an action.
type SignalsInput struct {
	RawBody []byte
}

// Decode parses the body, turning malformed JSON into a Huma 400.
func (i *SignalsInput) Decode() (Signals, error) {
	s, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid signals: " + err.Error())
	}
	return s, nil
}
