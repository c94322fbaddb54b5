package events

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Envelope is the JSON form of one event on TopicOrchestrateEvents.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var knownTypes = map[string]struct{}{
	TypeDispatchStarted:   {},
	TypeDispatchFinished:  {},
	TypeServiceStarted:    {},
	TypeServiceFinished:   {},
	TypeGateRound:         {},
	TypeGateCheckUp:       {},
	TypeGateFinished:      {},
	TypeBootstrapStarted:  {},
	TypeBootstrapFinished: {},
}

// Encode wraps payload in an envelope of type typ. Only the Type* constants
// are accepted.
func Encode(typ string, payload any) ([]byte, error) {
	if _, ok := knownTypes[typ]; !ok {
		return nil, errors.Errorf("unknown event type %q", typ)
	}
	env := Envelope{Type: typ}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s payload", typ)
		}
		env.Payload = b
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "marshal envelope")
	}
	return b, nil
}

func ParseEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, errors.Wrap(err, "unmarshal envelope")
	}
	if env.Type == "" {
		return Envelope{}, errors.New("envelope without type")
	}
	return env, nil
}

// Component is the part of orchestrate that emitted the event:
// "dispatch", "gate" or "bootstrap".
func (e Envelope) Component() string {
	head, _, _ := strings.Cut(e.Type, ".")
	return head
}

// Decode unmarshals the payload into v, typically one of the event structs.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return errors.Errorf("%s event has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.Wrapf(err, "decode %s payload", e.Type)
	}
	return nil
}
