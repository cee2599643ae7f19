package fsrs

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// State represents the learning stage of an item.
type State int

const (
	New        State = iota + 1 // Never reviewed.
	Learning                    // In the initial learning steps.
	Review                      // Entered the long-term review cycle.
	Relearning                  // Forgotten, relearning.
)

var (
	stateNames = [...]string{New: "new", Learning: "learning", Review: "review", Relearning: "relearning"}
	stateByName = map[string]State{
		"new":        New,
		"learning":   Learning,
		"review":     Review,
		"relearning": Relearning,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = State(0)
	_ json.Marshaler           = State(0)
	_ json.Unmarshaler         = (*State)(nil)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

// IsValid reports whether s is a valid state (New through Relearning).
func (s State) IsValid() bool {
	return s >= New && s <= Relearning
}

// String returns the name of the state ("new", "learning", "review",
// "relearning"). For invalid values it returns "State(n)".
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("fsrs: invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, ok := stateByName[string(text)]
	if !ok {
		return fmt.Errorf("fsrs: invalid state: %q", text)
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler. State serializes as a JSON string.
func (s State) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("fsrs: invalid state: %s", data)
	}
	return s.UnmarshalText([]byte(str))
}
