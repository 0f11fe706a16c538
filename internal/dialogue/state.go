// Package dialogue implements the quote conversation: a closed set of steps,
// each collecting one validated field, followed by extras selection and a
// terminal action choice.
package dialogue

import (
	"fmt"
	"maps"
)

// State is a position in the conversation.
type State int

const (
	ServiceType State = iota
	Volume
	Workers
	Hours
	Urgency
	Floor
	Elevator
	TimeOfDay
	DayType
	SelectingExtras
	AwaitingAction
)

var stateNames = [...]string{
	ServiceType:     "service_type",
	Volume:          "volume",
	Workers:         "workers",
	Hours:           "hours",
	Urgency:         "urgency",
	Floor:           "floor",
	Elevator:        "elevator",
	TimeOfDay:       "time_of_day",
	DayType:         "day_type",
	SelectingExtras: "selecting_extras",
	AwaitingAction:  "awaiting_action",
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool { return s >= ServiceType && s <= AwaitingAction }

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("dialogue: invalid state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, n := range stateNames {
		if n == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("dialogue: unknown state %q", b)
}

// Field names one collected answer.
type Field string

const (
	FieldServiceType Field = "serviceType"
	FieldVolume      Field = "volume"
	FieldWorkers     Field = "workers"
	FieldHours       Field = "hours"
	FieldUrgency     Field = "urgency"
	FieldFloor       Field = "floor"
	FieldElevator    Field = "elevator"
	FieldTimeOfDay   Field = "timeOfDay"
	FieldDayType     Field = "dayType"
)

// QuestionSteps is the number of states that each collect one field.
const QuestionSteps = 9

var stateFields = map[State]Field{
	ServiceType: FieldServiceType,
	Volume:      FieldVolume,
	Workers:     FieldWorkers,
	Hours:       FieldHours,
	Urgency:     FieldUrgency,
	Floor:       FieldFloor,
	Elevator:    FieldElevator,
	TimeOfDay:   FieldTimeOfDay,
	DayType:     FieldDayType,
}

// transitions maps a state to the state entered once its field validates.
// AwaitingAction is terminal and has no entry.
var transitions = map[State]State{
	ServiceType:     Volume,
	Volume:          Workers,
	Workers:         Hours,
	Hours:           Urgency,
	Urgency:         Floor,
	Floor:           Elevator,
	Elevator:        TimeOfDay,
	TimeOfDay:       DayType,
	DayType:         SelectingExtras,
	SelectingExtras: AwaitingAction,
}

// Next returns the state that follows s, and false for the terminal state.
func Next(s State) (State, bool) {
	n, ok := transitions[s]
	return n, ok
}

// Field returns the answer collected in s, if any.
func (s State) Field() (Field, bool) {
	f, ok := stateFields[s]
	return f, ok
}

// Step returns the 1-based question number of s, or 0 past the questions.
func (s State) Step() int {
	if _, ok := stateFields[s]; ok {
		return int(s) + 1
	}
	return 0
}

// Terminal reports whether s is the final state.
func (s State) Terminal() bool { return s == AwaitingAction }

// Transitions returns a copy of the transition table.
func Transitions() map[State]State {
	return maps.Clone(transitions)
}

// fieldsBefore lists the fields owned by every state strictly before s.
func fieldsBefore(s State) []Field {
	var out []Field
	for st := ServiceType; st < s && st <= DayType; st++ {
		out = append(out, stateFields[st])
	}
	return out
}
