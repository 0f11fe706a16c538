package dialogue

import (
	"strings"

	"github.com/soyeahso/cargoquote/internal/tariff"
)

// Option is one selectable answer.
type Option struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// Prompt describes what the conversation is waiting for. Transports render
// it; the dialogue never formats chat messages itself.
type Prompt struct {
	State    State          `json:"state"`
	Field    Field          `json:"field,omitempty"`
	Step     int            `json:"step"`
	Total    int            `json:"total"`
	Question string         `json:"question"`
	Options  []Option       `json:"options,omitempty"`
	Numeric  *Range         `json:"numeric,omitempty"`
	Selected []tariff.Extra `json:"selected,omitempty"`
	Problem  string         `json:"problem,omitempty"`
}

// IsSelected reports whether e is among the chosen extras.
func (p Prompt) IsSelected(e tariff.Extra) bool {
	for _, x := range p.Selected {
		if x == e {
			return true
		}
	}
	return false
}

var questions = map[State]string{
	ServiceType:     "🚚 Choose the type of service:",
	Volume:          "📦 How much cargo is there?",
	Workers:         "👷 How many movers do you need?",
	Hours:           "⏱️ How many hours will the job take?",
	Urgency:         "⚡ How urgent is it?",
	Floor:           "🏢 Which floor?",
	Elevator:        "🛗 Is there an elevator?",
	TimeOfDay:       "🕐 When should the work be done?",
	DayType:         "📅 On which day?",
	SelectingExtras: "➕ Pick any extra services, then press Done:",
	AwaitingAction:  "What would you like to do next?",
}

type labeled interface {
	~string
	Label() string
}

func enumOptions[K labeled](keys []K, token func(K) string) []Option {
	out := make([]Option, 0, len(keys))
	for _, k := range keys {
		out = append(out, Option{Token: token(k), Label: k.Label()})
	}
	return out
}

func stepOptions(s State) []Option {
	switch s {
	case ServiceType:
		return enumOptions(tariff.Services(), ServiceToken)
	case Volume:
		return enumOptions(tariff.Volumes(), VolumeToken)
	case Urgency:
		return enumOptions(tariff.Urgencies(), UrgencyToken)
	case Elevator:
		return enumOptions(tariff.Elevators(), ElevatorToken)
	case TimeOfDay:
		return enumOptions(tariff.TimesOfDay(), TimeToken)
	case DayType:
		return enumOptions(tariff.DayTypes(), DayToken)
	case SelectingExtras:
		opts := enumOptions(tariff.Extras(), ExtraToken)
		return append(opts,
			Option{Token: TokenExtrasDone, Label: DoneLabel},
			Option{Token: TokenExtrasSkip, Label: SkipLabel},
		)
	case AwaitingAction:
		return enumOptions(Actions(), Action.Token)
	}
	return nil
}

func stepRange(s State) *Range {
	var r Range
	switch s {
	case Workers:
		r = WorkersRange
	case Hours:
		r = HoursRange
	case Floor:
		r = FloorRange
	default:
		return nil
	}
	return &r
}

// PromptFor describes state s for a session holding the given extras.
func PromptFor(s State, extras []tariff.Extra) Prompt {
	f, _ := s.Field()
	p := Prompt{
		State:    s,
		Field:    f,
		Step:     s.Step(),
		Total:    QuestionSteps,
		Question: questions[s],
		Options:  stepOptions(s),
		Numeric:  stepRange(s),
	}
	if s == SelectingExtras {
		p.Selected = append([]tariff.Extra(nil), extras...)
	}
	return p
}

// match resolves an event against the options of an enumerated step and
// returns the key carried by the matched token.
func match(s State, ev Event) (string, bool) {
	text := strings.TrimSpace(ev.Text)
	for _, o := range stepOptions(s) {
		_, key, _ := strings.Cut(o.Token, ":")
		switch {
		case ev.Token != "" && ev.Token == o.Token:
			return key, true
		case ev.Token == "" && text != "" && (text == o.Label || strings.EqualFold(text, key)):
			return key, true
		}
	}
	return "", false
}
