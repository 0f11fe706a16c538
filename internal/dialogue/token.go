package dialogue

import (
	"strings"

	"github.com/soyeahso/cargoquote/internal/tariff"
)

// Selector tokens. Transports send these for button presses.
const (
	TokenCancel     = "cancel"
	TokenExtrasDone = "extras:done"
	TokenExtrasSkip = "extras:skip"

	prefixService  = "service:"
	prefixVolume   = "volume:"
	prefixUrgency  = "urgency:"
	prefixElevator = "elevator:"
	prefixTime     = "time:"
	prefixDay      = "day:"
	prefixExtra    = "extra:"
	prefixAction   = "action:"
)

// Labels for the control buttons.
const (
	CancelLabel = "❌ Cancel"
	DoneLabel   = "✅ Done"
	SkipLabel   = "➡️ Skip"
)

// Action is a terminal choice offered after a quote is computed.
type Action string

const (
	ActionSend     Action = "send"
	ActionNew      Action = "new"
	ActionContacts Action = "contacts"
)

var actionLabels = map[Action]string{
	ActionSend:     "📧 Send request to a manager",
	ActionNew:      "🔄 New calculation",
	ActionContacts: "📞 Contacts",
}

// Actions lists the terminal actions in menu order.
func Actions() []Action { return []Action{ActionSend, ActionNew, ActionContacts} }

// Label returns the button text for a.
func (a Action) Label() string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

// Token returns the selector token for a.
func (a Action) Token() string { return prefixAction + string(a) }

func ServiceToken(s tariff.Service) string   { return prefixService + string(s) }
func VolumeToken(v tariff.Volume) string     { return prefixVolume + string(v) }
func UrgencyToken(u tariff.Urgency) string   { return prefixUrgency + string(u) }
func ElevatorToken(e tariff.Elevator) string { return prefixElevator + string(e) }
func TimeToken(t tariff.TimeOfDay) string    { return prefixTime + string(t) }
func DayToken(d tariff.DayType) string       { return prefixDay + string(d) }
func ExtraToken(e tariff.Extra) string       { return prefixExtra + string(e) }

// ParseExtraToken extracts the extra key from an extra:<key> token.
func ParseExtraToken(tok string) (tariff.Extra, bool) {
	k, ok := strings.CutPrefix(tok, prefixExtra)
	return tariff.Extra(k), ok
}

// ParseActionToken extracts the action from an action:<name> token.
func ParseActionToken(tok string) (Action, bool) {
	k, ok := strings.CutPrefix(tok, prefixAction)
	if !ok {
		return "", false
	}
	a := Action(k)
	if _, known := actionLabels[a]; !known {
		return "", false
	}
	return a, true
}

// IsCancel reports whether ev asks to abandon the calculation.
func IsCancel(ev Event) bool {
	if ev.Token == TokenCancel {
		return true
	}
	t := strings.TrimSpace(ev.Text)
	return t == CancelLabel || strings.EqualFold(t, "/cancel") || strings.EqualFold(t, "cancel")
}
