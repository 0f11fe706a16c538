package domain

import "time"

// ChatType classifies the conversation context.
type ChatType string

const (
	ChatTypeDM    ChatType = "dm"
	ChatTypeGroup ChatType = "group"
)

// Button is one selectable reply. Token is what the transport sends back
// when the button is pressed.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// InboundMessage is a message received from a channel. Body carries typed
// text; Token carries a pressed button. At most one of them is set.
type InboundMessage struct {
	ID        string   `json:"id"`
	ChannelID string   `json:"channelId"`
	From      string   `json:"from"`
	FromName  string   `json:"fromName,omitempty"`
	ChatID    string   `json:"chatId"`
	ChatType  ChatType `json:"chatType"`
	Body      string   `json:"body,omitempty"`
	Token     string   `json:"token,omitempty"`
	// SourceID is the transport ID of the message whose button was pressed.
	SourceID  string    `json:"sourceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsSelection reports whether the message is a button press.
func (m InboundMessage) IsSelection() bool { return m.Token != "" }

// OutboundMessage is a message to be sent via a channel. Buttons are laid
// out in rows.
type OutboundMessage struct {
	ChannelID string     `json:"channelId"`
	To        string     `json:"to"`
	Body      string     `json:"body"`
	Buttons   [][]Button `json:"buttons,omitempty"`
	// HTML marks Body as containing simple HTML markup (<b>, <i>).
	HTML bool `json:"html,omitempty"`
	// TextInput marks a prompt that expects typed input, such as a number.
	// Text-only transports must not read digits as menu choices then.
	TextInput bool `json:"textInput,omitempty"`
	// Edit names a previously sent message to replace in place. Transports
	// that cannot edit send a new message instead.
	Edit string `json:"edit,omitempty"`
}

// HasButtons reports whether any button is attached.
func (m OutboundMessage) HasButtons() bool {
	for _, row := range m.Buttons {
		if len(row) > 0 {
			return true
		}
	}
	return false
}

// FlatButtons returns the buttons row by row.
func (m OutboundMessage) FlatButtons() []Button {
	var out []Button
	for _, row := range m.Buttons {
		out = append(out, row...)
	}
	return out
}
