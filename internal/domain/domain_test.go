package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKey(t *testing.T) {
	tests := []struct {
		name string
		msg  InboundMessage
		want string
	}{
		{
			name: "telegram private chat",
			msg:  InboundMessage{ChannelID: "telegram", From: "12345", ChatID: "12345", ChatType: ChatTypeDM},
			want: "telegram:12345",
		},
		{
			name: "irc channel ignores chat",
			msg:  InboundMessage{ChannelID: "irc", From: "alice", ChatID: "#movers", ChatType: ChatTypeGroup},
			want: "irc:alice",
		},
		{
			name: "empty",
			msg:  InboundMessage{},
			want: ":",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFor(tt.msg).String())
		})
	}
}

func TestSessionKeyDistinguishesSenders(t *testing.T) {
	a := KeyFor(InboundMessage{ChannelID: "irc", From: "alice", ChatID: "#x"})
	b := KeyFor(InboundMessage{ChannelID: "irc", From: "alice", ChatID: "#y"})
	c := KeyFor(InboundMessage{ChannelID: "irc", From: "bob", ChatID: "#x"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestInboundMessageSelection(t *testing.T) {
	assert.False(t, InboundMessage{Body: "3"}.IsSelection())
	assert.True(t, InboundMessage{Token: "volume:small"}.IsSelection())
}

func TestInboundMessageJSON_OmitsEmpty(t *testing.T) {
	msg := InboundMessage{
		ID:        "msg-1",
		ChannelID: "web",
		From:      "f3a1",
		ChatID:    "f3a1",
		ChatType:  ChatTypeDM,
		Token:     "cancel",
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "fromName")
	assert.NotContains(t, raw, `"body"`)
	assert.Contains(t, raw, `"token":"cancel"`)
}

func TestOutboundButtons(t *testing.T) {
	msg := OutboundMessage{Body: "pick one"}
	assert.False(t, msg.HasButtons())
	assert.Empty(t, msg.FlatButtons())

	msg.Buttons = [][]Button{{}, {{Label: "A", Token: "a"}, {Label: "B", Token: "b"}}, {{Label: "C", Token: "c"}}}
	assert.True(t, msg.HasButtons())
	flat := msg.FlatButtons()
	require.Len(t, flat, 3)
	assert.Equal(t, "c", flat[2].Token)

	data, err := json.Marshal(OutboundMessage{ChannelID: "irc", To: "bob", Body: "hi"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "buttons")
	assert.NotContains(t, string(data), "html")
}

func TestChannelStatusJSON_OmitsEmpty(t *testing.T) {
	data, err := json.Marshal(ChannelStatus{ChannelID: "irc"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "lastError")
}
