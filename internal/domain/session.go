package domain

// SessionKey identifies one user on one channel. Quotes are always per
// sender, even in group chats.
type SessionKey struct {
	ChannelID string `json:"channelId"`
	SenderID  string `json:"senderId"`
}

// KeyFor returns the session key of the message's sender.
func KeyFor(msg InboundMessage) SessionKey {
	return SessionKey{ChannelID: msg.ChannelID, SenderID: msg.From}
}

// String returns the canonical "channel:sender" form used as the session
// identity.
func (k SessionKey) String() string {
	return k.ChannelID + ":" + k.SenderID
}
