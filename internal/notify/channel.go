package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/cargoquote/internal/domain"
)

// Sender delivers an outbound chat message.
type Sender interface {
	Send(ctx context.Context, msg domain.OutboundMessage) error
}

// ChatNotifier posts quotes to a staff chat, such as a Telegram group or
// an IRC channel.
type ChatNotifier struct {
	sender    Sender
	channelID string
	target    string
}

// NewChatNotifier posts to target on the channel channelID.
func NewChatNotifier(sender Sender, channelID, target string) *ChatNotifier {
	return &ChatNotifier{sender: sender, channelID: channelID, target: target}
}

// Notify posts q.
func (n *ChatNotifier) Notify(ctx context.Context, q domain.Quote) error {
	if n.channelID == "" || n.target == "" {
		return ErrNotConfigured
	}
	var sb strings.Builder
	sb.WriteString("🚛 NEW PRICE CALCULATION\n")
	who := q.Username
	if who == "" {
		who = q.UserID
	}
	fmt.Fprintf(&sb, "From %s via %s\n\n", who, q.ChannelID)
	sb.WriteString(q.Result.Details)

	err := n.sender.Send(ctx, domain.OutboundMessage{
		ChannelID: n.channelID,
		To:        n.target,
		Body:      sb.String(),
	})
	if err != nil {
		return fmt.Errorf("posting quote to %s %s: %w", n.channelID, n.target, err)
	}
	return nil
}
