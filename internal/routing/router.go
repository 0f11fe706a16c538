// Package routing connects messaging channels to the quote dialogue.
package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/cargoquote/internal/channel"
	"github.com/soyeahso/cargoquote/internal/dialogue"
	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/hooks"
	"github.com/soyeahso/cargoquote/internal/logging"
)

// Notifier hands a finished quote to staff.
type Notifier interface {
	Notify(ctx context.Context, q domain.Quote) error
}

// Router routes inbound messages to the dialogue engine and renders its
// replies back to the originating channel.
type Router struct {
	channels *channel.Registry
	engine   *dialogue.Engine
	notifier Notifier
	hooks    *hooks.Manager
	business domain.Business
	now      func() time.Time
	log      *logging.Logger
	inbox    *inbox

	notifyTimeout time.Duration
}

// DefaultNotifyTimeout bounds a single quote delivery to staff.
const DefaultNotifyTimeout = 30 * time.Second

// Config carries the router's collaborators. Notifier and Hooks may be nil.
type Config struct {
	Business domain.Business
	Notifier Notifier
	Hooks    *hooks.Manager

	// NotifyTimeout overrides DefaultNotifyTimeout.
	NotifyTimeout time.Duration
}

// NewRouter creates a message router.
func NewRouter(
	channels *channel.Registry,
	engine *dialogue.Engine,
	cfg Config,
	log *logging.Logger,
) *Router {
	r := &Router{
		channels: channels,
		engine:   engine,
		notifier: cfg.Notifier,
		hooks:    cfg.Hooks,
		business: cfg.Business,
		now:      time.Now,
		log:      log.Sub("routing"),

		notifyTimeout: DefaultNotifyTimeout,
	}
	if cfg.NotifyTimeout > 0 {
		r.notifyTimeout = cfg.NotifyTimeout
	}
	r.inbox = newInbox(r.HandleInbound)
	return r
}

// Identity returns the session identity of the message's sender.
func Identity(msg domain.InboundMessage) string {
	return domain.KeyFor(msg).String()
}

// HandleInbound processes an inbound message from any channel.
func (r *Router) HandleInbound(ctx context.Context, msg domain.InboundMessage) {
	identity := Identity(msg)
	r.log.Debug().
		Str("channel", msg.ChannelID).
		Str("identity", identity).
		Str("chatType", string(msg.ChatType)).
		Bool("selection", msg.IsSelection()).
		Msg("routing inbound message")

	r.emit(ctx, hooks.EventMessageReceived, map[string]any{
		hooks.KeyIdentity: identity,
		hooks.KeyChannel:  msg.ChannelID,
		hooks.KeyUsername: msg.FromName,
	})

	c := &conversation{r: r, msg: msg, identity: identity, f: r.formatterFor(msg.ChannelID)}
	if tok, ok := menuToken(msg); ok {
		c.menu(ctx, tok)
		return
	}

	_, active, err := r.engine.Current(ctx, identity)
	if err != nil {
		r.log.Error().Err(err).Str("identity", identity).Msg("loading session failed")
		return
	}
	if !active {
		c.send(ctx, domain.OutboundMessage{
			Body:    "❓ I don't understand this command.\nPlease use the menu buttons or type /start",
			Buttons: mainMenu(),
		})
		return
	}

	ev := dialogue.Text(msg.Body)
	if msg.IsSelection() {
		ev = dialogue.Select(msg.Token)
	}
	reply, err := r.engine.Handle(ctx, identity, ev)
	if err != nil {
		r.log.Error().Err(err).Str("identity", identity).Msg("dialogue failed")
		c.send(ctx, domain.OutboundMessage{Body: "⚠️ Something went wrong, please try again in a moment."})
		return
	}
	c.reply(ctx, reply)
}

func (r *Router) formatterFor(channelID string) formatter {
	ch, ok := r.channels.Get(channelID)
	if !ok {
		return formatter{}
	}
	return formatter{html: ch.Capabilities().HTML}
}

func (r *Router) emit(ctx context.Context, event string, data map[string]any) {
	if r.hooks != nil {
		r.hooks.EmitAsync(ctx, event, data)
	}
}

// conversation is the per-message handling context.
type conversation struct {
	r        *Router
	msg      domain.InboundMessage
	identity string
	f        formatter
}

func (c *conversation) menu(ctx context.Context, tok string) {
	biz := c.r.business
	switch tok {
	case TokenMenuStart:
		c.discard(ctx)
		c.send(ctx, domain.OutboundMessage{Body: welcomeText(c.f, biz), Buttons: mainMenu(), HTML: c.f.html})
	case TokenMenuCalc:
		reply, err := c.r.engine.Start(ctx, c.identity)
		if err != nil {
			c.r.log.Error().Err(err).Str("identity", c.identity).Msg("starting calculation failed")
			return
		}
		c.r.emit(ctx, hooks.EventSessionStart, map[string]any{
			hooks.KeyIdentity: c.identity,
			hooks.KeyChannel:  c.msg.ChannelID,
		})
		out := renderPrompt(c.f, reply.Prompt)
		out.Body = fmt.Sprintf("🧮 %s\n\n%s", c.f.bold("PRICE CALCULATOR"), out.Body)
		c.send(ctx, out)
	case TokenMenuContacts:
		c.send(ctx, domain.OutboundMessage{Body: contactsText(c.f, biz), HTML: c.f.html})
	case TokenMenuAbout:
		c.send(ctx, domain.OutboundMessage{Body: aboutText(c.f, biz), HTML: c.f.html})
	}
}

func (c *conversation) reply(ctx context.Context, reply dialogue.Reply) {
	switch reply.Outcome {
	case dialogue.OutcomeCancelled:
		c.discard(ctx)
		c.send(ctx, domain.OutboundMessage{Body: "❌ Calculation cancelled.", Buttons: mainMenu()})

	case dialogue.OutcomeCompleted:
		c.send(ctx, renderResult(c.f, reply.Result))
		c.r.emit(ctx, hooks.EventQuoteCompleted, map[string]any{
			hooks.KeyIdentity: c.identity,
			hooks.KeyChannel:  c.msg.ChannelID,
			hooks.KeyUsername: c.msg.FromName,
			hooks.KeyQuote:    c.quote(reply),
		})

	case dialogue.OutcomeFailed:
		out := renderPrompt(c.f, reply.Prompt)
		out.Body = "❌ The calculation failed. Let's start again.\n\n" + out.Body
		c.send(ctx, out)

	case dialogue.OutcomeAction:
		c.action(ctx, reply)

	case dialogue.OutcomeToggled:
		// Redraw the extras menu in place where the transport can.
		out := renderPrompt(c.f, reply.Prompt)
		out.Edit = c.msg.SourceID
		c.send(ctx, out)

	default:
		c.send(ctx, renderPrompt(c.f, reply.Prompt))
	}
}

func (c *conversation) action(ctx context.Context, reply dialogue.Reply) {
	switch reply.Action {
	case dialogue.ActionSend:
		c.sendQuote(ctx, reply)
	case dialogue.ActionNew:
		out := renderPrompt(c.f, reply.Prompt)
		out.Body = fmt.Sprintf("🧮 %s\n\n%s", c.f.bold("PRICE CALCULATOR"), out.Body)
		c.send(ctx, out)
	case dialogue.ActionContacts:
		c.discard(ctx)
		c.send(ctx, domain.OutboundMessage{Body: contactsText(c.f, c.r.business), HTML: c.f.html})
		c.send(ctx, domain.OutboundMessage{Body: "Main menu:", Buttons: mainMenu()})
	}
}

// sendQuote hands the quote to staff. On failure the session stays at the
// action step so the user can retry.
func (c *conversation) sendQuote(ctx context.Context, reply dialogue.Reply) {
	q := c.quote(reply)
	data := map[string]any{
		hooks.KeyIdentity: c.identity,
		hooks.KeyChannel:  c.msg.ChannelID,
		hooks.KeyUsername: c.msg.FromName,
		hooks.KeyQuote:    q,
	}

	err := fmt.Errorf("no notifier configured")
	if c.r.notifier != nil {
		nctx, cancel := context.WithTimeout(ctx, c.r.notifyTimeout)
		err = c.r.notifier.Notify(nctx, q)
		cancel()
	}
	if err != nil {
		c.r.log.Warn().Err(err).Str("identity", c.identity).Msg("quote delivery failed")
		data[hooks.KeyError] = err.Error()
		c.r.emit(ctx, hooks.EventQuoteSendFailed, data)

		biz := c.r.business
		body := fmt.Sprintf("❌ %s\n\nPlease try again later or contact us directly:", c.f.bold("Sending failed"))
		if biz.Email != "" {
			body += "\n📧 " + c.f.esc(biz.Email)
		}
		if biz.Phone != "" {
			body += "\n📱 " + c.f.esc(biz.Phone)
		}
		c.send(ctx, domain.OutboundMessage{Body: body, Buttons: actionButtons(), HTML: c.f.html})
		return
	}

	c.r.emit(ctx, hooks.EventQuoteSent, data)
	c.discard(ctx)
	body := fmt.Sprintf("✅ %s\n\n", c.f.bold("Your request has been sent!"))
	if c.r.business.Email != "" {
		body += fmt.Sprintf("The calculation was delivered to %s.\n", c.f.esc(c.r.business.Email))
	}
	body += "Our manager will contact you shortly."
	c.send(ctx, domain.OutboundMessage{Body: body, HTML: c.f.html})
	c.send(ctx, domain.OutboundMessage{Body: "Main menu:", Buttons: mainMenu()})
}

func (c *conversation) quote(reply dialogue.Reply) domain.Quote {
	q := domain.Quote{
		Identity:  c.identity,
		ChannelID: c.msg.ChannelID,
		UserID:    c.msg.From,
		Username:  c.msg.FromName,
		CreatedAt: c.r.now().UTC(),
	}
	if reply.Result != nil {
		q.Result = *reply.Result
	}
	return q
}

func (c *conversation) discard(ctx context.Context) {
	if err := c.r.engine.Discard(ctx, c.identity); err != nil {
		c.r.log.Warn().Err(err).Str("identity", c.identity).Msg("discarding session failed")
	}
}

func (c *conversation) send(ctx context.Context, out domain.OutboundMessage) {
	out.ChannelID = c.msg.ChannelID
	out.To = replyTarget(c.msg)

	c.r.emit(ctx, hooks.EventMessageSending, map[string]any{
		hooks.KeyIdentity: c.identity,
		hooks.KeyChannel:  out.ChannelID,
	})
	if err := c.r.channels.Send(ctx, out); err != nil {
		c.r.log.Error().Err(err).
			Str("channel", out.ChannelID).
			Str("to", out.To).
			Msg("failed to send reply")
	}
}

// Wire registers the router as the message handler on all channels.
// Messages from one sender are handled one at a time, in the order the
// channel delivered them.
func (r *Router) Wire() {
	for _, id := range r.channels.List() {
		ch, ok := r.channels.Get(id)
		if !ok {
			continue
		}
		ch.OnMessage(func(msg domain.InboundMessage) {
			if !r.inbox.push(Identity(msg), msg) {
				r.log.Warn().Str("channel", msg.ChannelID).Msg("router closed, dropping inbound message")
			}
		})
		r.log.Debug().Str("channel", id).Msg("wired message handler")
	}
}

// Close stops accepting inbound messages and blocks until the queued ones
// have been handled.
func (r *Router) Close() {
	r.inbox.close()
}

// replyTarget determines where to send the response.
func replyTarget(msg domain.InboundMessage) string {
	switch msg.ChatType {
	case domain.ChatTypeDM:
		return msg.From
	default:
		return msg.ChatID
	}
}
