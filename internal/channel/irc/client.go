// Package irc implements the IRC messaging channel using the girc library.
//
// IRC has no buttons, so menus are sent as numbered lists and a numeric
// reply is turned back into the chosen button's token.
package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lrstanley/girc"

	"github.com/soyeahso/cargoquote/internal/channel"
	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/logging"
	"github.com/soyeahso/cargoquote/internal/version"
)

// ChannelID is the identifier of the IRC transport.
const ChannelID = "irc"

// maxLineLen keeps PRIVMSG lines well inside the 512 byte protocol limit.
const maxLineLen = 400

// Channel implements domain.Channel for IRC.
type Channel struct {
	cfg     config.IRCConfig
	client  *girc.Client
	choices *channel.Choices
	log     *logging.Logger

	mu      sync.RWMutex
	handler func(msg domain.InboundMessage)
	running bool
	lastErr string
}

// New creates an IRC channel from configuration.
func New(cfg config.IRCConfig, log *logging.Logger) *Channel {
	return &Channel{
		cfg:     cfg,
		choices: channel.NewChoices(),
		log:     log.Sub("irc"),
	}
}

func (c *Channel) ID() string { return ChannelID }

func (c *Channel) Capabilities() domain.ChannelCapabilities {
	return domain.ChannelCapabilities{
		ChatTypes: []domain.ChatType{domain.ChatTypeDM, domain.ChatTypeGroup},
	}
}

func (c *Channel) OnMessage(handler func(msg domain.InboundMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Status returns the current runtime status.
func (c *Channel) Status() domain.ChannelStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ChannelStatus{
		ChannelID: ChannelID,
		Connected: c.client != nil && c.client.IsConnected(),
		Running:   c.running,
		LastError: c.lastErr,
	}
}

func (c *Channel) port() int {
	switch {
	case c.cfg.Port != 0:
		return c.cfg.Port
	case c.cfg.UseTLS:
		return 6697
	default:
		return 6667
	}
}

// Start connects to the IRC server and processes messages until the
// connection ends or ctx is cancelled.
func (c *Channel) Start(ctx context.Context) error {
	gircCfg := girc.Config{
		Server:  c.cfg.Server,
		Port:    c.port(),
		Nick:    c.cfg.Nick,
		User:    c.cfg.Nick,
		Name:    "cargoquote price bot",
		SSL:     c.cfg.UseTLS,
		Version: version.UserAgent(),
	}
	if c.cfg.UseTLS {
		gircCfg.TLSConfig = &tls.Config{ServerName: c.cfg.Server}
	}
	if c.cfg.SASL && c.cfg.Password != "" {
		gircCfg.SASL = &girc.SASLPlain{User: c.cfg.Nick, Pass: c.cfg.Password}
	} else if c.cfg.Password != "" {
		gircCfg.ServerPass = c.cfg.Password
	}

	client := girc.New(gircCfg)
	client.Handlers.Add(girc.CONNECTED, c.onConnected)
	client.Handlers.Add(girc.PRIVMSG, c.onPrivmsg)
	client.Handlers.Add(girc.DISCONNECTED, c.onDisconnected)

	c.mu.Lock()
	c.client = client
	c.running = true
	c.lastErr = ""
	c.mu.Unlock()

	c.log.Info().
		Str("server", c.cfg.Server).
		Int("port", gircCfg.Port).
		Str("nick", c.cfg.Nick).
		Strs("channels", c.cfg.Channels).
		Bool("tls", c.cfg.UseTLS).
		Msg("connecting to IRC")

	// Connect blocks until the connection closes.
	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Connect()
	}()

	select {
	case err := <-errCh:
		c.mu.Lock()
		c.running = false
		if err != nil {
			c.lastErr = err.Error()
		}
		c.mu.Unlock()
		if err != nil {
			return fmt.Errorf("irc connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		client.Close()
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return ctx.Err()
	}
}

// Stop gracefully disconnects from the IRC server.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.client.IsConnected() {
		c.log.Info().Msg("disconnecting from IRC")
		c.client.Quit("closing shop")
	}
	c.running = false
	return nil
}

// Send delivers a message to an IRC channel or user. Buttons are appended
// as a numbered list.
func (c *Channel) Send(ctx context.Context, msg domain.OutboundMessage) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		return fmt.Errorf("irc: not connected")
	}
	if msg.To == "" {
		return fmt.Errorf("irc: no target specified")
	}

	lines := c.render(msg)
	for _, line := range lines {
		client.Cmd.Message(msg.To, line)
	}

	c.log.Debug().
		Str("to", msg.To).
		Int("lines", len(lines)).
		Msg("sent IRC message")
	return nil
}

// render flattens msg into PRIVMSG lines, remembering its menu for the
// recipient.
func (c *Channel) render(msg domain.OutboundMessage) []string {
	body := msg.Body
	if msg.HTML {
		body = stripTags(body)
	}
	msg.Body = body
	return splitMessage(c.choices.Render(msg.To, msg), maxLineLen)
}

func (c *Channel) nick() string {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client != nil {
		if n := client.GetNick(); n != "" {
			return n
		}
	}
	return c.cfg.Nick
}

func (c *Channel) onConnected(client *girc.Client, _ girc.Event) {
	c.log.Info().Str("nick", client.GetNick()).Msg("connected to IRC")
	for _, ch := range c.cfg.Channels {
		c.log.Info().Str("channel", ch).Msg("joining channel")
		client.Cmd.Join(ch)
	}
}

func (c *Channel) onPrivmsg(_ *girc.Client, e girc.Event) {
	if e.Source == nil || len(e.Params) == 0 {
		return
	}
	body := e.Last()
	if e.IsAction() {
		body = e.StripAction()
	}
	msg, ok := c.inbound(e.Source.Name, e.Params[0], body)
	if !ok {
		return
	}

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler != nil {
		handler(msg)
	}
}

// inbound turns a PRIVMSG into an InboundMessage. Direct messages are always
// accepted; in channels only lines addressed to the bot ("nick: ...") are.
func (c *Channel) inbound(from, target, body string) (domain.InboundMessage, bool) {
	nick := c.nick()
	if strings.EqualFold(from, nick) {
		return domain.InboundMessage{}, false
	}

	msg := domain.InboundMessage{
		ID:        uuid.NewString(),
		ChannelID: ChannelID,
		From:      from,
		FromName:  from,
		ChatID:    target,
		ChatType:  domain.ChatTypeDM,
		Timestamp: time.Now(),
	}
	replyTo := from

	if girc.IsValidChannel(target) {
		rest, addressed := addressedTo(nick, body)
		if !addressed {
			return domain.InboundMessage{}, false
		}
		body = rest
		msg.ChatType = domain.ChatTypeGroup
		replyTo = target
	} else {
		msg.ChatID = from
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return domain.InboundMessage{}, false
	}
	if tok, ok := c.choices.Resolve(replyTo, body); ok {
		msg.Token = tok
	} else {
		msg.Body = body
	}
	return msg, true
}

// addressedTo reports whether body starts with "nick:" or "nick," and
// returns the remainder.
func addressedTo(nick, body string) (string, bool) {
	if len(body) <= len(nick) || !strings.EqualFold(body[:len(nick)], nick) {
		return "", false
	}
	switch body[len(nick)] {
	case ':', ',':
		return body[len(nick)+1:], true
	}
	return "", false
}

func (c *Channel) onDisconnected(_ *girc.Client, _ girc.Event) {
	c.log.Warn().Msg("disconnected from IRC")
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

var tagReplacer = strings.NewReplacer(
	"<b>", "", "</b>", "", "<i>", "", "</i>", "",
	"&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&amp;", "&",
)

// stripTags undoes the simple markup produced for HTML transports.
func stripTags(s string) string { return tagReplacer.Replace(s) }

// splitMessage breaks a message into PRIVMSG lines. Each newline starts a
// new line, since PRIVMSG cannot carry one; blank lines become a single
// space so the layout survives. Lines longer than maxLen are split on rune
// boundaries.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			chunks = append(chunks, " ")
			continue
		}
		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLen
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		chunks = append(chunks, line)
	}
	return chunks
}
