// Package telegram implements the Telegram bot channel on top of
// github.com/go-telegram/bot. Buttons become inline keyboards and a pressed
// button arrives as a callback query carrying its token.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/logging"
)

// ChannelID is the identifier of the Telegram transport.
const ChannelID = "telegram"

// commands are offered in the client's "/" menu.
var commands = []models.BotCommand{
	{Command: "start", Description: "Main menu"},
	{Command: "calc", Description: "Start a price calculation"},
	{Command: "contacts", Description: "How to reach us"},
	{Command: "about", Description: "About the company"},
}

// Channel implements domain.Channel for Telegram.
type Channel struct {
	cfg     config.TelegramConfig
	botOpts []bot.Option
	log     *logging.Logger

	mu      sync.RWMutex
	bot     *bot.Bot
	handler func(msg domain.InboundMessage)
	running bool
	lastErr string
}

// Option customises a Channel.
type Option func(*Channel)

// WithBotOptions passes extra options to the underlying bot client, such as
// bot.WithServerURL in tests.
func WithBotOptions(opts ...bot.Option) Option {
	return func(c *Channel) { c.botOpts = append(c.botOpts, opts...) }
}

// New creates a Telegram channel. The bot connects on Start.
func New(cfg config.TelegramConfig, log *logging.Logger, opts ...Option) *Channel {
	c := &Channel{cfg: cfg, log: log.Sub("telegram")}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Channel) ID() string { return ChannelID }

func (c *Channel) Capabilities() domain.ChannelCapabilities {
	return domain.ChannelCapabilities{
		ChatTypes: []domain.ChatType{domain.ChatTypeDM, domain.ChatTypeGroup},
		Buttons:   true,
		HTML:      true,
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
		Connected: c.bot != nil && c.running,
		Running:   c.running,
		LastError: c.lastErr,
	}
}

// connect creates the bot client and registers the command menu.
func (c *Channel) connect(ctx context.Context) (*bot.Bot, error) {
	// One worker with synchronous handlers hands updates to the router in
	// the order Telegram sent them.
	opts := []bot.Option{
		bot.WithDefaultHandler(c.onUpdate),
		bot.WithWorkers(1),
		bot.WithNotAsyncHandlers(),
	}
	if c.cfg.PollTimeoutSeconds > 0 {
		opts = append(opts, bot.WithHTTPClient(
			time.Duration(c.cfg.PollTimeoutSeconds)*time.Second,
			&http.Client{Timeout: time.Duration(c.cfg.PollTimeoutSeconds+10) * time.Second},
		))
	}
	opts = append(opts, c.botOpts...)

	b, err := bot.New(c.cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		c.log.Warn().Err(err).Msg("registering bot commands failed")
	}

	c.mu.Lock()
	c.bot = b
	c.mu.Unlock()
	return b, nil
}

// Start connects and long-polls for updates until ctx is cancelled.
func (c *Channel) Start(ctx context.Context) error {
	b, err := c.connect(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err.Error()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.running = true
	c.lastErr = ""
	c.mu.Unlock()
	c.log.Info().Msg("polling Telegram for updates")

	b.Start(ctx)

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	return ctx.Err()
}

// Stop marks the channel stopped. Polling ends when Start's context is
// cancelled.
func (c *Channel) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// Send delivers msg to the chat in msg.To. When msg.Edit is set the named
// message is edited in place, falling back to a new message if that fails.
func (c *Channel) Send(ctx context.Context, msg domain.OutboundMessage) error {
	c.mu.RLock()
	b := c.bot
	c.mu.RUnlock()
	if b == nil {
		return errors.New("telegram: not connected")
	}
	if msg.To == "" {
		return errors.New("telegram: no target specified")
	}

	chatID := chatRef(msg.To)
	var parseMode models.ParseMode
	if msg.HTML {
		parseMode = models.ParseModeHTML
	}
	markup := keyboard(msg.Buttons)

	if msg.Edit != "" {
		if id, err := strconv.Atoi(msg.Edit); err == nil {
			params := &bot.EditMessageTextParams{
				ChatID:    chatID,
				MessageID: id,
				Text:      msg.Body,
				ParseMode: parseMode,
			}
			if markup != nil {
				params.ReplyMarkup = markup
			}
			_, err := b.EditMessageText(ctx, params)
			if err == nil {
				return nil
			}
			c.log.Debug().Err(err).Str("to", msg.To).Msg("edit failed, sending new message")
		}
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      msg.Body,
		ParseMode: parseMode,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	c.log.Debug().Str("to", msg.To).Bool("buttons", markup != nil).Msg("sent Telegram message")
	return nil
}

func (c *Channel) onUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if cq := update.CallbackQuery; cq != nil {
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
			c.log.Debug().Err(err).Msg("answering callback query failed")
		}
	}

	msg, ok := inbound(update)
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

// inbound converts a text message or a callback query to an InboundMessage.
func inbound(update *models.Update) (domain.InboundMessage, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		src := cq.Message.Message
		if src == nil || cq.Data == "" {
			return domain.InboundMessage{}, false
		}
		msg := base(update.ID, &cq.From, src.Chat)
		msg.Token = cq.Data
		msg.SourceID = strconv.Itoa(src.ID)
		return msg, true

	case update.Message != nil:
		m := update.Message
		if m.From == nil || m.Text == "" {
			return domain.InboundMessage{}, false
		}
		msg := base(update.ID, m.From, m.Chat)
		msg.Body = m.Text
		if m.Date > 0 {
			msg.Timestamp = time.Unix(int64(m.Date), 0)
		}
		return msg, true
	}
	return domain.InboundMessage{}, false
}

func base(updateID int64, from *models.User, chat models.Chat) domain.InboundMessage {
	msg := domain.InboundMessage{
		ID:        strconv.FormatInt(updateID, 10),
		ChannelID: ChannelID,
		From:      strconv.FormatInt(from.ID, 10),
		FromName:  displayName(from),
		ChatID:    strconv.FormatInt(chat.ID, 10),
		ChatType:  domain.ChatTypeGroup,
		Timestamp: time.Now(),
	}
	if chat.Type == models.ChatTypePrivate {
		msg.ChatType = domain.ChatTypeDM
	}
	return msg
}

// displayName prefers the @username, as the operator mail shows it.
func displayName(u *models.User) string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "user_" + strconv.FormatInt(u.ID, 10)
}

// chatRef returns a numeric chat ID when possible; otherwise the raw
// string, which Telegram accepts for @channel usernames.
func chatRef(to string) any {
	if id, err := strconv.ParseInt(to, 10, 64); err == nil {
		return id
	}
	return to
}

func keyboard(rows [][]domain.Button) *models.InlineKeyboardMarkup {
	var kb [][]models.InlineKeyboardButton
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out := make([]models.InlineKeyboardButton, len(row))
		for i, b := range row {
			out[i] = models.InlineKeyboardButton{Text: b.Label, CallbackData: b.Token}
		}
		kb = append(kb, out)
	}
	if len(kb) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: kb}
}
