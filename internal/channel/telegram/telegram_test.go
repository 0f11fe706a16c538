package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/logging"
)

type apiCall struct {
	method string
	form   map[string]string
}

// fakeAPI is a minimal Bot API server that records calls.
type fakeAPI struct {
	mu        sync.Mutex
	calls     []apiCall
	failEdits bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	form := map[string]string{}
	if err := r.ParseMultipartForm(1 << 20); err == nil && r.MultipartForm != nil {
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: form})
	failEdit := f.failEdits && method == "editMessageText"
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case failEdit:
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: message can't be edited"}`))
	case method == "sendMessage" || method == "editMessageText":
		w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		w.Write([]byte(`{"ok":true,"result":true}`))
	}
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, c.method)
	}
	return out
}

func (f *fakeAPI) last(method string) (apiCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method {
			return f.calls[i], true
		}
	}
	return apiCall{}, false
}

func connected(t *testing.T) (*Channel, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	ch := New(config.TelegramConfig{Token: "123:test"}, logging.New(nil, "silent"),
		WithBotOptions(bot.WithServerURL(srv.URL), bot.WithSkipGetMe()))
	_, err := ch.connect(context.Background())
	require.NoError(t, err)
	return ch, api
}

func TestCapabilities(t *testing.T) {
	ch := New(config.TelegramConfig{}, logging.New(nil, "silent"))
	assert.Equal(t, "telegram", ch.ID())
	caps := ch.Capabilities()
	assert.True(t, caps.Buttons)
	assert.True(t, caps.HTML)
	assert.False(t, ch.Status().Connected)
}

func TestSend_NotConnected(t *testing.T) {
	ch := New(config.TelegramConfig{}, logging.New(nil, "silent"))
	err := ch.Send(context.Background(), domain.OutboundMessage{To: "42", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestConnect_RegistersCommands(t *testing.T) {
	_, api := connected(t)
	call, ok := api.last("setMyCommands")
	require.True(t, ok)
	assert.Contains(t, call.form["commands"], `"calc"`)
}

func TestSend_Message(t *testing.T) {
	ch, api := connected(t)

	err := ch.Send(context.Background(), domain.OutboundMessage{
		To:   "42",
		Body: "<b>Choose a service</b>",
		HTML: true,
		Buttons: [][]domain.Button{
			{{Label: "🚚 Moving", Token: "service:moving"}},
			{},
			{{Label: "✅ Done", Token: "extras:done"}, {Label: "➡️ Skip", Token: "extras:skip"}},
		},
	})
	require.NoError(t, err)

	call, ok := api.last("sendMessage")
	require.True(t, ok)
	assert.Equal(t, "42", call.form["chat_id"])
	assert.Equal(t, "<b>Choose a service</b>", call.form["text"])
	assert.Equal(t, "HTML", call.form["parse_mode"])
	assert.Contains(t, call.form["reply_markup"], `"callback_data":"service:moving"`)
	assert.Contains(t, call.form["reply_markup"], `"callback_data":"extras:skip"`)
}

func TestSend_PlainWithoutButtons(t *testing.T) {
	ch, api := connected(t)
	require.NoError(t, ch.Send(context.Background(), domain.OutboundMessage{To: "42", Body: "hello"}))

	call, ok := api.last("sendMessage")
	require.True(t, ok)
	assert.Empty(t, call.form["parse_mode"])
	assert.Empty(t, call.form["reply_markup"])
}

func TestSend_EditInPlace(t *testing.T) {
	ch, api := connected(t)
	require.NoError(t, ch.Send(context.Background(), domain.OutboundMessage{
		To: "42", Body: "Selected: piano", Edit: "99",
		Buttons: [][]domain.Button{{{Label: "✅ Done", Token: "extras:done"}}},
	}))

	call, ok := api.last("editMessageText")
	require.True(t, ok)
	assert.Equal(t, "99", call.form["message_id"])
	assert.NotContains(t, api.methods(), "sendMessage")
}

func TestSend_EditFallsBackToNewMessage(t *testing.T) {
	ch, api := connected(t)
	api.mu.Lock()
	api.failEdits = true
	api.mu.Unlock()

	require.NoError(t, ch.Send(context.Background(), domain.OutboundMessage{
		To: "42", Body: "Selected: piano", Edit: "99",
	}))
	assert.Contains(t, api.methods(), "editMessageText")
	assert.Contains(t, api.methods(), "sendMessage")
}

func TestUpdatesDeliveredInOrder(t *testing.T) {
	ch, _ := connected(t)
	var got []string
	ch.OnMessage(func(msg domain.InboundMessage) { got = append(got, msg.Body) })

	user := &models.User{ID: 42, Username: "alice"}
	chat := models.Chat{ID: 42, Type: models.ChatTypePrivate}
	want := []string{"2", "7", "3", "/cancel"}
	for i, body := range want {
		ch.bot.ProcessUpdate(context.Background(), &models.Update{
			ID:      int64(i + 1),
			Message: &models.Message{ID: i + 1, From: user, Chat: chat, Text: body},
		})
	}
	// Handlers run before ProcessUpdate returns.
	assert.Equal(t, want, got)
}

func TestInbound(t *testing.T) {
	private := models.Chat{ID: 42, Type: models.ChatTypePrivate}
	group := models.Chat{ID: -100, Type: models.ChatTypeSupergroup}
	user := &models.User{ID: 42, Username: "alice", FirstName: "Alice"}

	tests := []struct {
		name   string
		update *models.Update
		ok     bool
		check  func(t *testing.T, msg domain.InboundMessage)
	}{
		{
			name:   "private text",
			update: &models.Update{ID: 1, Message: &models.Message{ID: 5, From: user, Chat: private, Text: "/start", Date: 1700000000}},
			ok:     true,
			check: func(t *testing.T, msg domain.InboundMessage) {
				assert.Equal(t, "42", msg.From)
				assert.Equal(t, "alice", msg.FromName)
				assert.Equal(t, "42", msg.ChatID)
				assert.Equal(t, domain.ChatTypeDM, msg.ChatType)
				assert.Equal(t, "/start", msg.Body)
				assert.Equal(t, int64(1700000000), msg.Timestamp.Unix())
			},
		},
		{
			name:   "group text",
			update: &models.Update{ID: 2, Message: &models.Message{From: user, Chat: group, Text: "3"}},
			ok:     true,
			check: func(t *testing.T, msg domain.InboundMessage) {
				assert.Equal(t, "-100", msg.ChatID)
				assert.Equal(t, domain.ChatTypeGroup, msg.ChatType)
			},
		},
		{
			name: "button press",
			update: &models.Update{ID: 3, CallbackQuery: &models.CallbackQuery{
				ID:      "cb1",
				From:    models.User{ID: 7, FirstName: "Bob"},
				Data:    "extra:piano",
				Message: models.MaybeInaccessibleMessage{Message: &models.Message{ID: 99, Chat: private}},
			}},
			ok: true,
			check: func(t *testing.T, msg domain.InboundMessage) {
				assert.Equal(t, "7", msg.From)
				assert.Equal(t, "Bob", msg.FromName)
				assert.Equal(t, "extra:piano", msg.Token)
				assert.Empty(t, msg.Body)
				assert.Equal(t, "99", msg.SourceID)
			},
		},
		{
			name: "press on inaccessible message",
			update: &models.Update{ID: 4, CallbackQuery: &models.CallbackQuery{
				ID: "cb2", From: models.User{ID: 7}, Data: "cancel",
			}},
		},
		{
			name:   "sticker",
			update: &models.Update{ID: 5, Message: &models.Message{From: user, Chat: private}},
		},
		{
			name:   "channel post without sender",
			update: &models.Update{ID: 6, Message: &models.Message{Chat: group, Text: "news"}},
		},
		{name: "other update", update: &models.Update{ID: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := inbound(tt.update)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, "telegram", msg.ChannelID)
				tt.check(t, msg)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", displayName(&models.User{ID: 1, Username: "alice", FirstName: "A"}))
	assert.Equal(t, "Alice", displayName(&models.User{ID: 1, FirstName: "Alice"}))
	assert.Equal(t, "user_1", displayName(&models.User{ID: 1}))
}

func TestChatRef(t *testing.T) {
	assert.Equal(t, int64(-100123), chatRef("-100123"))
	assert.Equal(t, "@movers_staff", chatRef("@movers_staff"))
}

func TestKeyboard(t *testing.T) {
	assert.Nil(t, keyboard(nil))
	assert.Nil(t, keyboard([][]domain.Button{{}}))

	kb := keyboard([][]domain.Button{
		{{Label: "A", Token: "a"}},
		{{Label: "B", Token: "b"}, {Label: "C", Token: "c"}},
	})
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, models.InlineKeyboardButton{Text: "C", CallbackData: "c"}, kb.InlineKeyboard[1][1])
}
