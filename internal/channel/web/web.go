// Package web implements the browser chat channel. Visitors talk to the
// bot over a WebSocket mounted on the gateway; replies arrive as events
// carrying the body and its buttons.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/logging"
	"github.com/soyeahso/cargoquote/internal/version"
)

// ChannelID is the identifier of the browser transport.
const ChannelID = "web"

const (
	maxFrameBytes    = 64 * 1024
	maxNameLen       = 64
	handshakeTimeout = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
)

// Channel implements domain.Channel for browser visitors. It is also the
// http.Handler for the chat socket.
type Channel struct {
	log      *logging.Logger
	upgrader websocket.Upgrader
	seq      atomic.Int64
	msgSeq   atomic.Int64

	mu       sync.RWMutex
	visitors map[string]map[string]*conn // visitorID → connID → conn
	handler  func(msg domain.InboundMessage)
	running  bool
}

// New creates the web channel. Browsers from origins outside allowed are
// refused; "*" allows any origin.
func New(allowedOrigins []string, log *logging.Logger) *Channel {
	return &Channel{
		log:      log.Sub("web"),
		visitors: make(map[string]map[string]*conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     CheckOrigin(allowedOrigins),
		},
	}
}

// CheckOrigin allows requests without an Origin header (same-origin or
// non-browser clients) and those whose Origin is listed.
func CheckOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return sameHost(origin, r.Host)
	}
}

// sameHost reports whether origin points at the host serving the page.
func sameHost(origin, host string) bool {
	_, rest, ok := strings.Cut(origin, "://")
	return ok && strings.EqualFold(rest, host)
}

func (c *Channel) ID() string { return ChannelID }

func (c *Channel) Capabilities() domain.ChannelCapabilities {
	return domain.ChannelCapabilities{
		ChatTypes: []domain.ChatType{domain.ChatTypeDM},
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
		Connected: c.running,
		Running:   c.running,
	}
}

// Start marks the channel running and blocks until ctx is cancelled, then
// closes every open socket. Sockets are accepted by ServeHTTP.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
	c.log.Info().Msg("web chat accepting visitors")

	<-ctx.Done()
	c.closeAll()
	return nil
}

// Stop closes every open socket.
func (c *Channel) Stop(_ context.Context) error {
	c.closeAll()
	return nil
}

func (c *Channel) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for vid, conns := range c.visitors {
		for _, cn := range conns {
			cn.close()
		}
		delete(c.visitors, vid)
	}
	c.running = false
}

// Count returns the number of open sockets.
func (c *Channel) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, conns := range c.visitors {
		n += len(conns)
	}
	return n
}

// Send delivers msg to every open tab of the visitor in msg.To.
func (c *Channel) Send(_ context.Context, msg domain.OutboundMessage) error {
	if msg.To == "" {
		return fmt.Errorf("web: no target specified")
	}
	conns := c.connsOf(msg.To)
	if len(conns) == 0 {
		return fmt.Errorf("web: visitor %s not connected", msg.To)
	}

	reply := Reply{
		MessageID: strconv.FormatInt(c.msgSeq.Add(1), 10),
		Body:      msg.Body,
		HTML:      msg.HTML,
		Buttons:   msg.Buttons,
		TextInput: msg.TextInput,
		Edit:      msg.Edit,
	}
	frame, err := NewEvent(EventMessage, reply, c.seq.Add(1))
	if err != nil {
		return fmt.Errorf("web: %w", err)
	}

	var delivered int
	var lastErr error
	for _, cn := range conns {
		if err := cn.send(frame); err != nil {
			lastErr = err
			c.log.Debug().Err(err).Str("connId", cn.id).Msg("send to tab failed")
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("web send: %w", lastErr)
	}
	c.log.Debug().Str("to", msg.To).Int("tabs", delivered).Msg("sent web message")
	return nil
}

func (c *Channel) connsOf(visitorID string) []*conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*conn, 0, len(c.visitors[visitorID]))
	for _, cn := range c.visitors[visitorID] {
		out = append(out, cn)
	}
	return out
}

func (c *Channel) add(cn *conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conns, ok := c.visitors[cn.visitorID]
	if !ok {
		conns = make(map[string]*conn)
		c.visitors[cn.visitorID] = conns
	}
	conns[cn.id] = cn
	c.log.Info().Str("connId", cn.id).Str("visitor", cn.visitorID).Msg("visitor connected")
}

func (c *Channel) remove(cn *conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conns, ok := c.visitors[cn.visitorID]; ok {
		delete(conns, cn.id)
		if len(conns) == 0 {
			delete(c.visitors, cn.visitorID)
		}
	}
	c.log.Info().Str("connId", cn.id).Msg("visitor disconnected")
}

// ServeHTTP upgrades the request and runs the chat until the socket closes.
func (c *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	socket.SetReadLimit(maxFrameBytes)

	cn, err := c.handshake(socket)
	if err != nil {
		c.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("handshake failed")
		socket.Close()
		return
	}

	c.add(cn)
	defer func() {
		c.remove(cn)
		cn.close()
	}()

	stop := make(chan struct{})
	defer close(stop)
	go c.keepalive(cn, stop)

	c.readLoop(cn)
}

// handshake expects a connect request and answers with the visitor's ID.
func (c *Channel) handshake(socket *websocket.Conn) (*conn, error) {
	socket.SetReadDeadline(time.Now().Add(handshakeTimeout))

	_, raw, err := socket.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading connect: %w", err)
	}
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("parsing connect frame: %w", err)
	}
	if frame.Type != FrameTypeRequest || frame.Method != MethodConnect {
		rejectAndClose(socket, frame.ID, "protocol_error", "expected connect request")
		return nil, fmt.Errorf("expected connect request, got type=%s method=%s", frame.Type, frame.Method)
	}

	var params ConnectParams
	if len(frame.Params) > 0 {
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			rejectAndClose(socket, frame.ID, "invalid_params", "invalid connect params")
			return nil, fmt.Errorf("parsing connect params: %w", err)
		}
	}

	cn := newConn(socket, visitorID(params.VisitorID), displayName(params.Name))
	if err := cn.respond(frame.ID, Hello{
		VisitorID: cn.visitorID,
		ConnID:    cn.id,
		Version:   version.Version,
	}); err != nil {
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})
	return cn, nil
}

// visitorID keeps a well-formed ID from an earlier visit and mints a new
// one otherwise.
func visitorID(prev string) string {
	if id, err := uuid.Parse(prev); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "guest"
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	return name
}

func (c *Channel) keepalive(cn *conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := cn.ping(); err != nil {
				return
			}
		}
	}
}

func (c *Channel) readLoop(cn *conn) {
	for {
		frame, err := cn.readFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Str("connId", cn.id).Msg("visitor closed connection")
			} else {
				c.log.Debug().Err(err).Str("connId", cn.id).Msg("read error")
			}
			return
		}
		if frame.Type != FrameTypeRequest {
			continue
		}
		c.dispatch(cn, frame)
	}
}

func (c *Channel) dispatch(cn *conn, frame Frame) {
	msg := domain.InboundMessage{
		ID:        frame.ID,
		ChannelID: ChannelID,
		From:      cn.visitorID,
		FromName:  cn.name,
		ChatID:    cn.visitorID,
		ChatType:  domain.ChatTypeDM,
		Timestamp: time.Now(),
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	switch frame.Method {
	case MethodMessage:
		var p MessageParams
		if err := json.Unmarshal(frame.Params, &p); err != nil || strings.TrimSpace(p.Text) == "" {
			cn.respondError(frame.ID, "invalid_params", "text is required")
			return
		}
		msg.Body = strings.TrimSpace(p.Text)
	case MethodSelect:
		var p SelectParams
		if err := json.Unmarshal(frame.Params, &p); err != nil || p.Token == "" {
			cn.respondError(frame.ID, "invalid_params", "token is required")
			return
		}
		msg.Token = p.Token
		msg.SourceID = p.MessageID
	default:
		cn.respondError(frame.ID, "method_not_found", "unknown method: "+frame.Method)
		return
	}

	cn.respond(frame.ID, map[string]bool{"accepted": true})

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler != nil {
		handler(msg)
	}
}

// rejectAndClose sends an error response and a close frame.
func rejectAndClose(socket *websocket.Conn, reqID, code, message string) {
	socket.WriteJSON(NewErrorResponse(reqID, code, message))
	socket.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
}
