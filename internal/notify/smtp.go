package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/logging"
)

// SMTPConfig describes the mail relay and the operator mailbox.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From string
	// To is the operator address quotes are sent to.
	To string
	// Brand appears in the subject line and the footer.
	Brand string
	// Via names where the quote came from, such as the bot's handle.
	Via string
}

// Configured reports whether the relay can be used.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && c.To != ""
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails quotes as HTML. The relay is upgraded with STARTTLS
// when it offers it and authenticated with PLAIN.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send sendFunc
	now  func() time.Time
	log  *logging.Logger
}

// NewSMTPNotifier creates a mail notifier.
func NewSMTPNotifier(cfg SMTPConfig, log *logging.Logger) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now, log: log.Sub("notify")}
}

var quoteEmail = template.Must(template.New("quote").Parse(`<h2>🚛 NEW PRICE CALCULATION</h2>
<p><strong>Calculated at:</strong> {{.When}}</p>
<h3>📊 DETAILS:</h3>
<pre>{{.Details}}</pre>
<h3>💰 TOTAL: {{.Total}} €</h3>
<hr>
{{if .Via}}<p><em>Sent from {{.Via}}</em></p>{{end}}
<p><strong>Customer:</strong><br>
{{if .Username}}Name: {{.Username}}<br>{{end}}
Channel: {{.Channel}}<br>
User ID: {{.UserID}}</p>
`))

// Render builds the HTML body for q.
func (n *SMTPNotifier) Render(q domain.Quote) (string, error) {
	when := q.CreatedAt
	if when.IsZero() {
		when = n.now()
	}
	var buf bytes.Buffer
	err := quoteEmail.Execute(&buf, map[string]any{
		"When":     when.Format("02.01.2006 15:04"),
		"Details":  q.Result.Details,
		"Total":    q.Result.Total,
		"Via":      n.cfg.Via,
		"Username": q.Username,
		"Channel":  q.ChannelID,
		"UserID":   q.UserID,
	})
	if err != nil {
		return "", fmt.Errorf("rendering quote email: %w", err)
	}
	return buf.String(), nil
}

func (n *SMTPNotifier) message(q domain.Quote) ([]byte, error) {
	body, err := n.Render(q)
	if err != nil {
		return nil, err
	}
	subject := "New price calculation"
	if n.cfg.Brand != "" {
		subject += " | " + n.cfg.Brand
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", n.cfg.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "Message-ID: <%s@%s>\r\n", uuid.NewString(), n.cfg.Host)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String()), nil
}

// Notify mails q to the operator address.
func (n *SMTPNotifier) Notify(ctx context.Context, q domain.Quote) error {
	if !n.cfg.Configured() {
		n.log.Warn().Msg("smtp credentials not configured, skipping email")
		return ErrNotConfigured
	}
	msg, err := n.message(q)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	// net/smtp takes no context.
	done := make(chan error, 1)
	go func() { done <- n.send(addr, auth, n.cfg.From, []string{n.cfg.To}, msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending mail via %s: %w", addr, err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	n.log.Info().Str("to", n.cfg.To).Str("identity", q.Identity).Msg("quote emailed")
	return nil
}
