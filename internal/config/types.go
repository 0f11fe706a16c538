package config

import "github.com/soyeahso/cargoquote/internal/domain"

// Config is the root configuration, loaded from ~/.cargoquote/config.yaml.
type Config struct {
	Business BusinessConfig `yaml:"business,omitempty"`
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Channels ChannelsConfig `yaml:"channels,omitempty"`
	Session  SessionConfig  `yaml:"session,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// BusinessConfig holds the contact details shown to customers and used as
// the sender identity of notification mail.
type BusinessConfig struct {
	Name     string `yaml:"name,omitempty"`
	Phone    string `yaml:"phone,omitempty"`
	Email    string `yaml:"email,omitempty"`
	Telegram string `yaml:"telegram,omitempty"`
	Website  string `yaml:"website,omitempty"`
	Hours    string `yaml:"hours,omitempty"`
}

// Domain converts the section to the type the router renders.
func (b BusinessConfig) Domain() domain.Business {
	return domain.Business{
		Name:     b.Name,
		Phone:    b.Phone,
		Email:    b.Email,
		Telegram: b.Telegram,
		Website:  b.Website,
		Hours:    b.Hours,
	}
}

// GatewayConfig configures the HTTP server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback", "lan", "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	// WebChat enables the /ws browser chat channel.
	WebChat *bool `yaml:"webChat,omitempty"`
}

// WebChatEnabled reports whether the browser chat channel should run.
// It defaults to true.
func (g GatewayConfig) WebChatEnabled() bool {
	return g.WebChat == nil || *g.WebChat
}

// GatewayTLS serves the gateway over HTTPS.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// GatewayAuth protects the operator endpoints.
type GatewayAuth struct {
	AdminToken string `yaml:"adminToken,omitempty"`
}

// ChannelsConfig holds per-transport configuration. A nil section disables
// that transport.
type ChannelsConfig struct {
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`
	IRC      *IRCConfig      `yaml:"irc,omitempty"`
}

// TelegramConfig configures the Telegram bot.
type TelegramConfig struct {
	Token string `yaml:"token,omitempty"`
	// PollTimeoutSeconds is the long-polling timeout of getUpdates.
	PollTimeoutSeconds int `yaml:"pollTimeoutSeconds,omitempty"`
}

// IRCConfig configures the IRC connection.
type IRCConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port,omitempty"`
	Nick     string   `yaml:"nick"`
	Password string   `yaml:"password,omitempty"` // server password, or SASL password if SASL is true
	Channels []string `yaml:"channels,omitempty"`
	UseTLS   bool     `yaml:"useTLS,omitempty"`
	SASL     bool     `yaml:"sasl,omitempty"` // authenticate with SASL PLAIN (nick + password)
}

// SessionConfig controls where dialogue sessions live.
type SessionConfig struct {
	Store       string      `yaml:"store,omitempty"` // "memory" or "redis"
	IdleMinutes int         `yaml:"idleMinutes,omitempty"`
	Redis       RedisConfig `yaml:"redis,omitempty"`
	// DistributedLock serialises events per identity across processes via
	// redis. Requires store: redis.
	DistributedLock bool `yaml:"distributedLock,omitempty"`
}

// RedisConfig addresses the shared session store.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// StoreConfig locates the SQLite database holding calculation history.
type StoreConfig struct {
	// Path of the database file. Empty means <base>/data/cargoquote.db.
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// NotifyConfig controls how finished quotes reach the operator.
type NotifyConfig struct {
	SMTP SMTPConfig        `yaml:"smtp,omitempty"`
	Chat *ChatNotifyConfig `yaml:"chat,omitempty"`
}

// SMTPConfig is the outgoing mail server.
type SMTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	From     string `yaml:"from,omitempty"`
	To       string `yaml:"to,omitempty"`
}

// ChatNotifyConfig posts finished quotes into a staff chat.
type ChatNotifyConfig struct {
	Channel string `yaml:"channel"` // channel ID, e.g. "telegram"
	Target  string `yaml:"target"`  // chat ID or IRC channel
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty", "json"
}
