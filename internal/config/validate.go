package config

import (
	"fmt"
	"net/mail"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

func validPort(p int) bool { return p >= 0 && p <= 65535 }

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Business.Name == "" {
		add("business.name", "name is required")
	}
	if cfg.Business.Email != "" {
		if _, err := mail.ParseAddress(cfg.Business.Email); err != nil {
			add("business.email", "invalid address %q", cfg.Business.Email)
		}
	}

	// Gateway validation
	if !validPort(cfg.Gateway.Port) {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}
	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		add("gateway.customBindHost", "required when bind is custom")
	}

	if tls := cfg.Gateway.TLS; tls.Enabled && (tls.CertPath == "" || tls.KeyPath == "") {
		add("gateway.tls", "certPath and keyPath are required when TLS is enabled")
	}

	// Channel validation (only if configured)
	if tg := cfg.Channels.Telegram; tg != nil {
		if tg.Token == "" {
			add("channels.telegram.token", "token is required")
		}
		if tg.PollTimeoutSeconds < 0 {
			add("channels.telegram.pollTimeoutSeconds", "must not be negative")
		}
	}
	if irc := cfg.Channels.IRC; irc != nil {
		if irc.Server == "" {
			add("channels.irc.server", "server is required")
		}
		if irc.Nick == "" {
			add("channels.irc.nick", "nick is required")
		}
		if !validPort(irc.Port) {
			add("channels.irc.port", "port must be 0-65535, got %d", irc.Port)
		}
		if irc.SASL && irc.Password == "" {
			add("channels.irc.sasl", "SASL requires a password to be set")
		}
	}

	// Session validation
	validStores := []string{"memory", "redis"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		add("session.store", "must be one of %v, got %q", validStores, cfg.Session.Store)
	}
	if cfg.Session.IdleMinutes < 0 {
		add("session.idleMinutes", "must not be negative, got %d", cfg.Session.IdleMinutes)
	}
	if cfg.Session.Store == "redis" && cfg.Session.Redis.Addr == "" {
		add("session.redis.addr", "required when store is redis")
	}
	if cfg.Session.DistributedLock && cfg.Session.Store != "redis" {
		add("session.distributedLock", "requires store: redis")
	}

	// Notification validation
	smtp := cfg.Notify.SMTP
	if !validPort(smtp.Port) {
		add("notify.smtp.port", "port must be 0-65535, got %d", smtp.Port)
	}
	if smtp.Host != "" && smtp.To == "" {
		add("notify.smtp.to", "recipient is required when host is set")
	}
	if smtp.To != "" {
		if _, err := mail.ParseAddress(smtp.To); err != nil {
			add("notify.smtp.to", "invalid address %q", smtp.To)
		}
	}
	if chat := cfg.Notify.Chat; chat != nil && (chat.Channel == "" || chat.Target == "") {
		add("notify.chat", "channel and target are both required")
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
