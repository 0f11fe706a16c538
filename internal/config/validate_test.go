package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(issues []ValidationIssue) []string {
	var out []string
	for _, i := range issues {
		out = append(out, i.Path)
	}
	return out
}

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string // expected issue path; empty means valid
	}{
		{"port negative", func(c *Config) { c.Gateway.Port = -1 }, "gateway.port"},
		{"port too large", func(c *Config) { c.Gateway.Port = 70000 }, "gateway.port"},
		{"port zero", func(c *Config) { c.Gateway.Port = 0 }, ""},
		{"port max", func(c *Config) { c.Gateway.Port = 65535 }, ""},
		{"bind invalid", func(c *Config) { c.Gateway.Bind = "tailnet" }, "gateway.bind"},
		{"bind lan", func(c *Config) { c.Gateway.Bind = "lan" }, ""},
		{"custom bind without host", func(c *Config) { c.Gateway.Bind = "custom" }, "gateway.customBindHost"},
		{"custom bind with host", func(c *Config) {
			c.Gateway.Bind = "custom"
			c.Gateway.CustomBindHost = "10.0.0.5"
		}, ""},
		{"tls without key", func(c *Config) {
			c.Gateway.TLS = GatewayTLS{Enabled: true, CertPath: "/etc/cq/cert.pem"}
		}, "gateway.tls"},
		{"tls paths set", func(c *Config) {
			c.Gateway.TLS = GatewayTLS{Enabled: true, CertPath: "/etc/cq/cert.pem", KeyPath: "/etc/cq/key.pem"}
		}, ""},
		{"business name missing", func(c *Config) { c.Business.Name = "" }, "business.name"},
		{"business email invalid", func(c *Config) { c.Business.Email = "not an address" }, "business.email"},
		{"telegram without token", func(c *Config) { c.Channels.Telegram = &TelegramConfig{} }, "channels.telegram.token"},
		{"telegram negative poll", func(c *Config) {
			c.Channels.Telegram = &TelegramConfig{Token: "1:a", PollTimeoutSeconds: -1}
		}, "channels.telegram.pollTimeoutSeconds"},
		{"telegram ok", func(c *Config) { c.Channels.Telegram = &TelegramConfig{Token: "1:a"} }, ""},
		{"irc missing server", func(c *Config) { c.Channels.IRC = &IRCConfig{Nick: "bot"} }, "channels.irc.server"},
		{"irc missing nick", func(c *Config) { c.Channels.IRC = &IRCConfig{Server: "irc.example.org"} }, "channels.irc.nick"},
		{"irc bad port", func(c *Config) {
			c.Channels.IRC = &IRCConfig{Server: "irc.example.org", Nick: "bot", Port: 99999}
		}, "channels.irc.port"},
		{"irc sasl without password", func(c *Config) {
			c.Channels.IRC = &IRCConfig{Server: "irc.example.org", Nick: "bot", SASL: true}
		}, "channels.irc.sasl"},
		{"irc sasl with password", func(c *Config) {
			c.Channels.IRC = &IRCConfig{Server: "irc.example.org", Nick: "bot", SASL: true, Password: "pw"}
		}, ""},
		{"session store invalid", func(c *Config) { c.Session.Store = "sqlite" }, "session.store"},
		{"session idle negative", func(c *Config) { c.Session.IdleMinutes = -5 }, "session.idleMinutes"},
		{"redis without addr", func(c *Config) {
			c.Session.Store = "redis"
			c.Session.Redis.Addr = ""
		}, "session.redis.addr"},
		{"distributed lock on memory", func(c *Config) { c.Session.DistributedLock = true }, "session.distributedLock"},
		{"distributed lock on redis", func(c *Config) {
			c.Session.Store = "redis"
			c.Session.DistributedLock = true
		}, ""},
		{"smtp host without recipient", func(c *Config) { c.Notify.SMTP.Host = "mail.example.org" }, "notify.smtp.to"},
		{"smtp bad recipient", func(c *Config) { c.Notify.SMTP.To = "nobody" }, "notify.smtp.to"},
		{"smtp bad port", func(c *Config) { c.Notify.SMTP.Port = 123456 }, "notify.smtp.port"},
		{"chat notify incomplete", func(c *Config) { c.Notify.Chat = &ChatNotifyConfig{Channel: "telegram"} }, "notify.chat"},
		{"log level invalid", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log level silent", func(c *Config) { c.Logging.Level = "silent" }, ""},
		{"console style invalid", func(c *Config) { c.Logging.ConsoleStyle = "compact" }, "logging.consoleStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			if tt.want == "" {
				assert.Empty(t, issues)
				return
			}
			require.NotEmpty(t, issues)
			assert.Contains(t, issuePaths(issues), tt.want)
		})
	}
}

func TestValidate_MultipleIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = -1
	cfg.Logging.Level = "invalid"
	cfg.Session.Store = "disk"
	assert.Len(t, Validate(&cfg), 3)
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "gateway.port", Message: "bad port"}
	assert.Equal(t, "gateway.port: bad port", issue.String())
}
