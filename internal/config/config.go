package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// DefaultGatewayPort is the HTTP port used when none is configured.
const DefaultGatewayPort = 8080

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Business: BusinessConfig{
			Name:     "GRUZEXPERT",
			Phone:    "+370 600 83564",
			Email:    "orders@gruzexpert.info",
			Telegram: "@gruzexpertvilnius_bot",
			Hours:    "24/7",
		},
		Gateway: GatewayConfig{
			Port: DefaultGatewayPort,
			Bind: "loopback",
		},
		Session: SessionConfig{
			Store:       "memory",
			IdleMinutes: 30,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "cargoquote:session:",
			},
		},
		Notify: NotifyConfig{
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
