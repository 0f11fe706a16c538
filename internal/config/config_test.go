package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, DefaultGatewayPort, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.True(t, cfg.Gateway.WebChatEnabled())
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 30, cfg.Session.IdleMinutes)
	assert.Equal(t, 587, cfg.Notify.SMTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Nil(t, cfg.Channels.Telegram)
	assert.Nil(t, cfg.Channels.IRC)
	assert.NotEmpty(t, cfg.Business.Name)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultGatewayPort, cfg.Gateway.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	path := writeConfig(t, `
business:
  name: Acme Moving
  phone: "+1 555 0100"
  email: desk@acme.test
gateway:
  port: 9999
  bind: lan
  webChat: false
  auth:
    adminToken: s3cret
logging:
  level: debug
  consoleStyle: json
session:
  store: redis
  idleMinutes: 60
  redis:
    addr: redis:6379
    db: 2
  distributedLock: true
store:
  path: /var/lib/cargoquote.db
notify:
  smtp:
    host: mail.acme.test
    username: bot@acme.test
    to: orders@acme.test
  chat:
    channel: telegram
    target: "-100123"
channels:
  telegram:
    token: "123:abc"
  irc:
    server: irc.libera.chat
    nick: quotebot
    channels:
      - "#moving"
    useTLS: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Acme Moving", cfg.Business.Name)
	assert.Equal(t, "desk@acme.test", cfg.Business.Domain().Email)
	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "lan", cfg.Gateway.Bind)
	assert.False(t, cfg.Gateway.WebChatEnabled())
	assert.Equal(t, "s3cret", cfg.Gateway.Auth.AdminToken)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)

	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 60, cfg.Session.IdleMinutes)
	assert.Equal(t, "redis:6379", cfg.Session.Redis.Addr)
	assert.Equal(t, 2, cfg.Session.Redis.DB)
	assert.Equal(t, "cargoquote:session:", cfg.Session.Redis.Prefix, "prefix defaulted")
	assert.True(t, cfg.Session.DistributedLock)

	assert.Equal(t, "/var/lib/cargoquote.db", cfg.Store.Path)
	assert.Equal(t, 587, cfg.Notify.SMTP.Port, "port defaulted")
	require.NotNil(t, cfg.Notify.Chat)
	assert.Equal(t, "-100123", cfg.Notify.Chat.Target)

	require.NotNil(t, cfg.Channels.Telegram)
	assert.Equal(t, "123:abc", cfg.Channels.Telegram.Token)
	require.NotNil(t, cfg.Channels.IRC)
	assert.Equal(t, 6697, cfg.Channels.IRC.Port, "TLS port defaulted")
	assert.Equal(t, []string{"#moving"}, cfg.Channels.IRC.Channels)

	assert.Empty(t, Validate(&cfg))
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "{{invalid yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")

	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CARGOQUOTE_GATEWAY_PORT", "12345")
	t.Setenv("CARGOQUOTE_LOG_LEVEL", "TRACE")
	t.Setenv("CARGOQUOTE_TELEGRAM_TOKEN", "999:xyz")
	t.Setenv("CARGOQUOTE_SESSION_STORE", "Redis")
	t.Setenv("CARGOQUOTE_DB_PATH", "/tmp/q.db")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.Gateway.Port)
	assert.Equal(t, "trace", cfg.Logging.Level)
	require.NotNil(t, cfg.Channels.Telegram)
	assert.Equal(t, "999:xyz", cfg.Channels.Telegram.Token)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "/tmp/q.db", cfg.Store.Path)
}

func TestLoadExpandsSecrets(t *testing.T) {
	t.Setenv("TEST_SMTP_PASS", "hunter2")
	t.Setenv("TEST_BOT_TOKEN", "42:token")
	path := writeConfig(t, `
notify:
  smtp:
    password: ${TEST_SMTP_PASS}
channels:
  telegram:
    token: ${TEST_BOT_TOKEN}
  irc:
    server: irc.example.org
    nick: bot
    password: ${TEST_UNSET_VAR_XYZ}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Notify.SMTP.Password)
	assert.Equal(t, "42:token", cfg.Channels.Telegram.Token)
	assert.Equal(t, "${TEST_UNSET_VAR_XYZ}", cfg.Channels.IRC.Password, "unset variables are kept")
	assert.Equal(t, 6667, cfg.Channels.IRC.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("TEST_DOTENV_A=from-file\nTEST_DOTENV_B=from-file\n"), 0o600))

	t.Setenv("TEST_DOTENV_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("TEST_DOTENV_A") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), env))
	assert.Equal(t, "from-file", os.Getenv("TEST_DOTENV_A"))
	assert.Equal(t, "from-env", os.Getenv("TEST_DOTENV_B"), "existing variables win")
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"gateway.port", []string{"gateway", "port"}, false},
		{"channels.irc.server", []string{"channels", "irc", "server"}, false},
		{"business", []string{"business"}, false},
		{"", nil, true},
		{"a..b", nil, true},
		{".leading", nil, true},
		{"__proto__.x", nil, true},
		{"x.constructor", nil, true},
		{"prototype", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueAtPath(t *testing.T) {
	root := map[string]any{
		"gateway": map[string]any{"port": 8080, "bind": "lan"},
		"store":   "not-a-map",
	}

	val, ok := GetValueAtPath(root, []string{"gateway", "port"})
	assert.True(t, ok)
	assert.Equal(t, 8080, val)

	_, ok = GetValueAtPath(root, []string{"gateway", "missing"})
	assert.False(t, ok)
	_, ok = GetValueAtPath(root, []string{"store", "path"})
	assert.False(t, ok)

	SetValueAtPath(root, []string{"notify", "smtp", "host"}, "mail.example.org")
	val, ok = GetValueAtPath(root, []string{"notify", "smtp", "host"})
	assert.True(t, ok)
	assert.Equal(t, "mail.example.org", val)

	SetValueAtPath(root, []string{"store", "path"}, "/tmp/x.db")
	val, _ = GetValueAtPath(root, []string{"store", "path"})
	assert.Equal(t, "/tmp/x.db", val, "non-map intermediates are replaced")

	assert.True(t, UnsetValueAtPath(root, []string{"gateway", "port"}))
	_, ok = GetValueAtPath(root, []string{"gateway", "port"})
	assert.False(t, ok)
	val, _ = GetValueAtPath(root, []string{"gateway", "bind"})
	assert.Equal(t, "lan", val, "siblings survive")

	assert.False(t, UnsetValueAtPath(root, []string{"gateway", "nonexistent"}))
	assert.False(t, UnsetValueAtPath(root, []string{"missing", "key"}))
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	SetValueAtPath(raw, []string{"gateway", "port"}, 9999)
	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)
	val, ok := GetValueAtPath(loaded, []string{"gateway", "port"})
	assert.True(t, ok)
	assert.Equal(t, 9999, val)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Gateway.Port)
}

func TestResolvePaths(t *testing.T) {
	t.Setenv("CARGOQUOTE_HOME", "")
	paths, err := ResolvePaths()
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".cargoquote")
	assert.Equal(t, base, paths.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(base, ".env"), paths.Env)
	assert.Equal(t, filepath.Join(base, "logs"), paths.Logs)
	assert.Equal(t, filepath.Join(base, "data"), paths.Data)
}

func TestResolvePathsCustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("CARGOQUOTE_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "data", "cargoquote.db"), paths.Database(StoreConfig{}))
	assert.Equal(t, "/srv/q.db", paths.Database(StoreConfig{Path: "/srv/q.db"}))
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("CARGOQUOTE_HOME", filepath.Join(t.TempDir(), "home"))

	paths, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, paths.EnsureDirs())

	for _, d := range []string{paths.Base, paths.Logs, paths.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
