package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cargoquote/internal/channel"
	"github.com/soyeahso/cargoquote/internal/channel/irc"
	"github.com/soyeahso/cargoquote/internal/channel/telegram"
	"github.com/soyeahso/cargoquote/internal/channel/web"
	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/dialogue"
	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/gateway"
	"github.com/soyeahso/cargoquote/internal/hooks"
	"github.com/soyeahso/cargoquote/internal/logging"
	"github.com/soyeahso/cargoquote/internal/metrics"
	"github.com/soyeahso/cargoquote/internal/notify"
	"github.com/soyeahso/cargoquote/internal/routing"
	"github.com/soyeahso/cargoquote/internal/session"
	"github.com/soyeahso/cargoquote/internal/store"
)

const janitorInterval = time.Minute

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot: chat channels, website and API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(cfg *config.Config) {
				if port != 0 {
					cfg.Gateway.Port = port
				}
				if bind != "" {
					cfg.Gateway.Bind = bind
				}
			})
			if err != nil {
				return err
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}

func serve(ctx context.Context, cfg config.Config, log *logging.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hookMgr := hooks.NewManager(log)

	m := metrics.New()
	m.Subscribe(hookMgr)

	sessions, locker, closeSessions, err := openSessions(ctx, cfg.Session, log)
	if err != nil {
		return err
	}
	defer closeSessions()
	m.TrackSessions(func() float64 {
		n, err := sessions.Len(context.Background())
		if err != nil {
			return 0
		}
		return float64(n)
	})

	engine := dialogue.NewEngine(sessions, locker,
		dialogue.WithLogger(log),
		dialogue.WithMetrics(m),
	)

	gwOpts := []gateway.ServerOption{
		gateway.WithBusiness(cfg.Business.Domain()),
		gateway.WithMetrics(m),
		gateway.WithHooks(hookMgr),
	}

	var db *store.DB
	if !cfg.Store.Disabled {
		if err := paths.EnsureDirs(); err != nil {
			return fmt.Errorf("creating data directories: %w", err)
		}
		dbPath := paths.Database(cfg.Store)
		db, err = store.Open(dbPath, log)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		quotes := store.NewQuoteStore(db)
		recordQuotes(hookMgr, quotes, log)
		gwOpts = append(gwOpts, gateway.WithQuotes(quotes))
		log.Info().Str("path", dbPath).Msg("recording quote history")
	}

	channels := channel.NewRegistry(log)
	if tc := cfg.Channels.Telegram; tc != nil && tc.Token != "" {
		channels.Register(telegram.New(*tc, log))
	}
	if ic := cfg.Channels.IRC; ic != nil {
		channels.Register(irc.New(*ic, log))
	}
	if cfg.Gateway.WebChatEnabled() {
		webCh := web.New(cfg.Gateway.AllowedOrigins, log)
		channels.Register(webCh)
		gwOpts = append(gwOpts, gateway.WithWebChat(webCh))
	}
	gwOpts = append(gwOpts, gateway.WithChannels(channels))

	fanout := buildNotifier(cfg, channels, log)
	var notifier routing.Notifier
	if fanout.Len() > 0 {
		notifier = fanout
	} else {
		log.Warn().Msg("no notifier configured, customers will not be able to send quotes")
	}

	router := routing.NewRouter(channels, engine, routing.Config{
		Business: cfg.Business.Domain(),
		Notifier: notifier,
		Hooks:    hookMgr,
	}, log)
	router.Wire()

	defer func() {
		cancel()
		shutdown(channels, router, hookMgr, db, log)
	}()

	srv, err := gateway.New(cfg.Gateway, log, gwOpts...)
	if err != nil {
		return err
	}

	if err := channels.StartAll(ctx); err != nil {
		return fmt.Errorf("starting channels: %w", err)
	}
	log.Info().
		Strs("channels", channels.List()).
		Int("notifiers", fanout.Len()).
		Msg("message routing active")

	return srv.Start(ctx)
}

// shutdown stops producers before consumers: channels, then the router's
// queued messages, then hook handlers still writing history, then the
// database. db may be nil.
func shutdown(channels *channel.Registry, router *routing.Router, hm *hooks.Manager, db *store.DB, log *logging.Logger) {
	channels.StopAll(context.Background())
	router.Close()
	hm.Wait()
	if db != nil {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("closing database")
		}
	}
}

// openSessions builds the session store and per-identity locker from
// config. The janitor of the memory store runs until ctx ends.
func openSessions(ctx context.Context, cfg config.SessionConfig, log *logging.Logger) (dialogue.Store, *session.Locker, func(), error) {
	opts := []session.Option{
		session.WithIdleTimeout(time.Duration(cfg.IdleMinutes) * time.Minute),
		session.WithLogger(log),
	}

	switch cfg.Store {
	case "redis":
		rs := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			append(opts, session.WithPrefix(cfg.Redis.Prefix))...)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			rs.Close()
			return nil, nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}

		lockOpts := []session.LockerOption{session.WithLockLogger(log)}
		if cfg.DistributedLock {
			lockOpts = append(lockOpts, session.WithDistributed(
				session.NewRedisLocker(rs.Client(), cfg.Redis.Prefix), session.DefaultLockTTL))
		}
		log.Info().
			Str("addr", cfg.Redis.Addr).
			Bool("distributedLock", cfg.DistributedLock).
			Msg("using redis session store")
		return rs, session.NewLocker(lockOpts...), func() { rs.Close() }, nil

	default:
		ms := session.NewMemoryStore(opts...)
		go ms.RunJanitor(ctx, janitorInterval)
		log.Info().Int("idleMinutes", cfg.IdleMinutes).Msg("using in-memory session store")
		return ms, session.NewLocker(session.WithLockLogger(log)), func() {}, nil
	}
}

// recordQuotes stores every completed calculation.
func recordQuotes(hm *hooks.Manager, quotes *store.QuoteStore, log *logging.Logger) {
	hm.On(hooks.EventQuoteCompleted, "history", func(ctx context.Context, p hooks.Payload) error {
		q, ok := p.Data[hooks.KeyQuote].(domain.Quote)
		if !ok {
			return nil
		}
		id, err := quotes.Record(ctx, q)
		if err != nil {
			return fmt.Errorf("recording quote: %w", err)
		}
		log.Debug().Int64("id", id).Str("identity", q.Identity).Msg("quote recorded")
		return nil
	})
}

// buildNotifier assembles the configured quote destinations.
func buildNotifier(cfg config.Config, channels *channel.Registry, log *logging.Logger) *notify.Fanout {
	fanout := notify.NewFanout(log)

	sc := notify.SMTPConfig{
		Host:     cfg.Notify.SMTP.Host,
		Port:     cfg.Notify.SMTP.Port,
		Username: cfg.Notify.SMTP.Username,
		Password: cfg.Notify.SMTP.Password,
		From:     cfg.Notify.SMTP.From,
		To:       cfg.Notify.SMTP.To,
		Brand:    cfg.Business.Name,
		Via:      cfg.Business.Telegram,
	}
	if sc.Configured() {
		fanout.Add("smtp", notify.NewSMTPNotifier(sc, log))
	}
	if chat := cfg.Notify.Chat; chat != nil {
		fanout.Add("chat:"+chat.Channel, notify.NewChatNotifier(channels, chat.Channel, chat.Target))
	}
	return fanout
}
