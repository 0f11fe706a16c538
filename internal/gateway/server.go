// Package gateway serves the public website, the pricing API, the operator
// API, Prometheus metrics and the browser chat socket.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soyeahso/cargoquote/internal/channel"
	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/hooks"
	"github.com/soyeahso/cargoquote/internal/logging"
	"github.com/soyeahso/cargoquote/internal/pricing"
)

// Metrics is what the gateway needs from the metrics registry.
type Metrics interface {
	HTTPObserver
	Handler() http.Handler
}

// Server is the cargoquote HTTP gateway.
type Server struct {
	cfg        config.GatewayConfig
	adminToken string
	business   domain.Business
	log        *logging.Logger

	calc     pricing.Calculator
	quotes   QuoteHistory
	metrics  Metrics
	channels *channel.Registry
	hooks    *hooks.Manager
	webChat  http.Handler

	site        *site
	tariff      Tariff
	authLimiter *authRateLimiter
	startedAt   time.Time

	mu   sync.Mutex
	addr string
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithBusiness sets the contact details shown on the website.
func WithBusiness(b domain.Business) ServerOption {
	return func(s *Server) { s.business = b }
}

// WithCalculator replaces the pricing engine behind POST /api/v1/quotes.
func WithCalculator(c pricing.Calculator) ServerOption {
	return func(s *Server) { s.calc = c }
}

// WithQuotes enables the operator history endpoints.
func WithQuotes(q QuoteHistory) ServerOption {
	return func(s *Server) { s.quotes = q }
}

// WithMetrics exposes /metrics and records request metrics.
func WithMetrics(m Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithChannels sets the channel registry for status reporting.
func WithChannels(ch *channel.Registry) ServerOption {
	return func(s *Server) { s.channels = ch }
}

// WithHooks sets the hook manager for lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) { s.hooks = hm }
}

// WithWebChat mounts the browser chat socket at /ws.
func WithWebChat(h http.Handler) ServerOption {
	return func(s *Server) { s.webChat = h }
}

// New creates a gateway server.
func New(cfg config.GatewayConfig, log *logging.Logger, opts ...ServerOption) (*Server, error) {
	st, err := newSite()
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	s := &Server{
		cfg:         cfg,
		adminToken:  cfg.Auth.AdminToken,
		log:         log.Sub("gateway"),
		calc:        pricing.Engine{},
		site:        st,
		tariff:      buildTariff(),
		authLimiter: newAuthRateLimiter(),
		startedAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler builds the routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(s.log, s.metrics))
	r.Use(cors(s.cfg.AllowedOrigins))

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/", s.page("index", "Home"))
	r.Get("/contacts", s.page("contacts", "Contacts"))
	r.Handle("/static/*", staticFiles())
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	if s.webChat != nil {
		r.Method(http.MethodGet, "/ws", s.webChat)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/tariff", s.handleTariff)
		api.Post("/quotes", s.handleQuote)

		api.Group(func(admin chi.Router) {
			admin.Use(s.requireAdmin)
			admin.Get("/calculations", s.handleCalculations)
			admin.Get("/calculations/{id}", s.handleCalculation)
			admin.Get("/stats", s.handleStats)
			admin.Get("/status", s.handleStatus)
		})
	})
	return r
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLS.CertPath, s.cfg.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})
		s.log.Info().Msg("TLS enabled")
	} else if s.cfg.Bind != "" && s.cfg.Bind != "loopback" && s.adminToken != "" {
		s.log.Warn().Msg("TLS is not enabled, the admin token travels in cleartext")
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.log.Info().
		Str("addr", s.addr).
		Str("bind", s.cfg.Bind).
		Bool("admin", s.adminToken != "").
		Bool("webChat", s.webChat != nil).
		Msg("gateway server ready")
	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.EventGatewayStart, map[string]any{"addr": s.addr})
	}

	go s.sweepFailures(ctx)
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		if s.hooks != nil {
			s.hooks.Emit(context.Background(), hooks.EventGatewayStop, nil)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweepFailures(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.authLimiter.cleanup()
		}
	}
}

func (s *Server) uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startedAt).Round(time.Second)
}

// Addr returns the listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
