// Package server wires the configuration, credential store, services and
// HTTP surface together and runs them until the process is signalled.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/auth"
	"github.com/dmitrijs2005/tact0/internal/server/config"
	"github.com/dmitrijs2005/tact0/internal/server/engine"
	"github.com/dmitrijs2005/tact0/internal/server/metrics"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tact0/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	hs "github.com/dmitrijs2005/tact0/internal/server/http"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	handler http.Handler
}

// Option customises NewApp.
type Option func(*options)

type options struct {
	logger logging.Logger
	pages  http.Handler
}

// WithLogger replaces the JSON stdout logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPages plugs in the browser UI served for "/", "/login", "/chat" and
// "/admin".
func WithPages(h http.Handler) Option {
	return func(o *options) { o.pages = h }
}

// NewApp validates c and builds every component. It fails with
// common.ErrConfiguration before touching the database when the
// configuration is unusable.
func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewJSON(os.Stdout, c.LogLevel)
	}
	logger := o.logger

	if err := c.Validate(); err != nil {
		return nil, err
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey), c.SessionTTL)
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.New(ctx, c.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	if c.EngineURL == "" {
		logger.Warn(ctx, "ENGINE_URL is not set, chat requests will fail")
	}
	engineClient := engine.NewClient(c.EngineURL, c.EngineAPIKey, c.EngineTimeout)

	handler := hs.NewRouter(hs.Options{
		Auth:     services.NewAuthService(rm, codec, logger, m),
		Sessions: services.NewSessionResolver(rm, codec, logger),
		Chat:     services.NewChatService(engineClient, logger, m),
		Cookie:   hs.CookieOptions{Secure: c.SecureCookies(), TTL: codec.TTL()},
		Logger:   logger,
		Metrics:  m,
		Pages:    o.pages,
	})

	return &App{config: c, logger: logger, repos: rm, handler: handler}, nil
}

// Handler exposes the fully wired router.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// shuts the server down gracefully and releases the store.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Environment, "secure_cookies", app.config.SecureCookies())

	app.initSignalHandler(cancelFunc)

	s := hs.NewHTTPServer(app.config.Addr, app.logger, app.handler)
	err := s.Run(ctx, app.config.EngineTimeout+httpWriteSlack)

	if cerr := app.repos.Close(); cerr != nil {
		app.logger.Error(context.Background(), "closing store", "error", cerr)
	}
	return err
}

// httpWriteSlack is added to the engine timeout so a slow engine reply can
// still be written back.
const httpWriteSlack = 15 * time.Second
