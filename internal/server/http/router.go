package http

import (
	"net/http"

	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options are the collaborators of the HTTP surface. Metrics and Pages may
// be nil; Rules defaults to DefaultRules.
type Options struct {
	Auth     Authenticator
	Sessions Resolver
	Chat     Relay
	Cookie   CookieOptions
	Logger   logging.Logger
	Metrics  *metrics.Metrics
	// Pages renders the browser UI for "/", "/login", "/chat" and "/admin".
	Pages http.Handler
	Rules []Rule
}

// NewRouter builds the chi router with the middleware chain
// request id, real ip, metrics, access log, recoverer, guard.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	pages := opts.Pages
	if pages == nil {
		pages = http.NotFoundHandler()
	}

	h := &handlers{
		auth:     opts.Auth,
		sessions: opts.Sessions,
		chat:     opts.Chat,
		cookie:   opts.Cookie,
		logger:   logger,
	}
	guard := NewGuard(opts.Sessions, rules, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(guard.Middleware)

	r.Get("/healthz", healthz)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
	})

	r.Post("/chat", h.sendChat)

	for _, p := range []string{"/", LoginPath, "/chat", "/chat/*", "/admin", "/admin/*"} {
		r.Method(http.MethodGet, p, pages)
		r.Method(http.MethodHead, p, pages)
	}

	return r
}
