package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/models"
)

const (
	LoginPath   = "/login"
	DefaultPath = "/chat"

	redirectParam = "redirect"
)

// Mode selects how a rule answers a caller it does not admit.
type Mode int

const (
	// ModeRedirect sends browsers to the login page or the default page.
	ModeRedirect Mode = iota
	// ModeReject answers with a JSON error status.
	ModeReject
)

// Rule protects every path equal to Prefix or below it ("/chat" covers
// "/chat/x" but not "/chatter"). Empty Methods matches every method; empty
// Roles admits any signed-in account.
type Rule struct {
	Prefix  string
	Methods []string
	Roles   []models.Role
	Mode    Mode
}

func (r Rule) matches(req *http.Request) bool {
	p := req.URL.Path
	if p != r.Prefix && !strings.HasPrefix(p, strings.TrimSuffix(r.Prefix, "/")+"/") {
		return false
	}
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if strings.EqualFold(m, req.Method) {
			return true
		}
	}
	return false
}

func (r Rule) admits(role models.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// DefaultRules protects the chat page, the chat API and the admin page.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/chat", Methods: []string{http.MethodGet, http.MethodHead}, Mode: ModeRedirect},
		{Prefix: "/chat", Methods: []string{http.MethodPost}, Mode: ModeReject},
		{Prefix: "/admin", Methods: []string{http.MethodGet, http.MethodHead}, Roles: []models.Role{models.RoleAdmin}, Mode: ModeRedirect},
	}
}

// Outcome is the verdict of the guard for one request.
type Outcome int

const (
	Allowed Outcome = iota
	RedirectedToLogin
	RedirectedToDefault
	RejectedUnauthenticated
	RejectedForbidden
	// Failed means the session could not be resolved at all.
	Failed
)

// Decision carries the outcome, the resolved identity (nil when anonymous or
// when no rule matched) and, for redirects, the target location.
type Decision struct {
	Outcome  Outcome
	Identity *models.Identity
	Location string
	Mode     Mode
}

// Resolver maps a session token to an identity; see services.SessionResolver.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

// Guard enforces the rules before any handler runs.
type Guard struct {
	resolver Resolver
	rules    []Rule
	logger   logging.Logger
}

func NewGuard(resolver Resolver, rules []Rule, logger logging.Logger) *Guard {
	return &Guard{resolver: resolver, rules: rules, logger: logger}
}

// Evaluate decides the fate of r. The first matching rule wins; requests no
// rule matches are allowed without resolving the session.
func (g *Guard) Evaluate(r *http.Request) Decision {
	var rule *Rule
	for i := range g.rules {
		if g.rules[i].matches(r) {
			rule = &g.rules[i]
			break
		}
	}
	if rule == nil {
		return Decision{Outcome: Allowed}
	}

	identity, err := g.resolver.Resolve(r.Context(), sessionToken(r))
	if err != nil {
		g.logger.Error(r.Context(), "guard could not resolve session", "path", r.URL.Path, "error", err)
		d := Decision{Outcome: Failed, Mode: rule.Mode}
		if rule.Mode == ModeRedirect {
			d.Location = loginLocation(r)
		}
		return d
	}

	switch {
	case identity == nil && rule.Mode == ModeRedirect:
		return Decision{Outcome: RedirectedToLogin, Location: loginLocation(r), Mode: rule.Mode}
	case identity == nil:
		return Decision{Outcome: RejectedUnauthenticated, Mode: rule.Mode}
	case !rule.admits(identity.Role) && rule.Mode == ModeRedirect:
		return Decision{Outcome: RedirectedToDefault, Identity: identity, Location: DefaultPath, Mode: rule.Mode}
	case !rule.admits(identity.Role):
		return Decision{Outcome: RejectedForbidden, Identity: identity, Mode: rule.Mode}
	}
	return Decision{Outcome: Allowed, Identity: identity, Mode: rule.Mode}
}

// Middleware applies Evaluate and, when allowed, hands the identity to the
// next handler through the request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Evaluate(r)

		switch d.Outcome {
		case Allowed:
			if d.Identity != nil {
				r = r.WithContext(WithIdentity(r.Context(), d.Identity))
			}
			next.ServeHTTP(w, r)
		case RedirectedToLogin, RedirectedToDefault:
			http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
		case RejectedUnauthenticated:
			writeError(w, http.StatusUnauthorized, codeUnauthorized)
		case RejectedForbidden:
			writeError(w, http.StatusForbidden, codeForbidden)
		case Failed:
			if d.Mode == ModeRedirect {
				http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternal)
		}
	})
}

func loginLocation(r *http.Request) string {
	q := url.Values{}
	q.Set(redirectParam, r.URL.Path)
	return LoginPath + "?" + q.Encode()
}

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity the guard admitted, or nil.
func IdentityFromContext(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(identityKey).(*models.Identity)
	return id
}
