package http

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/tact0/internal/common"
)

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

func setSessionCookie(w http.ResponseWriter, opts CookieOptions, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(opts.TTL / time.Second),
	})
}

// clearSessionCookie expires the cookie immediately (Max-Age=0 on the wire).
func clearSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// sessionToken returns the raw cookie value or "" when there is none.
func sessionToken(r *http.Request) string {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
