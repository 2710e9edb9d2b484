package http

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/engine"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/dmitrijs2005/tact0/internal/server/services"
)

// Authenticator is implemented by services.AuthService.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
}

// Relay is implemented by services.ChatService.
type Relay interface {
	Relay(ctx context.Context, identity *models.Identity, text string) (*engine.Reply, error)
}

type handlers struct {
	auth     Authenticator
	sessions Resolver
	chat     Relay
	cookie   CookieOptions
	logger   logging.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User *models.Identity `json:"user"`
}

type chatRequest struct {
	Text string `json:"text"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	h.openSession(w, r, h.auth.Register, http.StatusCreated)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	h.openSession(w, r, h.auth.Login, http.StatusOK)
}

func (h *handlers) openSession(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, email, password string) (*services.Session, error), status int) {

	var req credentialsRequest
	if err := parseJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput)
		return
	}

	sess, err := op(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	setSessionCookie(w, h.cookie, sess.Token)
	writeJSON(w, status, userResponse{User: &sess.User})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.cookie)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	identity, err := h.sessions.Resolve(r.Context(), sessionToken(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeUnauthorized)
		return
	}
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, userResponse{})
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: identity})
}

func (h *handlers) sendChat(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		writeServiceError(w, r, h.logger, common.ErrUnauthorized)
		return
	}

	var req chatRequest
	if err := parseJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput)
		return
	}

	reply, err := h.chat.Relay(r.Context(), identity, req.Text)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
