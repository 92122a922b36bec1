package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/speedwagon1299/MoodyGrooves/internal/auth"
	"github.com/speedwagon1299/MoodyGrooves/internal/services"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"github.com/speedwagon1299/MoodyGrooves/internal/tasks"
)

const sessionCookieMaxAge = 7 * 24 * time.Hour

// AuthHandler serves the OAuth login flow and session endpoints.
// Implements the Handler interface for registration with a Router.
type AuthHandler struct {
	orch         *auth.Orchestrator
	logger       *log.Logger
	cookieName   string
	cookieSecure bool
	frontendURL  string
}

// AuthHandlerOpts contains the dependencies for creating an AuthHandler.
type AuthHandlerOpts struct {
	Orchestrator *auth.Orchestrator
	Logger       *log.Logger
	CookieName   string
	CookieSecure bool
	FrontendURL  string
}

func NewAuthHandler(opts AuthHandlerOpts) *AuthHandler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.CookieName == "" {
		opts.CookieName = "moody_session"
	}

	return &AuthHandler{
		orch:         opts.Orchestrator,
		logger:       opts.Logger,
		cookieName:   opts.CookieName,
		cookieSecure: opts.CookieSecure,
		frontendURL:  opts.FrontendURL,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{
		"GET /auth/spotify",
		"GET /auth/spotify/callback",
		"GET /auth/session",
		"POST /auth/logout",
	}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/spotify":
		h.login(w, r)
	case "/auth/spotify/callback":
		h.callback(w, r)
	case "/auth/session":
		h.session(w, r)
	case "/auth/logout":
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.orch.InitiateLogin(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sessionID, err := h.orch.CompleteLogin(r.Context(), query.Get("code"), query.Get("state"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.frontendURL+"/search", http.StatusFound)
}

func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: no session cookie", shared.ErrNotAuthenticated))
		return
	}

	principal, err := h.orch.SessionPrincipal(r.Context(), cookie.Value)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"userId": principal})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookieName); err == nil {
		if err := h.orch.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// APIHandler serves the authenticated filtering API. Registered behind
// [SessionAuth], so every request carries a resolved principal.
type APIHandler struct {
	music  services.MusicService
	engine tasks.MoodEngine
	logger *log.Logger
}

func NewAPIHandler(music services.MusicService, engine tasks.MoodEngine, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &APIHandler{music: music, engine: engine, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{
		"GET /api/playlists",
		"POST /api/tracks",
		"POST /api/filter",
	}
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/playlists":
		h.playlists(w, r)
	case "/api/tracks":
		h.tracks(w, r)
	case "/api/filter":
		h.filter(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *APIHandler) playlists(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	playlists, err := h.music.Playlists(r.Context(), principal)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, playlists)
}

type tracksRequest struct {
	Hrefs []string `json:"hrefs"`
}

func (h *APIHandler) tracks(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	var req tracksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Hrefs) == 0 {
		writeError(w, h.logger, fmt.Errorf("%w: hrefs are required", shared.ErrBadRequest))
		return
	}

	set, err := h.music.CollectUniqueSongs(r.Context(), principal, req.Hrefs)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}

type filterRequest struct {
	Descriptor string   `json:"descriptor"`
	Hrefs      []string `json:"hrefs"`
}

func (h *APIHandler) filter(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body", shared.ErrBadRequest))
		return
	}

	result, err := h.engine.Filter(r.Context(), nil, principal, req.Descriptor, req.Hrefs)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
