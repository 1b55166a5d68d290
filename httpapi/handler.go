package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cookie"
)

const maxLoginBody = 1 << 16

// Paths configures the endpoint paths. Empty fields take the defaults.
type Paths struct {
	Session string
	Login   string
	Logout  string
	Refresh string
}

// DefaultPaths returns the default endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Session: "/api/session",
		Login:   "/api/auth/login",
		Logout:  "/api/auth/logout",
		Refresh: "/api/auth/refresh",
	}
}

// Handler serves the session endpoints.
type Handler struct {
	engine *goSession.Engine
	paths  Paths
	logger *zap.Logger
}

// New returns a Handler for engine. A nil logger disables logging.
func New(engine *goSession.Engine, paths Paths, logger *zap.Logger) *Handler {
	def := DefaultPaths()
	if paths.Session == "" {
		paths.Session = def.Session
	}
	if paths.Login == "" {
		paths.Login = def.Login
	}
	if paths.Logout == "" {
		paths.Logout = def.Logout
	}
	if paths.Refresh == "" {
		paths.Refresh = def.Refresh
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, paths: paths, logger: logger.Named("httpapi")}
}

// Mount registers the endpoints on mux.
func (h *Handler) Mount(mux *http.ServeMux) {
	mux.HandleFunc("GET "+h.paths.Session, h.session)
	mux.HandleFunc("POST "+h.paths.Login, h.login)
	mux.HandleFunc("POST "+h.paths.Logout, h.logout)
	mux.HandleFunc("POST "+h.paths.Refresh, h.refresh)
}

// ServeHTTP serves the endpoints from a private mux.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	h.Mount(mux)
	mux.ServeHTTP(w, r)
}

type loginResponse struct {
	User     *goSession.SessionView `json:"user"`
	Redirect string                 `json:"redirect"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	p, _ := h.engine.Current(goSession.RequestContext(r), cookie.NewResponseJar(w, r))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, goSession.ViewOf(p))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	tw := cookie.Track(w)
	ctx := goSession.RequestContext(r)

	var creds goSession.Credentials
	dec := json.NewDecoder(http.MaxBytesReader(tw, r.Body, maxLoginBody))
	if err := dec.Decode(&creds); err != nil {
		writeError(tw, http.StatusBadRequest, "invalid request")
		return
	}

	p, err := h.engine.Login(ctx, cookie.NewResponseJar(tw, r), creds)
	if err != nil {
		var retry *goSession.RetryAfterError
		switch {
		case errors.As(err, &retry):
			tw.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.RetryAfter.Seconds()))))
			writeError(tw, http.StatusTooManyRequests, "too many attempts")
		case errors.Is(err, goSession.ErrLoginRateLimited):
			writeError(tw, http.StatusTooManyRequests, "too many attempts")
		case errors.Is(err, goSession.ErrInvalidCredentials):
			writeError(tw, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, goSession.ErrIdentityUnavailable), errors.Is(err, goSession.ErrEngineNotReady):
			writeError(tw, http.StatusServiceUnavailable, "service unavailable")
		default:
			h.logger.Error("login failed", zap.Error(err), zap.String("request_id", goSession.RequestIDFromContext(ctx)))
			writeError(tw, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(tw, http.StatusOK, loginResponse{
		User:     goSession.ViewOf(p),
		Redirect: h.engine.LandingRouteFor(p.Role),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	tw := cookie.Track(w)
	ctx := goSession.RequestContext(r)

	if err := h.engine.Destroy(ctx, cookie.NewResponseJar(tw, r)); err != nil {
		h.logger.Error("logout failed", zap.Error(err), zap.String("request_id", goSession.RequestIDFromContext(ctx)))
		writeError(tw, http.StatusInternalServerError, "internal error")
		return
	}

	if wantsJSON(r) {
		tw.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(tw, r, h.engine.LoginPath(), http.StatusSeeOther)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	tw := cookie.Track(w)
	ctx := goSession.RequestContext(r)

	p, _, err := h.engine.Refresh(ctx, cookie.NewResponseJar(tw, r))
	if err != nil {
		h.logger.Error("refresh failed", zap.Error(err), zap.String("request_id", goSession.RequestIDFromContext(ctx)))
		writeError(tw, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(tw, http.StatusOK, goSession.ViewOf(p))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
