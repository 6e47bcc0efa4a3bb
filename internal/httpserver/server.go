package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/audit"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/cards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/config"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/guard"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/nav"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/notify"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/observability"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/reportcards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/validate"
)

type Sessions interface {
	Login(user session.User, token string) (session.Session, error)
	Logout(id string) error
	Get(id string) (session.Session, error)
}

type Authenticator interface {
	Login(ctx context.Context, documentNumber, password string) (apiclient.LoginResult, error)
}

type ReportCardService interface {
	Create(ctx context.Context, token string, req reportcards.Request) (reportcards.Summary, error)
	Delete(ctx context.Context, token string, req reportcards.Request) (reportcards.Summary, error)
}

type CardImporter interface {
	Import(ctx context.Context, token string, schoolID int64, rows []cards.Row) (cards.Summary, error)
}

type AuditLogger interface {
	Log(e audit.Event) error
}

type Deps struct {
	Sessions        Sessions
	Auth            Authenticator
	API             *apiclient.Client
	ReportCards     ReportCardService
	Cards           CardImporter
	Audit           AuditLogger
	Logger          *slog.Logger
	CookieName      string
	SecureCookie    bool
	FrontendDistDir string
	// BatchDelay and APITimeout size the write deadline of batch requests.
	BatchDelay time.Duration
	APITimeout time.Duration
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      loggingMiddleware(deps.Logger, handler),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = observability.Discard()
	}
	if deps.CookieName == "" {
		deps.CookieName = "appsistencia_session"
	}
	g := guard.New(deps.Sessions, deps.CookieName, nav.LoginPath)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if deps.Sessions == nil || deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/v1/info", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "appsistencia-console",
			"version": "0.1.0",
		})
	})

	registerAuthHandlers(mux, g, deps)
	registerNavHandlers(mux, g)
	registerEntityHandlers(mux, g, deps)
	registerBatchHandlers(mux, g, deps)
	registerFrontendHandlers(mux, g, deps.FrontendDistDir)

	return mux
}

func registerNavHandlers(mux *http.ServeMux, g *guard.Guard) {
	mux.Handle("/v1/nav", g.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sess, _ := session.FromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"role":  sess.User.Role,
			"home":  nav.Home(sess.User.Role),
			"items": nav.ForRole(sess.User.Role),
		})
	})))

	// The back signal is also raised on the login screen, so it needs no session.
	mux.HandleFunc("/v1/nav/back", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		writeJSON(w, http.StatusOK, nav.Back(req.Path))
	})
}

// registerFrontendHandlers serves the built SPA. Everything except the
// login screen and static assets goes through the guard; an operator who
// opens the other role's area is sent to their own home.
func registerFrontendHandlers(mux *http.ServeMux, g *guard.Guard, distDir string) {
	distDir = strings.TrimSpace(distDir)
	if distDir == "" {
		return
	}
	indexPath := filepath.Join(distDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		return
	}

	fileServer := http.FileServer(http.Dir(distDir))
	protected := g.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())
		home := nav.Home(sess.User.Role)
		cleanPath := path.Clean(r.URL.Path)
		if cleanPath == "/" || !inArea(cleanPath, home) {
			http.Redirect(w, r, home, http.StatusFound)
			return
		}
		// SPA fallback.
		http.ServeFile(w, r, indexPath)
	}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
			http.NotFound(w, r)
			return
		}

		cleanPath := path.Clean(r.URL.Path)
		if cleanPath == nav.LoginPath {
			if sess, ok := g.Allow(r); ok {
				http.Redirect(w, r, nav.Home(sess.User.Role), http.StatusFound)
				return
			}
			http.ServeFile(w, r, indexPath)
			return
		}

		fullPath := filepath.Join(distDir, strings.TrimPrefix(cleanPath, "/"))
		info, err := os.Stat(fullPath)
		if err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		protected.ServeHTTP(w, r)
	})
}

// inArea reports whether p lives under the same top-level section as home,
// e.g. /admin/alumnos for /admin/dashboard.
func inArea(p, home string) bool {
	section := home
	if i := strings.Index(strings.TrimPrefix(home, "/"), "/"); i >= 0 {
		section = home[:i+1]
	}
	return p == section || strings.HasPrefix(p, section+"/")
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

var kindStatus = map[apiclient.Kind]int{
	apiclient.KindNetwork:      http.StatusBadGateway,
	apiclient.KindUnauthorized: http.StatusUnauthorized,
	apiclient.KindForbidden:    http.StatusForbidden,
	apiclient.KindNotFound:     http.StatusNotFound,
	apiclient.KindConflict:     http.StatusConflict,
	apiclient.KindValidation:   http.StatusBadRequest,
	apiclient.KindServer:       http.StatusBadGateway,
}

// writeFailure maps err to a status and an operator notice. Every handler
// that talks to the API reports errors through here.
func writeFailure(w http.ResponseWriter, err error) {
	kind := apiclient.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		kind = apiclient.KindValidation
		status = http.StatusBadRequest
	}
	body := map[string]any{
		"error":  err.Error(),
		"kind":   kind,
		"notice": notify.FromError(err),
	}
	if verr != nil {
		body["fields"] = verr.Fields
	}
	writeJSON(w, status, body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = observability.Discard()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			"rid", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

type requestIDKey struct{}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(requestIDKey{})
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// auditReq records e with request metadata appended to its detail.
func auditReq(a AuditLogger, r *http.Request, e audit.Event) {
	if a == nil {
		return
	}
	parts := []string{
		"rid=" + requestIDFromContext(r.Context()),
		"ip=" + clientIP(r),
	}
	if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
		parts = append(parts, "ua="+ua)
	}
	if d := strings.TrimSpace(e.Detail); d != "" {
		parts = append(parts, "detail="+d)
	}
	e.Detail = strings.Join(parts, " | ")
	_ = a.Log(e)
}

func actorEvent(sess session.Session, action, target, outcome, detail string) audit.Event {
	return audit.Event{
		Actor:    sess.User.DocumentNumber,
		Role:     sess.User.Role,
		SchoolID: sess.User.SchoolID,
		Action:   action,
		Target:   target,
		Outcome:  outcome,
		Detail:   detail,
	}
}
