// Package page serves the storefront page and the session API.
package page

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/storefront/session"
	"github.com/abgdnv/storefront/internal/storefront/state"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	cookieName = "storefront"
	sessionKey = "sid"
)

// Sessions is the part of session.Manager used by the handler.
type Sessions interface {
	Acquire(id string) (*session.Session, error)
	Get(id string) (*session.Session, bool)
	Remove(id string)
}

type Handler struct {
	sessions Sessions
	cookies  sessions.Store
	content  Content
	page     *template.Template
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler parses the embedded templates. cookies signs the visitor id cookie.
func NewHandler(mgr Sessions, cookies sessions.Store, content Content, logger *slog.Logger) (*Handler, error) {
	page, err := template.New("index.html").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		sessions: mgr,
		cookies:  cookies,
		content:  content,
		page:     page,
		validate: validator.New(),
		logger:   logger.With("component", "web"),
	}, nil
}

// RegisterRoutes registers the page, the form intents and the session API.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/", h.Index)
	r.Post("/intents/{kind}", h.FormIntent)

	r.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/intents", h.APIIntent)
	})

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/placeholder.svg", http.FileServer(http.FS(static)))
	r.Get("/healthz", h.HealthCheck)
}

// Index renders the storefront for the visitor's session.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	s, ok := h.session(w, r, mLogger)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, newPageView(s.Snapshot(), h.content)); err != nil {
		mLogger.ErrorContext(r.Context(), "Error rendering page", "error", err)
	}
}

// FormIntent applies a form post and redirects back to the page.
func (h *Handler) FormIntent(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if err := r.ParseForm(); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid form")
		return
	}
	req, err := fromForm(chi.URLParam(r, "kind"), r.PostForm.Get)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		web.RespondValidationError(w, r, mLogger, err)
		return
	}
	s, ok := h.session(w, r, mLogger)
	if !ok {
		return
	}
	if _, ok := h.apply(w, r, mLogger, s, req); !ok {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetSession returns the visitor's state as JSON.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	s, ok := h.session(w, r, mLogger)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, newSessionView(s.ID(), s.Snapshot(), h.content))
}

// APIIntent applies a JSON intent and returns the resulting state.
func (h *Handler) APIIntent(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req IntentRequest
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &req) {
		return
	}
	s, ok := h.session(w, r, mLogger)
	if !ok {
		return
	}
	st, ok := h.apply(w, r, mLogger, s, req)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, newSessionView(s.ID(), st, h.content))
}

// DeleteSession tears the visitor's session down and expires the cookie.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cookie, _ := h.cookies.Get(r, cookieName)
	if id, ok := cookie.Values[sessionKey].(string); ok && id != "" {
		h.sessions.Remove(id)
		mLogger.InfoContext(r.Context(), "Session deleted", "session_id", id)
	}
	cookie.Options.MaxAge = -1
	if err := cookie.Save(r, w); err != nil {
		mLogger.ErrorContext(r.Context(), "Error expiring session cookie", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, s *session.Session, req IntentRequest) (state.State, bool) {
	in, err := req.toIntent()
	if errors.Is(err, errLogOnly) {
		mLogger.InfoContext(r.Context(), "Searching by photo", "session_id", s.ID())
		return s.Snapshot(), true
	}
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		return state.State{}, false
	}
	st, err := s.Dispatch(r.Context(), in)
	if err != nil {
		if errors.Is(err, session.ErrClosed) {
			web.RespondError(w, mLogger, http.StatusConflict, "Session has ended, reload the page")
			return state.State{}, false
		}
		mLogger.ErrorContext(r.Context(), "Error applying intent", "kind", in.Kind(), "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to apply intent")
		return state.State{}, false
	}
	mLogger.DebugContext(r.Context(), "Intent applied", "kind", in.Kind(), "session_id", s.ID())
	return st, true
}

// session resolves the visitor cookie to a running session, starting one when needed.
func (h *Handler) session(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (*session.Session, bool) {
	cookie, err := h.cookies.Get(r, cookieName)
	if err != nil {
		// tampered or signed with an old key; a fresh cookie replaces it
		mLogger.WarnContext(r.Context(), "Discarding invalid session cookie", "error", err)
	}
	id, _ := cookie.Values[sessionKey].(string)
	s, err := h.sessions.Acquire(id)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error starting session", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to start session")
		return nil, false
	}
	if s.ID() != id {
		cookie.Values[sessionKey] = s.ID()
		if err := cookie.Save(r, w); err != nil {
			mLogger.ErrorContext(r.Context(), "Error saving session cookie", "error", err)
		}
	}
	return s, true
}

func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}
