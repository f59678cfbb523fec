package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/asaidimu/go-filterable/core/filter"
	"github.com/asaidimu/go-filterable/core/formsync"
)

// Session layout. The body class list carries the navigation toggle.
const (
	SessionName  = "filterable"
	bodyClassKey = "body_class"
	returnToKey  = "return_to"
)

// Server serves the dashboards of a registry.
type Server struct {
	registry *Registry
	backend  Backend
	filterer *filter.Filterer
	sessions sessions.Store
	logger   *zap.Logger
	pages    *pages
	router   chi.Router
}

// NewServer creates a server. A nil logger is replaced by a no-op logger.
func NewServer(registry *Registry, backend Backend, store sessions.Store, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil || backend == nil || store == nil {
		return nil, errors.New("admin server needs a registry, a backend and a session store")
	}
	filterer, err := filter.NewFilterer(logger.Named("filter"))
	if err != nil {
		return nil, err
	}
	p, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		registry: registry,
		backend:  backend,
		filterer: filterer,
		sessions: store,
		logger:   logger,
		pages:    p,
	}
	s.setupRoutes()
	return s, nil
}

// NewCookieStore returns the session store used by the server, keyed by secret.
func NewCookieStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(86400 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// Filterer returns the translator the handlers use, for event subscriptions.
func (s *Server) Filterer() *filter.Filterer {
	return s.filterer
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewMux()
	r.Use(
		RequestID,
		RequestLogger(s.logger),
		middleware.Recoverer,
	)

	r.Get("/", s.handleIndex)
	r.Post("/toggle", s.handleToggle)
	r.Get("/api/{resource}", s.handleAPIList)
	r.Route("/{resource}", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/filter", s.handleFilter)
		r.Get("/filter/clear", s.handleClear)
	})
	s.router = r
}

// Serve listens on addr and blocks until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    addr,
		Handler: s,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Info("Starting admin server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down admin server")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

type pageData struct {
	Title      string
	BodyClass  string
	Self       string
	Dashboards []*Dashboard
	Listing    *listing
}

func (s *Server) page(r *http.Request, title string) pageData {
	return pageData{
		Title:      title,
		BodyClass:  s.bodyClass(r),
		Self:       r.URL.RequestURI(),
		Dashboards: s.registry.All(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.pages.index, s.page(r, "Dashboards"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	l, err := s.list(r, d)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to list resource", err)
		return
	}
	data := s.page(r, d.Label())
	data.Listing = l
	s.render(w, r, s.pages.list, data)
}

// handleFilter merges the submitted filter form into the listing URL it was
// posted from and redirects there.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid filter form", err)
		return
	}

	form := NewFilterForm(d, r.PostForm).Form
	formsync.PopulateValues(form, r.PostForm)
	target, err := formsync.Apply(form, localPath(r.PostForm.Get(returnToKey), "/"+d.Resource))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid return URL", err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	target, err := formsync.Clear(localPath(r.URL.Query().Get(returnToKey), "/"+d.Resource))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid return URL", err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleToggle flips the navigation state kept in the session.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid toggle form", err)
		return
	}
	session, err := s.sessions.Get(r, SessionName)
	if session == nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to open session", err)
		return
	}
	if err != nil {
		s.logger.Warn("Discarding unreadable session", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
	}
	classes, _ := session.Values[bodyClassKey].(string)
	session.Values[bodyClassKey] = formsync.Toggle(classes)
	if err := session.Save(r, w); err != nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to save session", err)
		return
	}
	http.Redirect(w, r, localPath(r.PostForm.Get(returnToKey), "/"), http.StatusSeeOther)
}

func (s *Server) bodyClass(r *http.Request) string {
	session, err := s.sessions.Get(r, SessionName)
	if err != nil {
		return ""
	}
	classes, _ := session.Values[bodyClassKey].(string)
	return classes
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) (*Dashboard, bool) {
	d, err := s.registry.Lookup(chi.URLParam(r, "resource"))
	if err != nil {
		s.fail(w, r, http.StatusNotFound, "Unknown resource", err)
		return nil, false
	}
	return d, true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, t *template.Template, data pageData) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("Failed to write page", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	fields := []zap.Field{
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, fields...)
	} else {
		s.logger.Debug(msg, fields...)
	}
	http.Error(w, http.StatusText(status), status)
}
