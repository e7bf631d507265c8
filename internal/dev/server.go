package dev

import (
	"context"
	stderrors "errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/jsonpage/internal/build"
	"github.com/vango-dev/jsonpage/internal/config"
	"github.com/vango-dev/jsonpage/internal/errors"
	"github.com/vango-dev/jsonpage/internal/metrics"
)

// MetricsPath serves the Prometheus metrics.
const MetricsPath = "/metrics"

// ServerOptions configures the preview server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Builder renders pages. Default: build.New(Config, ...).
	Builder *build.Builder

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Gatherer backs the metrics endpoint.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// OnReload is called after browsers are told to reload.
	OnReload func(clients int)
}

// Server renders documents on request and reloads browsers when they
// change on disk.
type Server struct {
	config       *config.Config
	options      ServerOptions
	builder      *build.Builder
	logger       *slog.Logger
	watcher      *Watcher
	reloadServer *ReloadServer
	changeCh     chan []Change
	httpServer   *http.Server
	handler      http.Handler
	mu           sync.Mutex
	running      bool
}

// NewServer creates a preview server.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	if cfg == nil {
		cfg = config.New()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	builder := options.Builder
	if builder == nil {
		builder = build.New(cfg, build.Options{Logger: logger, Metrics: options.Metrics})
	}
	if options.Gatherer == nil {
		options.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		config:  cfg,
		options: options,
		builder: builder,
		logger:  logger,
		watcher: NewWatcher(WatcherConfig{
			Paths:    cfg.WatchPaths(),
			Ignore:   append(append([]string(nil), DefaultIgnore...), cfg.Dev.Ignore...),
			Interval: cfg.Interval(),
		}),
	}
	if cfg.HotReloadEnabled() {
		s.reloadServer = NewReloadServer(logger, options.Metrics)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Handle(MetricsPath, promhttp.HandlerFor(s.options.Gatherer, promhttp.HandlerOpts{}))
	if s.reloadEnabled() {
		r.Get(ReloadPath, s.reloadServer.ServeHTTP)
	}
	r.Get("/*", s.servePage)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the watcher and the HTTP server until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.changeCh = make(chan []Change, 16)
	s.httpServer = &http.Server{
		Addr:              s.config.DevAddress(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	s.watcher.OnChange(func(changes []Change) {
		select {
		case s.changeCh <- changes:
		default:
		}
	})
	go s.watcher.Start(ctx)
	go s.processChanges(ctx)

	s.logger.Info("preview server running", "url", s.config.DevURL(), "hotReload", s.reloadEnabled())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		if err != nil {
			return errors.New("J080").WithDetail(s.config.DevAddress()).Wrap(err)
		}
		return nil
	}
}

// Stop stops the preview server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.watcher.Stop()
	if s.reloadServer != nil {
		s.reloadServer.Close()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// processChanges serializes change handling and coalesces bursts.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case changes := <-s.changeCh:
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next...)
				default:
					draining = false
				}
			}
			s.handleChanges(ctx, changes)
		}
	}
}

// handleChanges checks every changed document and reloads browsers, or
// shows the first failure in their error overlay.
func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}

	for _, change := range changes {
		s.logger.Info("changed", "path", s.relPath(change.Path), "type", change.Type.String(), "removed", change.Removed)
		if change.Type == ChangeConfig {
			s.logger.Warn("configuration changed; restart the server to apply it")
		}
	}

	for _, change := range changes {
		if change.Type != ChangeDocument || change.Removed {
			continue
		}
		if msg := s.check(ctx, change.Path); msg != "" {
			s.logger.Error("render failed", "path", s.relPath(change.Path), "error", msg)
			if s.reloadEnabled() {
				s.reloadServer.NotifyError(s.relPath(change.Path), msg)
			}
			return
		}
	}

	if !s.reloadEnabled() {
		s.logger.Info("rendered (hot reload disabled)")
		return
	}
	s.reloadServer.ClearError()
	s.reloadServer.NotifyReload(s.relPath(changes[0].Path))
	clients := s.reloadServer.ClientCount()
	if s.options.OnReload != nil {
		s.options.OnReload(clients)
	}
	s.logger.Info("reloaded browsers", "clients", clients)
}

// check renders source and returns its problems as text, or "".
func (s *Server) check(ctx context.Context, source string) string {
	page, err := s.builder.Render(ctx, source)
	if err != nil {
		return err.Error()
	}
	if page.OK() {
		return ""
	}
	return strings.Join(s.describe(page), "\n")
}

func (s *Server) describe(page *build.Page) []string {
	lines := make([]string, 0, len(page.Result.Errors))
	for _, pe := range errors.FromRenderList(page.Result.Errors, s.relPath(page.Source), nil) {
		lines = append(lines, pe.FormatCompact())
	}
	return lines
}

// servePage maps the URL path to a document below the build root and
// renders it. Other files below the project directory are served as is.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	source, ok := s.resolveDocument(r.URL.Path)
	if !ok {
		if file, ok := s.resolveStatic(r.URL.Path); ok {
			http.ServeFile(w, r, file)
			return
		}
		s.writeError(w, http.StatusNotFound, "Not found", []string{r.URL.Path})
		return
	}

	page, err := s.builder.Render(r.Context(), source)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		s.writeError(w, http.StatusNotFound, "Not found", []string{err.Error()})
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "Cannot load "+s.relPath(source), []string{err.Error()})
		return
	case !page.OK():
		s.writeError(w, http.StatusInternalServerError, "Render error in "+s.relPath(source), s.describe(page))
		return
	}

	out := page.HTML
	if s.reloadEnabled() {
		out = InjectScript(out)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, out)
}

// documentExts are tried in order when resolving a URL path.
var documentExts = []string{".json", ".yaml", ".yml"}

func (s *Server) resolveDocument(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	rel = strings.TrimSuffix(rel, ".html")

	var candidates []string
	if rel == "" {
		rel = "index"
	} else {
		candidates = append(candidates, rel)
	}
	for _, ext := range documentExts {
		candidates = append(candidates, rel+ext)
	}
	for _, ext := range documentExts {
		candidates = append(candidates, path.Join(rel, "index"+ext))
	}

	root := s.config.RootPath()
	for _, c := range candidates {
		if path.Ext(c) == "" {
			continue
		}
		p := filepath.Join(root, filepath.FromSlash(c))
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() && isDocumentExt(p) {
			return p, true
		}
	}
	return "", false
}

func isDocumentExt(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range documentExts {
		if ext == e {
			return true
		}
	}
	return false
}

func (s *Server) resolveStatic(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if rel == "" || rel == config.ConfigFileName {
		return "", false
	}
	p := filepath.Join(s.config.Dir(), filepath.FromSlash(rel))
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

func (s *Server) writeError(w http.ResponseWriter, status int, title string, lines []string) {
	var b strings.Builder
	b.WriteString(`<!doctype html><html><head><meta charset="utf-8" /><title>`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`</title></head><body style="font-family: system-ui; padding: 40px; background: #1a1a1a; color: #fff;">`)
	fmt.Fprintf(&b, `<h1 style="color: #ff5555;">%s</h1>`, html.EscapeString(title))
	b.WriteString(`<pre style="white-space: pre-wrap;">`)
	for _, line := range lines {
		b.WriteString(html.EscapeString(line))
		b.WriteString("\n")
	}
	b.WriteString(`</pre></body></html>`)

	out := b.String()
	if s.reloadEnabled() {
		out = InjectScript(out)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, out)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if r.URL.Path == ReloadPath || r.URL.Path == MetricsPath {
			return
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) relPath(p string) string {
	if rel, err := filepath.Rel(s.config.Dir(), p); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return p
}

func (s *Server) reloadEnabled() bool {
	return s.reloadServer != nil
}
