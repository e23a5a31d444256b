// Package server implements the nodecanvas HTTP API.
//
// The server exposes the conversion pipeline and the canvas vault over
// REST, and live editing sessions over websockets:
//
//	GET    /healthz                     liveness and version
//	GET    /api/formats                 codec formats and their capabilities
//	POST   /api/convert?from=&to=       convert a request body
//	GET    /api/canvases?prefix=        list canvas files
//	GET    /api/canvases/{path}         read a canvas, or export it with ?format=
//	PUT    /api/canvases/{path}         validate and store a canvas
//	DELETE /api/canvases/{path}         delete a canvas
//	GET    /ws/canvases/{path}          join the live session of a canvas
//
// Every websocket client of one canvas shares a single session. Commands
// from any client are applied in arrival order and the resulting state is
// broadcast to all of them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nodecanvas/pkg/buildinfo"
	"github.com/matzehuels/nodecanvas/pkg/codec"
	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/host"
	"github.com/matzehuels/nodecanvas/pkg/pipeline"
	"github.com/matzehuels/nodecanvas/pkg/session"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

// Defaults for Options.
const (
	DefaultFPS    = 30
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Options configures a Server.
type Options struct {
	Runner *pipeline.Runner
	Vault  host.Vault
	Logger *log.Logger

	// FPS is the rate at which live sessions are pumped.
	FPS int

	// Width and Height size the offscreen surface of live sessions.
	Width, Height int

	// SessionOptions are passed to every live session.
	SessionOptions []session.Option
}

// Server serves the HTTP API.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	vault  host.Vault
	logger *log.Logger
	hub    *hub
}

// New builds a Server. Runner and Vault are required.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil || opts.Vault == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "server needs a runner and a vault")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultWidth, DefaultHeight
	}

	s := &Server{
		runner: opts.Runner,
		vault:  opts.Vault,
		logger: opts.Logger,
		hub:    newHub(opts),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/formats", s.handleFormats)
		r.Post("/convert", s.handleConvert)
		r.Get("/canvases", s.handleList)
		r.Get("/canvases/*", s.handleRead)
		r.Put("/canvases/*", s.handleWrite)
		r.Delete("/canvases/*", s.handleDelete)
	})
	r.Get("/ws/canvases/*", s.handleWS)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close ends every live session. Unsaved changes are discarded.
func (s *Server) Close() {
	s.hub.closeAll()
}

// Sessions returns the number of canvases with a live session.
func (s *Server) Sessions() int {
	return s.hub.count()
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Version,
		"sessions": s.hub.count(),
	})
}

type formatInfo struct {
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Import      bool   `json:"import"`
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	var out []formatInfo
	for _, f := range codec.Formats() {
		out = append(out, formatInfo{
			Name:        string(f),
			Extension:   codec.Extension(f),
			ContentType: codec.ContentType(f),
			Import:      codec.CanImport(f),
		})
	}
	out = append(out, formatInfo{Name: pipeline.FormatPNG, Extension: ".png", ContentType: "image/png"})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"))
		return
	}
	q := r.URL.Query()
	from, err := codec.ParseFormat(defaultString(q.Get("from"), string(codec.FormatJSON)))
	if err != nil {
		writeError(w, err)
		return
	}
	to := defaultString(q.Get("to"), string(codec.FormatSVG))
	opts := pipeline.Options{
		Source:          body,
		SourceFormat:    from,
		Strict:          queryBool(q.Get("strict")),
		Layout:          defaultString(q.Get("layout"), pipeline.LayoutNone),
		Resolve:         queryBool(q.Get("resolve")),
		Formats:         []string{to},
		IncludeMetadata: queryBool(q.Get("metadata")),
		Mode:            q.Get("mode"),
	}
	if seed, err := strconv.ParseUint(q.Get("seed"), 10, 64); err == nil {
		opts.Seed = seed
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(to))
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.RenderHit))
	w.Header().Set("X-Doc-Hash", res.DocHash)
	if len(res.Warnings) > 0 {
		w.Header().Set("X-Import-Warnings", strconv.Itoa(len(res.Warnings)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[to])
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.vault.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"canvases": names})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	data, err := s.vault.Read(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	to := r.URL.Query().Get("format")
	if to == "" {
		w.Header().Set("Content-Type", contentTypeForPath(path))
		_, _ = w.Write(data)
		return
	}
	from, err := codec.FormatFromPath(path)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Source:       data,
		SourceFormat: from,
		Formats:      []string{to},
		Mode:         r.URL.Query().Get("mode"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(to))
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.RenderHit))
	_, _ = w.Write(res.Artifacts[to])
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	f, err := codec.FormatFromPath(path)
	if err != nil {
		writeError(w, err)
		return
	}
	if !codec.CanImport(f) {
		writeError(w, errs.UnsupportedFormat("import", string(f)))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if _, err := codec.Import(r.Context(), f, body, codec.ImportOptions{Strict: true, Logger: s.logger}); err != nil {
		writeError(w, err)
		return
	}
	if err := s.vault.Write(r.Context(), path, body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "bytes": len(body)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if err := s.vault.Delete(r.Context(), path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	ID      string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	body := errorBody{Code: string(code), Message: errs.UserMessage(err)}
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		body.Field, body.ID = ve.Field, ve.ID
	}
	if body.Code == "" {
		body.Code = string(errs.ErrCodeInvalidInput)
	}
	writeJSON(w, statusFor(code), body)
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeUnsupportedFormat, errs.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errs.ErrCodeValidation, errs.ErrCodeInvalidFormat:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeInternal, errs.ErrCodeResourceAcquisition:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func contentTypeFor(format string) string {
	if format == pipeline.FormatPNG {
		return "image/png"
	}
	if f, err := codec.ParseFormat(format); err == nil {
		return codec.ContentType(f)
	}
	return "application/octet-stream"
}

func contentTypeForPath(path string) string {
	if f, err := codec.FormatFromPath(path); err == nil {
		return codec.ContentType(f)
	}
	return "application/octet-stream"
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
