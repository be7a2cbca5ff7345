// Package server exposes registered bundles over HTTP under fingerprinted,
// content-addressed URLs, and hosts the live-reload websocket used in debug
// mode.
//
// Routes, mounted under the configured URL prefix:
//
//	GET {prefix}/bundle/{name}_v{hash}.{ext}
//	GET {prefix}/bundle/{name}/asset/{index}_v{hash}.{ext}
//	GET {prefix}/livereload  (debug mode only)
//
// Any mismatch between the requested fingerprint and the entity's actual
// hash or extension is a 404, indistinguishable from an unknown name.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/webpress/webpress/internal/assets"
	"github.com/webpress/webpress/internal/config"
	"github.com/webpress/webpress/internal/errors"
	"github.com/webpress/webpress/internal/logging"
)

// immutableCacheControl marks content-addressed responses as cacheable
// forever: the URL changes whenever the content does.
const immutableCacheControl = "public, max-age=31536000, immutable"

// Server serves bundle content and the live-reload endpoint.
type Server struct {
	compressor *assets.Compressor
	cfg        *config.Config
	logger     logging.Logger
	reload     *reloadHub
}

// New creates a server around a populated compressor.
func New(compressor *assets.Compressor, cfg *config.Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		compressor: compressor,
		cfg:        cfg,
		logger:     logger.WithComponent("server"),
		reload:     newReloadHub(logger),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	prefix := s.cfg.Server.URLPrefix
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/bundle/{file}", s.handleBundle)
	mux.HandleFunc("GET "+prefix+"/bundle/{name}/asset/{file}", s.handleAsset)
	if s.cfg.Development.Debug && s.cfg.Development.LiveReload {
		mux.HandleFunc("GET "+prefix+"/livereload", s.reload.handle)
	}
	return s.logRequests(mux)
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "listening", "addr", addr, "debug", s.cfg.Development.Debug)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// NotifyReload pushes a reload event to all connected live-reload clients.
func (s *Server) NotifyReload(paths []string) {
	s.reload.broadcast(paths)
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	name, hash, ext, err := parseFingerprint(r.PathValue("file"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	bundle, err := s.compressor.ResolveBundle(r.Context(), name, hash, ext)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	content, err := bundle.Content(r.Context(), s.compressor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeContent(w, bundle.MIMEType(), content)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	indexText, hash, ext, err := parseFingerprint(r.PathValue("file"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	index, err := strconv.Atoi(indexText)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	name := r.PathValue("name")
	asset, err := s.compressor.ResolveAsset(r.Context(), name, index, hash, ext)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	content, err := asset.Content(r.Context(), s.compressor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	bundle, err := s.compressor.Bundle(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeContent(w, bundle.MIMEType(), content)
}

func (s *Server) writeContent(w http.ResponseWriter, mimeType, content string) {
	w.Header().Set("Content-Type", mimeType+"; charset=utf-8")
	if s.cfg.Development.Debug {
		w.Header().Set("Cache-Control", "no-store")
	} else {
		w.Header().Set("Cache-Control", immutableCacheControl)
	}
	_, _ = fmt.Fprint(w, content)
}

// writeError maps NotFound to 404 and everything else to 500. The core
// never suppresses its errors; translation to protocol status happens here
// and nowhere else.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.IsNotFound(err) {
		http.NotFound(w, r)
		return
	}
	s.logger.Error(r.Context(), err, "resolution failed", "path", r.URL.Path)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
