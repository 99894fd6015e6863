// Package server serves the homepage over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jabber.at/hp/internal/site"
	"jabber.at/hp/urls"
)

const tracerName = "jabber.at/hp/internal/server"

var (
	// ErrNoSite is returned by New without a way to create the Site.
	ErrNoSite = errors.New("a site constructor is required")

	// ErrServerShutdownFailed is returned by Run if the server didn't shut
	// down in time.
	ErrServerShutdownFailed = errors.New("server shutdown failed")
)

// Options configures a Server.
type Options struct {
	// Addr is the address Run listens on.
	Addr string

	// NewSite creates the Site once every route is registered with the
	// Resolver, so the Site can link to all of them.
	NewSite func(*urls.Resolver) (*site.Site, error)

	// Static is served below StaticPrefix. Nil serves nothing.
	Static       fs.FS
	StaticPrefix string

	// RemoteUserHeader names the header a trusted proxy puts the signed-in
	// user in. Empty ignores it.
	RemoteUserHeader string

	Logger *slog.Logger

	// ShutdownTimeout defaults to five seconds.
	ShutdownTimeout time.Duration
}

// Server serves the pages of a Site.
type Server struct {
	addr             string
	router           chi.Router
	resolver         *urls.Resolver
	site             *site.Site
	logger           *slog.Logger
	remoteUserHeader string
	shutdownTimeout  time.Duration
}

// New registers every route and creates the Site.
func New(opts Options) (*Server, error) {
	if opts.NewSite == nil {
		return nil, ErrNoSite
	}
	s := &Server{
		addr:             opts.Addr,
		router:           chi.NewRouter(),
		resolver:         urls.NewResolver(""),
		logger:           opts.Logger,
		remoteUserHeader: opts.RemoteUserHeader,
		shutdownTimeout:  opts.ShutdownTimeout,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 5 * time.Second
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.healthz)
	if opts.Static != nil {
		prefix := opts.StaticPrefix
		if prefix == "" {
			prefix = "/static"
		}
		s.router.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.FS(opts.Static))))
	}

	// pages know the visitor's language and user
	pages := s.router.With(s.language, s.remoteUser)
	if err := s.routes(pages); err != nil {
		return nil, err
	}
	pages.NotFound(s.notFound)

	st, err := opts.NewSite(s.resolver)
	if err != nil {
		return nil, fmt.Errorf("error creating site: %w", err)
	}
	s.site = st
	return s, nil
}

func (s *Server) routes(r chi.Router) error {
	routes := []struct {
		method, name, pattern string
		handler               http.HandlerFunc
	}{
		{http.MethodGet, "core:home", "/", s.home},
		{http.MethodGet, "blog:home", "/blog/", s.blogIndex},
		{http.MethodGet, "blog:detail", "/blog/{slug}/", s.blogPost},
		{http.MethodGet, "blog:rss", "/blog/rss.xml", s.rssFeed},
		{http.MethodGet, "blog:atom", "/blog/atom.xml", s.atomFeed},
		{http.MethodGet, "account:login", "/account/login/", s.notImplemented},
		{http.MethodGet, "account:register", "/account/register/", s.notImplemented},
		{http.MethodGet, "account:detail", "/account/", s.notImplemented},
		{http.MethodGet, "account:logout", "/account/logout/", s.notImplemented},
		{http.MethodPost, "i18n:setlang", "/i18n/setlang/", s.setLanguage},
	}
	for _, rt := range routes {
		if err := s.resolver.Mount(r, rt.method, rt.name, rt.pattern, traced(rt.name, rt.handler)); err != nil {
			return fmt.Errorf("error registering %s: %w", rt.name, err)
		}
	}
	return nil
}

// Site returns the Site the Server renders.
func (s *Server) Site() *site.Site {
	return s.site
}

// Resolver returns the named routes of the Server.
func (s *Server) Resolver() *urls.Resolver {
	return s.resolver
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "starting server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("error serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrServerShutdownFailed, err)
	}
	s.logger.Info("server stopped")
	return nil
}
