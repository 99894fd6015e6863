package server

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"jabber.at/hp"
	"jabber.at/hp/i18n"
	"jabber.at/hp/internal/site"
)

// languageCookieAge is how long the language switcher remembers a choice.
const languageCookieAge = 365 * 24 * 60 * 60

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok") //nolint:errcheck
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	renderPage(s, w, r, http.StatusOK, "Home", func(l site.Layout) site.HomePage {
		return site.HomePage{Layout: l}
	})
}

func (s *Server) blogIndex(w http.ResponseWriter, r *http.Request) {
	renderPage(s, w, r, http.StatusOK, "Blog", func(l site.Layout) site.BlogIndexPage {
		return site.BlogIndexPage{Layout: l}
	})
}

// blogPost shows a post. There are no posts, so every slug is unknown.
func (s *Server) blogPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hp.Logger(ctx).DebugContext(ctx, "unknown blog post", "slug", chi.URLParam(r, "slug"))
	s.notFound(w, r)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	renderPage(s, w, r, http.StatusNotFound, "Page not found", func(l site.Layout) site.NotFoundPage {
		return site.NotFoundPage{Layout: l}
	})
}

// notImplemented answers routes that pages link to but that are served by
// another application.
func (s *Server) notImplemented(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
}

// setLanguage stores the chosen language in a cookie and sends the visitor
// back to where they came from.
func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	next := r.PostForm.Get("next")
	if !isLocalURL(next) {
		next = "/"
	}
	code := r.PostForm.Get("language")
	if tag, ok := s.site.Catalog().Supported(code); ok {
		http.SetCookie(w, &http.Cookie{
			Name:     i18n.CookieName,
			Value:    tag.String(),
			Path:     "/",
			MaxAge:   languageCookieAge,
			SameSite: http.SameSiteLaxMode,
		})
	} else {
		hp.Logger(ctx).DebugContext(ctx, "unsupported language", "language", code)
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// isLocalURL reports whether target is a path on this site. Anything else
// would turn the language switcher into an open redirect.
func isLocalURL(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// renderPage renders the page newPage builds, titled title, with status. If
// the page fails to render, the server error page is sent with a 500 instead.
func renderPage[P hp.Page](s *Server, w http.ResponseWriter, r *http.Request, status int, title string, newPage func(site.Layout) P) {
	ctx, failed := site.TrackFailures(r.Context())
	req := site.NewRequest(r)

	var buf bytes.Buffer
	layout, err := s.site.Layout(ctx, req, req.Translator.T(title))
	if err != nil {
		hp.Logger(ctx).ErrorContext(ctx, "error building layout", "error", err)
		hp.Render(ctx, &buf, s.site, s.site.ServerErrorPage(ctx))
	} else {
		hp.Render(ctx, &buf, s.site, newPage(layout))
	}
	if failed() {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		hp.Logger(ctx).ErrorContext(ctx, "error writing page", "error", err)
	}
}
