package server

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"jabber.at/hp/assets"
	"jabber.at/hp/i18n"
	"jabber.at/hp/internal/site"
	"jabber.at/hp/urls"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func siteOptions(r *urls.Resolver) (site.Options, error) {
	set, err := assets.New(assets.Development, "/static", []assets.Bundle{
		{Name: "site.css", Files: []string{"css/site.css"}},
	}, nil)
	if err != nil {
		return site.Options{}, err
	}
	return site.Options{
		Name:        "jabber.at",
		Description: "Free and open XMPP server",
		BaseURL:     "https://jabber.at",
		Copyright:   "jabber.at",
		Resolver:    r,
		Assets:      set,
		LoadMenu:    site.DefaultMenu,
		LoadCatalog: func() (*i18n.Catalog, error) {
			c, err := i18n.NewCatalog(language.English, language.German)
			if err != nil {
				return nil, err
			}
			return c, c.LoadDir(site.Locales())
		},
		Now: func() time.Time { return testNow },
	}, nil
}

func newTestServer(t *testing.T, configure ...func(*site.Options)) *Server {
	t.Helper()
	srv, err := New(Options{
		NewSite: func(r *urls.Resolver) (*site.Site, error) {
			opts, err := siteOptions(r)
			if err != nil {
				return nil, err
			}
			for _, c := range configure {
				c(&opts)
			}
			return site.New(opts)
		},
		Static:           fstest.MapFS{"css/site.css": {Data: []byte("body { margin: 0; }\n")}},
		RemoteUserHeader: "X-Remote-User",
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func TestHome(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "de-AT,de;q=0.9,en;q=0.5")
	w := serve(srv, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "de", w.Header().Get("Content-Language"))
	assert.Contains(t, w.Header().Get("Vary"), "Accept-Language")
	assert.Contains(t, w.Body.String(), `<html lang="de" dir="ltr">`)
	assert.Contains(t, w.Body.String(), "Willkommen bei jabber.at")
	assert.Contains(t, w.Body.String(), `<link href="/static/css/site.css" rel="stylesheet">`)
}

func TestLanguageCookie(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/blog/", nil)
	r.Header.Set("Accept-Language", "de")
	r.AddCookie(&http.Cookie{Name: i18n.CookieName, Value: "en"})
	w := serve(srv, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "en", w.Header().Get("Content-Language"))
	assert.Contains(t, w.Body.String(), "There are no posts yet.")
}

func TestRemoteUser(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Remote-User", " alice ")
	w := serve(srv, r)
	assert.Contains(t, w.Body.String(), `aria-expanded="false">alice</a>`)
	assert.Contains(t, w.Body.String(), `href="/account/logout/"`)

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), `href="/account/login/"`)
	assert.NotContains(t, w.Body.String(), `href="/account/logout/"`)
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/missing/", "/blog/hello-world/"} {
		t.Run(path, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, path, nil)
			r.Header.Set("Accept-Language", "de")
			w := serve(srv, r)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Contains(t, w.Body.String(), "<title>Seite nicht gefunden – jabber.at</title>")
			assert.Contains(t, w.Body.String(), `<input type="hidden" name="next" value="`+path+`">`)
		})
	}
}

func TestSetLanguage(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name         string
		language     string
		next         string
		wantLocation string
		wantCookie   string
	}{
		{name: "local next", language: "de", next: "/blog/", wantLocation: "/blog/", wantCookie: "de"},
		{name: "query is kept", language: "en", next: "/blog/?page=2", wantLocation: "/blog/?page=2", wantCookie: "en"},
		{name: "absolute next", language: "de", next: "https://evil.example/", wantLocation: "/", wantCookie: "de"},
		{name: "protocol relative next", language: "de", next: "//evil.example/", wantLocation: "/", wantCookie: "de"},
		{name: "backslash next", language: "de", next: "/\\evil.example/", wantLocation: "/", wantCookie: "de"},
		{name: "no next", language: "de", wantLocation: "/", wantCookie: "de"},
		{name: "language is canonicalized", language: "DE-de", next: "/", wantLocation: "/", wantCookie: "de"},
		{name: "unsupported language", language: "xx", next: "/blog/", wantLocation: "/blog/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"language": {tt.language}, "next": {tt.next}}
			r := httptest.NewRequest(http.MethodPost, "/i18n/setlang/", strings.NewReader(form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := serve(srv, r)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))

			var cookie *http.Cookie
			for _, c := range w.Result().Cookies() {
				if c.Name == i18n.CookieName {
					cookie = c
				}
			}
			if tt.wantCookie == "" {
				assert.Nil(t, cookie)
				return
			}
			require.NotNil(t, cookie)
			assert.Equal(t, tt.wantCookie, cookie.Value)
			assert.Equal(t, "/", cookie.Path)
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		})
	}

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/i18n/setlang/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestStatic(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body { margin: 0; }\n", w.Body.String())
}

func TestNotImplemented(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/account/login/", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRSSFeed(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/blog/rss.xml", nil)
	r.Header.Set("Accept-Language", "de")
	w := serve(srv, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))

	var got rssFeed
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &got))
	want := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         "jabber.at",
			Link:          "https://jabber.at/blog/",
			Description:   "Freier und offener XMPP-Server",
			Language:      "de",
			LastBuildDate: "Sun, 01 Mar 2026 12:00:00 +0000",
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(rssFeed{}, "XMLName")); diff != "" {
		t.Errorf("feed mismatch (-want +got):\n%s", diff)
	}
}

func TestAtomFeed(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/blog/atom.xml", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/atom+xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), xml.Header))
	assert.Contains(t, w.Body.String(), `xmlns="http://www.w3.org/2005/Atom"`)
	assert.Contains(t, w.Body.String(), `xml:lang="en"`)

	var got atomFeed
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &got))
	want := atomFeed{
		ID:       "https://jabber.at/blog/atom.xml",
		Title:    "jabber.at",
		Subtitle: "Free and open XMPP server",
		Updated:  "2026-03-01T12:00:00Z",
		Links: []atomLink{
			{Href: "https://jabber.at/blog/"},
			{Href: "https://jabber.at/blog/atom.xml", Rel: "self"},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(atomFeed{}, "XMLName", "Lang")); diff != "" {
		t.Errorf("feed mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderFailure(t *testing.T) {
	srv := newTestServer(t, func(opts *site.Options) {
		broken := fstest.MapFS{}
		err := fs.WalkDir(site.Templates(), ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			contents, err := fs.ReadFile(site.Templates(), path)
			broken[path] = &fstest.MapFile{Data: contents}
			return err
		})
		require.NoError(t, err)
		broken["pages/blog_index.html.tmpl"] = &fstest.MapFile{Data: []byte(`{{ define "content" }}{{ url "blog:archive" }}{{ end }}`)}
		opts.Templates = broken
	})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/blog/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Server error</h1>")
	assert.NotContains(t, w.Body.String(), "navbar")

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code, "other pages still render")
}

func TestNewErrors(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrNoSite)

	errBroken := errors.New("broken")
	_, err = New(Options{NewSite: func(*urls.Resolver) (*site.Site, error) { return nil, errBroken }})
	assert.ErrorIs(t, err, errBroken)
}

func TestRoutesAreNamed(t *testing.T) {
	srv := newTestServer(t)
	for name, want := range map[string]string{
		"core:home":      "/",
		"blog:home":      "/blog/",
		"blog:rss":       "/blog/rss.xml",
		"blog:atom":      "/blog/atom.xml",
		"account:detail": "/account/",
		"i18n:setlang":   "/i18n/setlang/",
	} {
		got, err := srv.Resolver().Reverse(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}
	got, err := srv.Resolver().Reverse("blog:detail", "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "/blog/hello-world/", got)
}

func TestRun(t *testing.T) {
	srv, err := New(Options{
		Addr: "127.0.0.1:0",
		NewSite: func(r *urls.Resolver) (*site.Site, error) {
			opts, err := siteOptions(r)
			if err != nil {
				return nil, err
			}
			return site.New(opts)
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server didn't shut down")
	}
}
