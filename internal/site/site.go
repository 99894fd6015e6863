// Package site renders the pages of the homepage: the shell every page shares
// and the handful of pages that don't need anything beyond it.
package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"jabber.at/hp"
	"jabber.at/hp/assets"
	"jabber.at/hp/i18n"
	"jabber.at/hp/menu"
	"jabber.at/hp/urls"
)

// ThemeColor is the brand color, used for the browser UI and tiles.
const ThemeColor = "#2b5797"

var (
	// ErrNoResolver is returned by New without a urls.Resolver.
	ErrNoResolver = errors.New("a resolver is required")

	// ErrNoAssets is returned by New without an assets.Set.
	ErrNoAssets = errors.New("an asset set is required")
)

var (
	_ hp.Site             = &Site{}
	_ hp.FuncMapExtender  = &Site{}
	_ hp.ServerErrorPager = &Site{}
)

// Link is a resolved link shown on every page.
type Link struct {
	// Title is untranslated.
	Title string
	URL   string

	// Type is the MIME type of the target, if it matters.
	Type string
}

// LinkSpec describes a Link before it's resolved. Exactly one of Route and
// URL is set.
type LinkSpec struct {
	Title string
	Route string
	URL   string
}

// Options configures a Site.
type Options struct {
	Name        string
	Description string
	Keywords    []string
	BaseURL     string
	Copyright   string

	// Templates holds every template of the site. Nil means the templates
	// embedded in the binary.
	Templates fs.FS

	Resolver    *urls.Resolver
	Assets      *assets.Set
	FooterLinks []LinkSpec

	// LoadMenu and LoadCatalog are called when the Site is created and
	// every time it's reloaded.
	LoadMenu    func() (*menu.Tree, error)
	LoadCatalog func() (*i18n.Catalog, error)

	// Now defaults to time.Now.
	Now func() time.Time
}

// Site holds everything needed to render pages that doesn't change between
// requests.
type Site struct {
	*hp.CachedSite

	Name        string
	Description string
	Keywords    []string
	Copyright   string

	baseURL     string
	resolver    *urls.Resolver
	assets      *assets.Set
	feeds       []Link
	footerLinks []Link
	now         func() time.Time

	loadMenu    func() (*menu.Tree, error)
	loadCatalog func() (*i18n.Catalog, error)

	mu      sync.RWMutex
	tree    *menu.Tree
	catalog *i18n.Catalog
}

// New returns a Site ready to render pages. Every route a page links to must
// already be registered with the Resolver.
func New(opts Options) (*Site, error) {
	if opts.Resolver == nil {
		return nil, ErrNoResolver
	}
	if opts.Assets == nil {
		return nil, ErrNoAssets
	}
	templates := opts.Templates
	if templates == nil {
		templates = Templates()
	}
	s := &Site{
		CachedSite:  hp.NewCachedSite(templates),
		Name:        opts.Name,
		Description: opts.Description,
		Keywords:    opts.Keywords,
		Copyright:   opts.Copyright,
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		resolver:    opts.Resolver,
		assets:      opts.Assets,
		now:         opts.Now,
		loadMenu:    opts.LoadMenu,
		loadCatalog: opts.LoadCatalog,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loadMenu == nil {
		s.loadMenu = func() (*menu.Tree, error) { return &menu.Tree{}, nil }
	}
	if s.loadCatalog == nil {
		s.loadCatalog = func() (*i18n.Catalog, error) { return i18n.NewCatalog(i18n.DefaultLanguage) }
	}

	feeds, err := s.resolveFeeds()
	if err != nil {
		return nil, err
	}
	s.feeds = feeds
	for _, spec := range opts.FooterLinks {
		link, err := s.resolveLink(spec)
		if err != nil {
			return nil, err
		}
		s.footerLinks = append(s.footerLinks, link)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Site) resolveFeeds() ([]Link, error) {
	feeds := []struct {
		route, title, mime string
	}{
		{route: "blog:rss", title: "RSS feed", mime: "application/rss+xml"},
		{route: "blog:atom", title: "Atom feed", mime: "application/atom+xml"},
	}
	var links []Link
	for _, feed := range feeds {
		path, err := s.resolver.Reverse(feed.route)
		if errors.Is(err, urls.ErrNoReverseMatch) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error resolving %s: %w", feed.route, err)
		}
		links = append(links, Link{Title: feed.title, URL: path, Type: feed.mime})
	}
	return links, nil
}

func (s *Site) resolveLink(spec LinkSpec) (Link, error) {
	if spec.Route == "" {
		return Link{Title: spec.Title, URL: spec.URL}, nil
	}
	path, err := s.resolver.Reverse(spec.Route)
	if err != nil {
		return Link{}, fmt.Errorf("error resolving link %q: %w", spec.Title, err)
	}
	return Link{Title: spec.Title, URL: path}, nil
}

func (s *Site) load() error {
	tree, err := s.loadMenu()
	if err != nil {
		return fmt.Errorf("error loading menu: %w", err)
	}
	if err := tree.CheckRoutes(s.resolver); err != nil {
		return err
	}
	catalog, err := s.loadCatalog()
	if err != nil {
		return fmt.Errorf("error loading translations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = tree
	s.catalog = catalog
	return nil
}

// Reload loads the menu and translations again and drops every cached
// template. If loading fails, the Site keeps what it had.
func (s *Site) Reload(ctx context.Context) error {
	if err := s.load(); err != nil {
		return err
	}
	s.Purge(ctx)
	hp.Logger(ctx).InfoContext(ctx, "reloaded site")
	return nil
}

// Catalog returns the translations of the Site.
func (s *Site) Catalog() *i18n.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Menu returns the menu of the Site.
func (s *Site) Menu() *menu.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Resolver returns the named routes of the Site.
func (s *Site) Resolver() *urls.Resolver {
	return s.resolver
}

// KeywordList returns the keywords for the keywords meta tag.
func (s *Site) KeywordList() string {
	return strings.Join(s.Keywords, ", ")
}

// CanonicalURL returns the absolute URL of path.
func (s *Site) CanonicalURL(path string) string {
	return s.baseURL + path
}

// Feeds returns the feeds of the site. They're empty if the blog routes
// aren't registered.
func (s *Site) Feeds() []Link {
	return s.feeds
}

// FooterLinks returns the links shown in the footer.
func (s *Site) FooterLinks() []Link {
	return s.footerLinks
}

// Now returns the current time, as pages see it.
func (s *Site) Now() time.Time {
	return s.now()
}

// ThemeColor returns the brand color.
func (s *Site) ThemeColor() string {
	return ThemeColor
}

// FuncMap adds url, urlMap, static, t and now to every template.
func (s *Site) FuncMap(ctx context.Context) template.FuncMap {
	funcs := s.resolver.FuncMap()
	funcs["static"] = s.assets.Static
	funcs["now"] = s.now
	funcs["t"] = i18n.FromContext(ctx).T
	return funcs
}

// Layout returns the shell of a page titled title, for req. The title is
// expected to be translated already.
func (s *Site) Layout(ctx context.Context, req Request, title string) (Layout, error) {
	nodes, err := s.Menu().Resolve(ctx, s.resolver, req.Translator, req.Path)
	if err != nil {
		return Layout{}, fmt.Errorf("error resolving menu: %w", err)
	}
	return Layout{
		Title:   title,
		Request: req,
		Nav:     menu.Nav{Nodes: nodes},
		Assets:  s.assets.Component(),

		LanguageForm: languageForm(),
	}, nil
}

type failureKey struct{}

// TrackFailures returns a copy of ctx that records whether a render using it
// had to fall back to the server error page, and a function reporting it.
func TrackFailures(ctx context.Context) (context.Context, func() bool) {
	failed := new(atomic.Bool)
	return context.WithValue(ctx, failureKey{}, failed), failed.Load
}

// ServerErrorPage returns the page rendered when another page can't be.
func (s *Site) ServerErrorPage(ctx context.Context) hp.Page {
	if failed, ok := ctx.Value(failureKey{}).(*atomic.Bool); ok {
		failed.Store(true)
	}
	tr := i18n.FromContext(ctx)
	return ErrorPage{Lang: tr.Lang(), Dir: tr.Dir()}
}
