package hp

import (
	"context"
	"html/template"
	"io/fs"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Site holds whatever a homepage needs across requests and is what Pages
// are rendered with. Its only requirement is access to the templates.
type Site interface {
	// TemplateDir holds every template any Page of the Site needs, at the
	// paths Components list in Templates.
	TemplateDir(ctx context.Context) fs.FS
}

// TemplateCacher lets a Site keep parsed templates between renders, keyed by
// Page.Key. A key must always stand for the same templates and the same
// executed template; the data differs per render, so output is never cached.
//
// Templates handed to SetCachedTemplate are never executed; Render clones
// them first.
type TemplateCacher interface {
	// GetCachedTemplate returns the template stored under key, or nil.
	GetCachedTemplate(ctx context.Context, key string) *template.Template

	// SetCachedTemplate stores tmpl under key. Caching is best effort:
	// failures are logged, not returned.
	SetCachedTemplate(ctx context.Context, key string, tmpl *template.Template)
}

// ResourceCacher lets a Site keep the source of inline CSS and JavaScript
// templates between renders, keyed by their TemplatePath.
type ResourceCacher interface {
	// GetCachedResource returns the source stored under key, or nil.
	GetCachedResource(ctx context.Context, key string) *string

	// SetCachedResource stores resource under key. Caching is best
	// effort: failures are logged, not returned.
	SetCachedResource(ctx context.Context, key, resource string)
}

// ServerErrorPager is implemented by Sites with their own error page. Render
// falls back to it when a Page fails.
type ServerErrorPager interface {
	ServerErrorPage(ctx context.Context) Page
}

// parseDeduper is implemented by Sites embedding a *CachedSite. Concurrent
// renders of a page that isn't cached yet share a single parse.
type parseDeduper interface {
	dedupeParse(key string, parse func() (*template.Template, error)) (*template.Template, error)
}

var (
	_ Site           = &CachedSite{}
	_ TemplateCacher = &CachedSite{}
	_ ResourceCacher = &CachedSite{}
	_ parseDeduper   = &CachedSite{}
)

// CachedSite is a Site to embed in real ones. It keeps parsed templates and
// resource sources in memory and serves templates from the fs.FS given to
// NewCachedSite. Its zero value isn't usable.
type CachedSite struct {
	templateCache   map[string]*template.Template
	templateCacheMu sync.RWMutex

	resourceCache   map[string]string
	resourceCacheMu sync.RWMutex

	parseGroup singleflight.Group

	templateDir fs.FS
}

// NewCachedSite returns a CachedSite instance that is ready to be used.
func NewCachedSite(templates fs.FS) *CachedSite {
	return &CachedSite{
		templateCache: map[string]*template.Template{},
		templateDir:   templates,
		resourceCache: map[string]string{},
	}
}

// GetCachedTemplate returns the template parsed for key, or nil. It's safe
// for concurrent use.
func (s *CachedSite) GetCachedTemplate(_ context.Context, key string) *template.Template {
	s.templateCacheMu.RLock()
	defer s.templateCacheMu.RUnlock()
	return s.templateCache[key]
}

// SetCachedTemplate stores tmpl under key. It's safe for concurrent use.
func (s *CachedSite) SetCachedTemplate(_ context.Context, key string, tmpl *template.Template) {
	s.templateCacheMu.Lock()
	defer s.templateCacheMu.Unlock()
	s.templateCache[key] = tmpl
}

// GetCachedResource returns the source read for key, or nil. It's safe for
// concurrent use.
func (s *CachedSite) GetCachedResource(_ context.Context, key string) *string {
	s.resourceCacheMu.RLock()
	defer s.resourceCacheMu.RUnlock()
	if res, ok := s.resourceCache[key]; ok {
		return &res
	}
	return nil
}

// SetCachedResource stores resource under key. It's safe for concurrent use.
func (s *CachedSite) SetCachedResource(_ context.Context, key, resource string) {
	s.resourceCacheMu.Lock()
	defer s.resourceCacheMu.Unlock()
	s.resourceCache[key] = resource
}

// Purge drops every cached template and resource, so the next render of each
// page reads and parses its templates again. It's used to pick up template
// changes on disk while developing.
//
// It can safely be used by multiple goroutines.
func (s *CachedSite) Purge(_ context.Context) {
	s.templateCacheMu.Lock()
	s.templateCache = map[string]*template.Template{}
	s.templateCacheMu.Unlock()

	s.resourceCacheMu.Lock()
	s.resourceCache = map[string]string{}
	s.resourceCacheMu.Unlock()
}

// TemplateDir returns the fs.FS passed to NewCachedSite.
func (s *CachedSite) TemplateDir(_ context.Context) fs.FS {
	return s.templateDir
}

func (s *CachedSite) dedupeParse(key string, parse func() (*template.Template, error)) (*template.Template, error) {
	res, err, _ := s.parseGroup.Do(key, func() (any, error) {
		return parse()
	})
	if err != nil {
		return nil, err
	}
	return res.(*template.Template), nil
}
