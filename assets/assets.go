// Package assets decides how the site's stylesheets and scripts are linked.
//
// Assets are grouped in bundles. During development every file of a bundle
// is linked on its own, straight from the source directory. In production
// each bundle is linked once, as the fingerprinted file a build step wrote
// and recorded in a JSON manifest.
package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"jabber.at/hp"
)

// Mode selects how assets are linked.
type Mode string

const (
	// Development links every source file individually.
	Development Mode = "development"

	// Production links the fingerprinted output of every bundle.
	Production Mode = "production"
)

var (
	// ErrNotBundled is returned in production mode when a bundle has no
	// entry in the manifest.
	ErrNotBundled = errors.New("bundle missing from manifest")

	// ErrUnknownMode is returned when parsing an unsupported Mode.
	ErrUnknownMode = errors.New("unknown asset mode")

	// ErrUnknownKind is returned for bundles that are neither stylesheets
	// nor scripts.
	ErrUnknownKind = errors.New("bundle name must end in .css or .js")
)

// ParseMode parses the name of a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Development, Production:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Bundle is a group of source files served as one file in production. Its
// Name, like "site.css", says what it holds.
type Bundle struct {
	Name  string   `mapstructure:"name"`
	Files []string `mapstructure:"files"`

	// Footer places a script bundle at the end of the page.
	Footer bool `mapstructure:"footer"`

	// Defer sets the defer attribute of a script bundle.
	Defer bool `mapstructure:"defer"`
}

func (b Bundle) isCSS() bool { return strings.HasSuffix(b.Name, ".css") }

func (b Bundle) isJS() bool { return strings.HasSuffix(b.Name, ".js") }

// ManifestEntry is where a build step wrote a bundle or static file.
type ManifestEntry struct {
	File      string `json:"file"`
	Integrity string `json:"integrity,omitempty"`
}

// Manifest maps bundle and file names to their fingerprinted output.
type Manifest map[string]ManifestEntry

// ParseManifest decodes a Manifest from JSON.
func ParseManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("error decoding asset manifest: %w", err)
	}
	return m, nil
}

// LoadManifest reads the Manifest at name in fsys.
func LoadManifest(fsys fs.FS, name string) (Manifest, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("error opening asset manifest: %w", err)
	}
	defer f.Close()
	return ParseManifest(f)
}

// Set is every asset of the site, linked according to its Mode.
type Set struct {
	mode     Mode
	prefix   string
	bundles  []Bundle
	manifest Manifest
}

// New returns a Set serving files below the URL prefix. The manifest is only
// consulted in Production mode, where every bundle must be in it.
func New(mode Mode, prefix string, bundles []Bundle, manifest Manifest) (*Set, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	for _, bundle := range bundles {
		if !bundle.isCSS() && !bundle.isJS() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, bundle.Name)
		}
		if mode != Production {
			continue
		}
		if _, ok := manifest[bundle.Name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotBundled, bundle.Name)
		}
	}
	return &Set{
		mode:     mode,
		prefix:   "/" + strings.Trim(prefix, "/"),
		bundles:  bundles,
		manifest: manifest,
	}, nil
}

// Mode returns the Mode of the Set.
func (s *Set) Mode() Mode {
	return s.mode
}

// Static returns the URL of a single static file, like a favicon. In
// production, fingerprinted files are used when the manifest knows them.
func (s *Set) Static(name string) string {
	name = strings.TrimPrefix(name, "/")
	if s.mode == Production {
		if entry, ok := s.manifest[name]; ok {
			name = entry.File
		}
	}
	return path.Join(s.prefix, name)
}

// Component returns an hp.Component linking every bundle of the Set, in the
// order they were declared.
func (s *Set) Component() hp.Component {
	return component{set: s}
}

func (s *Set) stylesheets() []hp.CSSLink {
	var links []hp.CSSLink
	for _, bundle := range s.bundles {
		if !bundle.isCSS() {
			continue
		}
		if s.mode == Production {
			entry := s.manifest[bundle.Name]
			links = append(links, hp.CSSLink{
				Href:      path.Join(s.prefix, entry.File),
				Rel:       "stylesheet",
				Integrity: entry.Integrity,
			})
			continue
		}
		for _, file := range bundle.Files {
			links = append(links, hp.CSSLink{Href: path.Join(s.prefix, file), Rel: "stylesheet"})
		}
	}
	return links
}

func (s *Set) scripts() []hp.JSLink {
	var links []hp.JSLink
	for _, bundle := range s.bundles {
		if !bundle.isJS() {
			continue
		}
		if s.mode == Production {
			entry := s.manifest[bundle.Name]
			links = append(links, hp.JSLink{
				Src:           path.Join(s.prefix, entry.File),
				Integrity:     entry.Integrity,
				Defer:         bundle.Defer,
				PlaceInFooter: bundle.Footer,
			})
			continue
		}
		for _, file := range bundle.Files {
			links = append(links, hp.JSLink{
				Src:           path.Join(s.prefix, file),
				Defer:         bundle.Defer,
				PlaceInFooter: bundle.Footer,
			})
		}
	}
	return links
}

type component struct {
	set *Set
}

var (
	_ hp.CSSLinker = component{}
	_ hp.JSLinker  = component{}
)

func (component) Templates(_ context.Context) []string { return nil }

func (c component) LinkCSS(_ context.Context) []hp.CSSLink {
	return c.set.stylesheets()
}

func (c component) LinkJS(_ context.Context) []hp.JSLink {
	return c.set.scripts()
}
