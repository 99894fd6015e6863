// Package i18n looks up translations of the homepage's user-visible strings
// and picks the language to show to each visitor.
//
// Strings are identified by their English source text, which is also what
// is shown when no translation exists. Translations are kept in one YAML
// file per language, mapping source text to translated text.
package i18n

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is the language source strings are written in.
var DefaultLanguage = language.English

// CookieName is the name of the cookie storing the visitor's language
// choice.
const CookieName = "hp_language"

var (
	// ErrNoLanguages is returned when building a Catalog without any
	// languages.
	ErrNoLanguages = errors.New("at least one language is required")

	// ErrInvalidLocaleFile is returned when a translation file can't be
	// parsed.
	ErrInvalidLocaleFile = errors.New("invalid locale file")
)

// Language describes one of the languages the site is available in, for the
// language switcher.
type Language struct {
	// Code is the BCP 47 tag of the language, e.g. "de".
	Code string

	// Name is the name of the language in that language, e.g. "Deutsch".
	Name string

	// Current is true for the language the page is rendered in.
	Current bool
}

// Catalog holds the translations for every language the site is available
// in.
type Catalog struct {
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher

	// texts holds the translations verbatim, for strings shown without
	// arguments.
	texts map[language.Tag]map[string]string
}

// NewCatalog returns an empty Catalog for the passed languages. The first
// language is the default, used when nothing the visitor asks for is
// available, and should be the language the source strings are written in.
func NewCatalog(langs ...language.Tag) (*Catalog, error) {
	if len(langs) < 1 {
		return nil, ErrNoLanguages
	}
	return &Catalog{
		builder: catalog.NewBuilder(catalog.Fallback(langs[0])),
		tags:    langs,
		matcher: language.NewMatcher(langs),
		texts:   make(map[language.Tag]map[string]string, len(langs)),
	}, nil
}

// ParseLanguages parses BCP 47 tags, as found in configuration files.
func ParseLanguages(codes []string) ([]language.Tag, error) {
	tags := make([]language.Tag, 0, len(codes))
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("error parsing language %q: %w", code, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Set adds a translation of msgid to the language tag. The translation is a
// format string when msgid is used with arguments, and plain text otherwise.
func (c *Catalog) Set(tag language.Tag, msgid, translation string) error {
	err := c.builder.SetString(tag, msgid, translation)
	if err != nil {
		return fmt.Errorf("error setting %s translation of %q: %w", tag, msgid, err)
	}
	if c.texts[tag] == nil {
		c.texts[tag] = make(map[string]string)
	}
	c.texts[tag][msgid] = translation
	return nil
}

// text returns the translation of msgid to tag without any formatting,
// falling back to the default language and then to msgid.
func (c *Catalog) text(tag language.Tag, msgid string) string {
	if s, ok := c.texts[tag][msgid]; ok {
		return s
	}
	if s, ok := c.texts[c.Default()][msgid]; ok {
		return s
	}
	return msgid
}

// LoadDir reads a <tag>.yaml file for every language of the Catalog from
// fsys. Languages without a file are left untranslated.
func (c *Catalog) LoadDir(fsys fs.FS) error {
	for _, tag := range c.tags {
		name := tag.String() + ".yaml"
		contents, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading %q: %w", name, err)
		}
		var messages map[string]string
		if err := yaml.Unmarshal(contents, &messages); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidLocaleFile, name, err)
		}
		for msgid, translation := range messages {
			if err := c.Set(tag, msgid, translation); err != nil {
				return err
			}
		}
	}
	return nil
}

// Default returns the default language.
func (c *Catalog) Default() language.Tag {
	return c.tags[0]
}

// Match picks the language to render a page in: the language stored in the
// cookie if the site is available in it, or the best match for the
// Accept-Language header, or the default.
func (c *Catalog) Match(cookie, acceptLanguage string) language.Tag {
	if cookie != "" {
		if tag, ok := c.Supported(cookie); ok {
			return tag
		}
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err == nil && len(tags) > 0 {
		_, idx, confidence := c.matcher.Match(tags...)
		if confidence != language.No {
			return c.tags[idx]
		}
	}
	return c.Default()
}

// MatchRequest is Match with the cookie and header taken from r.
func (c *Catalog) MatchRequest(r *http.Request) language.Tag {
	var cookie string
	if ck, err := r.Cookie(CookieName); err == nil {
		cookie = ck.Value
	}
	return c.Match(cookie, r.Header.Get("Accept-Language"))
}

// Supported returns the language the site offers for the BCP 47 tag code, if
// any. Case is ignored, and a regional variant like "de-AT" selects "de".
func (c *Catalog) Supported(code string) (language.Tag, bool) {
	want, err := language.Parse(code)
	if err != nil {
		return language.Und, false
	}
	for _, tag := range c.tags {
		if tag == want {
			return tag, true
		}
	}
	_, idx, confidence := c.matcher.Match(want)
	if confidence < language.High {
		return language.Und, false
	}
	return c.tags[idx], true
}

// Translator returns a Translator rendering strings in tag.
func (c *Catalog) Translator(tag language.Tag) *Translator {
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(c.builder)),
		catalog: c,
	}
}

// Translator translates strings into a single language. It's created per
// request.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
	catalog *Catalog
}

// T returns the translation of msgid, formatted with args like fmt.Sprintf.
// If there's no translation, msgid itself is formatted. Without args nothing
// is formatted, so a literal "%" needs no escaping.
func (t *Translator) T(msgid string, args ...any) string {
	if len(args) == 0 {
		if t.catalog == nil {
			return msgid
		}
		return t.catalog.text(t.tag, msgid)
	}
	return t.printer.Sprintf(msgid, args...)
}

// Lang returns the BCP 47 tag of the Translator's language, for the lang
// attribute of the <html> element.
func (t *Translator) Lang() string {
	return t.tag.String()
}

// Dir returns the writing direction of the Translator's language, for the
// dir attribute of the <html> element.
func (t *Translator) Dir() string {
	base, _ := t.tag.Base()
	switch base.String() {
	case "ar", "fa", "he", "ps", "ur", "yi":
		return "rtl"
	}
	return "ltr"
}

// Languages lists the languages the site is available in, in the order they
// were configured, with the Translator's language marked as current.
func (t *Translator) Languages() []Language {
	if t.catalog == nil {
		return nil
	}
	langs := make([]Language, 0, len(t.catalog.tags))
	for _, tag := range t.catalog.tags {
		langs = append(langs, Language{
			Code:    tag.String(),
			Name:    display.Self.Name(tag),
			Current: tag == t.tag,
		})
	}
	return langs
}

type ctxKey struct{}

// WithTranslator returns a copy of ctx carrying t.
func WithTranslator(ctx context.Context, t *Translator) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the Translator attached to ctx. Without one, strings
// are returned untranslated.
func FromContext(ctx context.Context) *Translator {
	t, ok := ctx.Value(ctxKey{}).(*Translator)
	if !ok || t == nil {
		return &Translator{
			tag:     DefaultLanguage,
			printer: message.NewPrinter(DefaultLanguage),
		}
	}
	return t
}

// FuncMap returns the template function t, translating with the Translator
// attached to ctx.
func FuncMap(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"t": FromContext(ctx).T,
	}
}
