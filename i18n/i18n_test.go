package i18n_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"jabber.at/hp/i18n"
)

func newCatalog(t *testing.T) *i18n.Catalog {
	t.Helper()
	c, err := i18n.NewCatalog(language.English, language.German)
	require.NoError(t, err)
	require.NoError(t, c.Set(language.German, "Home", "Startseite"))
	require.NoError(t, c.Set(language.German, "Signed in as %s", "Angemeldet als %s"))
	return c
}

func TestTranslate(t *testing.T) {
	c := newCatalog(t)

	de := c.Translator(language.German)
	assert.Equal(t, "Startseite", de.T("Home"))
	assert.Equal(t, "Angemeldet als alice", de.T("Signed in as %s", "alice"))
	assert.Equal(t, "Register", de.T("Register"), "untranslated strings fall back to the source text")

	en := c.Translator(language.English)
	assert.Equal(t, "Home", en.T("Home"))
	assert.Equal(t, "en", en.Lang())
	assert.Equal(t, "ltr", en.Dir())
}

func TestTranslatePercent(t *testing.T) {
	c := newCatalog(t)
	require.NoError(t, c.Set(language.German, "100% free", "100 % gratis"))
	require.NoError(t, c.Set(language.German, "%d%% done", "%d %% erledigt"))

	en := c.Translator(language.English)
	assert.Equal(t, "100% free", en.T("100% free"))
	assert.Equal(t, "50% done", en.T("%d%% done", 50))

	de := c.Translator(language.German)
	assert.Equal(t, "100 % gratis", de.T("100% free"))
	assert.Equal(t, "50 % erledigt", de.T("%d%% done", 50))

	assert.Equal(t, "100% free", i18n.FromContext(context.Background()).T("100% free"))
}

func TestSupported(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		code string
		want language.Tag
		ok   bool
	}{
		{code: "de", want: language.German, ok: true},
		{code: "DE", want: language.German, ok: true},
		{code: "de-de", want: language.German, ok: true},
		{code: "de-AT", want: language.German, ok: true},
		{code: "EN", want: language.English, ok: true},
		{code: "fr", want: language.Und},
		{code: "not a language", want: language.Und},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := c.Supported(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		name   string
		cookie string
		accept string
		want   language.Tag
	}{
		{name: "nothing", want: language.English},
		{name: "cookie", cookie: "de", accept: "en-US", want: language.German},
		{name: "cookie case", cookie: "DE", accept: "en-US", want: language.German},
		{name: "unsupported cookie", cookie: "fr", accept: "de-AT,de;q=0.9", want: language.German},
		{name: "accept language", accept: "de-DE,en;q=0.5", want: language.German},
		{name: "unsupported accept language", accept: "fr-FR", want: language.English},
		{name: "garbage", accept: ";;;", want: language.English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Match(tt.cookie, tt.accept))
		})
	}
}

func TestMatchRequest(t *testing.T) {
	c := newCatalog(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: i18n.CookieName, Value: "de"})
	assert.Equal(t, language.German, c.MatchRequest(req))
}

func TestLoadDir(t *testing.T) {
	c, err := i18n.NewCatalog(language.English, language.German)
	require.NoError(t, err)

	fsys := fstest.MapFS{
		"de.yaml": {Data: []byte("Blog: Blog\nContact: Kontakt\n")},
	}
	require.NoError(t, c.LoadDir(fsys))
	assert.Equal(t, "Kontakt", c.Translator(language.German).T("Contact"))

	broken := fstest.MapFS{
		"de.yaml": {Data: []byte("- not\n- a map\n")},
	}
	assert.ErrorIs(t, c.LoadDir(broken), i18n.ErrInvalidLocaleFile)
}

func TestLanguages(t *testing.T) {
	c := newCatalog(t)

	langs := c.Translator(language.German).Languages()
	require.Len(t, langs, 2)
	assert.Equal(t, "en", langs[0].Code)
	assert.False(t, langs[0].Current)
	assert.Equal(t, "de", langs[1].Code)
	assert.True(t, langs[1].Current)
	assert.NotEmpty(t, langs[1].Name)
}

func TestContext(t *testing.T) {
	c := newCatalog(t)

	ctx := i18n.WithTranslator(context.Background(), c.Translator(language.German))
	assert.Equal(t, "Startseite", i18n.FromContext(ctx).T("Home"))
	assert.Equal(t, "Home", i18n.FromContext(context.Background()).T("Home"))

	fm := i18n.FuncMap(ctx)
	translate, ok := fm["t"].(func(string, ...any) string)
	require.True(t, ok)
	assert.Equal(t, "Startseite", translate("Home"))
}

func TestNewCatalogWithoutLanguages(t *testing.T) {
	_, err := i18n.NewCatalog()
	assert.ErrorIs(t, err, i18n.ErrNoLanguages)
}
