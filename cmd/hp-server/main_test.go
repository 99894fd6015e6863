package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"jabber.at/hp/assets"
	"jabber.at/hp/internal/config"
	"jabber.at/hp/internal/server"
	"jabber.at/hp/internal/site"
	"jabber.at/hp/urls"
)

func TestNewLogger(t *testing.T) {
	cfg := config.NewConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	var out bytes.Buffer
	logger, err := newLogger(&out, cfg)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"shown"`)

	cfg.LogLevel = "loud"
	_, err = newLogger(&out, cfg)
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestNewAssets(t *testing.T) {
	cfg := config.NewConfig()

	set, err := newAssets(cfg, site.Static())
	require.NoError(t, err)
	assert.Equal(t, assets.Production, set.Mode())

	cfg.Debug = true
	set, err = newAssets(cfg, site.Static())
	require.NoError(t, err)
	assert.Equal(t, assets.Development, set.Mode())

	cfg.Debug = false
	_, err = newAssets(cfg, fstest.MapFS{})
	assert.Error(t, err, "production needs a manifest")
}

func TestSiteOptions(t *testing.T) {
	dir := t.TempDir()
	menuFile := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(menuFile, []byte("items:\n  - id: home\n    title: Home\n    route: core:home\n"), 0o600))
	localeDir := filepath.Join(dir, "locale")
	require.NoError(t, os.Mkdir(localeDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(localeDir, "de.yaml"), []byte("Home: Daheim\n"), 0o600))

	cfg := config.NewConfig()
	cfg.Debug = true
	cfg.MenuFile = menuFile
	cfg.LocaleDir = localeDir
	cfg.DefaultLanguage = "de"

	set, err := newAssets(cfg, site.Static())
	require.NoError(t, err)
	srv, err := server.New(server.Options{
		NewSite: func(r *urls.Resolver) (*site.Site, error) {
			return site.New(siteOptions(cfg, r, set))
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	s := srv.Site()
	assert.Equal(t, "jabber.at", s.Name)
	require.Len(t, s.Menu().Items, 1)
	assert.Equal(t, language.German, s.Catalog().Default())
	assert.Equal(t, "Daheim", s.Catalog().Translator(language.German).T("Home"))
	require.Len(t, s.FooterLinks(), 1)
	assert.Equal(t, "/blog/", s.FooterLinks()[0].URL)

	assert.Equal(t, []string{menuFile, localeDir}, watchPaths(cfg))
}

func TestLoadCatalogErrors(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Languages = []string{"en", "not a language"}
	_, err := loadCatalog(cfg)
	assert.Error(t, err)
}
