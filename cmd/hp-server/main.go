package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/pflag"

	"jabber.at/hp"
	"jabber.at/hp/assets"
	"jabber.at/hp/i18n"
	"jabber.at/hp/internal/config"
	"jabber.at/hp/internal/server"
	"jabber.at/hp/internal/site"
	"jabber.at/hp/menu"
	"jabber.at/hp/urls"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func showVersion() {
	v := version
	if v == "" {
		v = "(devel)"
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			v = info.Main.Version
		}
	}
	fmt.Printf("hp-server %s\n", v)
}

func main() {
	versionFlag := pflag.Bool("version", false, "Show version and exit")

	cfg := config.NewConfig()
	cfg.AddFlags(pflag.CommandLine)
	pflag.Parse()

	if *versionFlag {
		showVersion()
		os.Exit(0)
	}

	if err := cfg.LoadConfigWithFlagSet(pflag.CommandLine); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stderr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	if cfg.ConfigFile != "" {
		logger.Info("loaded config", "file", cfg.ConfigFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(hp.LoggingContext(ctx, logger), cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	static := site.Static()
	if cfg.StaticDir != "" {
		static = os.DirFS(cfg.StaticDir)
	}
	set, err := newAssets(cfg, static)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Addr:             cfg.Addr(),
		Static:           static,
		StaticPrefix:     "/static",
		RemoteUserHeader: cfg.RemoteUserHeader,
		Logger:           logger,
		NewSite: func(r *urls.Resolver) (*site.Site, error) {
			return site.New(siteOptions(cfg, r, set))
		},
	})
	if err != nil {
		return err
	}

	if cfg.Debug {
		if paths := watchPaths(cfg); len(paths) > 0 {
			w, err := site.NewWatcher(srv.Site(), paths...)
			if err != nil {
				return err
			}
			w.Start(ctx)
			defer w.Stop()
			logger.Info("watching for changes", "paths", paths)
		}
	}

	return srv.Run(ctx)
}

// newAssets links bundles file by file in debug mode, and through the
// manifest of the static files otherwise.
func newAssets(cfg *config.Config, static fs.FS) (*assets.Set, error) {
	if cfg.Debug {
		return assets.New(assets.Development, "/static", cfg.Bundles, nil)
	}
	name := cfg.ManifestFile
	if name == "" {
		name = "manifest.json"
	}
	manifest, err := assets.LoadManifest(static, name)
	if err != nil {
		return nil, err
	}
	return assets.New(assets.Production, "/static", cfg.Bundles, manifest)
}

func siteOptions(cfg *config.Config, r *urls.Resolver, set *assets.Set) site.Options {
	opts := site.Options{
		Name:        cfg.SiteName,
		Description: cfg.SiteDescription,
		Keywords:    cfg.SiteKeywords,
		BaseURL:     cfg.BaseURL,
		Copyright:   cfg.Copyright,
		Resolver:    r,
		Assets:      set,
		LoadMenu:    site.DefaultMenu,
		LoadCatalog: func() (*i18n.Catalog, error) {
			return loadCatalog(cfg)
		},
	}
	if cfg.TemplateDir != "" {
		opts.Templates = os.DirFS(cfg.TemplateDir)
	}
	if cfg.MenuFile != "" {
		opts.LoadMenu = func() (*menu.Tree, error) {
			return menu.LoadFile(cfg.MenuFile)
		}
	}
	for _, link := range cfg.FooterLinks {
		opts.FooterLinks = append(opts.FooterLinks, site.LinkSpec{
			Title: link.Title,
			Route: link.Route,
			URL:   link.URL,
		})
	}
	return opts
}

func loadCatalog(cfg *config.Config) (*i18n.Catalog, error) {
	tags, err := i18n.ParseLanguages(cfg.OrderedLanguages())
	if err != nil {
		return nil, err
	}
	catalog, err := i18n.NewCatalog(tags...)
	if err != nil {
		return nil, err
	}
	locales := site.Locales()
	if cfg.LocaleDir != "" {
		locales = os.DirFS(cfg.LocaleDir)
	}
	if err := catalog.LoadDir(locales); err != nil {
		return nil, err
	}
	return catalog, nil
}

// watchPaths returns what the watcher reloads the site for. Embedded files
// never change.
func watchPaths(cfg *config.Config) []string {
	var paths []string
	for _, path := range []string{cfg.TemplateDir, cfg.MenuFile, cfg.LocaleDir} {
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}
