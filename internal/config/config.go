// Package config holds the configuration of the homepage server, loaded from
// defaults, a YAML file, HP_* environment variables and flags.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"jabber.at/hp/assets"
)

// FooterLink is a link shown in the footer of every page.
type FooterLink struct {
	Title string `mapstructure:"title"`
	Route string `mapstructure:"route"`
	URL   string `mapstructure:"url"`
}

// Config holds the configuration for the homepage server.
type Config struct {
	ConfigFile string `mapstructure:"-"`

	ListenAddress string `mapstructure:"listen-address"`
	ListenPort    int    `mapstructure:"listen-port"`

	// Debug links assets individually and reloads templates when they
	// change on disk.
	Debug bool `mapstructure:"debug"`

	SiteName        string   `mapstructure:"site-name"`
	SiteDescription string   `mapstructure:"site-description"`
	SiteKeywords    []string `mapstructure:"site-keywords"`
	BaseURL         string   `mapstructure:"base-url"`
	Copyright       string   `mapstructure:"copyright"`

	// Empty paths use the files embedded in the binary.
	MenuFile     string `mapstructure:"menu-file"`
	LocaleDir    string `mapstructure:"locale-dir"`
	TemplateDir  string `mapstructure:"template-dir"`
	StaticDir    string `mapstructure:"static-dir"`
	ManifestFile string `mapstructure:"manifest-file"`

	DefaultLanguage string   `mapstructure:"default-language"`
	Languages       []string `mapstructure:"languages"`

	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// RemoteUserHeader names a header set by a trusted reverse proxy to
	// the signed-in user's name. Empty means nobody is ever signed in.
	RemoteUserHeader string `mapstructure:"remote-user-header"`

	FooterLinks []FooterLink    `mapstructure:"footer-links"`
	Bundles     []assets.Bundle `mapstructure:"bundles"`
}

// NewConfig creates a new Config instance with default values.
func NewConfig() *Config {
	return &Config{
		ListenAddress:   "",
		ListenPort:      8000,
		SiteName:        "jabber.at",
		SiteDescription: "Free and open XMPP server",
		SiteKeywords:    []string{"xmpp", "jabber", "chat"},
		BaseURL:         "http://localhost:8000",
		Copyright:       "jabber.at",
		DefaultLanguage: "en",
		Languages:       []string{"en", "de"},
		LogLevel:        "info",
		LogFormat:       "text",
		FooterLinks: []FooterLink{
			{Title: "Blog", Route: "blog:home"},
		},
		Bundles: []assets.Bundle{
			{Name: "site.css", Files: []string{"css/site.css"}},
			{Name: "site.js", Files: []string{"js/site.js"}, Footer: true, Defer: true},
		},
	}
}

// defaults returns the defaults of c keyed like the config file, so values
// that can't be set by a flag still come from somewhere.
func (c *Config) defaults() map[string]any {
	footerLinks := make([]map[string]any, 0, len(c.FooterLinks))
	for _, link := range c.FooterLinks {
		footerLinks = append(footerLinks, map[string]any{
			"title": link.Title,
			"route": link.Route,
			"url":   link.URL,
		})
	}
	bundles := make([]map[string]any, 0, len(c.Bundles))
	for _, bundle := range c.Bundles {
		bundles = append(bundles, map[string]any{
			"name":   bundle.Name,
			"files":  bundle.Files,
			"footer": bundle.Footer,
			"defer":  bundle.Defer,
		})
	}
	return map[string]any{
		"listen-address":     c.ListenAddress,
		"listen-port":        c.ListenPort,
		"debug":              c.Debug,
		"site-name":          c.SiteName,
		"site-description":   c.SiteDescription,
		"site-keywords":      c.SiteKeywords,
		"base-url":           c.BaseURL,
		"copyright":          c.Copyright,
		"menu-file":          c.MenuFile,
		"locale-dir":         c.LocaleDir,
		"template-dir":       c.TemplateDir,
		"static-dir":         c.StaticDir,
		"manifest-file":      c.ManifestFile,
		"default-language":   c.DefaultLanguage,
		"languages":          c.Languages,
		"log-level":          c.LogLevel,
		"log-format":         c.LogFormat,
		"remote-user-header": c.RemoteUserHeader,
		"footer-links":       footerLinks,
		"bundles":            bundles,
	}
}

// AddFlags adds pflag flags for the configuration.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", "", "Config file to use (default: $XDG_CONFIG_HOME/"+DefaultConfigPath+")")
	fs.StringVar(&c.ListenAddress, "listen-address", c.ListenAddress, "Listen address for the server")
	fs.IntVar(&c.ListenPort, "listen-port", c.ListenPort, "Listen port for the server")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Link assets individually and reload templates on change")
	fs.StringVar(&c.SiteName, "site-name", c.SiteName, "Name of the site")
	fs.StringVar(&c.BaseURL, "base-url", c.BaseURL, "Canonical base URL of the site")
	fs.StringVar(&c.MenuFile, "menu-file", c.MenuFile, "YAML file describing the menu (default: embedded)")
	fs.StringVar(&c.LocaleDir, "locale-dir", c.LocaleDir, "Directory with <language>.yaml translations (default: embedded)")
	fs.StringVar(&c.TemplateDir, "template-dir", c.TemplateDir, "Directory with page templates (default: embedded)")
	fs.StringVar(&c.StaticDir, "static-dir", c.StaticDir, "Directory with static files (default: embedded)")
	fs.StringVar(&c.ManifestFile, "manifest-file", c.ManifestFile, "Asset manifest, relative to the static files (default: manifest.json)")
	fs.StringVar(&c.DefaultLanguage, "default-language", c.DefaultLanguage, "Language used when the visitor's can't be matched")
	fs.StringSliceVar(&c.Languages, "languages", c.Languages, "Languages the site is available in")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (text, json)")
	fs.StringVar(&c.RemoteUserHeader, "remote-user-header", c.RemoteUserHeader, "Header carrying the signed-in user, set by a trusted proxy")
}

// LoadConfigWithFlagSet loads the configuration, overriding it with the
// flags of fs that were set explicitly.
func (c *Config) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	loader := NewLoader(fs)
	loader.SetConfigFile(c.ConfigFile)
	loader.SetDefaults(NewConfig().defaults())

	configFile := loader.ConfigFile()
	if err := loader.Load(c); err != nil {
		return err
	}
	c.ConfigFile = configFile
	return c.Validate()
}

// Validate checks the configuration for values that can't work.
func (c *Config) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.ListenPort)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	if len(c.Languages) < 1 {
		return ErrNoLanguages
	}
	if !slices.Contains(c.Languages, c.DefaultLanguage) {
		return fmt.Errorf("%w: %q not in %v", ErrDefaultLanguage, c.DefaultLanguage, c.Languages)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	for _, link := range c.FooterLinks {
		if link.Title == "" || (link.Route == "") == (link.URL == "") {
			return fmt.Errorf("%w: %+v", ErrInvalidFooterLink, link)
		}
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return level, nil
}

// OrderedLanguages returns Languages with DefaultLanguage first.
func (c *Config) OrderedLanguages() []string {
	langs := []string{c.DefaultLanguage}
	for _, lang := range c.Languages {
		if lang != c.DefaultLanguage {
			langs = append(langs, lang)
		}
	}
	return langs
}

// Addr returns the address to listen on.
func (c *Config) Addr() string {
	return net.JoinHostPort(strings.Trim(c.ListenAddress, "[]"), strconv.Itoa(c.ListenPort))
}
