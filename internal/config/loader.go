package config

import (
	"fmt"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to the upper-cased, underscored name of every key
// to find its environment variable, e.g. HP_LISTEN_PORT.
const EnvPrefix = "HP"

// DefaultConfigPath is where the config file is searched for in the XDG
// config directories when none is given.
const DefaultConfigPath = "hp/config.yaml"

// Loader loads configuration with the precedence defaults < config file <
// environment < explicitly set flags.
type Loader struct {
	configFile string
	defaults   map[string]any
	flags      *pflag.FlagSet
}

// NewLoader creates a Loader that considers the flags of fs. A nil fs only
// reads defaults, the config file and the environment.
func NewLoader(fs *pflag.FlagSet) *Loader {
	return &Loader{
		defaults: map[string]any{},
		flags:    fs,
	}
}

// SetConfigFile sets the configuration file path. If it's never set, or set
// to an empty string, the XDG config directories are searched.
func (l *Loader) SetConfigFile(configFile string) {
	l.configFile = configFile
}

// SetDefaults sets multiple default values at once.
func (l *Loader) SetDefaults(defaults map[string]any) {
	for key, value := range defaults {
		l.defaults[key] = value
	}
}

// ConfigFile returns the file the Loader reads, or an empty string if there
// is none.
func (l *Loader) ConfigFile() string {
	if l.configFile != "" {
		return l.configFile
	}
	path, err := xdg.SearchConfigFile(DefaultConfigPath)
	if err != nil {
		return ""
	}
	return path
}

// Load populates config, which must be a pointer to a struct with
// mapstructure tags. Keys in the config file that don't match a field are an
// error.
func (l *Loader) Load(config any) error {
	v := viper.New()
	for key, value := range l.defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	configFile := l.ConfigFile()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w %s: %w", ErrConfigFileRead, configFile, err)
		}
	}

	// only flags set on the command line override the other sources
	if l.flags != nil {
		l.flags.Visit(func(flag *pflag.Flag) {
			if flag.Name == "config" {
				return
			}
			if slice, ok := flag.Value.(pflag.SliceValue); ok {
				v.Set(flag.Name, slice.GetSlice())
				return
			}
			v.Set(flag.Name, flag.Value.String())
		})
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		ErrorUnused:      true,
		ZeroFields:       true,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create decoder: %w", ErrConfigUnmarshal, err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		if configFile != "" {
			return fmt.Errorf("%w: %s: %w", ErrConfigUnmarshal, configFile, err)
		}
		return fmt.Errorf("%w: %w", ErrConfigUnmarshal, err)
	}
	return nil
}
