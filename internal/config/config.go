// Package config loads settings from defaults, an optional config file,
// NEVRA_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/frederic-klein/nevra/internal/catalog"
	"github.com/frederic-klein/nevra/internal/subject"
)

const (
	// AppName is the application name.
	AppName = "nevra"
	// ConfigFileName is the config file looked up in the config directory.
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. NEVRA_CACHE_DIR.
	EnvPrefix = "NEVRA"
)

// Config is the resolved configuration.
type Config struct {
	Repos      []catalog.Repo `mapstructure:"repos"`
	CacheDir   string         `mapstructure:"cache_dir"`
	CacheTTL   time.Duration  `mapstructure:"cache_ttl"`
	Workers    int            `mapstructure:"workers"`
	AllowGlobs bool           `mapstructure:"allow_globs"`
	ICase      bool           `mapstructure:"icase"`
	Forms      []string       `mapstructure:"forms"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	cacheDir := filepath.Join(".nevra", "cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".nevra", "cache")
	}
	return &Config{
		CacheDir: cacheDir,
		CacheTTL: catalog.DefaultTTL,
		Workers:  4,
		Forms:    []string{},
	}
}

// ResolverForms parses Forms. An empty list yields nil, leaving the choice
// to the resolver.
func (c *Config) ResolverForms() ([]subject.Form, error) {
	if len(c.Forms) == 0 {
		return nil, nil
	}
	return subject.ParseForms(c.Forms)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	seen := make(map[string]bool)
	for i, r := range c.Repos {
		if r.Name == "" || r.URL == "" {
			return fmt.Errorf("repos[%d]: name and url are required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("repos[%d]: duplicate repo name %q", i, r.Name)
		}
		seen[r.Name] = true
	}
	if _, err := c.ResolverForms(); err != nil {
		return fmt.Errorf("forms: %w", err)
	}
	return nil
}

// LoadOptions tell Load where to look.
type LoadOptions struct {
	// ConfigFile is used exclusively when set; it must exist.
	ConfigFile string
	// ConfigDir overrides the default config directory.
	ConfigDir string
	// Flags, when set, override file and environment values for the flags
	// the user changed.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"cache-dir": "cache_dir",
	"cache-ttl": "cache_ttl",
	"workers":   "workers",
	"glob":      "allow_globs",
	"icase":     "icase",
	"form":      "forms",
}

// Load resolves the configuration. It returns the config file used, or ""
// when only defaults, environment and flags applied.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("repos", defaults.Repos)
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("cache_ttl", defaults.CacheTTL)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("allow_globs", defaults.AllowGlobs)
	v.SetDefault("icase", defaults.ICase)
	v.SetDefault("forms", defaults.Forms)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path, err := configPath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if opts.Flags != nil {
		for flag, key := range flagKeys {
			if f := opts.Flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", fmt.Errorf("binding flag --%s: %w", flag, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("parsing config: %w", err)
	}

	if opts.Flags != nil {
		if f := opts.Flags.Lookup("repo"); f != nil && f.Changed {
			specs, err := opts.Flags.GetStringArray("repo")
			if err != nil {
				return nil, "", err
			}
			cfg.Repos = cfg.Repos[:0]
			for _, spec := range specs {
				r, err := ParseRepo(spec)
				if err != nil {
					return nil, "", err
				}
				cfg.Repos = append(cfg.Repos, r)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, path, nil
}

// ParseRepo reads a "name=url" repo spec. A spec without "=" is named after
// the base name of the url.
func ParseRepo(spec string) (catalog.Repo, error) {
	name, url, ok := strings.Cut(spec, "=")
	if !ok {
		url = spec
		name = strings.TrimSuffix(filepath.Base(url), filepath.Ext(url))
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if name == "" || url == "" {
		return catalog.Repo{}, fmt.Errorf("invalid repo %q: want name=url", spec)
	}
	return catalog.Repo{Name: name, URL: url}, nil
}

// Dir returns the default config directory, $XDG_CONFIG_HOME/nevra or
// ~/.config/nevra.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName), nil
}

func configPath(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("config file not found: %w", err)
		}
		return opts.ConfigFile, nil
	}

	dir := opts.ConfigDir
	if dir == "" {
		var err error
		if dir, err = Dir(); err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("checking config file: %w", err)
	}
	return path, nil
}
