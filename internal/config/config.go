// Package config loads mediarouter's configuration by layering a YAML
// file, CLI flags, and environment variable overrides through koanf,
// following the teacher's own layered-config convention: a
// koanf/providers/file + koanf/parsers/yaml base, a koanf/providers/posflag
// overlay bound to the CLI's flag set, and the teacher's hand-rolled
// internal/envextended provider (built on tidwall/sjson) for the topmost
// override layer.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"mediarouter/internal/envextended"
)

// Mode mirrors router.Mode's Simple/Advanced values without importing
// the router package, keeping config free of a dependency on the core.
type Mode string

const (
	ModeSimple   Mode = "simple"
	ModeAdvanced Mode = "advanced"
)

// Config is mediarouter's full runtime configuration.
type Config struct {
	Server struct {
		Address    string `koanf:"address"`
		DebounceMs int    `koanf:"debounce_ms"`
	} `koanf:"server"`

	Search struct {
		TimeoutMs int  `koanf:"timeout_ms"`
		Mode      Mode `koanf:"mode"`
	} `koanf:"search"`

	Storage struct {
		FormatCachePath string `koanf:"format_cache_path"`
		PathStorePath   string `koanf:"path_store_path"`
	} `koanf:"storage"`

	Handlers struct {
		Enabled []string `koanf:"enabled"`
	} `koanf:"handlers"`
}

// SearchTimeout returns Search.TimeoutMs as a time.Duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutMs) * time.Millisecond
}

// DebounceWindow returns Server.DebounceMs as a time.Duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Server.DebounceMs) * time.Millisecond
}

// Default returns the configuration used when no file, flags, or env
// vars override a setting.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Address = ":8080"
	cfg.Server.DebounceMs = 100
	cfg.Search.TimeoutMs = 10 * 60 * 1000
	cfg.Search.Mode = ModeSimple
	cfg.Storage.FormatCachePath = "mediarouter-data/formats.db"
	cfg.Storage.PathStorePath = "mediarouter-data/paths.db"
	cfg.Handlers.Enabled = []string{"rename", "pdf", "image"}
	return cfg
}

// RegisterFlags defines the subset of Config overridable from the CLI,
// using "." as the flag-name separator so posflag.Provider's default
// delimiter lines up with the koanf key paths above (e.g. the flag
// "server.address" maps straight onto server.address).
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("server.address", "", "address the HTTP server binds to")
	fs.Int("search.timeout_ms", 0, "deadline in milliseconds for a conversion search")
	fs.String("search.mode", "", "default search mode: simple or advanced")
	fs.String("storage.format_cache_path", "", "path to the format cache SQLite database")
	fs.String("storage.path_store_path", "", "path to the path store SQLite database")
}

// Load layers a YAML file (if path is non-empty), CLI flags, and
// MEDIAROUTER_-prefixed environment variables on top of Default, in
// that order — flags win over the file, and environment variables win
// over flags, matching the teacher's own provider ordering.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %q: %w", path, err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	envProvider := envextended.Provider("MEDIAROUTER_", "__", func(s string) string {
		s = strings.TrimPrefix(s, "MEDIAROUTER_")
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	})
	if err := k.Load(envProvider, json.Parser()); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
