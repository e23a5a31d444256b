// Package config loads nodecanvas settings.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (nodecanvas.toml in the working directory or the user
//     config directory, or an explicit path)
//  3. a .env file in the working directory (never overrides variables
//     that are already set)
//  4. NODECANVAS_* environment variables
//
// Command-line flags are applied by the CLI on top of the result.
//
// Example nodecanvas.toml:
//
//	[canvas]
//	width = 1024
//	height = 768
//	max_undo = 100
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[vault]
//	backend = "minio"
//	endpoint = "localhost:9000"
//	bucket = "canvases"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

const (
	// AppName names the config, cache and data directories.
	AppName = "nodecanvas"

	// FileName is the config file looked up by Load.
	FileName = "nodecanvas.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "NODECANVAS_"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Vault backends.
const (
	VaultDir   = "dir"
	VaultMongo = "mongo"
	VaultMinio = "minio"
)

// Config is the complete nodecanvas configuration.
type Config struct {
	Canvas CanvasConfig `toml:"canvas"`
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Vault  VaultConfig  `toml:"vault"`
	Server ServerConfig `toml:"server"`

	// Source is the config file that was read, if any.
	Source string `toml:"-"`
}

// CanvasConfig sizes the editing surface.
type CanvasConfig struct {
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	MaxUndo int     `toml:"max_undo"`
}

// LayoutConfig tunes the force layout.
type LayoutConfig struct {
	Iterations int     `toml:"iterations"`
	Cooling    float64 `toml:"cooling"`
	Margin     float64 `toml:"margin"`
	Padding    float64 `toml:"padding"`
	// StepsPerFrame bounds the layout iterations run per frame by sessions.
	StepsPerFrame int `toml:"steps_per_frame"`
}

// RenderConfig sets scene defaults.
type RenderConfig struct {
	Mode       string `toml:"mode"`
	Background string `toml:"background"`
	FPS        int    `toml:"fps"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisURL      string `toml:"redis_url"`
	MemoryEntries int    `toml:"memory_entries"`
}

// VaultConfig selects where canvas documents are stored.
type VaultConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`

	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{Width: 800, Height: 600, MaxUndo: 50},
		Layout: LayoutConfig{Iterations: 100, Cooling: 80, Margin: 50, Padding: 10, StepsPerFrame: 10},
		Render: RenderConfig{Mode: "2d", Background: "#f8fafc", FPS: 60, Width: 800, Height: 600},
		Cache:  CacheConfig{Backend: CacheFile, MemoryEntries: 1024},
		Vault: VaultConfig{
			Backend:         VaultDir,
			Dir:             ".",
			MongoDatabase:   AppName,
			MongoCollection: "canvases",
			Bucket:          "canvases",
			Region:          "us-east-1",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads configuration from path, or from the first FileName found in
// the working directory and the user config directory when path is empty.
// A missing implicit file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		file = findFile()
	}
	if file != "" {
		if err := cfg.decodeFile(file); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "read .env")
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errs.New(errs.ErrCodeInvalidInput, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	c.Source = path
	return nil
}

func findFile() string {
	candidates := []string{FileName}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, FileName))
	}
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheMemory, CacheRedis, CacheNone:
	default:
		return errs.New(errs.ErrCodeInvalidInput, "cache.backend %q (must be one of: file, memory, redis, none)", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return errs.New(errs.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
	}
	switch c.Vault.Backend {
	case VaultDir:
	case VaultMongo:
		if c.Vault.MongoURI == "" {
			return errs.New(errs.ErrCodeInvalidInput, "vault.mongo_uri is required for the mongo backend")
		}
	case VaultMinio:
		if c.Vault.Endpoint == "" || c.Vault.Bucket == "" {
			return errs.New(errs.ErrCodeInvalidInput, "vault.endpoint and vault.bucket are required for the minio backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidInput, "vault.backend %q (must be one of: dir, mongo, minio)", c.Vault.Backend)
	}
	switch strings.ToLower(c.Render.Mode) {
	case "2d", "3d":
	default:
		return errs.New(errs.ErrCodeInvalidInput, "render.mode %q (must be 2d or 3d)", c.Render.Mode)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errs.New(errs.ErrCodeInvalidInput, "canvas size must be positive")
	}
	if c.Canvas.MaxUndo < 1 {
		return errs.New(errs.ErrCodeInvalidInput, "canvas.max_undo must be at least 1")
	}
	if c.Render.FPS < 1 {
		return errs.New(errs.ErrCodeInvalidInput, "render.fps must be at least 1")
	}
	return nil
}

// ConfigDir returns the user config directory (~/.config/nodecanvas/),
// honoring XDG_CONFIG_HOME.
func ConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns the cache directory configured in c, or the XDG cache
// directory (~/.cache/nodecanvas/).
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, fallback, AppName), nil
}
