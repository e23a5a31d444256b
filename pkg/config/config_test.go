package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

// isolate runs the test in an empty directory with no user config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "xdg-cache"))
	for _, b := range envBindings {
		// Setenv registers the restore; the variable itself must be unset
		// so .env files can supply it.
		t.Setenv(EnvPrefix+b.name, "")
		os.Unsetenv(EnvPrefix + b.name)
	}
	return dir
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Canvas != def.Canvas || cfg.Cache != def.Cache || cfg.Vault != def.Vault || cfg.Source != "" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, FileName), `
[canvas]
width = 1024
max_undo = 10

[render]
mode = "3d"

[cache]
backend = "memory"
memory_entries = 64
`)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.Width != 1024 || cfg.Canvas.Height != 600 || cfg.Canvas.MaxUndo != 10 {
		t.Errorf("canvas = %+v", cfg.Canvas)
	}
	if cfg.Render.Mode != "3d" || cfg.Cache.Backend != CacheMemory || cfg.Cache.MemoryEntries != 64 {
		t.Errorf("render/cache = %+v %+v", cfg.Render, cfg.Cache)
	}
	if cfg.Source != FileName {
		t.Errorf("Source = %q", cfg.Source)
	}
}

func TestLoadUserConfigDir(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, "xdg-config", AppName, FileName), "[server]\naddr = \":9999\"\n")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
		code errs.Code
		msg  string
	}{
		{"syntax", "[canvas\n", nil, errs.ErrCodeInvalidFormat, "parse"},
		{"unknown key", "[canvas]\ncolour = 1\n", nil, errs.ErrCodeInvalidInput, "canvas.colour"},
		{"bad backend", "[cache]\nbackend = \"s3\"\n", nil, errs.ErrCodeInvalidInput, "cache.backend"},
		{"redis without url", "[cache]\nbackend = \"redis\"\n", nil, errs.ErrCodeInvalidInput, "redis_url"},
		{"mongo without uri", "[vault]\nbackend = \"mongo\"\n", nil, errs.ErrCodeInvalidInput, "mongo_uri"},
		{"bad mode", "[render]\nmode = \"4d\"\n", nil, errs.ErrCodeInvalidInput, "render.mode"},
		{"bad env int", "", map[string]string{"NODECANVAS_MAX_UNDO": "lots"}, errs.ErrCodeInvalidInput, "NODECANVAS_MAX_UNDO"},
		{"zero undo", "", map[string]string{"NODECANVAS_MAX_UNDO": "0"}, errs.ErrCodeInvalidInput, "max_undo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.file != "" {
				write(t, filepath.Join(dir, FileName), tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if !errs.Is(err, tt.code) {
				t.Fatalf("err = %v, want code %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("err = %v, want mention of %q", err, tt.msg)
			}
		})
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.toml"))
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, FileName), "[vault]\nbackend = \"dir\"\n")
	write(t, filepath.Join(dir, ".env"), "NODECANVAS_MINIO_BUCKET=from-dotenv\nNODECANVAS_ADDR=:7000\n")
	t.Setenv("NODECANVAS_VAULT_BACKEND", "minio")
	t.Setenv("NODECANVAS_MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("NODECANVAS_MINIO_USE_SSL", "true")
	t.Setenv("NODECANVAS_ADDR", ":6000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Backend != VaultMinio || cfg.Vault.Endpoint != "localhost:9000" || !cfg.Vault.UseSSL {
		t.Errorf("vault = %+v", cfg.Vault)
	}
	if cfg.Vault.Bucket != "from-dotenv" {
		t.Errorf("Bucket = %q, want value from .env", cfg.Vault.Bucket)
	}
	if cfg.Server.Addr != ":6000" {
		t.Errorf("Addr = %q, environment should win over .env", cfg.Server.Addr)
	}
}

func TestCacheDir(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	got, err := cfg.CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "xdg-cache", AppName); got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, _ := os.UserHomeDir()
	got, _ = cfg.CacheDir()
	if got != filepath.Join(home, ".cache", AppName) {
		t.Errorf("CacheDir() = %q, want under ~/.cache", got)
	}

	cfg.Cache.Dir = "/tmp/custom"
	if got, _ := cfg.CacheDir(); got != "/tmp/custom" {
		t.Errorf("explicit dir ignored: %q", got)
	}
}
