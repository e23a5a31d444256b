package config

import (
	"strconv"
	"strings"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

// lookupFunc matches os.LookupEnv.
type lookupFunc func(string) (string, bool)

// envBinding ties a variable (without EnvPrefix) to a config field.
type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func float(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

var envBindings = []envBinding{
	{"CANVAS_WIDTH", float(func(c *Config) *float64 { return &c.Canvas.Width })},
	{"CANVAS_HEIGHT", float(func(c *Config) *float64 { return &c.Canvas.Height })},
	{"MAX_UNDO", integer(func(c *Config) *int { return &c.Canvas.MaxUndo })},
	{"LAYOUT_ITERATIONS", integer(func(c *Config) *int { return &c.Layout.Iterations })},
	{"RENDER_MODE", str(func(c *Config) *string { return &c.Render.Mode })},
	{"RENDER_BACKGROUND", str(func(c *Config) *string { return &c.Render.Background })},
	{"RENDER_FPS", integer(func(c *Config) *int { return &c.Render.FPS })},
	{"CACHE_BACKEND", str(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_DIR", str(func(c *Config) *string { return &c.Cache.Dir })},
	{"REDIS_URL", str(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"VAULT_BACKEND", str(func(c *Config) *string { return &c.Vault.Backend })},
	{"VAULT_DIR", str(func(c *Config) *string { return &c.Vault.Dir })},
	{"MONGO_URI", str(func(c *Config) *string { return &c.Vault.MongoURI })},
	{"MONGO_DATABASE", str(func(c *Config) *string { return &c.Vault.MongoDatabase })},
	{"MONGO_COLLECTION", str(func(c *Config) *string { return &c.Vault.MongoCollection })},
	{"MINIO_ENDPOINT", str(func(c *Config) *string { return &c.Vault.Endpoint })},
	{"MINIO_ACCESS_KEY", str(func(c *Config) *string { return &c.Vault.AccessKey })},
	{"MINIO_SECRET_KEY", str(func(c *Config) *string { return &c.Vault.SecretKey })},
	{"MINIO_BUCKET", str(func(c *Config) *string { return &c.Vault.Bucket })},
	{"MINIO_REGION", str(func(c *Config) *string { return &c.Vault.Region })},
	{"MINIO_USE_SSL", boolean(func(c *Config) *bool { return &c.Vault.UseSSL })},
	{"ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
}

// applyEnv overrides fields from NODECANVAS_* variables. Blank values are
// ignored.
func (c *Config) applyEnv(lookup lookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := b.set(c, v); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "%s%s", EnvPrefix, b.name)
		}
	}
	return nil
}
