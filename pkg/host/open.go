package host

import (
	"context"

	"github.com/matzehuels/nodecanvas/pkg/config"
	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

// OpenVault creates the vault selected by cfg. The returned close function
// releases backend connections and is never nil.
func OpenVault(ctx context.Context, cfg config.VaultConfig) (Vault, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.VaultDir, "":
		dir := cfg.Dir
		if dir == "" {
			dir = "."
		}
		v, err := NewDirVault(dir)
		return v, noop, err
	case config.VaultMongo:
		v, err := NewMongoVault(ctx, MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase, Collection: cfg.MongoCollection})
		if err != nil {
			return nil, noop, err
		}
		return v, func() error { return v.Close(context.Background()) }, nil
	case config.VaultMinio:
		v, err := NewMinioVault(MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
		return v, noop, err
	}
	return nil, noop, errs.New(errs.ErrCodeInvalidInput, "unknown vault backend %q", cfg.Backend)
}
