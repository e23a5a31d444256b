package host

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/matzehuels/nodecanvas/pkg/buildinfo"
	"github.com/matzehuels/nodecanvas/pkg/codec"
	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

// MinioConfig locates the bucket holding canvas files.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinioVault stores files as objects in an S3-compatible bucket. The bucket
// is created on first use.
type MinioVault struct {
	client *minio.Client
	bucket string
	region string

	initOnce sync.Once
	initErr  error
}

// NewMinioVault creates the client. It does not contact the server.
func NewMinioVault(cfg MinioConfig) (*MinioVault, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	bucket := strings.TrimSpace(cfg.Bucket)
	if endpoint == "" || bucket == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "minio vault needs an endpoint and a bucket")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	client.SetAppInfo("nodecanvas", buildinfo.Version)
	return &MinioVault{client: client, bucket: bucket, region: region}, nil
}

func (v *MinioVault) ensureBucket(ctx context.Context) error {
	v.initOnce.Do(func() {
		exists, err := v.client.BucketExists(ctx, v.bucket)
		if err != nil {
			v.initErr = err
			return
		}
		if !exists {
			v.initErr = v.client.MakeBucket(ctx, v.bucket, minio.MakeBucketOptions{Region: v.region})
		}
	})
	return v.initErr
}

// Read implements Vault.
func (v *MinioVault) Read(ctx context.Context, path string) ([]byte, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	if err := v.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := v.client.GetObject(ctx, v.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, v.mapErr(path, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, v.mapErr(path, err)
	}
	return data, nil
}

// Write implements Vault.
func (v *MinioVault) Write(ctx context.Context, path string, data []byte) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	if err := v.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := v.client.PutObject(ctx, v.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(path),
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Delete implements Vault. S3 deletes are idempotent, so a missing object is
// detected with a stat first.
func (v *MinioVault) Delete(ctx context.Context, path string) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	if err := v.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	if _, err := v.client.StatObject(ctx, v.bucket, path, minio.StatObjectOptions{}); err != nil {
		return v.mapErr(path, err)
	}
	return v.client.RemoveObject(ctx, v.bucket, path, minio.RemoveObjectOptions{})
}

// List implements Vault.
func (v *MinioVault) List(ctx context.Context, prefix string) ([]string, error) {
	if err := checkPrefix(prefix); err != nil {
		return nil, err
	}
	if err := v.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	var out []string
	for obj := range v.client.ListObjects(ctx, v.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list: %w", obj.Err)
		}
		out = append(out, obj.Key)
	}
	slices.Sort(out)
	return out, nil
}

func (v *MinioVault) mapErr(path string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return notFound(path)
	}
	return fmt.Errorf("%s: %w", path, err)
}

func contentType(path string) string {
	if f, err := codec.FormatFromPath(path); err == nil {
		return codec.ContentType(f)
	}
	if strings.HasSuffix(path, ".png") {
		return "image/png"
	}
	return "application/octet-stream"
}

var _ Vault = (*MinioVault)(nil)
