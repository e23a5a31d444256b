// Package host defines what nodecanvas needs from its embedding application
// and provides implementations for running without one.
//
// An [Adapter] owns the drawing surface and file storage. The core never
// depends on a concrete host: sessions receive an Adapter and talk to the
// renderer through [scene.Surface] and to storage through [Vault].
//
// Vault backends:
//
//   - [DirVault]: a directory on the local file system
//   - [MongoVault]: one MongoDB document per file
//   - [MinioVault]: objects in an S3-compatible bucket
package host

import (
	"context"
	"errors"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/scene"
)

// Adapter is the narrow lifecycle and I/O surface a host exposes.
type Adapter interface {
	// OnAttach is called when a canvas view opens. It may acquire host
	// resources; an error aborts opening.
	OnAttach(ctx context.Context) error

	// OnDetach is called when the view closes. It must be safe to call
	// more than once.
	OnDetach()

	// Surface returns the drawing surface of the view.
	Surface() scene.Surface

	// Vault returns the file storage of the host.
	Vault() Vault
}

// Vault is the host's file storage. Paths are relative, slash-separated
// and validated with errors.ValidatePath.
type Vault interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error

	// List returns the paths below prefix, sorted. An empty prefix lists
	// everything.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ErrDetached is returned by adapters used after OnDetach.
var ErrDetached = errors.New("host detached")

// notFound reports a missing vault file.
func notFound(path string) error {
	return errs.New(errs.ErrCodeFileNotFound, "file %q not found", path)
}

// IsNotFound reports whether err means a vault file does not exist.
func IsNotFound(err error) bool {
	return errs.Is(err, errs.ErrCodeFileNotFound)
}

// checkPrefix validates a List prefix; the empty prefix is allowed.
func checkPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	return errs.ValidatePath(prefix)
}
