package host

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

// DirVault stores files below a root directory.
type DirVault struct {
	root string
}

// NewDirVault returns a vault rooted at dir, creating it if needed.
func NewDirVault(dir string) (*DirVault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &DirVault{root: abs}, nil
}

// Root returns the absolute vault directory.
func (v *DirVault) Root() string { return v.root }

// Read implements Vault.
func (v *DirVault) Read(_ context.Context, path string) ([]byte, error) {
	full, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(path)
	}
	return data, err
}

// Write implements Vault. Files are replaced atomically.
func (v *DirVault) Write(_ context.Context, path string, data []byte) error {
	full, err := v.resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), full)
}

// Delete implements Vault.
func (v *DirVault) Delete(_ context.Context, path string) error {
	full, err := v.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); errors.Is(err, fs.ErrNotExist) {
		return notFound(path)
	} else if err != nil {
		return err
	}
	return nil
}

// List implements Vault. Hidden files are skipped.
func (v *DirVault) List(_ context.Context, prefix string) ([]string, error) {
	if err := checkPrefix(prefix); err != nil {
		return nil, err
	}
	var out []string
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != v.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			out = append(out, rel)
		}
		return nil
	})
	slices.Sort(out)
	return out, err
}

func (v *DirVault) resolve(path string) (string, error) {
	if err := errs.ValidatePath(path); err != nil {
		return "", err
	}
	return filepath.Join(v.root, filepath.FromSlash(path)), nil
}

var _ Vault = (*DirVault)(nil)
