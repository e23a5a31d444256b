package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/nodecanvas/pkg/config"
	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

func TestDirVault(t *testing.T) {
	ctx := context.Background()
	v, err := NewDirVault(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := v.Read(ctx, "missing.canvas"); !IsNotFound(err) {
		t.Errorf("Read(missing) = %v, want not found", err)
	}
	for _, p := range []string{"a.canvas", "boards/b.canvas", "boards/c.mmd"} {
		if err := v.Write(ctx, p, []byte(p)); err != nil {
			t.Fatalf("Write(%s): %v", p, err)
		}
	}
	if err := v.Write(ctx, "a.canvas", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	data, err := v.Read(ctx, "a.canvas")
	if err != nil || string(data) != "v2" {
		t.Errorf("Read = %q, %v", data, err)
	}

	all, err := v.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.canvas", "boards/b.canvas", "boards/c.mmd"}; !reflect.DeepEqual(all, want) {
		t.Errorf("List = %v, want %v", all, want)
	}
	boards, _ := v.List(ctx, "boards/")
	if len(boards) != 2 {
		t.Errorf("List(boards/) = %v", boards)
	}

	if err := v.Delete(ctx, "boards/c.mmd"); err != nil {
		t.Fatal(err)
	}
	if err := v.Delete(ctx, "boards/c.mmd"); !IsNotFound(err) {
		t.Errorf("second Delete = %v, want not found", err)
	}

	entries, _ := os.ReadDir(filepath.Join(v.Root(), "boards"))
	for _, e := range entries {
		if e.Name() != "b.canvas" {
			t.Errorf("leftover file %s", e.Name())
		}
	}
}

func TestDirVaultRejectsUnsafePaths(t *testing.T) {
	ctx := context.Background()
	v, _ := NewDirVault(t.TempDir())
	for _, p := range []string{"", "/etc/passwd", "../escape", "a\\b", "x\x00y"} {
		if _, err := v.Read(ctx, p); !errs.Is(err, errs.ErrCodeInvalidPath) {
			t.Errorf("Read(%q) = %v, want INVALID_PATH", p, err)
		}
		if err := v.Write(ctx, p, nil); !errs.Is(err, errs.ErrCodeInvalidPath) {
			t.Errorf("Write(%q) = %v, want INVALID_PATH", p, err)
		}
	}
	if _, err := v.List(ctx, "../"); !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("List(../) = %v", err)
	}
}

func TestHeadlessLifecycle(t *testing.T) {
	v, _ := NewDirVault(t.TempDir())
	h := NewHeadless(v, 320, 240)

	if w, hh := h.Surface().Size(); w != 320 || hh != 240 {
		t.Errorf("Size = %dx%d", w, hh)
	}
	if h.Vault() != Vault(v) {
		t.Error("Vault() should return the configured vault")
	}
	if err := h.OnAttach(context.Background()); err != nil || !h.Attached() {
		t.Fatalf("OnAttach = %v, attached=%v", err, h.Attached())
	}
	h.OnDetach()
	h.OnDetach()
	if h.Attached() {
		t.Error("still attached after OnDetach")
	}
	if err := h.OnAttach(context.Background()); !errors.Is(err, ErrDetached) {
		t.Errorf("reattach = %v, want ErrDetached", err)
	}
}

func TestOpenVault(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	v, closeFn, err := OpenVault(ctx, config.VaultConfig{Backend: config.VaultDir, Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if dv, ok := v.(*DirVault); !ok || dv.Root() != dir {
		t.Errorf("OpenVault(dir) = %T", v)
	}

	mv, _, err := OpenVault(ctx, config.VaultConfig{Backend: config.VaultMinio, Endpoint: "localhost:9000", Bucket: "canvases"})
	if err != nil {
		t.Fatalf("OpenVault(minio): %v", err)
	}
	if _, ok := mv.(*MinioVault); !ok {
		t.Errorf("OpenVault(minio) = %T", mv)
	}

	if _, _, err := OpenVault(ctx, config.VaultConfig{Backend: "ftp"}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("OpenVault(ftp) = %v", err)
	}
	if _, _, err := OpenVault(ctx, config.VaultConfig{Backend: config.VaultMongo}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("OpenVault(mongo without uri) = %v", err)
	}
}

func TestMinioConfigValidation(t *testing.T) {
	if _, err := NewMinioVault(MinioConfig{Bucket: "b"}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("missing endpoint: %v", err)
	}
	if got := contentType("boards/x.canvas"); got != "application/json" {
		t.Errorf("contentType(.canvas) = %q", got)
	}
	if got := contentType("shot.png"); got != "image/png" {
		t.Errorf("contentType(.png) = %q", got)
	}
}
