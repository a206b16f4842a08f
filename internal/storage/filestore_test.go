package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"
)

func testFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "public"))
	if err != nil {
		t.Fatalf("failed to create FileStore: %v", err)
	}
	return fs
}

func TestNewFileStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	fs, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
	if fs.Root() != filepath.Clean(root) {
		t.Errorf("Root() = %q, want %q", fs.Root(), root)
	}
}

func TestFileStore(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		fs := testFileStore(t)
		bodies := map[string]string{
			"about":            "# About\n",
			"notes/todo":       "- [ ] item",
			"empty":            "",
			"unicode 日本":       "héllo wörld ✓",
			"../../etc/passwd": "root:x:0:0",
		}
		for id, body := range bodies {
			p := fs.Path(id)
			if err := fs.Write(p, []byte(body)); err != nil {
				t.Fatalf("Write(%q) error = %v", id, err)
			}
			got, err := fs.Read(p)
			if err != nil {
				t.Fatalf("Read(%q) error = %v", id, err)
			}
			if string(got) != body {
				t.Errorf("Read(%q) = %q, want %q", id, got, body)
			}
			if !fs.Exists(p) {
				t.Errorf("Exists(%q) = false", id)
			}
		}
		entries, err := os.ReadDir(fs.Root())
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != len(bodies) {
			t.Errorf("root has %d entries, want %d (flat layout)", len(entries), len(bodies))
		}
	})

	t.Run("OverwriteIsFullReplace", func(t *testing.T) {
		fs := testFileStore(t)
		p := fs.Path("page")
		if err := fs.Write(p, []byte("a much longer first body")); err != nil {
			t.Fatal(err)
		}
		if err := fs.Write(p, []byte("short")); err != nil {
			t.Fatal(err)
		}
		got, err := fs.Read(p)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "short" {
			t.Errorf("Read() = %q, want %q", got, "short")
		}
	})

	t.Run("NewArtifactIsWorldReadable", func(t *testing.T) {
		fs := testFileStore(t)
		p := fs.Path("page")
		if err := fs.Write(p, []byte("x")); err != nil {
			t.Fatal(err)
		}
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if got := fi.Mode().Perm(); got != 0o644 {
			t.Errorf("mode = %o, want 644", got)
		}
		// An overwrite keeps whatever mode the artifact has.
		if err := os.Chmod(p, 0o640); err != nil {
			t.Fatal(err)
		}
		if err := fs.Write(p, []byte("y")); err != nil {
			t.Fatal(err)
		}
		if fi, err = os.Stat(p); err != nil {
			t.Fatal(err)
		}
		if got := fi.Mode().Perm(); got != 0o640 {
			t.Errorf("mode after overwrite = %o, want 640", got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		fs := testFileStore(t)
		p := fs.Path("page")
		body := []byte("same body")
		for range 2 {
			if err := fs.Write(p, body); err != nil {
				t.Fatal(err)
			}
		}
		got, err := fs.Read(p)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, body) {
			t.Errorf("Read() = %q, want %q", got, body)
		}
		entries, err := os.ReadDir(fs.Root())
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("root has %d entries, want 1 (no temp files left behind)", len(entries))
		}
	})

	t.Run("DeleteTwiceIsNotFound", func(t *testing.T) {
		fs := testFileStore(t)
		p := fs.Path("page")
		if err := fs.Write(p, []byte("x")); err != nil {
			t.Fatal(err)
		}
		if err := fs.Delete(p); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if fs.Exists(p) {
			t.Error("page should not exist after Delete")
		}
		err := fs.Delete(p)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete() = %v, want ErrNotFound", err)
		}
		if KindOf(err) != KindNotFound {
			t.Errorf("KindOf() = %v, want %v", KindOf(err), KindNotFound)
		}
	})

	t.Run("ReadMissing", func(t *testing.T) {
		fs := testFileStore(t)
		if _, err := fs.Read(fs.Path("missing")); KindOf(err) != KindNotFound {
			t.Errorf("Read() error kind = %v, want %v", KindOf(err), KindNotFound)
		}
	})

	t.Run("WriteMissingParent", func(t *testing.T) {
		fs := testFileStore(t)
		p := filepath.Join(fs.Root(), "nope", "page")
		err := fs.Write(p, []byte("x"))
		if err == nil {
			t.Fatal("expected error")
		}
		if KindOf(err) != KindOther {
			t.Errorf("KindOf() = %v, want %v", KindOf(err), KindOther)
		}
		if errors.Is(err, ErrNotFound) {
			t.Error("write failure must not be reported as ErrNotFound")
		}
	})

	t.Run("EmptyIdentifierNeverTouchesRoot", func(t *testing.T) {
		fs := testFileStore(t)
		p := fs.Path("")
		if p != fs.Root() {
			t.Fatalf("Path(\"\") = %q, want root", p)
		}
		if err := fs.Write(p, []byte("x")); !errors.Is(err, ErrIsDir) {
			t.Errorf("Write(root) = %v, want ErrIsDir", err)
		}
		if err := fs.Delete(p); !errors.Is(err, ErrIsDir) {
			t.Errorf("Delete(root) = %v, want ErrIsDir", err)
		}
		if fi, err := os.Stat(fs.Root()); err != nil || !fi.IsDir() {
			t.Errorf("root was modified: %v", err)
		}
	})

	t.Run("ConcurrentWritesNeverInterleave", func(t *testing.T) {
		fs := testFileStore(t)
		p := fs.Path("race")
		a := bytes.Repeat([]byte("A"), 1<<16)
		b := bytes.Repeat([]byte("B"), 1<<16)
		for range 20 {
			eg, _ := errgroup.WithContext(context.Background())
			eg.Go(func() error { return fs.Write(p, a) })
			eg.Go(func() error { return fs.Write(p, b) })
			if err := eg.Wait(); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := fs.Read(p)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, a) && !bytes.Equal(got, b) {
				t.Fatalf("artifact is an interleaving of both writes (len %d)", len(got))
			}
		}
	})
}
