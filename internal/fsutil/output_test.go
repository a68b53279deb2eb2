package fsutil

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMemoryFileSystem_CreateAndRead(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("results.json")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	io.WriteString(w, "hello ")
	io.WriteString(w, "world")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := m.ReadFile("./results.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("content = %q", data)
	}
}

func TestMemoryFileSystem_NeedsParentDir(t *testing.T) {
	m := NewMemoryFileSystem()
	if _, err := m.Create("plots/a.png"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Create without parent: err = %v, want ErrNotExist", err)
	}
	if err := m.MkdirAll("out/plots", 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"out/plots/a.png", "out/b.html"} {
		if err := WriteTo(m, name, strings.NewReader(name)); err != nil {
			t.Errorf("WriteTo(%s): %v", name, err)
		}
	}
	got := m.Files()
	if len(got) != 2 || got[0] != "out/b.html" || got[1] != "out/plots/a.png" {
		t.Errorf("Files() = %v", got)
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	if _, err := NewMemoryFileSystem().ReadFile("nope"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

type failingWriterTo struct{}

func (failingWriterTo) WriteTo(io.Writer) (int64, error) { return 0, errors.New("render failed") }

func TestWriteTo_PropagatesSourceError(t *testing.T) {
	err := WriteTo(NewMemoryFileSystem(), "x", failingWriterTo{})
	if err == nil || !strings.Contains(err.Error(), "render failed") {
		t.Errorf("err = %v", err)
	}
}

func TestOSFileSystem(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "f.txt")
	if err := WriteTo(fsys, path, bytes.NewBufferString("data")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "data" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}
