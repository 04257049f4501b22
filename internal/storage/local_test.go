package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, base, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

func TestLocalStorage_OpenRead(t *testing.T) {
	baseDir := t.TempDir()
	content := []byte("hello partition")
	writeFile(t, baseDir, "cities/2020-01-01.arrow", content)

	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	obj, err := storage.Open(context.Background(), "cities/2020-01-01.arrow")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer obj.Close()

	if obj.Size() != int64(len(content)) {
		t.Errorf("size mismatch: got %d, want %d", obj.Size(), len(content))
	}

	got, err := io.ReadAll(obj)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q, want %q", got, content)
	}

	buf := make([]byte, 9)
	if _, err := obj.ReadAt(buf, 6); err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if string(buf) != "partition" {
		t.Errorf("ReadAt mismatch: got %q", buf)
	}
}

func TestLocalStorage_OpenNotFound(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	_, err = storage.Open(context.Background(), "missing.arrow")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalStorage_OpenCancelled(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "a.arrow", []byte("x"))
	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := storage.Open(ctx, "a.arrow"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLocalStorage_ExistsDistinguishesPrefixes(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "cities/a.arrow", []byte("x"))
	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	ctx := context.Background()
	exists, err := storage.Exists(ctx, "cities/a.arrow")
	if err != nil || !exists {
		t.Errorf("expected object to exist, got %v (err=%v)", exists, err)
	}

	exists, err = storage.Exists(ctx, "cities")
	if err != nil || exists {
		t.Errorf("directory should not count as an object, got %v (err=%v)", exists, err)
	}

	exists, err = storage.Exists(ctx, "nope.arrow")
	if err != nil || exists {
		t.Errorf("expected missing object, got %v (err=%v)", exists, err)
	}
}

func TestLocalStorage_ListObjects(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "cities/2020-01-02.arrow", []byte("b"))
	writeFile(t, baseDir, "cities/2020-01-01.arrow", []byte("a"))
	writeFile(t, baseDir, "cities/nested/2020-01-03.arrow", []byte("c"))
	writeFile(t, baseDir, "other/x.arrow", []byte("d"))

	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	objects, err := storage.ListObjects(context.Background(), "cities")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	sort.Strings(objects)

	want := []string{"cities/2020-01-01.arrow", "cities/2020-01-02.arrow", "cities/nested/2020-01-03.arrow"}
	if len(objects) != len(want) {
		t.Fatalf("got %v, want %v", objects, want)
	}
	for i := range want {
		if objects[i] != want[i] {
			t.Errorf("object %d: got %q, want %q", i, objects[i], want[i])
		}
	}

	empty, err := storage.ListObjects(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ListObjects on missing prefix failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no objects, got %v", empty)
	}
}

func TestNewLocalStorage_RequiresDirectory(t *testing.T) {
	if _, err := NewLocalStorage(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing base path")
	}
}

func TestLocalStorage_PrefixExists(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "cities/2020-01-01.arrow", []byte("a"))
	if err := os.MkdirAll(filepath.Join(baseDir, "empty"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	tests := []struct {
		prefix string
		want   bool
	}{
		{"cities", true},
		{"cities/", true},
		{"empty", true},
		{"", true},
		{"missing", false},
		{"cities/2020-01-01.arrow", false},
	}
	for _, tt := range tests {
		got, err := storage.PrefixExists(context.Background(), tt.prefix)
		if err != nil {
			t.Fatalf("PrefixExists(%q) failed: %v", tt.prefix, err)
		}
		if got != tt.want {
			t.Errorf("PrefixExists(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}
