package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOSRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := NewOS()

	path := filepath.Join(dir, "nested", "note.txt")
	if fs.Exists(path) {
		t.Fatalf("Exists(%s) = true before write", path)
	}
	if err := fs.WriteText(path, "hello"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !fs.Exists(path) {
		t.Fatalf("Exists(%s) = false after write", path)
	}
	got, err := fs.ReadText(path)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "hello" {
		t.Fatalf("ReadText = %q, want %q", got, "hello")
	}
}

func TestOSReadMissing(t *testing.T) {
	t.Parallel()
	fs := NewOS()
	if _, err := fs.ReadText(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("ReadText on missing file returned nil error")
	}
}

func TestMemRoundTrip(t *testing.T) {
	t.Parallel()
	fs := NewMem()
	if err := fs.WriteText("a/b.txt", "x"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, err := fs.ReadText("a/b.txt")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "x" {
		t.Fatalf("ReadText = %q, want %q", got, "x")
	}
	if _, err := fs.ReadText("a/missing.txt"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file error = %v, want not-exist", err)
	}
}

func TestMemList(t *testing.T) {
	t.Parallel()
	fs := NewMem()
	for _, p := range []string{"s/login.glyph", "s/signup.glyph", "s/readme.md"} {
		if err := fs.WriteText(p, ""); err != nil {
			t.Fatalf("WriteText(%s): %v", p, err)
		}
	}
	got, err := fs.List("s", ".glyph")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"s/login.glyph", "s/signup.glyph"}
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOSList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := NewOS()
	for _, name := range []string{"login.glyph", "signup.glyph", "notes.md"} {
		if err := fs.WriteText(filepath.Join(dir, name), ""); err != nil {
			t.Fatalf("WriteText(%s): %v", name, err)
		}
	}
	got, err := fs.List(dir, ".glyph")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "login.glyph" || filepath.Base(got[1]) != "signup.glyph" {
		t.Fatalf("List = %v", got)
	}

	missing, err := fs.List(filepath.Join(dir, "absent"), ".glyph")
	if err != nil || len(missing) != 0 {
		t.Fatalf("List on missing dir = %v, %v", missing, err)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	fs := NewMem()
	if err := fs.WriteText("a.txt", "x"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if err := fs.Remove("a.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if fs.Exists("a.txt") {
		t.Fatal("file still exists after Remove")
	}
	if err := fs.Remove("a.txt"); err != nil {
		t.Fatalf("Remove on missing file: %v", err)
	}
}
