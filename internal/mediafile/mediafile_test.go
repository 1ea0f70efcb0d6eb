package mediafile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadUnsupportedExtension(t *testing.T) {
	if _, err := Read("notes.txt", time.Now(), 240000); err == nil {
		t.Error("expected an error for a non-audio extension")
	}
}

func TestReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.mp3")
	if _, err := Read(path, time.Now(), 240000); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestReadUntaggedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.mp3")
	if err := os.WriteFile(path, []byte("not actually audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path, time.Now(), 240000); err == nil {
		t.Error("expected an error for a file without readable tags")
	}
}
