package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoreSaveAndOpen(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	key := "2026-08-30/call.wav"
	data := []byte("RIFF fake wav payload")
	if err := store.Save(ctx, key, data, "audio/wav"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !store.Exists(ctx, key) {
		t.Error("Exists() = false after Save, want true")
	}
	if path := store.LocalPath(key); path == "" {
		t.Error("LocalPath() = empty after Save")
	}

	r, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("read back %q, want %q", got, data)
	}
}

func TestLocalStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	if err := store.Save(context.Background(), "a/b.wav", []byte("x"), "audio/wav"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "a", ".audio-*.tmp"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestLocalStoreMissingKey(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	if store.Exists(ctx, "nope.wav") {
		t.Error("Exists() = true for missing key")
	}
	if path := store.LocalPath("nope.wav"); path != "" {
		t.Errorf("LocalPath() = %q for missing key, want empty", path)
	}
	if _, err := store.Open(ctx, "nope.wav"); !os.IsNotExist(err) {
		t.Errorf("Open() error = %v, want not-exist", err)
	}
}

func TestLocalStoreURL(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	url, err := store.URL(context.Background(), "any.wav")
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	if url != "" {
		t.Errorf("URL() = %q for local backend, want empty", url)
	}
}
