package io

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kinbook/lineage/pkg/loader"
)

func writeTranscript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "register.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestIOTranscriptLoader_GetText(t *testing.T) {
	path := writeTranscript(t, ".1 Adam Adams\n..2 Beth Adams\n")
	l := NewIOTranscriptLoader()

	got, err := l.GetText(context.Background(), loader.TranscriptFile{
		Source: loader.SourceFile,
		Path:   path,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != ".1 Adam Adams\n..2 Beth Adams\n" {
		t.Fatalf("unexpected content: got %q", got)
	}
}

func TestIOTranscriptLoader_CachesByKey(t *testing.T) {
	path := writeTranscript(t, "original")
	l := NewIOTranscriptLoader()
	file := loader.TranscriptFile{Source: loader.SourceFile, Path: path}

	first, err := l.GetText(context.Background(), file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A rewrite on disk must not be visible through the cache.
	if err := os.WriteFile(path, []byte("changed"), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}

	second, err := l.GetText(context.Background(), file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("cache miss on second read: got %q, want %q", second, first)
	}
}

func TestIOTranscriptLoader_MissingFile(t *testing.T) {
	l := NewIOTranscriptLoader()
	_, err := l.GetText(context.Background(), loader.TranscriptFile{
		Source: loader.SourceFile,
		Path:   filepath.Join(t.TempDir(), "absent.txt"),
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIOTranscriptLoader_ConcurrentReads(t *testing.T) {
	path := writeTranscript(t, ".1 Adam Adams\n")
	l := NewIOTranscriptLoader()
	file := loader.TranscriptFile{Source: loader.SourceFile, Path: path}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.GetText(context.Background(), file); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
}
