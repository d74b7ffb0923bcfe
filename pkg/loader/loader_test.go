package loader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countingLoader struct {
	calls atomic.Int32
	fail  string
}

func (c *countingLoader) GetText(ctx context.Context, file TranscriptFile) ([]byte, error) {
	c.calls.Add(1)
	if file.Path == c.fail {
		return nil, errors.New("fetch failed")
	}
	return []byte("text"), nil
}

func TestCacheKey(t *testing.T) {
	a := TranscriptFile{IngestionID: "i1", Source: SourceS3, Path: "transcripts/a.txt"}
	b := TranscriptFile{IngestionID: "i2", Source: SourceS3, Path: "transcripts/a.txt"}
	c := TranscriptFile{IngestionID: "i1", Source: SourceFile, Path: "transcripts/a.txt"}

	if CacheKey(a) != CacheKey(b) {
		t.Fatal("same object in different ingestions must share a cache key")
	}
	if CacheKey(a) == CacheKey(c) {
		t.Fatal("different sources must not share a cache key")
	}
}

func TestPrefetch(t *testing.T) {
	files := []TranscriptFile{
		{Source: SourceFile, Path: "a.txt"},
		{Source: SourceFile, Path: "b.txt"},
		{Source: SourceFile, Path: "c.txt"},
	}
	l := &countingLoader{}

	if err := Prefetch(context.Background(), l, files, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.calls.Load(); got != 3 {
		t.Fatalf("unexpected fetch count: got %d, want 3", got)
	}
}

func TestPrefetch_PropagatesFailure(t *testing.T) {
	files := []TranscriptFile{
		{Source: SourceFile, Path: "a.txt"},
		{Source: SourceFile, Path: "broken.txt"},
	}
	l := &countingLoader{fail: "broken.txt"}

	if err := Prefetch(context.Background(), l, files, 0); err == nil {
		t.Fatal("expected error from failing fetch")
	}
}

func TestPrefetch_EmptyBatch(t *testing.T) {
	l := &countingLoader{}
	if err := Prefetch(context.Background(), l, nil, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.calls.Load(); got != 0 {
		t.Fatalf("unexpected fetch count: got %d, want 0", got)
	}
}
