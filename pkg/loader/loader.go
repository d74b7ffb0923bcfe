// Package loader fetches transcript text for ingestion. Implementations
// cache fetched objects and collapse concurrent fetches of the same object
// into one request.
package loader

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Transcript sources. The source names the storage backend a path is
// valid in; it travels with the ingestion through queue messages.
const (
	SourceS3   = "s3"
	SourceFile = "file"
)

// TranscriptFile identifies one transcript to ingest.
type TranscriptFile struct {
	IngestionID string
	Source      string
	Path        string
}

// CacheKey is the identity of a transcript for loader caches. Two
// ingestions of the same stored object share one cache entry.
func CacheKey(file TranscriptFile) string {
	return file.Source + ":" + file.Path
}

// TranscriptLoader fetches the raw text of a transcript. Implementations
// must be safe for concurrent use.
type TranscriptLoader interface {
	GetText(ctx context.Context, file TranscriptFile) ([]byte, error)
}

// Prefetch warms a loader's cache for a batch of transcripts, fetching at
// most limit objects concurrently. A limit of zero or less means no bound.
// The first failure cancels the remaining fetches.
func Prefetch(ctx context.Context, l TranscriptLoader, files []TranscriptFile, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, file := range files {
		g.Go(func() error {
			_, err := l.GetText(ctx, file)
			return err
		})
	}
	return g.Wait()
}
