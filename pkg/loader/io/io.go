package io

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kinbook/lineage/pkg/loader"
)

// IOTranscriptLoader reads transcripts from the local filesystem with an
// in-memory cache. Concurrent requests for the same path collapse into a
// single read.
type IOTranscriptLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewIOTranscriptLoader creates a new filesystem-based transcript loader.
func NewIOTranscriptLoader() *IOTranscriptLoader {
	return &IOTranscriptLoader{
		cache: make(map[string][]byte),
	}
}

// GetText reads the transcript from the filesystem. Results are cached for
// the lifetime of the loader.
func (l *IOTranscriptLoader) GetText(ctx context.Context, file loader.TranscriptFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		result, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = result
		l.cacheMu.Unlock()

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
