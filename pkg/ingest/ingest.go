// Package ingest runs the transcript pipeline end to end: fetch the raw
// OCR text, parse it into a graph and persist the result.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/kinbook/lineage/internal/util"
	"github.com/kinbook/lineage/pkg/loader"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/register"
	"github.com/kinbook/lineage/pkg/store"
)

type RunParams struct {
	Store  store.Storage
	Loader loader.TranscriptLoader
	File   loader.TranscriptFile
	// IngestionID is the internal row id of the ingestion being processed.
	IngestionID int64
	// MaxFetchRetries bounds transcript fetch attempts. Defaults to 3.
	MaxFetchRetries int
}

// Run executes one ingestion. On failure the ingestion is marked failed
// with the cause before the error is returned, so the record never sticks
// in the running state.
func Run(ctx context.Context, params RunParams) (err error) {
	defer func() {
		if err == nil {
			return
		}
		failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if failErr := params.Store.FailIngestion(failCtx, params.IngestionID, err.Error()); failErr != nil {
			logger.Warn("[Ingest] Failed to mark ingestion as failed", "id", params.IngestionID, "err", failErr)
		}
	}()

	if err = params.Store.MarkIngestionRunning(ctx, params.IngestionID); err != nil {
		return err
	}

	start := time.Now()
	logger.Info("[Ingest] Processing transcript",
		"id", params.IngestionID, "source", params.File.Source, "path", params.File.Path)

	retries := params.MaxFetchRetries
	if retries <= 0 {
		retries = 3
	}
	text, err := util.RetryWithContext(ctx, retries, func(ctx context.Context) ([]byte, error) {
		return params.Loader.GetText(ctx, params.File)
	})
	if err != nil {
		return fmt.Errorf("fetch transcript: %w", err)
	}

	parser := register.NewParser(register.NewParserParams{})
	graph, err := parser.ParseText(string(text))
	if err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}

	if err = params.Store.ReplaceGraph(ctx, params.IngestionID, graph); err != nil {
		return fmt.Errorf("persist graph: %w", err)
	}

	counts := store.IngestionCounts{
		Lines:       graph.LineCount,
		Persons:     len(graph.Persons),
		Marriages:   len(graph.Marriages),
		ParentChild: len(graph.ParentChild),
		Anomalies:   len(graph.Anomalies),
	}
	if err = params.Store.CompleteIngestion(ctx, params.IngestionID, counts); err != nil {
		return err
	}

	logger.Info("[Ingest] Transcript processed",
		"id", params.IngestionID,
		"persons", counts.Persons,
		"anomalies", counts.Anomalies,
		"duration", time.Since(start).Round(time.Millisecond).String())
	return nil
}
