package ingest

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kinbook/lineage/pkg/common"
	"github.com/kinbook/lineage/pkg/loader"
	"github.com/kinbook/lineage/pkg/store"
)

type fakeStorage struct {
	status     string
	counts     store.IngestionCounts
	failCause  string
	savedGraph *common.Graph
	savedID    int64

	failReplace bool
}

func (f *fakeStorage) CreateIngestion(ctx context.Context, publicID, source, path string) (*store.Ingestion, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStorage) GetIngestion(ctx context.Context, publicID string) (*store.Ingestion, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStorage) MarkIngestionRunning(ctx context.Context, id int64) error {
	f.status = store.IngestionRunning
	return nil
}

func (f *fakeStorage) CompleteIngestion(ctx context.Context, id int64, counts store.IngestionCounts) error {
	f.status = store.IngestionCompleted
	f.counts = counts
	return nil
}

func (f *fakeStorage) FailIngestion(ctx context.Context, id int64, cause string) error {
	f.status = store.IngestionFailed
	f.failCause = cause
	return nil
}

func (f *fakeStorage) ListAnomalies(ctx context.Context, publicID string) ([]common.Anomaly, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStorage) ReplaceGraph(ctx context.Context, ingestionID int64, graph *common.Graph) error {
	if f.failReplace {
		return errors.New("database unavailable")
	}
	f.savedID = ingestionID
	f.savedGraph = graph
	return nil
}

func (f *fakeStorage) LoadGraph(ctx context.Context) (*common.Graph, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (f *fakeStorage) SearchPersons(ctx context.Context, query string, limit int) ([]store.PersonSummary, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStorage) GetPerson(ctx context.Context, publicID string) (*store.PersonDetail, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStorage) ListFoundingAncestors(ctx context.Context, limit int) ([]store.PersonSummary, error) {
	return nil, errors.New("not implemented")
}

type fakeLoader struct {
	text     string
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *fakeLoader) GetText(ctx context.Context, file loader.TranscriptFile) ([]byte, error) {
	f.calls.Add(1)
	if f.failures.Load() > 0 {
		f.failures.Add(-1)
		return nil, errors.New("connection reset")
	}
	return []byte(f.text), nil
}

const transcript = `1 Josiah Adams 1801-1870
+ Hannah Lee ca 1805
.2 Mary Adams 1825-1890
.2 Henry Adams 1828-1901`

func TestRun(t *testing.T) {
	st := &fakeStorage{}
	src := &fakeLoader{text: transcript}

	err := Run(context.Background(), RunParams{
		Store:       st,
		Loader:      src,
		File:        loader.TranscriptFile{IngestionID: "ing1", Source: loader.SourceFile, Path: "register.txt"},
		IngestionID: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.status != store.IngestionCompleted {
		t.Fatalf("unexpected status: got %q, want %q", st.status, store.IngestionCompleted)
	}
	if st.savedID != 7 {
		t.Fatalf("unexpected ingestion id: got %d, want 7", st.savedID)
	}
	if st.savedGraph == nil || len(st.savedGraph.Persons) != 4 {
		t.Fatalf("unexpected persisted graph: %+v", st.savedGraph)
	}
	want := store.IngestionCounts{Lines: 4, Persons: 4, Marriages: 1, ParentChild: 2}
	if st.counts != want {
		t.Fatalf("unexpected counts: got %+v, want %+v", st.counts, want)
	}
}

func TestRun_RetriesFetch(t *testing.T) {
	st := &fakeStorage{}
	src := &fakeLoader{text: transcript}
	src.failures.Store(2)

	err := Run(context.Background(), RunParams{
		Store:           st,
		Loader:          src,
		File:            loader.TranscriptFile{IngestionID: "ing1", Source: loader.SourceS3, Path: "transcripts/r.txt"},
		IngestionID:     1,
		MaxFetchRetries: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := src.calls.Load(); got != 3 {
		t.Fatalf("unexpected fetch attempts: got %d, want 3", got)
	}
	if st.status != store.IngestionCompleted {
		t.Fatalf("unexpected status: got %q", st.status)
	}
}

func TestRun_FetchFailureMarksFailed(t *testing.T) {
	st := &fakeStorage{}
	src := &fakeLoader{text: transcript}
	src.failures.Store(10)

	err := Run(context.Background(), RunParams{
		Store:           st,
		Loader:          src,
		File:            loader.TranscriptFile{IngestionID: "ing1", Source: loader.SourceS3, Path: "transcripts/r.txt"},
		IngestionID:     1,
		MaxFetchRetries: 2,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if st.status != store.IngestionFailed {
		t.Fatalf("unexpected status: got %q, want %q", st.status, store.IngestionFailed)
	}
	if !strings.Contains(st.failCause, "connection reset") {
		t.Fatalf("unexpected failure cause: %q", st.failCause)
	}
}

func TestRun_PersistFailureMarksFailed(t *testing.T) {
	st := &fakeStorage{failReplace: true}
	src := &fakeLoader{text: transcript}

	err := Run(context.Background(), RunParams{
		Store:       st,
		Loader:      src,
		File:        loader.TranscriptFile{IngestionID: "ing1", Source: loader.SourceFile, Path: "register.txt"},
		IngestionID: 1,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if st.status != store.IngestionFailed {
		t.Fatalf("unexpected status: got %q, want %q", st.status, store.IngestionFailed)
	}
	if !strings.Contains(st.failCause, "database unavailable") {
		t.Fatalf("unexpected failure cause: %q", st.failCause)
	}
}
