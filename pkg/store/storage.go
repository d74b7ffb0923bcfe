// Package store defines the persistence boundary for ingestion runs and the
// entity graphs they produce.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kinbook/lineage/pkg/common"
)

// ErrNotFound marks a lookup whose subject does not exist. Implementations
// wrap it so callers can test with errors.Is.
var ErrNotFound = errors.New("not found")

// Ingestion run states. An ingestion moves pending -> running -> completed
// or failed; a retried run may pass through running more than once.
const (
	IngestionPending   = "pending"
	IngestionRunning   = "running"
	IngestionCompleted = "completed"
	IngestionFailed    = "failed"
)

// Ingestion is one transcript processing run. ID is the internal row id,
// which doubles as the snapshot watermark: higher means newer. PublicID is
// the identifier the API exposes.
type Ingestion struct {
	ID         int64           `json:"-"`
	PublicID   string          `json:"id"`
	Source     string          `json:"source"`
	Path       string          `json:"path"`
	Status     string          `json:"status"`
	Counts     IngestionCounts `json:"counts"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// IngestionCounts summarizes what one run produced.
type IngestionCounts struct {
	Lines       int `json:"lines"`
	Persons     int `json:"persons"`
	Marriages   int `json:"marriages"`
	ParentChild int `json:"parent_child"`
	Anomalies   int `json:"anomalies"`
}

// PersonSummary is the list form of a person, used by search results and
// relationship listings.
type PersonSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Generation  int    `json:"generation"`
	BirthYear   *int   `json:"birth_year"`
	BirthCirca  bool   `json:"birth_circa"`
	DeathYear   *int   `json:"death_year"`
	DeathCirca  bool   `json:"death_circa"`
}

// SpouseSummary is a marriage partner with the marriage attributes.
type SpouseSummary struct {
	PersonSummary
	Ordinal      int  `json:"ordinal"`
	IsRemarriage bool `json:"is_remarriage"`
}

// PersonDetail is one person of the current graph with aliases and
// immediate relationships resolved.
type PersonDetail struct {
	common.Person
	Aliases  []string        `json:"aliases"`
	Spouses  []SpouseSummary `json:"spouses"`
	Parents  []PersonSummary `json:"parents"`
	Children []PersonSummary `json:"children"`
}

// Storage persists ingestion runs and their graphs and answers the read
// queries served directly from the database. Graph traversal reads go
// through LoadGraph snapshots instead.
type Storage interface {
	CreateIngestion(ctx context.Context, publicID, source, path string) (*Ingestion, error)
	GetIngestion(ctx context.Context, publicID string) (*Ingestion, error)
	MarkIngestionRunning(ctx context.Context, id int64) error
	CompleteIngestion(ctx context.Context, id int64, counts IngestionCounts) error
	FailIngestion(ctx context.Context, id int64, cause string) error
	ListAnomalies(ctx context.Context, publicID string) ([]common.Anomaly, error)

	// ReplaceGraph atomically replaces the stored graph with the one this
	// ingestion produced. Rows of older ingestions are dropped; anomaly
	// records stay for review.
	ReplaceGraph(ctx context.Context, ingestionID int64, graph *common.Graph) error
	// LoadGraph returns the graph of the newest completed ingestion and its
	// watermark. With no completed ingestion it returns an empty graph and
	// watermark zero.
	LoadGraph(ctx context.Context) (*common.Graph, int64, error)

	SearchPersons(ctx context.Context, query string, limit int) ([]PersonSummary, error)
	GetPerson(ctx context.Context, publicID string) (*PersonDetail, error)
	// ListFoundingAncestors returns persons with no recorded parents, the
	// entry points of the tree.
	ListFoundingAncestors(ctx context.Context, limit int) ([]PersonSummary, error)
}
