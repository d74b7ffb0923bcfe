package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kinbook/lineage/internal/util"
	"github.com/kinbook/lineage/pkg/ingest"
	"github.com/kinbook/lineage/pkg/leaselock"
	"github.com/kinbook/lineage/pkg/loader"
	ioloader "github.com/kinbook/lineage/pkg/loader/io"
	s3loader "github.com/kinbook/lineage/pkg/loader/s3"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/store"
	pgstore "github.com/kinbook/lineage/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rebuildLockKey serializes graph rebuilds across workers. Only one
// ingestion may replace the stored graph at a time.
const rebuildLockKey = "lineage_graph_rebuild"

// ProcessIngestMessage handles one message from the ingest queue. A busy
// rebuild lease surfaces as an error so the message lands on the retry
// queue instead of blocking the consumer.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(IngestMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	st := pgstore.NewStore(conn)
	ing, err := st.GetIngestion(ctx, data.IngestionID)
	if err != nil {
		return fmt.Errorf("lookup ingestion %q: %w", data.IngestionID, err)
	}
	if ing.Status == store.IngestionCompleted {
		logger.Info("[Queue] Ingestion already completed, skipping", "ingestion", data.IngestionID)
		return nil
	}

	var transcripts loader.TranscriptLoader
	switch data.Source {
	case loader.SourceS3:
		bucket := util.GetEnvString("AWS_BUCKET", "lineage")
		transcripts = s3loader.NewS3TranscriptLoaderWithClient(bucket, s3Client)
	case loader.SourceFile:
		transcripts = ioloader.NewIOTranscriptLoader()
	default:
		return fmt.Errorf("unknown transcript source %q", data.Source)
	}

	locks := leaselock.New(conn)
	return locks.WithLease(ctx, rebuildLockKey, leaselock.Options{TTL: 10 * time.Minute}, func(ctx context.Context) error {
		return ingest.Run(ctx, ingest.RunParams{
			Store:  st,
			Loader: transcripts,
			File: loader.TranscriptFile{
				IngestionID: data.IngestionID,
				Source:      data.Source,
				Path:        data.Path,
			},
			IngestionID: ing.ID,
		})
	})
}
