package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/kinbook/lineage/pkg/common"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/store"

	"github.com/kinbook/lineage/internal/util"
)

const ingestionColumns = `
id, public_id, source, path, status, error,
line_count, person_count, marriage_count, parent_child_count, anomaly_count,
created_at, started_at, finished_at`

func scanIngestion(row pgxv5.Row) (*store.Ingestion, error) {
	var ing store.Ingestion
	err := row.Scan(
		&ing.ID,
		&ing.PublicID,
		&ing.Source,
		&ing.Path,
		&ing.Status,
		&ing.Error,
		&ing.Counts.Lines,
		&ing.Counts.Persons,
		&ing.Counts.Marriages,
		&ing.Counts.ParentChild,
		&ing.Counts.Anomalies,
		&ing.CreatedAt,
		&ing.StartedAt,
		&ing.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func (s *Store) CreateIngestion(ctx context.Context, publicID, source, path string) (*store.Ingestion, error) {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO ingestions (public_id, source, path)
		VALUES ($1, $2, $3)
		RETURNING `+ingestionColumns,
		publicID, source, path,
	)
	ing, err := scanIngestion(row)
	if err != nil {
		return nil, fmt.Errorf("create ingestion: %w", err)
	}

	logger.Debug("[Store][CreateIngestion] Registered transcript",
		"ingestion", ing.PublicID, "source", ing.Source, "path", ing.Path)
	return ing, nil
}

func (s *Store) GetIngestion(ctx context.Context, publicID string) (*store.Ingestion, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT `+ingestionColumns+`
		FROM ingestions
		WHERE public_id = $1`,
		publicID,
	)
	ing, err := scanIngestion(row)
	if err != nil {
		if err == pgxv5.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get ingestion: %w", err)
	}
	return ing, nil
}

func (s *Store) MarkIngestionRunning(ctx context.Context, id int64) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE ingestions
		SET status = $1, started_at = now()
		WHERE id = $2`,
		store.IngestionRunning, id,
	)
	if err != nil {
		return fmt.Errorf("mark ingestion running: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CompleteIngestion(ctx context.Context, id int64, counts store.IngestionCounts) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE ingestions
		SET status = $1, finished_at = now(), error = '',
		    line_count = $2, person_count = $3, marriage_count = $4,
		    parent_child_count = $5, anomaly_count = $6
		WHERE id = $7`,
		store.IngestionCompleted,
		counts.Lines, counts.Persons, counts.Marriages, counts.ParentChild, counts.Anomalies,
		id,
	)
	if err != nil {
		return fmt.Errorf("complete ingestion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	logger.Info("[Store][CompleteIngestion] Ingestion completed",
		"id", id,
		"persons", counts.Persons,
		"marriages", counts.Marriages,
		"edges", counts.ParentChild,
		"anomalies", counts.Anomalies)
	return nil
}

func (s *Store) FailIngestion(ctx context.Context, id int64, cause string) error {
	// Error chains can embed whole response bodies; cap what lands in the
	// error column.
	cause = util.TruncateRunes(util.SanitizePostgresText(cause), 1000)
	tag, err := s.conn.Exec(ctx, `
		UPDATE ingestions
		SET status = $1, finished_at = now(), error = $2
		WHERE id = $3`,
		store.IngestionFailed, cause, id,
	)
	if err != nil {
		return fmt.Errorf("fail ingestion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	logger.Warn("[Store][FailIngestion] Ingestion failed", "id", id, "error", cause)
	return nil
}

func (s *Store) ListAnomalies(ctx context.Context, publicID string) ([]common.Anomaly, error) {
	ing, err := s.GetIngestion(ctx, publicID)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT line_number, kind, reason
		FROM anomalies
		WHERE ingestion_id = $1
		ORDER BY line_number, id`,
		ing.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	defer rows.Close()

	anomalies := make([]common.Anomaly, 0)
	for rows.Next() {
		var a common.Anomaly
		var kind string
		if err := rows.Scan(&a.Line, &kind, &a.Reason); err != nil {
			return nil, err
		}
		a.Kind = common.AnomalyKind(kind)
		anomalies = append(anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return anomalies, nil
}
