// Package pgx implements store.Storage on PostgreSQL.
package pgx

import (
	"context"
	"strconv"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// Store implements store.Storage with hand-written SQL. It works on any
// pgx connection shape, typically a pgxpool.Pool.
type Store struct {
	conn pgxIConn
}

func NewStore(conn pgxIConn) *Store {
	return &Store{conn: conn}
}

// valuesClause renders "($1,$2),($3,$4),..." for rows of width cols,
// numbering placeholders from 1. Bulk inserts build their VALUES list with
// it so one statement carries a whole chunk.
func valuesClause(rows, cols int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

const latestCompletedSQL = `
SELECT id, public_id, line_count
FROM ingestions
WHERE status = 'completed'
ORDER BY id DESC
LIMIT 1`

// latestCompleted returns the newest completed ingestion, or ok=false when
// none exists yet.
func (s *Store) latestCompleted(ctx context.Context) (id int64, publicID string, lineCount int, ok bool, err error) {
	row := s.conn.QueryRow(ctx, latestCompletedSQL)
	if err := row.Scan(&id, &publicID, &lineCount); err != nil {
		if err == pgxv5.ErrNoRows {
			return 0, "", 0, false, nil
		}
		return 0, "", 0, false, err
	}
	return id, publicID, lineCount, true, nil
}
