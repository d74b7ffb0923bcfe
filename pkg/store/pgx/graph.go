package pgx

import (
	"context"
	"fmt"

	"github.com/kinbook/lineage/pkg/common"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/store"

	"github.com/kinbook/lineage/internal/util"
)

const (
	personChunk = 250
	edgeChunk   = 500
)

// ReplaceGraph writes a parsed graph inside one transaction. Rows belonging
// to this ingestion and to older ones are dropped first, so retrying a
// rebuild is idempotent and exactly one graph survives. Anomaly rows of
// older ingestions stay untouched, they are part of the ingestion record.
func (s *Store) ReplaceGraph(ctx context.Context, ingestionID int64, graph *common.Graph) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM persons WHERE ingestion_id <= $1`, ingestionID); err != nil {
		return fmt.Errorf("clear persons: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM anomalies WHERE ingestion_id = $1`, ingestionID); err != nil {
		return fmt.Errorf("clear anomalies: %w", err)
	}

	// public id -> internal row id, filled by the person inserts and used
	// to resolve edge endpoints.
	internal := make(map[string]int64, len(graph.Persons))

	err = store.ChunkRange(len(graph.Persons), personChunk, func(start, end int) error {
		chunk := graph.Persons[start:end]
		logger.Debug("[Store][ReplaceGraph] Saving persons", "chunk", len(chunk))

		args := make([]any, 0, len(chunk)*10)
		for _, p := range chunk {
			args = append(args,
				ingestionID,
				p.ID,
				util.SanitizePostgresText(p.DisplayName),
				p.Generation,
				p.BirthYear,
				p.BirthCirca,
				p.DeathYear,
				p.DeathCirca,
				util.SanitizePostgresText(p.Notes),
				toInt32s(p.SourceLines),
			)
		}

		rows, err := tx.Query(ctx, `
			INSERT INTO persons (
				ingestion_id, public_id, display_name, generation,
				birth_year, birth_circa, death_year, death_circa,
				notes, source_lines
			)
			VALUES `+valuesClause(len(chunk), 10)+`
			RETURNING id, public_id`,
			args...,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			var publicID string
			if err := rows.Scan(&id, &publicID); err != nil {
				return err
			}
			internal[publicID] = id
		}
		return rows.Err()
	})
	if err != nil {
		return fmt.Errorf("save persons: %w", err)
	}

	err = store.ChunkRange(len(graph.Aliases), edgeChunk, func(start, end int) error {
		chunk := graph.Aliases[start:end]
		args := make([]any, 0, len(chunk)*2)
		for _, a := range chunk {
			id, ok := internal[a.PersonID]
			if !ok {
				return fmt.Errorf("alias references unknown person %q", a.PersonID)
			}
			args = append(args, id, util.SanitizePostgresText(a.AliasName))
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO person_aliases (person_id, alias_name)
			VALUES `+valuesClause(len(chunk), 2),
			args...,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save aliases: %w", err)
	}

	err = store.ChunkRange(len(graph.Marriages), edgeChunk, func(start, end int) error {
		chunk := graph.Marriages[start:end]
		args := make([]any, 0, len(chunk)*4)
		for _, m := range chunk {
			s1, ok := internal[m.Spouse1ID]
			if !ok {
				return fmt.Errorf("marriage references unknown person %q", m.Spouse1ID)
			}
			s2, ok := internal[m.Spouse2ID]
			if !ok {
				return fmt.Errorf("marriage references unknown person %q", m.Spouse2ID)
			}
			args = append(args, s1, s2, m.Ordinal, m.IsRemarriage)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO marriages (spouse1_id, spouse2_id, marriage_order, is_remarriage)
			VALUES `+valuesClause(len(chunk), 4),
			args...,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save marriages: %w", err)
	}

	err = store.ChunkRange(len(graph.ParentChild), edgeChunk, func(start, end int) error {
		chunk := graph.ParentChild[start:end]
		args := make([]any, 0, len(chunk)*2)
		for _, e := range chunk {
			parent, ok := internal[e.ParentID]
			if !ok {
				return fmt.Errorf("edge references unknown person %q", e.ParentID)
			}
			child, ok := internal[e.ChildID]
			if !ok {
				return fmt.Errorf("edge references unknown person %q", e.ChildID)
			}
			args = append(args, parent, child)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO parent_child (parent_id, child_id)
			VALUES `+valuesClause(len(chunk), 2),
			args...,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save edges: %w", err)
	}

	err = store.ChunkRange(len(graph.Anomalies), edgeChunk, func(start, end int) error {
		chunk := graph.Anomalies[start:end]
		args := make([]any, 0, len(chunk)*4)
		for _, a := range chunk {
			args = append(args, ingestionID, a.Line, string(a.Kind), util.SanitizePostgresText(a.Reason))
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO anomalies (ingestion_id, line_number, kind, reason)
			VALUES `+valuesClause(len(chunk), 4),
			args...,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save anomalies: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Debug("[Store][ReplaceGraph] Graph replaced",
		"ingestion", ingestionID,
		"persons", len(graph.Persons),
		"marriages", len(graph.Marriages),
		"edges", len(graph.ParentChild))
	return nil
}

// LoadGraph reads the graph of the newest completed ingestion. When no
// ingestion has completed yet it returns an empty graph with watermark 0.
func (s *Store) LoadGraph(ctx context.Context) (*common.Graph, int64, error) {
	id, publicID, lineCount, ok, err := s.latestCompleted(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("latest ingestion: %w", err)
	}

	graph := &common.Graph{
		Persons:     make([]common.Person, 0),
		Aliases:     make([]common.Alias, 0),
		Marriages:   make([]common.Marriage, 0),
		ParentChild: make([]common.ParentChild, 0),
		Anomalies:   make([]common.Anomaly, 0),
	}
	if !ok {
		return graph, 0, nil
	}
	graph.IngestionID = publicID
	graph.LineCount = lineCount

	rows, err := s.conn.Query(ctx, `
		SELECT public_id, display_name, generation,
		       birth_year, birth_circa, death_year, death_circa,
		       notes, source_lines
		FROM persons
		WHERE ingestion_id = $1
		ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("load persons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p common.Person
		var lines []int32
		err := rows.Scan(
			&p.ID, &p.DisplayName, &p.Generation,
			&p.BirthYear, &p.BirthCirca, &p.DeathYear, &p.DeathCirca,
			&p.Notes, &lines,
		)
		if err != nil {
			return nil, 0, err
		}
		p.SourceLines = toInts(lines)
		graph.Persons = append(graph.Persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	rows, err = s.conn.Query(ctx, `
		SELECT p.public_id, pa.alias_name
		FROM person_aliases pa
		JOIN persons p ON p.id = pa.person_id
		WHERE p.ingestion_id = $1
		ORDER BY pa.id`,
		id,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("load aliases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a common.Alias
		if err := rows.Scan(&a.PersonID, &a.AliasName); err != nil {
			return nil, 0, err
		}
		graph.Aliases = append(graph.Aliases, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	rows, err = s.conn.Query(ctx, `
		SELECT s1.public_id, s2.public_id, m.marriage_order, m.is_remarriage
		FROM marriages m
		JOIN persons s1 ON s1.id = m.spouse1_id
		JOIN persons s2 ON s2.id = m.spouse2_id
		WHERE s1.ingestion_id = $1
		ORDER BY m.id`,
		id,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("load marriages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m common.Marriage
		if err := rows.Scan(&m.Spouse1ID, &m.Spouse2ID, &m.Ordinal, &m.IsRemarriage); err != nil {
			return nil, 0, err
		}
		graph.Marriages = append(graph.Marriages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	rows, err = s.conn.Query(ctx, `
		SELECT pp.public_id, cp.public_id
		FROM parent_child pc
		JOIN persons pp ON pp.id = pc.parent_id
		JOIN persons cp ON cp.id = pc.child_id
		WHERE pp.ingestion_id = $1
		ORDER BY pc.id`,
		id,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e common.ParentChild
		if err := rows.Scan(&e.ParentID, &e.ChildID); err != nil {
			return nil, 0, err
		}
		graph.ParentChild = append(graph.ParentChild, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	rows, err = s.conn.Query(ctx, `
		SELECT line_number, kind, reason
		FROM anomalies
		WHERE ingestion_id = $1
		ORDER BY line_number, id`,
		id,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("load anomalies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a common.Anomaly
		var kind string
		if err := rows.Scan(&a.Line, &kind, &a.Reason); err != nil {
			return nil, 0, err
		}
		a.Kind = common.AnomalyKind(kind)
		graph.Anomalies = append(graph.Anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return graph, id, nil
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func toInts(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
