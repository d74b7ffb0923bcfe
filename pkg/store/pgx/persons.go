package pgx

import (
	"context"
	"fmt"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/kinbook/lineage/pkg/store"
)

const defaultSearchLimit = 20

func scanSummary(rows pgxv5.Rows) (store.PersonSummary, error) {
	var p store.PersonSummary
	err := rows.Scan(
		&p.ID, &p.DisplayName, &p.Generation,
		&p.BirthYear, &p.BirthCirca, &p.DeathYear, &p.DeathCirca,
	)
	return p, err
}

// SearchPersons matches display names and aliases case-insensitively
// against the latest completed ingestion. Queries shorter than two
// characters return nothing, they would match almost every row.
func (s *Store) SearchPersons(ctx context.Context, query string, limit int) ([]store.PersonSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []store.PersonSummary{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ingestionID, _, _, ok, err := s.latestCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest ingestion: %w", err)
	}
	if !ok {
		return []store.PersonSummary{}, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT DISTINCT p.public_id, p.display_name, p.generation,
		       p.birth_year, p.birth_circa, p.death_year, p.death_circa
		FROM persons p
		LEFT JOIN person_aliases pa ON pa.person_id = p.id
		WHERE p.ingestion_id = $1
		  AND (p.display_name ILIKE '%' || $2 || '%'
		       OR pa.alias_name ILIKE '%' || $2 || '%')
		ORDER BY p.display_name
		LIMIT $3`,
		ingestionID, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search persons: %w", err)
	}
	defer rows.Close()

	results := make([]store.PersonSummary, 0)
	for rows.Next() {
		p, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListFoundingAncestors returns the tree's entry points: persons of the
// latest completed ingestion with no recorded parents.
func (s *Store) ListFoundingAncestors(ctx context.Context, limit int) ([]store.PersonSummary, error) {
	if limit <= 0 {
		limit = 12
	}

	ingestionID, _, _, ok, err := s.latestCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest ingestion: %w", err)
	}
	if !ok {
		return []store.PersonSummary{}, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT p.public_id, p.display_name, p.generation,
		       p.birth_year, p.birth_circa, p.death_year, p.death_circa
		FROM persons p
		WHERE p.ingestion_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM parent_child pc WHERE pc.child_id = p.id
		  )
		ORDER BY p.generation, p.birth_year ASC NULLS LAST, p.display_name
		LIMIT $2`,
		ingestionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list founding ancestors: %w", err)
	}
	defer rows.Close()

	results := make([]store.PersonSummary, 0)
	for rows.Next() {
		p, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetPerson returns one person of the latest completed ingestion together
// with aliases, spouses and immediate relatives.
func (s *Store) GetPerson(ctx context.Context, publicID string) (*store.PersonDetail, error) {
	ingestionID, _, _, ok, err := s.latestCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest ingestion: %w", err)
	}
	if !ok {
		return nil, store.ErrNotFound
	}

	var detail store.PersonDetail
	var rowID int64
	var lines []int32
	row := s.conn.QueryRow(ctx, `
		SELECT id, public_id, display_name, generation,
		       birth_year, birth_circa, death_year, death_circa,
		       notes, source_lines
		FROM persons
		WHERE ingestion_id = $1 AND public_id = $2`,
		ingestionID, publicID,
	)
	err = row.Scan(
		&rowID, &detail.ID, &detail.DisplayName, &detail.Generation,
		&detail.BirthYear, &detail.BirthCirca, &detail.DeathYear, &detail.DeathCirca,
		&detail.Notes, &lines,
	)
	if err != nil {
		if err == pgxv5.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	detail.SourceLines = toInts(lines)

	rows, err := s.conn.Query(ctx, `
		SELECT alias_name
		FROM person_aliases
		WHERE person_id = $1
		ORDER BY id`,
		rowID,
	)
	if err != nil {
		return nil, fmt.Errorf("get aliases: %w", err)
	}
	defer rows.Close()

	aliases := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		aliases = append(aliases, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	detail.Aliases = store.DedupeStrings(aliases)

	rows, err = s.conn.Query(ctx, `
		SELECT o.public_id, o.display_name, o.generation,
		       o.birth_year, o.birth_circa, o.death_year, o.death_circa,
		       m.marriage_order, m.is_remarriage
		FROM marriages m
		JOIN persons o ON o.id = CASE
			WHEN m.spouse1_id = $1 THEN m.spouse2_id
			ELSE m.spouse1_id
		END
		WHERE m.spouse1_id = $1 OR m.spouse2_id = $1
		ORDER BY m.marriage_order, m.id`,
		rowID,
	)
	if err != nil {
		return nil, fmt.Errorf("get spouses: %w", err)
	}
	defer rows.Close()

	detail.Spouses = make([]store.SpouseSummary, 0)
	for rows.Next() {
		var sp store.SpouseSummary
		err := rows.Scan(
			&sp.ID, &sp.DisplayName, &sp.Generation,
			&sp.BirthYear, &sp.BirthCirca, &sp.DeathYear, &sp.DeathCirca,
			&sp.Ordinal, &sp.IsRemarriage,
		)
		if err != nil {
			return nil, err
		}
		detail.Spouses = append(detail.Spouses, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query(ctx, `
		SELECT pp.public_id, pp.display_name, pp.generation,
		       pp.birth_year, pp.birth_circa, pp.death_year, pp.death_circa
		FROM parent_child pc
		JOIN persons pp ON pp.id = pc.parent_id
		WHERE pc.child_id = $1
		ORDER BY pc.id`,
		rowID,
	)
	if err != nil {
		return nil, fmt.Errorf("get parents: %w", err)
	}
	defer rows.Close()

	detail.Parents = make([]store.PersonSummary, 0)
	for rows.Next() {
		p, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		detail.Parents = append(detail.Parents, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query(ctx, `
		SELECT cp.public_id, cp.display_name, cp.generation,
		       cp.birth_year, cp.birth_circa, cp.death_year, cp.death_circa
		FROM parent_child pc
		JOIN persons cp ON cp.id = pc.child_id
		WHERE pc.parent_id = $1
		ORDER BY cp.birth_year ASC NULLS LAST, cp.display_name`,
		rowID,
	)
	if err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}
	defer rows.Close()

	detail.Children = make([]store.PersonSummary, 0)
	for rows.Next() {
		p, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		detail.Children = append(detail.Children, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &detail, nil
}
