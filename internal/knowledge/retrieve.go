// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// MotifQuery holds parameters for motif searches.
type MotifQuery struct {
	// Query is free text matched against name, aliases, description,
	// symbolism and cultural background. Every term must match.
	Query string

	// Region filters by region id.
	Region string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// MotifResult is a stored motif with its full-text rank. Lower ranks are
// better; queries without indexed terms have rank 0.
type MotifResult struct {
	types.Motif
	Rank float64 `json:"rank" yaml:"rank"`
}

// SearchMotifs queries stored motifs. Every query term matches as a
// substring. Terms of three or more characters go through the trigram
// index and are ranked by relevance; shorter terms, such as single Han
// characters, are matched with LIKE. Queries without indexed terms are
// sorted by id.
func (s *Store) SearchMotifs(ctx context.Context, q MotifQuery) ([]MotifResult, error) {
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var indexed, short []string
	for _, t := range searchTerms(q.Query) {
		if utf8.RuneCountInString(t) >= trigramLen {
			indexed = append(indexed, t)
		} else {
			short = append(short, t)
		}
	}

	var (
		qb     strings.Builder
		args   []any
		match  = ftsQuery(indexed)
		useFTS = match != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT m.data, motifs_fts.rank
			FROM motifs_fts
			JOIN motifs m ON m.rowid = motifs_fts.rowid
			WHERE motifs_fts MATCH ?`)
		args = append(args, match)
	} else {
		qb.WriteString(`SELECT m.data, 0 AS rank FROM motifs m WHERE 1=1`)
	}

	for _, t := range short {
		qb.WriteString(` AND (m.name LIKE ? OR m.aliases LIKE ? OR m.description LIKE ?
			OR m.symbolism LIKE ? OR m.cultural_background LIKE ?)`)
		pattern := "%" + t + "%"
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}

	if q.Region != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(m.regions) WHERE value = ?)`)
		args = append(args, q.Region)
	}

	if useFTS {
		qb.WriteString(` ORDER BY motifs_fts.rank, m.id`)
	} else {
		qb.WriteString(` ORDER BY m.id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching motifs: %w", err)
	}
	defer rows.Close()

	var results []MotifResult
	for rows.Next() {
		var (
			r    MotifResult
			data string
		)
		if err := rows.Scan(&data, &r.Rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &r.Motif); err != nil {
			return nil, fmt.Errorf("decoding motif: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// CombinationsFor returns the stored combinations that include motifID, in
// id order.
func (s *Store) CombinationsFor(ctx context.Context, motifID string) ([]types.MotifCombination, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.data FROM combinations c
		WHERE EXISTS (SELECT 1 FROM json_each(c.members) WHERE value = ?)
		ORDER BY c.id`, motifID)
	if err != nil {
		return nil, fmt.Errorf("querying combinations: %w", err)
	}
	defer rows.Close()

	var out []types.MotifCombination
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var c types.MotifCombination
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("decoding combination: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AnnotationQuery holds filters for listing stored annotations.
type AnnotationQuery struct {
	// Category filters by dataset category.
	Category string

	// Motif filters by best-match motif id.
	Motif string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// ListAnnotations returns stored annotations ordered by creation time.
func (s *Store) ListAnnotations(ctx context.Context, q AnnotationQuery) ([]types.AnnotationRecord, error) {
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT a.data FROM annotations a WHERE 1=1`)
	if q.Category != "" {
		qb.WriteString(` AND a.category = ?`)
		args = append(args, q.Category)
	}
	if q.Motif != "" {
		qb.WriteString(` AND a.best_match = ?`)
		args = append(args, q.Motif)
	}
	qb.WriteString(` ORDER BY a.created_at, a.id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing annotations: %w", err)
	}
	defer rows.Close()

	var out []types.AnnotationRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var rec types.AnnotationRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decoding annotation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Annotation returns the stored annotation with the given id.
func (s *Store) Annotation(ctx context.Context, id string) (types.AnnotationRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM annotations WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.AnnotationRecord{}, fmt.Errorf("annotation %s not found", id)
		}
		return types.AnnotationRecord{}, fmt.Errorf("looking up annotation: %w", err)
	}
	var rec types.AnnotationRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return types.AnnotationRecord{}, fmt.Errorf("decoding annotation: %w", err)
	}
	return rec, nil
}

// trigramLen is the shortest term the trigram index can match.
const trigramLen = 3

// searchTerms splits free text into runs of letters and digits, so
// punctuation in user input never reaches the FTS parser or a LIKE pattern.
func searchTerms(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ftsQuery quotes each term as an FTS5 phrase; all phrases must match.
func ftsQuery(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " ")
}
