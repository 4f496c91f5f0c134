// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge persists the motif catalog and annotation records in
// SQLite and serves full-text search over motifs.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "papercut.db"
)

// Store manages the knowledge store SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the database at dir/index/papercut.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS regions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			artistic_style TEXT,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS motifs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			aliases TEXT,
			regions TEXT,
			description TEXT,
			symbolism TEXT,
			cultural_background TEXT,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS combinations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			members TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			id TEXT PRIMARY KEY,
			source TEXT,
			category TEXT,
			created_at TEXT NOT NULL,
			best_match TEXT,
			best_score REAL,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_category ON annotations(category)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_best_match ON annotations(best_match)`,
		`CREATE TABLE IF NOT EXISTS catalog_status (
			name TEXT PRIMARY KEY,
			version TEXT NOT NULL,
			ingested_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync. The trigram tokenizer gives
	// substring matching, which Han text needs: it has no word breaks.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='motifs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE motifs_fts USING fts5(
				name, aliases, description, symbolism, cultural_background,
				content=motifs, content_rowid=rowid, tokenize='trigram')`,
			`CREATE TRIGGER motifs_ai AFTER INSERT ON motifs BEGIN
				INSERT INTO motifs_fts(rowid, name, aliases, description, symbolism, cultural_background)
				VALUES (new.rowid, new.name, new.aliases, new.description, new.symbolism, new.cultural_background);
			END`,
			`CREATE TRIGGER motifs_ad AFTER DELETE ON motifs BEGIN
				INSERT INTO motifs_fts(motifs_fts, rowid, name, aliases, description, symbolism, cultural_background)
				VALUES ('delete', old.rowid, old.name, old.aliases, old.description, old.symbolism, old.cultural_background);
			END`,
			`CREATE TRIGGER motifs_au AFTER UPDATE ON motifs BEGIN
				INSERT INTO motifs_fts(motifs_fts, rowid, name, aliases, description, symbolism, cultural_background)
				VALUES ('delete', old.rowid, old.name, old.aliases, old.description, old.symbolism, old.cultural_background);
				INSERT INTO motifs_fts(rowid, name, aliases, description, symbolism, cultural_background)
				VALUES (new.rowid, new.name, new.aliases, new.description, new.symbolism, new.cultural_background);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a catalog ingest.
type IngestSummary struct {
	Regions      int
	Motifs       int
	Combinations int

	// Skipped is set when the stored catalog already has this version.
	Skipped bool
}

// Total returns the number of catalog entries written.
func (s IngestSummary) Total() int {
	return s.Regions + s.Motifs + s.Combinations
}

// IngestCatalog replaces the stored catalog with cat. A catalog whose
// version matches the stored one is skipped.
func (s *Store) IngestCatalog(ctx context.Context, cat *catalog.Catalog, w io.Writer) (IngestSummary, error) {
	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM catalog_status WHERE name = ?`, cat.Name(),
	).Scan(&stored)
	switch {
	case err == nil && stored == cat.Version():
		fmt.Fprintf(w, "skipped %s (version %s unchanged)\n", cat.Name(), stored)
		return IngestSummary{Skipped: true}, nil
	case err != nil && err != sql.ErrNoRows:
		return IngestSummary{}, fmt.Errorf("reading catalog status: %w", err)
	}

	summary, err := s.ingest(ctx, cat)
	if err != nil {
		return IngestSummary{}, err
	}

	fmt.Fprintf(w, "ingested %s version %s\n", cat.Name(), cat.Version())
	fmt.Fprintf(w, "regions: %d, motifs: %d, combinations: %d\n",
		summary.Regions, summary.Motifs, summary.Combinations)
	return summary, nil
}

func (s *Store) ingest(ctx context.Context, cat *catalog.Catalog) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"regions", "motifs", "combinations"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return IngestSummary{}, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	var summary IngestSummary

	for _, r := range cat.Regions() {
		data, err := json.Marshal(r)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("encoding region %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO regions (id, name, artistic_style, data) VALUES (?, ?, ?, ?)`,
			r.ID, r.Name, r.ArtisticStyle, string(data),
		); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting region %s: %w", r.ID, err)
		}
		summary.Regions++
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO motifs (id, name, aliases, regions, description, symbolism, cultural_background, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range cat.Motifs() {
		data, err := json.Marshal(m)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("encoding motif %s: %w", m.ID, err)
		}
		regionsJSON, _ := json.Marshal([]string(m.RegionRefs))
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.Name, strings.Join(m.Aliases, " "), string(regionsJSON),
			m.AppearanceDescription, strings.Join(m.Symbolism, " "), m.CulturalBackground,
			string(data),
		); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting motif %s: %w", m.ID, err)
		}
		summary.Motifs++
	}

	for _, c := range cat.Combinations() {
		data, err := json.Marshal(c)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("encoding combination %s: %w", c.ID, err)
		}
		membersJSON, _ := json.Marshal(c.MemberMotifRefs)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO combinations (id, name, members, data) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, string(membersJSON), string(data),
		); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting combination %s: %w", c.ID, err)
		}
		summary.Combinations++
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO catalog_status (name, version, ingested_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET version=excluded.version, ingested_at=excluded.ingested_at`,
		cat.Name(), cat.Version(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("updating catalog status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing catalog: %w", err)
	}
	return summary, nil
}

// CatalogVersion returns the version of the stored catalog named name, or
// "" when none has been ingested.
func (s *Store) CatalogVersion(ctx context.Context, name string) (string, error) {
	var version string
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM catalog_status WHERE name = ?`, name,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading catalog status: %w", err)
	}
	return version, nil
}

// SaveAnnotation inserts rec, replacing any record with the same ID.
func (s *Store) SaveAnnotation(ctx context.Context, rec *types.AnnotationRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("annotation has no id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding annotation %s: %w", rec.ID, err)
	}

	var bestID sql.NullString
	var bestScore sql.NullFloat64
	if rec.BestMatch != nil {
		bestID = sql.NullString{String: rec.BestMatch.MotifID, Valid: true}
		bestScore = sql.NullFloat64{Float64: rec.BestMatch.Similarity, Valid: true}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO annotations (id, source, category, created_at, best_match, best_score, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source=excluded.source, category=excluded.category, created_at=excluded.created_at,
			best_match=excluded.best_match, best_score=excluded.best_score, data=excluded.data`,
		rec.ID, rec.Source, rec.Category, createdAt.UTC().Format(time.RFC3339Nano),
		bestID, bestScore, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving annotation %s: %w", rec.ID, err)
	}
	return nil
}
