// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is an annotation summary with its best-match motif.
type ExportEntry struct {
	ID           string       `json:"id" yaml:"id"`
	Source       string       `json:"source" yaml:"source"`
	Category     string       `json:"category,omitempty" yaml:"category,omitempty"`
	CreatedAt    string       `json:"created_at" yaml:"created_at"`
	MainSubjects []string     `json:"main_subjects" yaml:"main_subjects"`
	Symbolism    []string     `json:"symbolism" yaml:"symbolism"`
	Motif        *ExportMotif `json:"best_match,omitempty" yaml:"best_match,omitempty"`
}

// ExportMotif holds the motif fields included in each export entry.
type ExportMotif struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Similarity float64  `json:"similarity" yaml:"similarity"`
	Regions    []string `json:"regions,omitempty" yaml:"regions,omitempty"`
}

const exportLimit = 100000

// ExportPath returns the file an export in format ("yaml" or "json") is
// written to.
func (s *Store) ExportPath(format string) string {
	return filepath.Join(s.dir, indexDir, "annotations."+strings.ToLower(format))
}

// ExportYAML writes stored annotations to index/annotations.yaml.
func (s *Store) ExportYAML(ctx context.Context, q AnnotationQuery) error {
	entries, err := s.exportEntries(ctx, q)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(s.ExportPath("yaml"), data, 0o644)
}

// ExportJSON writes stored annotations to index/annotations.json.
func (s *Store) ExportJSON(ctx context.Context, q AnnotationQuery) error {
	entries, err := s.exportEntries(ctx, q)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(s.ExportPath("json"), data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, q AnnotationQuery) ([]ExportEntry, error) {
	q.MaxResults = exportLimit
	records, err := s.ListAnnotations(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(records))
	for i, rec := range records {
		entries[i] = ExportEntry{
			ID:           rec.ID,
			Source:       rec.Source,
			Category:     rec.Category,
			CreatedAt:    rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			MainSubjects: rec.ContentObject.MainSubjects,
			Symbolism:    rec.CulturalSemantic.Symbolism,
		}
		if rec.BestMatch == nil {
			continue
		}
		m := &ExportMotif{
			ID:         rec.BestMatch.MotifID,
			Name:       rec.BestMatch.Name,
			Similarity: rec.BestMatch.Similarity,
		}
		var regionsJSON sql.NullString
		err := s.db.QueryRowContext(ctx,
			`SELECT regions FROM motifs WHERE id = ?`, m.ID,
		).Scan(&regionsJSON)
		switch {
		case err == nil && regionsJSON.Valid:
			json.Unmarshal([]byte(regionsJSON.String), &m.Regions)
		case err != nil && err != sql.ErrNoRows:
			return nil, fmt.Errorf("looking up motif %s: %w", m.ID, err)
		}
		entries[i].Motif = m
	}
	return entries, nil
}
