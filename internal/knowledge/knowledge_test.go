// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/internal/catalog/catalogtest"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.StoreConfig{Dir: filepath.Join(t.TempDir(), "knowledge"), MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ingestedStore(t *testing.T) *Store {
	t.Helper()
	store := testStore(t)
	var buf strings.Builder
	if _, err := store.IngestCatalog(context.Background(), catalogtest.New(t), &buf); err != nil {
		t.Fatal(err)
	}
	return store
}

func motifIDs(results []MotifResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func sampleRecord(id, category string, created time.Time, best *types.PatternScore) *types.AnnotationRecord {
	rec := &types.AnnotationRecord{
		ID:        id,
		Source:    "/data/" + id + ".png",
		Category:  category,
		CreatedAt: created,
		BestMatch: best,
	}
	rec.ContentObject.MainSubjects = []string{"double-wild-goose"}
	rec.CulturalSemantic.Symbolism = []string{"marital fidelity"}
	return rec
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store := testStore(t)

	tables := []string{"regions", "motifs", "motifs_fts", "combinations", "annotations", "catalog_status"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "knowledge")
	store, err := NewStore(types.StoreConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	dbPath := filepath.Join(dir, indexDir, dbFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", dbPath)
	}
	if store.maxResults != 20 {
		t.Errorf("maxResults = %d, want default 20", store.maxResults)
	}
}

func TestNewStoreReopens(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		store, err := NewStore(types.StoreConfig{Dir: dir})
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		store.Close()
	}
}

// --- ingest tests ---

func TestIngestCatalog(t *testing.T) {
	store := testStore(t)
	cat := catalogtest.New(t)

	var buf strings.Builder
	summary, err := store.IngestCatalog(context.Background(), cat, &buf)
	if err != nil {
		t.Fatalf("IngestCatalog: %v", err)
	}
	if summary.Skipped {
		t.Error("first ingest was skipped")
	}
	if summary.Regions != 3 || summary.Motifs != 7 || summary.Combinations != 3 {
		t.Errorf("summary = %+v, want 3 regions, 7 motifs, 3 combinations", summary)
	}
	if summary.Total() != 13 {
		t.Errorf("Total() = %d, want 13", summary.Total())
	}
	if !strings.Contains(buf.String(), "ingested") {
		t.Errorf("output missing ingest line: %q", buf.String())
	}

	version, err := store.CatalogVersion(context.Background(), cat.Name())
	if err != nil {
		t.Fatal(err)
	}
	if version != cat.Version() {
		t.Errorf("stored version = %q, want %q", version, cat.Version())
	}
}

func TestIngestCatalogSkipsUnchangedVersion(t *testing.T) {
	store := ingestedStore(t)

	var buf strings.Builder
	summary, err := store.IngestCatalog(context.Background(), catalogtest.New(t), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Skipped {
		t.Error("unchanged catalog was not skipped")
	}
	if !strings.Contains(buf.String(), "skipped") {
		t.Errorf("output = %q, want skipped line", buf.String())
	}
}

func TestIngestCatalogReplacesOnNewVersion(t *testing.T) {
	store := ingestedStore(t)

	kb := catalogtest.KnowledgeBase(t)
	kb.Version = "test-2"
	kb.Motifs = slices.DeleteFunc(kb.Motifs, func(m types.Motif) bool { return m.ID == "pattern_005" })
	cat, err := catalog.New(kb, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	summary, err := store.IngestCatalog(context.Background(), cat, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped || summary.Motifs != 6 {
		t.Errorf("summary = %+v, want 6 motifs ingested", summary)
	}

	results, err := store.SearchMotifs(context.Background(), MotifQuery{Query: "tiger"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("removed motif still searchable: %v", motifIDs(results))
	}
}

func TestIngestCatalogCancelled(t *testing.T) {
	store := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf strings.Builder
	if _, err := store.IngestCatalog(ctx, catalogtest.New(t), &buf); err == nil {
		t.Error("expected error for cancelled context")
	}
}

// --- search tests ---

func TestSearchMotifs(t *testing.T) {
	store := ingestedStore(t)

	tests := []struct {
		name string
		q    MotifQuery
		want []string
	}{
		{"name term", MotifQuery{Query: "goose"}, []string{"pattern_001"}},
		{"chinese alias", MotifQuery{Query: "鱼纹"}, []string{"pattern_002"}},
		{"single han character", MotifQuery{Query: "鱼"}, []string{"pattern_002"}},
		{"han character inside alias", MotifQuery{Query: "雁"}, []string{"pattern_001"}},
		{"han prefix of alias", MotifQuery{Query: "莲"}, []string{"pattern_007"}},
		{"three han characters", MotifQuery{Query: "抓髻娃"}, []string{"pattern_004"}},
		{"english substring", MotifQuery{Query: "knot"}, []string{"pattern_004"}},
		{"short and long terms", MotifQuery{Query: "fish 鱼"}, []string{"pattern_002"}},
		{"punctuation is ignored", MotifQuery{Query: "double-wild-goose!"}, []string{"pattern_001"}},
		{"region only", MotifQuery{Region: "region_sanbian"}, []string{"pattern_004", "pattern_007"}},
		{"text and region", MotifQuery{Query: "lotus", Region: "region_sanbian"}, []string{"pattern_007"}},
		{"limit", MotifQuery{MaxResults: 2}, []string{"pattern_001", "pattern_002"}},
		{"no match", MotifQuery{Query: "dragon"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.SearchMotifs(context.Background(), tt.q)
			if err != nil {
				t.Fatalf("SearchMotifs: %v", err)
			}
			got := motifIDs(results)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchMotifsAllTermsMatch(t *testing.T) {
	store := ingestedStore(t)

	results, err := store.SearchMotifs(context.Background(), MotifQuery{Query: "ward off evil"})
	if err != nil {
		t.Fatal(err)
	}
	got := motifIDs(results)
	slices.Sort(got)
	want := []string{"pattern_003", "pattern_004", "pattern_005"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if results[0].Name == "" || len(results[0].Symbolism) == 0 {
		t.Errorf("motif not fully decoded: %+v", results[0].Motif)
	}
}

func TestCombinationsFor(t *testing.T) {
	store := ingestedStore(t)

	combos, err := store.CombinationsFor(context.Background(), "pattern_007")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, c := range combos {
		ids = append(ids, c.ID)
	}
	if !slices.Equal(ids, []string{"combo_001", "combo_003"}) {
		t.Errorf("got %v, want [combo_001 combo_003]", ids)
	}
	if combos[0].CombinedName != "fish through lotus" {
		t.Errorf("CombinedName = %q", combos[0].CombinedName)
	}
}

// --- annotation tests ---

func TestSaveAndListAnnotations(t *testing.T) {
	store := ingestedStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []*types.AnnotationRecord{
		sampleRecord("b", "人物类", base.Add(time.Minute), nil),
		sampleRecord("a", "动物类", base, &types.PatternScore{MotifID: "pattern_001", Name: "double-wild-goose", Similarity: 0.8}),
	}
	for _, rec := range records {
		if err := store.SaveAnnotation(ctx, rec); err != nil {
			t.Fatalf("SaveAnnotation %s: %v", rec.ID, err)
		}
	}

	all, err := store.ListAnnotations(ctx, AnnotationQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Fatalf("want records ordered by creation time, got %+v", all)
	}
	if !all[0].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", all[0].CreatedAt, base)
	}

	byCategory, err := store.ListAnnotations(ctx, AnnotationQuery{Category: "人物类"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byCategory) != 1 || byCategory[0].ID != "b" {
		t.Errorf("category filter got %+v", byCategory)
	}

	byMotif, err := store.ListAnnotations(ctx, AnnotationQuery{Motif: "pattern_001"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byMotif) != 1 || byMotif[0].BestMatch.Similarity != 0.8 {
		t.Errorf("motif filter got %+v", byMotif)
	}
}

func TestSaveAnnotationReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rec := sampleRecord("a", "人物类", time.Now(), nil)
	if err := store.SaveAnnotation(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Category = "花样类"
	if err := store.SaveAnnotation(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := store.Annotation(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != "花样类" {
		t.Errorf("Category = %q, want replaced value", got.Category)
	}
	all, _ := store.ListAnnotations(ctx, AnnotationQuery{})
	if len(all) != 1 {
		t.Errorf("got %d records, want 1", len(all))
	}
}

func TestSaveAnnotationRequiresID(t *testing.T) {
	store := testStore(t)
	if err := store.SaveAnnotation(context.Background(), &types.AnnotationRecord{}); err == nil {
		t.Error("expected error for record without id")
	}
}

func TestAnnotationNotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.Annotation(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

// --- export tests ---

func exportFixture(t *testing.T) *Store {
	t.Helper()
	store := ingestedStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, rec := range []*types.AnnotationRecord{
		sampleRecord("a", "人物类", base, &types.PatternScore{MotifID: "pattern_001", Name: "double-wild-goose", Similarity: 0.8}),
		sampleRecord("b", "动物类", base.Add(time.Second), nil),
	} {
		if err := store.SaveAnnotation(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func TestExportYAML(t *testing.T) {
	store := exportFixture(t)
	if err := store.ExportYAML(context.Background(), AnnotationQuery{}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(store.ExportPath("yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []ExportEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	m := entries[0].Motif
	if m == nil || m.Name != "double-wild-goose" || !slices.Equal(m.Regions, []string{"region_yanan_south"}) {
		t.Errorf("best match = %+v", m)
	}
	if entries[0].CreatedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("CreatedAt = %q", entries[0].CreatedAt)
	}
	if entries[1].Motif != nil {
		t.Errorf("record without best match exported motif %+v", entries[1].Motif)
	}
}

func TestExportJSONFiltered(t *testing.T) {
	store := exportFixture(t)
	if err := store.ExportJSON(context.Background(), AnnotationQuery{Category: "动物类"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(store.ExportPath("JSON"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []ExportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "b" {
		t.Errorf("got %+v, want only b", entries)
	}
	if !slices.Equal(entries[0].MainSubjects, []string{"double-wild-goose"}) {
		t.Errorf("MainSubjects = %v", entries[0].MainSubjects)
	}
}

func TestSearchTerms(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"tiger", []string{"tiger"}},
		{"double-wild-goose", []string{"double", "wild", "goose"}},
		{`ward "off" evil*`, []string{"ward", "off", "evil"}},
		{"  鱼纹 100%_ ", []string{"鱼纹", "100"}},
	}
	for _, tt := range tests {
		if got := searchTerms(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("searchTerms(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFTSQuery(t *testing.T) {
	if got := ftsQuery(nil); got != "" {
		t.Errorf("ftsQuery(nil) = %q, want empty", got)
	}
	if got, want := ftsQuery([]string{"ward", "off", "evil"}), `"ward" "off" "evil"`; got != want {
		t.Errorf("ftsQuery = %q, want %q", got, want)
	}
}
