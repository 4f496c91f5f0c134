// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papercut-engine/internal/knowledge"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the knowledge store (ingest, search, list, export)",
	Long: `Knowledge manages a local SQLite store holding the motif catalog, with
FTS5 full-text search, and the annotation records saved by annotate --save
and batch --save.`,
}

// --- ingest subcommand ---

var knowledgeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the motif catalog into the knowledge store",
	Long: `Ingest replaces the stored catalog with the configured knowledge base.
A catalog whose version is already stored is skipped.`,
	RunE: runKnowledgeIngest,
}

func runKnowledgeIngest(cmd *cobra.Command, args []string) error {
	cfg, err := knowledgeConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.IngestCatalog(cmd.Context(), cat, os.Stdout)
	return err
}

// --- search subcommand ---

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over stored motifs",
	Long: `Search matches every query term against motif names, aliases,
descriptions, symbolism and cultural background. Results are ranked by
relevance; with only --region they are sorted by id.`,
	RunE: runKnowledgeSearch,
}

func runKnowledgeSearch(cmd *cobra.Command, args []string) error {
	region, _ := cmd.Flags().GetString("region")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	q := knowledge.MotifQuery{Query: strings.Join(args, " "), Region: region, MaxResults: limit}
	if q.Query == "" && q.Region == "" {
		return fmt.Errorf("query or filter required: provide search terms or --region")
	}

	cfg, err := knowledgeConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.SearchMotifs(cmd.Context(), q)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeOutput(os.Stdout, results, "json")
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("%-4s  %-14s  %-28s  %s\n", "Rank", "ID", "Name", "Symbolism")
	fmt.Println(strings.Repeat("-", 96))
	for i, r := range results {
		fmt.Printf("%-4d  %-14s  %-28s  %s\n",
			i+1, r.ID, truncate(r.Name, 28), truncate(strings.Join(r.Symbolism, ", "), 44))
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}

// --- list subcommand ---

var knowledgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored annotation records",
	RunE:  runKnowledgeList,
}

func runKnowledgeList(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := knowledgeConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListAnnotations(cmd.Context(), annotationQueryFromFlags(cmd))
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeOutput(os.Stdout, records, "json")
	}

	if len(records) == 0 {
		fmt.Println("No annotations stored.")
		return nil
	}
	fmt.Printf("%-36s  %-10s  %-24s  %-6s  %s\n", "ID", "Category", "Best match", "Score", "Source")
	fmt.Println(strings.Repeat("-", 110))
	for _, rec := range records {
		best, score := "-", "-"
		if rec.BestMatch != nil {
			best = truncate(rec.BestMatch.Name, 24)
			score = fmt.Sprintf("%.3f", rec.BestMatch.Similarity)
		}
		fmt.Printf("%-36s  %-10s  %-24s  %-6s  %s\n", rec.ID, rec.Category, best, score, rec.Source)
	}
	fmt.Printf("\n%d records\n", len(records))
	return nil
}

// --- export subcommand ---

var knowledgeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored annotations to YAML or JSON",
	Long: `Export writes stored annotations (or a filtered subset) to
<store-dir>/index/annotations.yaml or annotations.json. Each entry carries
the best-match motif and its regions.`,
	RunE: runKnowledgeExport,
}

func runKnowledgeExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg, err := knowledgeConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	q := annotationQueryFromFlags(cmd)
	switch format {
	case "yaml", "":
		if err := store.ExportYAML(cmd.Context(), q); err != nil {
			return err
		}
		fmt.Println("Exported to", store.ExportPath("yaml"))
	case "json":
		if err := store.ExportJSON(cmd.Context(), q); err != nil {
			return err
		}
		fmt.Println("Exported to", store.ExportPath("json"))
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

// --- shared helpers ---

func knowledgeConfig(cmd *cobra.Command) (types.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("store-dir") {
		cfg.Store.Dir, _ = cmd.Flags().GetString("store-dir")
	}
	if cmd.Flags().Changed("max-results") {
		cfg.Store.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}
	return cfg, nil
}

func annotationQueryFromFlags(cmd *cobra.Command) knowledge.AnnotationQuery {
	category, _ := cmd.Flags().GetString("category")
	motif, _ := cmd.Flags().GetString("motif")
	limit, _ := cmd.Flags().GetInt("limit")
	return knowledge.AnnotationQuery{Category: category, Motif: motif, MaxResults: limit}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	knowledgeCmd.PersistentFlags().String("store-dir", "knowledge", "base directory for the store (contains index/)")
	knowledgeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	knowledgeSearchCmd.Flags().String("region", "", "filter by region id")
	knowledgeSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	knowledgeSearchCmd.Flags().Bool("json", false, "output results as JSON")

	for _, c := range []*cobra.Command{knowledgeListCmd, knowledgeExportCmd} {
		c.Flags().String("category", "", "filter by dataset category")
		c.Flags().String("motif", "", "filter by best-match motif id")
	}
	knowledgeListCmd.Flags().Int("limit", 0, "maximum records (0 = use default)")
	knowledgeListCmd.Flags().Bool("json", false, "output records as JSON")
	knowledgeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	knowledgeCmd.AddCommand(knowledgeIngestCmd)
	knowledgeCmd.AddCommand(knowledgeSearchCmd)
	knowledgeCmd.AddCommand(knowledgeListCmd)
	knowledgeCmd.AddCommand(knowledgeExportCmd)

	rootCmd.AddCommand(knowledgeCmd)
}
