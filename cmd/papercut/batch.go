// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papercut-engine/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch [dataset-root]",
	Short: "Annotate a dataset of images organized by category",
	Long: `Batch walks <dataset-root>/<category>/ for images, annotates each one,
and writes the records grouped by category to a JSON file. Missing category
directories are skipped with a warning; images that fail are reported and
counted without stopping the run.

Use --save to also persist every record to the knowledge store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringSlice("categories", nil, "category directories to walk (default: every sub-directory)")
	batchCmd.Flags().Int("workers", 0, "concurrent annotations (default 4)")
	batchCmd.Flags().String("output", "", "output JSON file (default dataset_annotations.json)")
	batchCmd.Flags().Bool("save", false, "save records to the knowledge store")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	cfg := eng.cfg.Batch
	if len(args) > 0 {
		cfg.Root = args[0]
	}
	if cfg.Root == "" {
		return fmt.Errorf("provide a dataset root directory")
	}
	if cmd.Flags().Changed("categories") {
		cfg.Categories, _ = cmd.Flags().GetStringSlice("categories")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output, _ = cmd.Flags().GetString("output")
	}

	var saver batch.Saver
	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := openStore(eng.cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		saver = store
	}

	res, err := batch.NewRunner(eng.annotator, saver, cfg, logger).Run(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	if err := batch.WriteJSON(cfg.Output, res); err != nil {
		return err
	}
	batch.PrintSummary(os.Stdout, res)
	fmt.Printf("results written to %s\n", cfg.Output)

	if res.HasFailures() {
		return fmt.Errorf("%d image(s) failed annotation", res.Failed)
	}
	return nil
}
