// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <image>...",
	Short: "Annotate paper-cut images against the motif catalog",
	Long: `Annotate extracts visual signals from each image, ranks the catalog motifs
by embedding similarity, rejects matches that contradict the visual
evidence, and prints the four-dimensional annotation record.

Images that cannot be annotated are reported and skipped; the command
fails at the end if any image failed. Use --save to persist records to the
knowledge store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().String("format", "json", "output format: json or yaml")
	annotateCmd.Flags().Bool("save", false, "save records to the knowledge store")

	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	save, _ := cmd.Flags().GetBool("save")

	eng, err := newEngine()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var records []*types.AnnotationRecord
	failed := 0
	for _, path := range args {
		rec, err := eng.annotator.AnnotateFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "failed  %s: %s\n", path, describeError(err))
			failed++
			continue
		}
		records = append(records, rec)
	}

	if save && len(records) > 0 {
		store, err := openStore(eng.cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		for _, rec := range records {
			if err := store.SaveAnnotation(ctx, rec); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "saved %d record(s) to %s\n", len(records), eng.cfg.Store.Dir)
	}

	var out any = records
	if len(records) == 1 {
		out = records[0]
	}
	if len(records) > 0 {
		if err := writeOutput(os.Stdout, out, format); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d image(s) failed annotation", failed)
	}
	return nil
}
