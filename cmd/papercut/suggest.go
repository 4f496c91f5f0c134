// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papercut-engine/internal/suggest"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <image>",
	Short: "Suggest motif combinations for a paper-cut image",
	Long: `Suggest annotates the image, then proposes motif combinations built
around its main subjects. Curated catalog combinations come first; when none
apply, a combination is synthesized from the annotation.

Use --with-annotation to print the annotation record alongside.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().String("theme", "", "combination theme (default: "+suggest.DefaultTheme+")")
	suggestCmd.Flags().String("format", "json", "output format: json or yaml")
	suggestCmd.Flags().Bool("with-annotation", false, "include the annotation record in the output")

	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	theme, _ := cmd.Flags().GetString("theme")
	format, _ := cmd.Flags().GetString("format")
	withAnnotation, _ := cmd.Flags().GetBool("with-annotation")

	eng, err := newEngine()
	if err != nil {
		return err
	}

	rec, err := eng.annotator.AnnotateFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("%s: %s", args[0], describeError(err))
	}

	combos := suggest.New(logger).Suggest(*rec, eng.catalog, theme)
	if !withAnnotation {
		return writeOutput(os.Stdout, combos, format)
	}
	return writeOutput(os.Stdout, struct {
		Annotation   *types.AnnotationRecord     `json:"annotation" yaml:"annotation"`
		Combinations types.CombinationSuggestion `json:"combinations" yaml:"combinations"`
	}{rec, combos}, format)
}
