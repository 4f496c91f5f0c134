// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papercut-engine/internal/design"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Generate a themed paper-cut design plan from the catalog",
	Long: `Design proposes a combination of catalog motifs for a theme:

  wedding   fixed wedding motifs, padded with auspicious ones
  festival  Spring Festival (default) or Dragon Boat Festival presets;
            other festivals get a random selection
  custom    motifs filtered by --region and --symbolism
  random    three randomly chosen motifs

Pass --seed for a reproducible plan.`,
	RunE: runDesign,
}

func init() {
	designCmd.Flags().String("theme", "random", "theme: wedding, festival, custom, random")
	designCmd.Flags().String("festival", "", "festival name for --theme festival")
	designCmd.Flags().String("name", "", "plan name for --theme custom")
	designCmd.Flags().String("symbolism", "", "symbolism keyword for --theme custom")
	designCmd.Flags().String("region", "", "region id for --theme custom")
	designCmd.Flags().Uint64("seed", 0, "random seed (0 = random)")
	designCmd.Flags().String("format", "yaml", "output format: json or yaml")

	rootCmd.AddCommand(designCmd)
}

func runDesign(cmd *cobra.Command, args []string) error {
	theme, _ := cmd.Flags().GetString("theme")
	festival, _ := cmd.Flags().GetString("festival")
	name, _ := cmd.Flags().GetString("name")
	symbolism, _ := cmd.Flags().GetString("symbolism")
	region, _ := cmd.Flags().GetString("region")
	seed, _ := cmd.Flags().GetUint64("seed")
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	plan, err := design.NewGenerator(cat, rng).Generate(types.DesignTheme(theme), festival, design.CustomOptions{
		Theme:     name,
		Symbolism: symbolism,
		Region:    region,
	})
	if err != nil {
		return err
	}
	return writeOutput(os.Stdout, plan, format)
}
