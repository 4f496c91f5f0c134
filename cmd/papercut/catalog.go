// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the motif catalog (show, search, region, motif)",
	Long: `Catalog reads the configured knowledge base and answers lookups
without touching the knowledge store.`,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print catalog version, counts and integrity warnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", cat.Name())
		fmt.Printf("version:      %s\n", cat.Version())
		fmt.Printf("regions:      %d\n", len(cat.Regions()))
		fmt.Printf("motifs:       %d\n", len(cat.Motifs()))
		fmt.Printf("combinations: %d\n", len(cat.Combinations()))

		if warnings := cat.Warnings(); len(warnings) > 0 {
			fmt.Printf("\n%d integrity warning(s):\n", len(warnings))
			for _, w := range warnings {
				fmt.Printf("  %s\n", w)
			}
		}
		return nil
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Find motifs whose name, aliases, description or symbolism mention a keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		printMotifTable(cat.Search(strings.Join(args, " ")))
		return nil
	},
}

var catalogRegionCmd = &cobra.Command{
	Use:   "region [id]",
	Short: "List regions, or the motifs of one region",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			fmt.Printf("%-24s  %-20s  %s\n", "ID", "Name", "Style")
			fmt.Println(strings.Repeat("-", 80))
			for _, r := range cat.Regions() {
				fmt.Printf("%-24s  %-20s  %s\n", r.ID, r.Name, r.ArtisticStyle)
			}
			return nil
		}

		r, ok := cat.Region(args[0])
		if !ok {
			return fmt.Errorf("region %s not found", args[0])
		}
		fmt.Printf("%s (%s): %s\n\n", r.Name, r.ID, r.ArtisticStyle)
		printMotifTable(cat.FindByRegion(r.ID))
		return nil
	},
}

var catalogMotifCmd = &cobra.Command{
	Use:   "motif <id-or-name>",
	Short: "Print one motif with its related motifs and combinations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		m, ok := cat.FindByID(args[0])
		if !ok {
			found := cat.FindByNameOrAlias(args[0])
			if len(found) == 0 {
				return fmt.Errorf("motif %s not found", args[0])
			}
			m = found[0]
		}

		var related []string
		for _, r := range cat.Related(m.ID) {
			related = append(related, r.Name)
		}
		var combos []string
		for _, c := range cat.CombinationsContaining(m.ID) {
			combos = append(combos, c.Name)
		}
		return writeOutput(os.Stdout, struct {
			Motif        *types.Motif `json:"motif" yaml:"motif"`
			Related      []string     `json:"related,omitempty" yaml:"related,omitempty"`
			Combinations []string     `json:"combinations,omitempty" yaml:"combinations,omitempty"`
		}{m, related, combos}, format)
	},
}

func printMotifTable(motifs []*types.Motif) {
	if len(motifs) == 0 {
		fmt.Println("No motifs found.")
		return
	}
	fmt.Printf("%-14s  %-28s  %s\n", "ID", "Name", "Symbolism")
	fmt.Println(strings.Repeat("-", 90))
	for _, m := range motifs {
		fmt.Printf("%-14s  %-28s  %s\n", m.ID, truncate(m.Name, 28), truncate(strings.Join(m.Symbolism, ", "), 44))
	}
	fmt.Printf("\n%d motifs\n", len(motifs))
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	catalogMotifCmd.Flags().String("format", "yaml", "output format: json or yaml")

	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogRegionCmd)
	catalogCmd.AddCommand(catalogMotifCmd)

	rootCmd.AddCommand(catalogCmd)
}
