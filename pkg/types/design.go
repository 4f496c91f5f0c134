// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DesignTheme names a design generator theme.
type DesignTheme string

const (
	ThemeWedding  DesignTheme = "wedding"
	ThemeFestival DesignTheme = "festival"
	ThemeCustom   DesignTheme = "custom"
	ThemeRandom   DesignTheme = "random"
)

// DesignPattern is one motif placed in a design plan.
type DesignPattern struct {
	MotifID   string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Symbolism []string `json:"symbolism" yaml:"symbolism"`

	// Usage is the motif's primary usage scenario.
	Usage string `json:"usage" yaml:"usage"`
}

// DesignPlan is a themed paper-cut composition proposal.
type DesignPlan struct {
	Theme            string          `json:"theme" yaml:"theme"`
	Description      string          `json:"description" yaml:"description"`
	Patterns         []DesignPattern `json:"patterns" yaml:"patterns"`
	LayoutSuggestion string          `json:"layout_suggestion" yaml:"layout_suggestion"`
	ColorSuggestion  string          `json:"color_suggestion" yaml:"color_suggestion"`
}
