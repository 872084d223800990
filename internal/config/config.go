// Package config holds runtime configuration: defaults, TOML loading, CLI flag
// overrides, and validation. Defaults reproduce the study's original batch
// scripts so an empty config file runs the same jobs.
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// --- Enum types for validated string fields ---

// Direction selects which sign of a statistical map the cluster extractor
// thresholds.
type Direction string

const (
	DirectionBoth Direction = "both" // Positive and negative effects (default).
	DirectionPos  Direction = "pos"  // Positive effects only.
	DirectionNeg  Direction = "neg"  // Negative effects only.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Convention describes the fixed directory layout that discovery walks:
//
//	<root>/<Token>/<category>/<Subpath...>/<Pattern>
//
// When Categories is non-empty, only those category directories are
// searched, in the declared order.
type Convention struct {
	Token      string   `toml:"token"`
	Subpath    []string `toml:"subpath"`
	Pattern    string   `toml:"pattern"`
	Categories []string `toml:"categories"`
}

// GlassBrain configures the render mode.
type GlassBrain struct {
	Layout      Convention `toml:"layout"`
	OutputDir   string     `toml:"output_dir"`   // Default: <root>/glassbrain_outputs.
	Suffix      string     `toml:"suffix"`       // Default: "glassbrain".
	DisplayMode string     `toml:"display_mode"` // Default: "lyrz".
	Colormap    string     `toml:"colormap"`     // Default: "bwr".
	Threshold   float64    `toml:"threshold"`    // Default: 1e-6.
	Scale       int        `toml:"scale"`        // Pixels per voxel. Default: 3.
	Colorbar    bool       `toml:"colorbar"`     // Default: true.
	StripTokens []string   `toml:"strip_tokens"` // Filler words removed from titles.
}

// Atlas configures the cluster-extraction mode.
type Atlas struct {
	Layout         Convention `toml:"layout"`
	OutputDir      string     `toml:"output_dir"`       // Default: <root>/atlasreader_outputs.
	Binary         string     `toml:"binary"`           // Default: "atlasreader".
	MinClusterSize int        `toml:"min_cluster_size"` // Default: 40 voxels.
	Threshold      float64    `toml:"threshold"`        // Default: 0.001.
	Direction      Direction  `toml:"direction"`        // Default: "both".
	TimeoutSeconds int        `toml:"timeout_seconds"`  // 0 disables the timeout.
}

// Run configures batch execution.
type Run struct {
	Workers int    `toml:"workers"` // Default: 1 (sequential).
	Lock    bool   `toml:"lock"`    // Default: true. Guard the output root with a lock file.
	Report  string `toml:"report"`  // Optional .json/.yaml run report path.
	Table   bool   `toml:"table"`   // Print a per-item result table after the run.
}

// Logging configures console and file logging.
type Logging struct {
	Color   ColorMode `toml:"color"`   // Default: "auto".
	File    string    `toml:"file"`    // Optional log file path (append mode).
	Verbose bool      `toml:"verbose"` // Enable DEBUG lines.
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// overlaid by [Load] from a TOML file, and finally by CLI flags.
type Config struct {
	// Root is the study directory containing the convention token
	// directories (e.g. ".../ttest_analysis_v2"). A positional CLI argument
	// overrides it.
	Root string `toml:"root"`

	GlassBrain GlassBrain `toml:"glassbrain"`
	Atlas      Atlas      `toml:"atlas"`
	Run        Run        `toml:"run"`
	Logging    Logging    `toml:"logging"`
}

// DefaultComparisons is the declared set of category-pair comparisons the
// extraction mode iterates.
var DefaultComparisons = []string{
	"negative_vs_positive",
	"past_vs_present",
	"perception_vs_physical",
	"first_vs_cognitive",
}

// DefaultConfig returns a Config with every default populated.
func DefaultConfig() Config {
	return Config{
		GlassBrain: GlassBrain{
			Layout: Convention{
				Token:   "ttest_output",
				Subpath: []string{"matches", "merged_outputs", "merged"},
				Pattern: "matches_combined_*.nii.gz",
			},
			Suffix:      "glassbrain",
			DisplayMode: "lyrz",
			Colormap:    "bwr",
			Threshold:   1e-6,
			Scale:       3,
			Colorbar:    true,
			StripTokens: []string{"Matches", "Merged"},
		},
		Atlas: Atlas{
			Layout: Convention{
				Token:      "category_vs_category",
				Subpath:    []string{"merged_outputs", "merged"},
				Pattern:    "*_*.nii*",
				Categories: append([]string(nil), DefaultComparisons...),
			},
			Binary:         "atlasreader",
			MinClusterSize: 40,
			Threshold:      0.001,
			Direction:      DirectionBoth,
		},
		Run: Run{
			Workers: 1,
			Lock:    true,
		},
		Logging: Logging{
			Color: ColorAuto,
		},
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// GlassBrainOutputDir returns the configured render output root, defaulting
// to <root>/glassbrain_outputs.
func (c *Config) GlassBrainOutputDir() string {
	if c.GlassBrain.OutputDir != "" {
		return c.GlassBrain.OutputDir
	}
	return filepath.Join(c.Root, "glassbrain_outputs")
}

// AtlasOutputDir returns the configured extraction output root, defaulting
// to <root>/atlasreader_outputs.
func (c *Config) AtlasOutputDir() string {
	if c.Atlas.OutputDir != "" {
		return c.Atlas.OutputDir
	}
	return filepath.Join(c.Root, "atlasreader_outputs")
}

var validDisplayLetters = "xyzlr"

// Validate checks enum fields, numeric ranges, and both directory
// conventions. The atlas convention must declare its comparisons: the
// extraction mode never falls back to a wildcard.
func (c *Config) Validate() error {
	switch c.Logging.Color {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.Logging.Color)
	}

	switch c.Atlas.Direction {
	case DirectionBoth, DirectionPos, DirectionNeg:
		// valid
	default:
		return fmt.Errorf("invalid atlas direction %q (use 'both', 'pos' or 'neg')", c.Atlas.Direction)
	}

	if err := validateConvention("glassbrain", c.GlassBrain.Layout); err != nil {
		return err
	}
	if err := validateConvention("atlas", c.Atlas.Layout); err != nil {
		return err
	}
	if len(c.Atlas.Layout.Categories) == 0 {
		return errors.New("atlas: layout.categories must list the comparisons to extract")
	}

	gb := &c.GlassBrain
	if gb.DisplayMode == "" {
		return errors.New("glassbrain: display_mode must not be empty")
	}
	for _, r := range gb.DisplayMode {
		if !strings.ContainsRune(validDisplayLetters, r) {
			return fmt.Errorf("glassbrain: invalid display_mode %q (letters from %q)", gb.DisplayMode, validDisplayLetters)
		}
	}
	if gb.Colormap != "bwr" {
		return fmt.Errorf("glassbrain: unsupported colormap %q (only 'bwr')", gb.Colormap)
	}
	if gb.Threshold < 0 || math.IsNaN(gb.Threshold) {
		return errors.New("glassbrain: threshold must be >= 0")
	}
	if gb.Scale < 1 || gb.Scale > 16 {
		return fmt.Errorf("glassbrain: scale must be between 1 and 16 (got %d)", gb.Scale)
	}
	if strings.TrimSpace(gb.Suffix) == "" {
		return errors.New("glassbrain: suffix must not be empty")
	}

	a := &c.Atlas
	if strings.TrimSpace(a.Binary) == "" {
		return errors.New("atlas: binary must not be empty")
	}
	if a.MinClusterSize < 1 {
		return fmt.Errorf("atlas: min_cluster_size must be positive (got %d)", a.MinClusterSize)
	}
	if a.Threshold < 0 || math.IsNaN(a.Threshold) {
		return errors.New("atlas: threshold must be >= 0")
	}
	if a.TimeoutSeconds < 0 {
		return errors.New("atlas: timeout_seconds must be >= 0")
	}

	if c.Run.Workers < 1 {
		return fmt.Errorf("run: workers must be at least 1 (got %d)", c.Run.Workers)
	}
	if r := c.Run.Report; r != "" {
		switch strings.ToLower(filepath.Ext(r)) {
		case ".json", ".yaml", ".yml":
		default:
			return fmt.Errorf("run: report %q must end in .json, .yaml or .yml", r)
		}
	}
	return nil
}

// validateConvention checks that every segment is a single, non-empty path
// element and that the file pattern is a valid glob.
func validateConvention(section string, cv Convention) error {
	if err := validateSegment(cv.Token); err != nil {
		return fmt.Errorf("%s: layout.token: %w", section, err)
	}
	for _, s := range cv.Subpath {
		if err := validateSegment(s); err != nil {
			return fmt.Errorf("%s: layout.subpath: %w", section, err)
		}
	}
	if cv.Pattern == "" {
		return fmt.Errorf("%s: layout.pattern must not be empty", section)
	}
	if _, err := filepath.Match(cv.Pattern, ""); err != nil {
		return fmt.Errorf("%s: layout.pattern %q: %w", section, cv.Pattern, err)
	}
	seen := make(map[string]bool, len(cv.Categories))
	for _, cat := range cv.Categories {
		if err := validateSegment(cat); err != nil {
			return fmt.Errorf("%s: layout.categories: %w", section, err)
		}
		if seen[cat] {
			return fmt.Errorf("%s: layout.categories: duplicate %q", section, cat)
		}
		seen[cat] = true
	}
	return nil
}

func validateSegment(s string) error {
	switch {
	case strings.TrimSpace(s) == "":
		return errors.New("segment must not be empty")
	case s == "." || s == "..":
		return fmt.Errorf("segment %q is not a directory name", s)
	case strings.ContainsAny(s, `/\*?[`):
		return fmt.Errorf("segment %q must be a literal directory name", s)
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or
// equal to) the discovery tree. This prevents a run from discovering its
// own artifacts on the next pass. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(searchAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == searchAbs || strings.HasPrefix(outputAbs+sep, searchAbs+sep) {
		return errors.New("output directory must not be inside the discovery tree")
	}
	return nil
}
