package config

// This file binds CLI flags to the config. Flags are captured into plain
// structs and applied after the TOML file is loaded, so file values hold
// unless the user actually passes the flag (pflag's Changed).

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// GlobalFlags holds flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Color      bool
	NoColor    bool
	LogFile    string
}

// BindGlobalFlags registers --config, --verbose, --color, --no-color and --log.
func BindGlobalFlags(fs *pflag.FlagSet, g *GlobalFlags) {
	fs.StringVarP(&g.ConfigPath, "config", "c", "", "Configuration file path")
	fs.BoolVarP(&g.Verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVar(&g.Color, "color", false, "Force colored logs")
	fs.BoolVar(&g.NoColor, "no-color", false, "Disable colored logs")
	fs.StringVarP(&g.LogFile, "log", "l", "", "Append logs to file")
}

// ApplyGlobalFlags copies explicitly set global flags into cfg.
func ApplyGlobalFlags(fs *pflag.FlagSet, cfg *Config, g *GlobalFlags) error {
	if fs.Changed("verbose") {
		cfg.Logging.Verbose = g.Verbose
	}
	if g.NoColor {
		cfg.Logging.Color = ColorNever
	} else if g.Color {
		cfg.Logging.Color = ColorAlways
	}
	if fs.Changed("log") {
		p, err := ExpandPath(g.LogFile)
		if err != nil {
			return err
		}
		cfg.Logging.File = p
	}
	return nil
}

// RunFlags holds flags shared by the batch subcommands.
type RunFlags struct {
	Output  string
	Workers int
	NoLock  bool
	Report  string
	Table   bool
}

// BindRunFlags registers --output, --workers, --no-lock, --report and --table.
func BindRunFlags(fs *pflag.FlagSet, r *RunFlags) {
	fs.StringVarP(&r.Output, "output", "o", "", "Output root (default: <root>/<mode>_outputs)")
	fs.IntVarP(&r.Workers, "workers", "j", 1, "Items processed concurrently")
	fs.BoolVar(&r.NoLock, "no-lock", false, "Do not take the output-root lock")
	fs.StringVar(&r.Report, "report", "", "Write a run report (.json, .yaml)")
	fs.BoolVar(&r.Table, "table", false, "Print a per-item result table")
}

// Mode names the batch job a RunFlags set applies to.
type Mode string

const (
	ModeGlassBrain Mode = "glassbrain"
	ModeAtlas      Mode = "atlas"
)

// ApplyRunFlags copies explicitly set run flags and the optional positional
// root into cfg, then re-normalizes and re-validates it.
func ApplyRunFlags(fs *pflag.FlagSet, cfg *Config, mode Mode, root string, r *RunFlags) error {
	if root != "" {
		cfg.Root = root
	}
	if fs.Changed("output") {
		switch mode {
		case ModeGlassBrain:
			cfg.GlassBrain.OutputDir = r.Output
		case ModeAtlas:
			cfg.Atlas.OutputDir = r.Output
		}
	}
	if fs.Changed("workers") {
		cfg.Run.Workers = r.Workers
	}
	if r.NoLock {
		cfg.Run.Lock = false
	}
	if fs.Changed("report") {
		cfg.Run.Report = r.Report
	}
	if r.Table {
		cfg.Run.Table = true
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Root == "" {
		return fmt.Errorf("no study root given (pass <root> or set root in the config file)")
	}
	return nil
}

// BindAtlasFlags registers extraction-only overrides.
func BindAtlasFlags(fs *pflag.FlagSet, a *AtlasFlags) {
	fs.StringVar(&a.Binary, "binary", "", "Cluster-extraction executable (default: atlasreader)")
	fs.DurationVar(&a.Timeout, "timeout", 0, "Per-item tool timeout (0 = none)")
	fs.StringVar(&a.Comparisons, "comparisons", "", "Comma-separated comparisons to extract (overrides config)")
}

// AtlasFlags holds extraction-only flags.
type AtlasFlags struct {
	Binary      string
	Timeout     time.Duration
	Comparisons string
}

// ApplyAtlasFlags copies explicitly set extraction flags into cfg. It must
// run before [ApplyRunFlags] so validation sees the final comparison list.
func ApplyAtlasFlags(fs *pflag.FlagSet, cfg *Config, a *AtlasFlags) {
	if fs.Changed("binary") {
		cfg.Atlas.Binary = a.Binary
	}
	if fs.Changed("timeout") {
		secs := int(a.Timeout / time.Second)
		if a.Timeout > 0 && secs == 0 {
			secs = 1
		}
		cfg.Atlas.TimeoutSeconds = secs
	}
	if fs.Changed("comparisons") {
		var list []string
		for _, c := range strings.Split(a.Comparisons, ",") {
			if c = strings.TrimSpace(c); c != "" {
				list = append(list, c)
			}
		}
		cfg.Atlas.Layout.Categories = list
	}
}

// GlassBrainFlags holds render-only flags.
type GlassBrainFlags struct {
	DisplayMode string
	Threshold   float64
	Scale       int
	NoColorbar  bool
}

// BindGlassBrainFlags registers render-only overrides.
func BindGlassBrainFlags(fs *pflag.FlagSet, g *GlassBrainFlags) {
	fs.StringVar(&g.DisplayMode, "display-mode", "", "Projection panels, letters from xlryz (default: lyrz)")
	fs.Float64Var(&g.Threshold, "threshold", 0, "Values with |v| <= threshold are not colored (default: 1e-6)")
	fs.IntVar(&g.Scale, "scale", 0, "Pixels per voxel (default: 3)")
	fs.BoolVar(&g.NoColorbar, "no-colorbar", false, "Omit the colorbar")
}

// ApplyGlassBrainFlags copies explicitly set render flags into cfg. Like
// [ApplyAtlasFlags] it must run before [ApplyRunFlags].
func ApplyGlassBrainFlags(fs *pflag.FlagSet, cfg *Config, g *GlassBrainFlags) {
	if fs.Changed("display-mode") {
		cfg.GlassBrain.DisplayMode = strings.ToLower(g.DisplayMode)
	}
	if fs.Changed("threshold") {
		cfg.GlassBrain.Threshold = g.Threshold
	}
	if fs.Changed("scale") {
		cfg.GlassBrain.Scale = g.Scale
	}
	if g.NoColorbar {
		cfg.GlassBrain.Colorbar = false
	}
}
