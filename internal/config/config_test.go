package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/data/study", "/data/study"},
		{"single trailing slash", "/data/study/", "/data/study"},
		{"multiple trailing slashes", "/data/study///", "/data/study"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDefaultConfig_MatchesStudyScripts(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GlassBrain.Layout.Token != "ttest_output" {
		t.Errorf("glassbrain token = %q", cfg.GlassBrain.Layout.Token)
	}
	if cfg.GlassBrain.Layout.Pattern != "matches_combined_*.nii.gz" {
		t.Errorf("glassbrain pattern = %q", cfg.GlassBrain.Layout.Pattern)
	}
	if cfg.GlassBrain.DisplayMode != "lyrz" || cfg.GlassBrain.Colormap != "bwr" {
		t.Errorf("display = %q/%q", cfg.GlassBrain.DisplayMode, cfg.GlassBrain.Colormap)
	}
	if cfg.GlassBrain.Threshold != 1e-6 {
		t.Errorf("render threshold = %g, want 1e-6", cfg.GlassBrain.Threshold)
	}
	if cfg.Atlas.MinClusterSize != 40 {
		t.Errorf("min cluster size = %d, want 40", cfg.Atlas.MinClusterSize)
	}
	if cfg.Atlas.Threshold != 0.001 {
		t.Errorf("atlas threshold = %g, want 0.001", cfg.Atlas.Threshold)
	}
	if cfg.Atlas.Direction != DirectionBoth {
		t.Errorf("direction = %q, want both", cfg.Atlas.Direction)
	}
	if len(cfg.Atlas.Layout.Categories) != 4 {
		t.Errorf("comparisons = %v", cfg.Atlas.Layout.Categories)
	}
	if cfg.Run.Workers != 1 || !cfg.Run.Lock {
		t.Errorf("run = %+v", cfg.Run)
	}
}

func TestDefaultConfig_ComparisonsAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Atlas.Layout.Categories[0] = "changed"
	if DefaultComparisons[0] == "changed" {
		t.Fatal("DefaultConfig must not alias DefaultComparisons")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad color", func(c *Config) { c.Logging.Color = "rainbow" }, "color mode"},
		{"bad direction", func(c *Config) { c.Atlas.Direction = "up" }, "direction"},
		{"empty comparisons", func(c *Config) { c.Atlas.Layout.Categories = nil }, "comparisons"},
		{"duplicate comparison", func(c *Config) {
			c.Atlas.Layout.Categories = []string{"a_vs_b", "a_vs_b"}
		}, "duplicate"},
		{"glob in token", func(c *Config) { c.GlassBrain.Layout.Token = "ttest_*" }, "literal"},
		{"nested subpath", func(c *Config) { c.GlassBrain.Layout.Subpath = []string{"a/b"} }, "literal"},
		{"dotdot category", func(c *Config) { c.Atlas.Layout.Categories = []string{".."} }, "not a directory"},
		{"bad pattern", func(c *Config) { c.GlassBrain.Layout.Pattern = "[" }, "pattern"},
		{"empty pattern", func(c *Config) { c.Atlas.Layout.Pattern = "" }, "pattern"},
		{"bad display", func(c *Config) { c.GlassBrain.DisplayMode = "lyq" }, "display_mode"},
		{"bad colormap", func(c *Config) { c.GlassBrain.Colormap = "viridis" }, "colormap"},
		{"negative threshold", func(c *Config) { c.GlassBrain.Threshold = -1 }, "threshold"},
		{"zero scale", func(c *Config) { c.GlassBrain.Scale = 0 }, "scale"},
		{"zero cluster", func(c *Config) { c.Atlas.MinClusterSize = 0 }, "min_cluster_size"},
		{"negative timeout", func(c *Config) { c.Atlas.TimeoutSeconds = -5 }, "timeout"},
		{"zero workers", func(c *Config) { c.Run.Workers = 0 }, "workers"},
		{"bad report ext", func(c *Config) { c.Run.Report = "/tmp/report.txt" }, "report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		output  string
		wantErr bool
	}{
		{"sibling of token dir", "/study/ttest_output", "/study/glassbrain_outputs", false},
		{"output equals tree", "/study/ttest_output", "/study/ttest_output", true},
		{"output inside tree", "/study/ttest_output", "/study/ttest_output/out", true},
		{"output is parent of tree", "/study/ttest_output", "/study", false},
		{"similar prefix not nested", "/study/ttest_output", "/study/ttest_output2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ValidatePaths(tt.search, tt.output)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaths(%q, %q) error = %v, wantErr %v",
					tt.search, tt.output, err, tt.wantErr)
			}
		})
	}
}

func TestOutputDirDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = "/data/study"
	if got := cfg.GlassBrainOutputDir(); got != filepath.Join("/data/study", "glassbrain_outputs") {
		t.Errorf("GlassBrainOutputDir() = %q", got)
	}
	if got := cfg.AtlasOutputDir(); got != filepath.Join("/data/study", "atlasreader_outputs") {
		t.Errorf("AtlasOutputDir() = %q", got)
	}
	cfg.Atlas.OutputDir = "/elsewhere"
	if got := cfg.AtlasOutputDir(); got != "/elsewhere" {
		t.Errorf("AtlasOutputDir() override = %q", got)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brainbatch.toml")
	content := `
root = "` + filepath.ToSlash(dir) + `/study/"

[atlas]
min_cluster_size = 25
direction = "POS"

[atlas.layout]
token = "category_vs_category"
subpath = ["merged_outputs", "merged"]
pattern = "*_*.nii*"
categories = ["past_vs_present"]

[run]
workers = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Errorf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Root != filepath.Join(dir, "study") {
		t.Errorf("Root = %q", cfg.Root)
	}
	if cfg.Atlas.MinClusterSize != 25 || cfg.Atlas.Direction != DirectionPos {
		t.Errorf("atlas = %+v", cfg.Atlas)
	}
	if got := cfg.Atlas.Layout.Categories; len(got) != 1 || got[0] != "past_vs_present" {
		t.Errorf("categories = %v", got)
	}
	if cfg.Run.Workers != 4 {
		t.Errorf("workers = %d", cfg.Run.Workers)
	}
	// Untouched sections keep their defaults.
	if cfg.GlassBrain.Suffix != "glassbrain" {
		t.Errorf("glassbrain suffix = %q", cfg.GlassBrain.Suffix)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[run]\nworkerz = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("Load should reject unknown keys")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("Load should fail for a missing explicit path")
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("no config file should have been found")
	}
	if cfg.Atlas.Binary != "atlasreader" {
		t.Errorf("binary = %q", cfg.Atlas.Binary)
	}
}

func TestSampleConfig_Loads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := os.WriteFile(path, []byte(SampleConfig()), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	def := DefaultConfig()
	if cfg.Atlas.MinClusterSize != def.Atlas.MinClusterSize || cfg.GlassBrain.DisplayMode != def.GlassBrain.DisplayMode {
		t.Errorf("sample diverges from defaults: %+v", cfg)
	}
}

func TestApplyRunFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var rf RunFlags
	BindRunFlags(fs, &rf)
	if err := fs.Parse([]string{"--output", "/tmp/out/", "-j", "3", "--no-lock"}); err != nil {
		t.Fatal(err)
	}

	if err := ApplyRunFlags(fs, &cfg, ModeGlassBrain, "/data/study/", &rf); err != nil {
		t.Fatalf("ApplyRunFlags: %v", err)
	}
	if cfg.Root != "/data/study" {
		t.Errorf("Root = %q", cfg.Root)
	}
	if cfg.GlassBrain.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q", cfg.GlassBrain.OutputDir)
	}
	if cfg.Atlas.OutputDir != "" {
		t.Errorf("atlas output must stay untouched, got %q", cfg.Atlas.OutputDir)
	}
	if cfg.Run.Workers != 3 || cfg.Run.Lock {
		t.Errorf("run = %+v", cfg.Run)
	}
}

func TestApplyRunFlags_RequiresRoot(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var rf RunFlags
	BindRunFlags(fs, &rf)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if err := ApplyRunFlags(fs, &cfg, ModeAtlas, "", &rf); err == nil {
		t.Fatal("ApplyRunFlags should require a root")
	}
}

func TestApplyAtlasFlags_Comparisons(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var af AtlasFlags
	BindAtlasFlags(fs, &af)
	if err := fs.Parse([]string{"--comparisons", " past_vs_present, ,first_vs_cognitive", "--timeout", "1500ms"}); err != nil {
		t.Fatal(err)
	}
	ApplyAtlasFlags(fs, &cfg, &af)

	got := cfg.Atlas.Layout.Categories
	if len(got) != 2 || got[0] != "past_vs_present" || got[1] != "first_vs_cognitive" {
		t.Errorf("categories = %v", got)
	}
	if cfg.Atlas.TimeoutSeconds != 1 {
		t.Errorf("timeout = %d", cfg.Atlas.TimeoutSeconds)
	}
}

func TestApplyGlobalFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var g GlobalFlags
	BindGlobalFlags(fs, &g)
	if err := fs.Parse([]string{"-v", "--no-color"}); err != nil {
		t.Fatal(err)
	}
	if err := ApplyGlobalFlags(fs, &cfg, &g); err != nil {
		t.Fatal(err)
	}
	if !cfg.Logging.Verbose || cfg.Logging.Color != ColorNever {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestApplyGlassBrainFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var g GlassBrainFlags
	BindGlassBrainFlags(fs, &g)
	if err := fs.Parse([]string{"--display-mode", "XZ", "--scale", "5", "--no-colorbar"}); err != nil {
		t.Fatal(err)
	}
	ApplyGlassBrainFlags(fs, &cfg, &g)

	gb := cfg.GlassBrain
	if gb.DisplayMode != "xz" || gb.Scale != 5 || gb.Colorbar {
		t.Errorf("glassbrain = %+v", gb)
	}
	if gb.Threshold != 1e-6 {
		t.Errorf("unset --threshold changed threshold to %v", gb.Threshold)
	}
}
