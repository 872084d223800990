package atlas

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/brainbatch/internal/config"
	"github.com/backmassage/brainbatch/internal/layout"
	"github.com/backmassage/brainbatch/internal/logging"
	"github.com/backmassage/brainbatch/internal/pipeline"
)

// fakeTool writes an executable shell script standing in for atlasreader.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tool stand-ins need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "atlasreader")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testItem(t *testing.T) (layout.Item, layout.Target) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "past_vs_present", "early_late")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	item := layout.Item{Path: "/study/category_vs_category/past_vs_present/merged_outputs/merged/early_late.nii.gz",
		Category: "past_vs_present", VariantKey: "early_late"}
	return item, layout.Target{Dir: dir}
}

// --- Build ---

func TestBuild_FixedArguments(t *testing.T) {
	item, target := testItem(t)
	got := Build(config.DefaultConfig().Atlas, item, target)
	want := []string{
		"atlasreader", item.Path, "40",
		"--outdir", target.Dir,
		"--threshold", "0.001",
		"--direction", "both",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Build =\n  %v\nwant\n  %v", got, want)
	}
}

// --- ClassifyFailure ---

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		stderr string
		want   string
	}{
		{"ModuleNotFoundError: No module named 'nilearn'", "missing Python dependency"},
		{"nibabel.filebasedimages.ImageFileError: Cannot work out file type of \"x\"", "input is not a readable NIfTI image"},
		{"FileNotFoundError: [Errno 2] No such file or directory: 'x.nii'", "file not found"},
		{"PermissionError: [Errno 13] Permission denied", "permission denied"},
		{"usage: atlasreader [-h] ...\natlasreader: error: argument --direction: invalid choice", "rejected arguments"},
		{"Traceback ... ValueError: something new", ""},
	}
	for _, tt := range tests {
		if got := ClassifyFailure(tt.stderr); got != tt.want {
			t.Errorf("ClassifyFailure(%q) = %q, want %q", tt.stderr, got, tt.want)
		}
	}
}

// --- Process ---

func TestProcess_Success(t *testing.T) {
	item, target := testItem(t)
	cfg := config.DefaultConfig().Atlas
	cfg.Binary = fakeTool(t, `echo "args: $*"; touch "$4/clusters.csv"`)

	res := NewProcessor(cfg).Process(context.Background(), item, target)
	if !res.Succeeded {
		t.Fatalf("Process failed: %v\n%s", res.Err, res.Message)
	}
	wantStdout := "args: " + item.Path + " 40 --outdir " + target.Dir + " --threshold 0.001 --direction both\n"
	if res.Message != wantStdout {
		t.Errorf("Message = %q, want stdout verbatim %q", res.Message, wantStdout)
	}
	if _, err := os.Stat(filepath.Join(target.Dir, "clusters.csv")); err != nil {
		t.Errorf("tool output missing: %v", err)
	}
}

func TestProcess_NonZeroExit(t *testing.T) {
	item, target := testItem(t)
	cfg := config.DefaultConfig().Atlas
	cfg.Binary = fakeTool(t, `echo "partial table"; echo "ImageFileError: Cannot work out file type" >&2; exit 3`)

	res := NewProcessor(cfg).Process(context.Background(), item, target)
	if res.Succeeded {
		t.Fatal("expected failure")
	}
	var te *ToolError
	if !errors.As(res.Err, &te) {
		t.Fatalf("Err = %T %v, want *ToolError", res.Err, res.Err)
	}
	if te.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", te.ExitCode)
	}
	if te.Stdout != "partial table\n" || !strings.Contains(te.Stderr, "Cannot work out file type") {
		t.Errorf("streams not kept verbatim: stdout=%q stderr=%q", te.Stdout, te.Stderr)
	}
	if te.Hint != "input is not a readable NIfTI image" {
		t.Errorf("Hint = %q", te.Hint)
	}
	for _, want := range []string{"Return code: 3", "partial table", "Cannot work out file type"} {
		if !strings.Contains(res.Message, want) {
			t.Errorf("Message missing %q:\n%s", want, res.Message)
		}
	}
}

func TestProcess_MissingBinary(t *testing.T) {
	item, target := testItem(t)
	cfg := config.DefaultConfig().Atlas
	cfg.Binary = filepath.Join(t.TempDir(), "no-such-atlasreader")

	res := NewProcessor(cfg).Process(context.Background(), item, target)
	if res.Succeeded || !errors.Is(res.Err, ErrToolNotFound) {
		t.Errorf("result = %+v, want ErrToolNotFound", res)
	}
}

func TestProcess_Timeout(t *testing.T) {
	item, target := testItem(t)
	cfg := config.DefaultConfig().Atlas
	cfg.Binary = fakeTool(t, `exec sleep 5`)
	cfg.TimeoutSeconds = 1

	res := NewProcessor(cfg).Process(context.Background(), item, target)
	if res.Succeeded || !errors.Is(res.Err, ErrTimeout) {
		t.Errorf("result = %+v, want ErrTimeout", res)
	}
}

func TestProcess_TimeoutKillsSpawnedHelpers(t *testing.T) {
	item, target := testItem(t)
	cfg := config.DefaultConfig().Atlas
	// The backgrounded sleeper inherits stdout and stderr.
	cfg.Binary = fakeTool(t, `sleep 6 & sleep 6`)
	cfg.TimeoutSeconds = 1

	start := time.Now()
	res := NewProcessor(cfg).Process(context.Background(), item, target)
	elapsed := time.Since(start)

	if res.Succeeded || !errors.Is(res.Err, ErrTimeout) {
		t.Errorf("result = %+v, want ErrTimeout", res)
	}
	if elapsed > 4*time.Second {
		t.Errorf("Process returned after %s, want close to the 1s timeout", elapsed)
	}
}

// TestRun_ToolFailureIsolation drives the batch runner: a non-zero exit for
// the first item must not keep the second from getting its own result.
func TestRun_ToolFailureIsolation(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.Color = config.ColorNever
	cfg.Atlas.Layout.Categories = []string{"past_vs_present"}
	cfg.Atlas.Binary = fakeTool(t, `case "$1" in *early_early*) echo boom >&2; exit 1;; esac; echo ok`)

	leaf := filepath.Join(root, "category_vs_category", "past_vs_present", "merged_outputs", "merged")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"early_early.nii.gz", "late_late.nii.gz"} {
		if err := os.WriteFile(filepath.Join(leaf, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var sink strings.Builder
	log, err := logging.NewWithWriters(&cfg, &sink, &sink)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	out := filepath.Join(t.TempDir(), "atlasreader_outputs")
	opts := pipeline.Options{
		Root:       root,
		Convention: layout.Convention(cfg.Atlas.Layout),
		Output:     layout.Output{Root: out, PerVariant: true},
		Workers:    1,
	}
	s, err := pipeline.Run(context.Background(), opts, NewProcessor(cfg.Atlas), log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Total != 2 || s.Succeeded != 1 || s.Failed != 1 {
		t.Fatalf("total=%d succeeded=%d failed=%d", s.Total, s.Succeeded, s.Failed)
	}
	if s.Results[0].Succeeded || !s.Results[1].Succeeded {
		t.Errorf("wrong attribution: %+v", s.Results)
	}
	if s.Results[1].Target.Dir != filepath.Join(out, "past_vs_present", "late_late") {
		t.Errorf("target = %s", s.Results[1].Target.Dir)
	}
	wantLine := "Successfully processed late_late.nii.gz -> " + s.Results[1].Target.Dir
	if !strings.Contains(sink.String(), wantLine) {
		t.Errorf("missing %q in logs:\n%s", wantLine, sink.String())
	}
	if !strings.Contains(sink.String(), "boom") {
		t.Errorf("stderr not logged:\n%s", sink.String())
	}
}
