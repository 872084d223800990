package check

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/backmassage/brainbatch/internal/config"
)

// mockLogger records formatted lines per level.
type mockLogger struct {
	lines []string
}

func (m *mockLogger) add(level, f string, a ...interface{}) {
	m.lines = append(m.lines, level+" "+fmt.Sprintf(f, a...))
}
func (m *mockLogger) Info(f string, a ...interface{})    { m.add("INFO", f, a...) }
func (m *mockLogger) Success(f string, a ...interface{}) { m.add("SUCCESS", f, a...) }
func (m *mockLogger) Warn(f string, a ...interface{})    { m.add("WARN", f, a...) }
func (m *mockLogger) Error(f string, a ...interface{})   { m.add("ERROR", f, a...) }
func (m *mockLogger) Debug(f string, a ...interface{})   { m.add("DEBUG", f, a...) }

func (m *mockLogger) has(level, substr string) bool {
	for _, l := range m.lines {
		if strings.HasPrefix(l, level+" ") && strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// installTool puts an executable named atlasreader on a fresh PATH.
func installTool(t *testing.T, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tool stand-ins need a POSIX shell")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "atlasreader"), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)
}

func TestCheckDeps(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("missing", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		if err := CheckDeps(&cfg); !errors.Is(err, ErrAtlasreaderNotFound) {
			t.Errorf("err = %v, want ErrAtlasreaderNotFound", err)
		}
	})
	t.Run("broken", func(t *testing.T) {
		installTool(t, "exit 2")
		if err := CheckDeps(&cfg); !errors.Is(err, ErrAtlasreaderBroken) {
			t.Errorf("err = %v, want ErrAtlasreaderBroken", err)
		}
	})
	t.Run("ok", func(t *testing.T) {
		installTool(t, `echo "atlasreader 0.3.2"`)
		if err := CheckDeps(&cfg); err != nil {
			t.Errorf("err = %v", err)
		}
	})
}

func TestRunCheck(t *testing.T) {
	installTool(t, `case "$1" in --version) exit 2;; esac; echo "usage: atlasreader"`)

	root := t.TempDir()
	leaf := filepath.Join(root, "ttest_output", "negative", "matches", "merged_outputs", "merged")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(leaf, "matches_combined_early_late.nii.gz"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Root = root
	log := &mockLogger{}
	if n := RunCheck(&cfg, log); n != 0 {
		t.Errorf("problems = %d, want 0:\n%s", n, strings.Join(log.lines, "\n"))
	}
	if !log.has("SUCCESS", "atlasreader: version unknown") {
		t.Errorf("missing --help fallback line:\n%s", strings.Join(log.lines, "\n"))
	}
	if !log.has("SUCCESS", "glassbrain: 1 statistical map(s)") {
		t.Errorf("missing glassbrain discovery line:\n%s", strings.Join(log.lines, "\n"))
	}
	if !log.has("WARN", "atlas: no matching statistical maps") {
		t.Errorf("missing atlas empty warning:\n%s", strings.Join(log.lines, "\n"))
	}
}

func TestRunCheck_MissingRoot(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := config.DefaultConfig()
	cfg.Root = filepath.Join(t.TempDir(), "nope")
	log := &mockLogger{}
	if n := RunCheck(&cfg, log); n != 2 {
		t.Errorf("problems = %d, want 2 (tool + root)", n)
	}
	if !log.has("ERROR", "Study root not found") {
		t.Errorf("lines:\n%s", strings.Join(log.lines, "\n"))
	}
}
