// Package check provides system diagnostics (the check command) and
// pre-run dependency validation (CheckDeps) for the cluster-extraction tool
// and the study tree.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/backmassage/brainbatch/internal/config"
	"github.com/backmassage/brainbatch/internal/layout"
)

// Sentinel errors returned by CheckDeps.
var (
	ErrAtlasreaderNotFound = errors.New("atlasreader not found on PATH")
	ErrAtlasreaderBroken   = errors.New("atlasreader found but does not run")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// versionTimeout bounds each diagnostic subprocess.
const versionTimeout = 30 * time.Second

// RunCheck prints availability of atlasreader and, when a root is
// configured, how many items each mode would process. It is informational
// only and returns the number of problems found.
func RunCheck(cfg *config.Config, log Logger) int {
	log.Info("=== System Check ===")
	problems := 0

	if !checkAtlasreader(cfg.Atlas.Binary, log) {
		problems++
	}
	if cfg.Root == "" {
		log.Warn("No study root configured; skipping discovery checks")
		return problems
	}
	if fi, err := os.Stat(cfg.Root); err != nil || !fi.IsDir() {
		log.Error("Study root not found: %s", cfg.Root)
		return problems + 1
	}
	log.Success("Study root: %s", cfg.Root)

	for _, m := range []struct {
		name string
		conv config.Convention
	}{
		{"glassbrain", cfg.GlassBrain.Layout},
		{"atlas", cfg.Atlas.Layout},
	} {
		if !checkDiscovery(m.name, layout.Convention(m.conv), cfg.Root, log) {
			problems++
		}
	}
	return problems
}

// checkAtlasreader verifies the binary resolves on PATH and logs its version.
func checkAtlasreader(binary string, log Logger) bool {
	path, err := exec.LookPath(binary)
	if err != nil {
		log.Error("%s not found", binary)
		return false
	}
	version, err := toolVersion(path)
	if err != nil {
		log.Warn("%s found at %s but did not run: %v", binary, path, err)
		return false
	}
	log.Success("%s: %s (%s)", binary, version, path)
	return true
}

// checkDiscovery reports how many items a mode would process under root.
func checkDiscovery(mode string, conv layout.Convention, root string, log Logger) bool {
	d, err := conv.Discover(root)
	if err != nil {
		log.Error("%s: %v", mode, err)
		return false
	}
	for _, cat := range d.MissingCategories {
		log.Warn("%s: comparison directory not found: %s", mode, cat)
	}
	if len(d.Rejected) > 0 {
		log.Warn("%s: %d path(s) violate the directory convention", mode, len(d.Rejected))
		for _, ce := range d.Rejected {
			log.Debug("  %s: %s", ce.Path, ce.Reason)
		}
	}
	if len(d.Items) == 0 {
		log.Warn("%s: no matching statistical maps under %s", mode, d.SearchBase)
		return true
	}
	log.Success("%s: %d statistical map(s) under %s", mode, len(d.Items), d.SearchBase)
	return true
}

// CheckDeps is the pre-run validation for the extraction mode: the
// configured binary must be on PATH and answer --version (or --help).
func CheckDeps(cfg *config.Config) error {
	path, err := exec.LookPath(cfg.Atlas.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAtlasreaderNotFound, cfg.Atlas.Binary)
	}
	if _, err := toolVersion(path); err != nil {
		return fmt.Errorf("%w: %v", ErrAtlasreaderBroken, err)
	}
	return nil
}

// --- internal helpers ---

// toolVersion returns the first line of `<path> --version`, falling back to
// `<path> --help` for builds without a version flag.
func toolVersion(path string) (string, error) {
	var lastErr error
	for _, flag := range []string{"--version", "--help"} {
		out, err := runCapture(path, flag)
		if err != nil {
			lastErr = err
			continue
		}
		line := strings.TrimSpace(out)
		if idx := strings.Index(line, "\n"); idx > 0 {
			line = line[:idx]
		}
		if flag == "--help" {
			line = "version unknown"
		}
		return line, nil
	}
	return "", lastErr
}

// runCapture runs a command with a timeout and returns combined output.
func runCapture(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}
