package atlas

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrToolNotFound is returned when the extraction executable cannot be
	// started.
	ErrToolNotFound = errors.New("cluster-extraction tool not found")
	// ErrTimeout is returned when an invocation exceeds its timeout.
	ErrTimeout = errors.New("cluster-extraction tool timed out")
)

// ToolError is a non-zero exit of the extraction tool. Both streams are kept
// verbatim for post-hoc diagnosis.
type ToolError struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Hint     string // Short classification of Stderr; empty when unknown.
}

func (e *ToolError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("atlasreader exited with code %d (%s)", e.ExitCode, e.Hint)
	}
	return fmt.Sprintf("atlasreader exited with code %d", e.ExitCode)
}

// Detail renders the captured streams the way they are logged and stored in
// the run report.
func (e *ToolError) Detail() string {
	return fmt.Sprintf("Return code: %d\n=== STDOUT ===\n%s\n=== STDERR ===\n%s", e.ExitCode, e.Stdout, e.Stderr)
}

// Pre-compiled regexes for classifying atlasreader stderr into short hints.
// Checked in order by [ClassifyFailure]; the first match wins.
var failureHints = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)ModuleNotFoundError|ImportError|No module named`), "missing Python dependency"},
	{regexp.MustCompile(`(?i)ImageFileError|Cannot work out file type|not a gzipped file|Invalid header`), "input is not a readable NIfTI image"},
	{regexp.MustCompile(`(?i)No such file or directory|FileNotFoundError`), "file not found"},
	{regexp.MustCompile(`(?i)Permission denied|PermissionError`), "permission denied"},
	{regexp.MustCompile(`(?i)MemoryError|Killed|out of memory`), "out of memory"},
	{regexp.MustCompile(`(?i)usage: atlasreader|error: argument|unrecognized arguments`), "rejected arguments"},
	{regexp.MustCompile(`(?i)No clusters? (were )?found|empty cluster`), "no clusters above threshold"},
}

// ClassifyFailure returns a short hint for a failed run's stderr, or "" when
// nothing matches.
func ClassifyFailure(stderr string) string {
	for _, h := range failureHints {
		if h.re.MatchString(stderr) {
			return h.hint
		}
	}
	return ""
}
