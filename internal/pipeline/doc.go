// Package pipeline orchestrates item discovery, per-item processing, and
// batch summary reporting.
//
// A run discovers items with a layout.Convention, resolves each target with
// a layout.Output, and hands each pair to a Processor. Failures stay with
// their item: the runner never stops early, and it returns exactly one
// Result per discovered item.
//
// Files:
//   - runner.go: Run, the sequential loop and the bounded worker pool
//   - discover.go: discovery with warnings for rejected paths
//   - result.go: Processor, Result, sentinel errors
//   - stats.go: Summary and run State
//   - lock.go: output-root lock
//   - report.go: JSON/YAML run report
package pipeline
