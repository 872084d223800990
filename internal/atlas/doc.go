// Package atlas builds and executes atlasreader commands, the external
// cluster-extraction tool, and provides the extraction-mode batch processor.
//
// Each item runs:
//
//	atlasreader <map> <min-cluster-size> --outdir <dir> --threshold <t> --direction <dir>
//
// The tool writes its cluster and peak tables into <dir>; they are opaque to
// this package. Stdout and stderr are captured separately and kept verbatim
// on failure.
//
// Files:
//   - builder.go: Build (argument slice)
//   - executor.go: Execute (subprocess, capture, timeout)
//   - errors.go: ToolError and stderr classification
//   - processor.go: Processor
package atlas
