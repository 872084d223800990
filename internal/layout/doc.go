// Package layout maps the study's directory convention to batch items and
// output targets.
//
// Input convention:
//
//	<root>/<token>/<category>/<subpath...>/<file>
//
// The category is the segment right after the token; the variant key is the
// file name with its statistical-map extension stripped. Every derived value
// is a pure function of the input path, so reruns resolve to the same
// targets and overwrite them.
//
// Files:
//   - convention.go: Convention, Discover, Items, ParseItem
//   - errors.go: ConventionError, ErrRootNotFound
//   - outputpath.go: Output, Target
//   - title.go: human-readable titles from variant keys
package layout
