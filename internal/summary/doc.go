// Package summary loads the study's small tabular data sets (participant
// scores and classifier accuracies) and renders them as tables.
//
// Files:
//   - scores.go: score sheet CSV, median
//   - classifier.go: classifier results TOML, significance, ranking
package summary
