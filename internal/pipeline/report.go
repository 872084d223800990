package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Report is the serialized form of a Summary.
type Report struct {
	RunID             string        `json:"run_id" yaml:"run_id"`
	Mode              string        `json:"mode" yaml:"mode"`
	State             State         `json:"state" yaml:"state"`
	Root              string        `json:"root" yaml:"root"`
	OutputRoot        string        `json:"output_root" yaml:"output_root"`
	Total             int           `json:"total" yaml:"total"`
	Succeeded         int           `json:"succeeded" yaml:"succeeded"`
	Failed            int           `json:"failed" yaml:"failed"`
	Rejected          int           `json:"rejected" yaml:"rejected"`
	MissingCategories []string      `json:"missing_categories,omitempty" yaml:"missing_categories,omitempty"`
	StartedAt         time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time     `json:"finished_at" yaml:"finished_at"`
	Items             []ReportEntry `json:"items" yaml:"items"`
}

// ReportEntry is one Result in a Report.
type ReportEntry struct {
	Category   string `json:"category" yaml:"category"`
	Variant    string `json:"variant" yaml:"variant"`
	Input      string `json:"input" yaml:"input"`
	Output     string `json:"output" yaml:"output"`
	Succeeded  bool   `json:"succeeded" yaml:"succeeded"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

// NewReport converts s for serialization.
func NewReport(s *Summary) Report {
	r := Report{
		RunID:             s.RunID,
		Mode:              s.Mode,
		State:             s.State(),
		Root:              s.Root,
		OutputRoot:        s.OutputRoot,
		Total:             s.Total,
		Succeeded:         s.Succeeded,
		Failed:            s.Failed,
		Rejected:          s.Rejected,
		MissingCategories: s.MissingCategories,
		StartedAt:         s.StartedAt,
		FinishedAt:        s.FinishedAt,
		Items:             make([]ReportEntry, 0, len(s.Results)),
	}
	for _, res := range s.Results {
		e := ReportEntry{
			Category:   res.Item.Category,
			Variant:    res.Item.VariantKey,
			Input:      res.Item.Path,
			Output:     res.Target.Path(),
			Succeeded:  res.Succeeded,
			Message:    res.Message,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
		r.Items = append(r.Items, e)
	}
	return r
}

// WriteReport writes s to path as JSON or YAML, chosen by extension.
func WriteReport(path string, s *Summary) error {
	r := NewReport(s)
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		return fmt.Errorf("unsupported report format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
