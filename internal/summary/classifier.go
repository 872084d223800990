package summary

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/backmassage/brainbatch/internal/display"
)

//go:embed classifier_results.toml
var sampleClassifierResults string

// SampleClassifierResults returns the study's published results file, used
// by `classifier --sample` and as a template.
func SampleClassifierResults() string { return sampleClassifierResults }

// ChanceLevel is the accuracy of a random binary classifier.
const ChanceLevel = 0.5

// Metric selects which validation scheme ranks the table.
type Metric string

const (
	MetricCV  Metric = "cv"  // k-fold cross-validation.
	MetricLOO Metric = "loo" // Leave-one-out.
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricCV, MetricLOO:
		return m, nil
	}
	return "", fmt.Errorf("invalid metric %q (use 'cv' or 'loo')", s)
}

// ClassifierResult is one category's classifier performance.
type ClassifierResult struct {
	Category    string  `toml:"category"`
	CVAccuracy  float64 `toml:"cv_accuracy"`
	CVStd       float64 `toml:"cv_std"`
	LOOAccuracy float64 `toml:"loo_accuracy"`
	CVPValue    float64 `toml:"cv_p_value"`
	LOOPValue   float64 `toml:"loo_p_value"`
}

// Accuracy returns the accuracy for m.
func (r ClassifierResult) Accuracy(m Metric) float64 {
	if m == MetricLOO {
		return r.LOOAccuracy
	}
	return r.CVAccuracy
}

// PValue returns the permutation p-value for m.
func (r ClassifierResult) PValue(m Metric) float64 {
	if m == MetricLOO {
		return r.LOOPValue
	}
	return r.CVPValue
}

type classifierFile struct {
	Result []ClassifierResult `toml:"result"`
}

// LoadClassifierResults reads a results file from path.
func LoadClassifierResults(path string) ([]ClassifierResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	results, err := DecodeClassifierResults(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}

// DecodeClassifierResults parses [[result]] tables. Unknown keys are errors.
func DecodeClassifierResults(r io.Reader) ([]ClassifierResult, error) {
	var file classifierFile
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, errors.New(strict.String())
		}
		return nil, err
	}
	if len(file.Result) == 0 {
		return nil, errors.New("no [[result]] entries")
	}
	seen := make(map[string]bool, len(file.Result))
	for i, res := range file.Result {
		if strings.TrimSpace(res.Category) == "" {
			return nil, fmt.Errorf("result %d: category must not be empty", i+1)
		}
		if seen[res.Category] {
			return nil, fmt.Errorf("result %d: duplicate category %q", i+1, res.Category)
		}
		seen[res.Category] = true
		for _, p := range []float64{res.CVPValue, res.LOOPValue, res.CVAccuracy, res.LOOAccuracy} {
			if p < 0 || p > 1 {
				return nil, fmt.Errorf("result %q: accuracies and p-values must be within [0, 1]", res.Category)
			}
		}
	}
	return file.Result, nil
}

// Significance returns "**" for p < 0.01, "*" for p < 0.05, else "".
func Significance(p float64) string {
	switch {
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	}
	return ""
}

// Rank returns a copy of results sorted by m's accuracy, best first. Ties
// keep file order.
func Rank(results []ClassifierResult, m Metric) []ClassifierResult {
	out := append([]ClassifierResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Accuracy(m) > out[j].Accuracy(m)
	})
	return out
}

// RenderClassifier renders results ranked by m with significance markers.
func RenderClassifier(results []ClassifierResult, m Metric) string {
	ranked := Rank(results, m)
	label := strings.ToUpper(string(m))

	headers := []string{"Category", label + " Accuracy"}
	if m == MetricCV {
		headers = append(headers, "CV Std")
	}
	headers = append(headers, label+" p-value", "Sig.", "vs Chance")

	rows := make([][]string, 0, len(ranked))
	significant := 0
	for _, r := range ranked {
		p := r.PValue(m)
		row := []string{r.Category, f4(r.Accuracy(m))}
		if m == MetricCV {
			row = append(row, f4(r.CVStd))
		}
		row = append(row, f4(p), Significance(p), fmt.Sprintf("%+.4f", r.Accuracy(m)-ChanceLevel))
		rows = append(rows, row)
		if p < 0.05 {
			significant++
		}
	}
	aligns := make([]display.Align, len(headers))
	for i := 1; i < len(aligns); i++ {
		aligns[i] = display.AlignRight
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%s Analysis Results:\n", label)
	b.WriteString(display.RenderTable(headers, rows, aligns))
	fmt.Fprintf(&b, "\n%d of %d categories significant at p < 0.05 (** p < 0.01, * p < 0.05)\n", significant, len(ranked))
	return b.String()
}

func f4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
