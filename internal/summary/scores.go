package summary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/backmassage/brainbatch/internal/display"
)

// ErrNoScores is returned for a score sheet without data rows.
var ErrNoScores = errors.New("score sheet has no rows")

// Score is one participant's T-score.
type Score struct {
	SubjectID string
	TScore    float64
}

// rowReader yields one sheet row per call and io.EOF after the last.
// *csv.Reader satisfies it directly.
type rowReader interface {
	Read() ([]string, error)
}

// LoadScores reads a score sheet from path. Workbooks (.xlsx, .xlsm) are
// read from their first sheet; anything else is parsed as CSV.
func LoadScores(path string) ([]Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var scores []Score
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		scores, err = ReadWorkbookScores(f)
	default:
		scores, err = ReadScores(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scores, nil
}

// ReadScores parses a CSV score sheet. The header must name a subject
// column ("Subject ID", "subject_id") and a score column ("TScore",
// "t_score"); matching ignores case, spaces and underscores. Other columns
// are ignored. Rows with an empty score are skipped.
func ReadScores(r io.Reader) ([]Score, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return parseScores(cr)
}

// ReadWorkbookScores parses the first sheet of an Excel workbook with the
// same header rules as [ReadScores].
func ReadWorkbookScores(r io.Reader) ([]Score, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoScores
	}
	rows, err := wb.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()
	return parseScores(&sheetRows{rows: rows})
}

// sheetRows adapts excelize's row iterator to rowReader. Raw cell values
// are used so numeric formats never round a score. Rows are padded to the
// header width because excelize drops trailing empty cells.
type sheetRows struct {
	rows  *excelize.Rows
	width int
}

func (s *sheetRows) Read() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	cols, err := s.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if s.width == 0 {
		s.width = len(cols)
	}
	for len(cols) > 0 && len(cols) < s.width {
		cols = append(cols, "")
	}
	return cols, nil
}

func parseScores(rr rowReader) ([]Score, error) {
	header, err := rr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoScores
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	subjectCol, scoreCol := -1, -1
	for i, h := range header {
		switch columnKey(h) {
		case "subjectid", "subject", "participantid":
			subjectCol = i
		case "tscore":
			scoreCol = i
		}
	}
	if subjectCol < 0 || scoreCol < 0 {
		return nil, fmt.Errorf("header %v must name a subject id and a t-score column", header)
	}

	var scores []Score
	for line := 2; ; line++ {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 0 {
			continue
		}
		if subjectCol >= len(rec) || scoreCol >= len(rec) {
			return nil, fmt.Errorf("line %d: too few columns", line)
		}
		raw := strings.TrimSpace(rec[scoreCol])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: t-score %q: %w", line, raw, err)
		}
		scores = append(scores, Score{SubjectID: strings.TrimSpace(rec[subjectCol]), TScore: v})
	}
	if len(scores) == 0 {
		return nil, ErrNoScores
	}
	return scores, nil
}

func columnKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// SortBySubject orders scores by subject id, numerically when both ids are
// numbers.
func SortBySubject(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, errA := strconv.Atoi(scores[i].SubjectID)
		b, errB := strconv.Atoi(scores[j].SubjectID)
		if errA == nil && errB == nil {
			return a < b
		}
		return scores[i].SubjectID < scores[j].SubjectID
	})
}

// Median returns the median T-score. It does not reorder scores.
func Median(scores []Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	vals := make([]float64, len(scores))
	for i, s := range scores {
		vals[i] = s.TScore
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// RenderScores renders the scores sorted by subject with each score's offset
// from the median, followed by the median line.
func RenderScores(scores []Score) string {
	sorted := append([]Score(nil), scores...)
	SortBySubject(sorted)
	med := Median(sorted)

	rows := make([][]string, 0, len(sorted))
	for _, s := range sorted {
		rows = append(rows, []string{
			s.SubjectID,
			strconv.FormatFloat(s.TScore, 'f', 1, 64),
			fmt.Sprintf("%+.1f", s.TScore-med),
		})
	}
	table := display.RenderTable(
		[]string{"Participant ID", "T-Score", "vs Median"},
		rows,
		[]display.Align{display.AlignLeft, display.AlignRight, display.AlignRight},
	)
	return table + fmt.Sprintf("\nMedian T-Score (%.1f) across %d participants\n", med, len(sorted))
}
