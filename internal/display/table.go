package display

import (
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/backmassage/brainbatch/internal/pipeline"
)

// Align selects a column's alignment in [RenderTable].
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// RenderTable renders rows under headers with rounded borders. Missing
// cells render empty; aligns may be shorter than headers.
func RenderTable(headers []string, rows [][]string, aligns []Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// RenderResults renders one row per Result: category, variant, status,
// duration, output size, and the failure reason.
func RenderResults(s *pipeline.Summary) string {
	headers := []string{"#", "Category", "Variant", "Status", "Time", "Size", "Detail"}
	rows := make([][]string, 0, len(s.Results))
	for i, r := range s.Results {
		status, size, detail := "ok", "-", ""
		if r.Succeeded {
			if fi, err := os.Stat(r.Target.Path()); err == nil && !fi.IsDir() {
				size = FormatBytes(fi.Size())
			}
		} else {
			status = "FAILED"
			if r.Err != nil {
				detail = truncate(r.Err.Error(), 60)
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Item.Category,
			r.Item.VariantKey,
			status,
			FormatDuration(r.Duration),
			size,
			detail,
		})
	}
	return RenderTable(headers, rows, []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight})
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
