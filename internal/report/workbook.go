package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/mentor-regress/internal/model"
	"github.com/sells-group/mentor-regress/internal/sheet"
)

// Header is the column layout of each category sheet.
var Header = []string{
	"Serial Number",
	"Prompt",
	"Old Response (Benchmark)",
	"New Response",
	"Old Sources",
	"New Sources",
	"Benchmark Quality",
	"Degradation Reason",
	"Severity",
}

var columnWidths = []float64{15, 50, 60, 60, 40, 40, 20, 50, 15}

// Fill colours (ARGB).
const (
	headerFill = "FFC00000"
	highFill   = "FFFFC7CE"
	mediumFill = "FFFFEB9C"
	whiteFont  = "FFFFFFFF"
)

const (
	summarySheet  = "Summary"
	severityCol   = 8
	headerHeight  = 30
	minRowHeight  = 30
	maxRowHeight  = 200
	lineHeight    = 15
	summaryHeight = 20
)

// estimate row height from these columns: prompt, old, new, reason.
var heightCols = []int{1, 2, 3, 7}

// WriteWorkbook writes the degraded-responses report for s to path: one
// sheet per category group, or a single Summary sheet when the run is clean.
func WriteWorkbook(s *model.RunSummary, path string) error {
	f := xlsx.NewFile()

	if len(s.Groups) == 0 {
		if err := writeCleanSheet(f); err != nil {
			return err
		}
	} else {
		taken := make(map[string]bool, len(s.Groups))
		for _, g := range s.Groups {
			if err := writeGroupSheet(f, sheet.SafeName(g.Category, taken), g.Records); err != nil {
				return err
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeCleanSheet(f *xlsx.File) error {
	ws, err := f.AddSheet(summarySheet)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	head := ws.AddRow()
	head.SetHeight(summaryHeight)
	for _, v := range []string{"Status", "Message"} {
		head.AddCell().SetString(v)
	}
	row := ws.AddRow()
	for _, v := range []string{"OK", CleanMessage} {
		row.AddCell().SetString(v)
	}
	return nil
}

func writeGroupSheet(f *xlsx.File, name string, records []model.DegradedRecord) error {
	ws, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %q", name)
	}

	// SetColWidth takes 1-based column numbers.
	for i, w := range columnWidths {
		ws.SetColWidth(i+1, i+1, w)
	}

	head := ws.AddRow()
	head.SetHeight(headerHeight)
	hs := headerStyle()
	for _, h := range Header {
		c := head.AddCell()
		c.SetString(h)
		c.SetStyle(hs)
	}

	body := bodyStyle()
	high := severityStyle(highFill)
	medium := severityStyle(mediumFill)

	for _, rec := range records {
		row := ws.AddRow()
		row.AddCell().SetInt(rec.RowID)
		values := []string{
			rec.Prompt,
			rec.OldResponse,
			rec.NewResponse,
			rec.OldSources,
			rec.NewSources,
			rec.QualityDisplay(),
			rec.Reason,
			string(rec.Severity),
		}
		for j, v := range values {
			c := row.AddCell()
			c.SetString(v)
			switch {
			case j+1 != severityCol:
				c.SetStyle(body)
			case rec.Severity == model.SeverityHigh:
				c.SetStyle(high)
			default:
				c.SetStyle(medium)
			}
		}
		row.SetHeight(rowHeight(values))
	}
	return nil
}

// rowHeight estimates a wrapped row's height from its longest text column.
func rowHeight(values []string) float64 {
	lines := 1.0
	for _, col := range heightCols {
		text := values[col-1]
		if text == "" {
			continue
		}
		est := float64(len([]rune(text))) / columnWidths[col]
		lines = max(lines, est)
	}
	return max(minRowHeight, min(lines*lineHeight, maxRowHeight))
}

func headerStyle() *xlsx.Style {
	st := xlsx.NewStyle()
	font := xlsx.NewFont(12, "Calibri")
	font.Bold = true
	font.Color = whiteFont
	st.Font = *font
	st.Fill = *xlsx.NewFill("solid", headerFill, headerFill)
	st.Alignment = xlsx.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	st.ApplyFont = true
	st.ApplyFill = true
	st.ApplyAlignment = true
	return st
}

func bodyStyle() *xlsx.Style {
	st := xlsx.NewStyle()
	st.Alignment = xlsx.Alignment{Vertical: "top", WrapText: true}
	st.ApplyAlignment = true
	return st
}

func severityStyle(fill string) *xlsx.Style {
	st := bodyStyle()
	st.Fill = *xlsx.NewFill("solid", fill, fill)
	st.ApplyFill = true
	return st
}
