// Package benchmark loads human-labelled benchmark answers from spreadsheet
// sheets whose column layout varies between mentors.
package benchmark

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mentor-regress/internal/model"
	"github.com/sells-group/mentor-regress/internal/sheet"
)

// Loader reads benchmark sheets from one workbook.
type Loader struct {
	path string
}

// NewLoader creates a Loader for the workbook at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the workbook path.
func (l *Loader) Path() string {
	return l.path
}

// Load returns the benchmark records of the sheet at a 1-based index, keyed
// by 1-based data row position. A missing workbook or sheet yields an empty
// benchmark and no error. Any other read failure yields an empty benchmark
// and the error, so callers can carry on with an unknown baseline.
func (l *Loader) Load(sheetIndex int) (model.Benchmark, error) {
	log := zap.L().With(zap.String("benchmark", l.path), zap.Int("sheet", sheetIndex))

	if _, err := os.Stat(l.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("benchmark: file not found, comparing against an empty baseline")
			return model.Benchmark{}, nil
		}
		return model.Benchmark{}, eris.Wrap(err, "benchmark: stat file")
	}

	rows, err := sheet.ReadRows(l.path, sheet.Options{SheetIndex: sheetIndex})
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			log.Warn("benchmark: sheet not found, comparing against an empty baseline", zap.Error(err))
			return model.Benchmark{}, nil
		}
		return model.Benchmark{}, eris.Wrap(err, "benchmark: read sheet")
	}

	b := Parse(rows)

	counts := b.QualityCounts()
	log.Info("benchmark: loaded",
		zap.Int("records", len(b)),
		zap.Int("good", counts[model.QualityGood]),
		zap.Int("bad", counts[model.QualityBad]),
		zap.Int("neutral", counts[model.QualityNeutral]),
		zap.Int("unknown", counts[model.QualityUnknown]),
	)
	return b, nil
}

// Parse builds benchmark records from sheet rows, the first being the header.
// Rows with a blank prompt are skipped but still consume a row position.
func Parse(rows [][]string) model.Benchmark {
	b := model.Benchmark{}
	if len(rows) == 0 {
		return b
	}

	cols := DiscoverColumns(rows[0])
	for i, cells := range rows[1:] {
		prompt := strings.TrimSpace(sheet.CellAt(cells, cols.Prompt))
		if prompt == "" {
			continue
		}

		rowID := i + 1
		qualityLabel := strings.TrimSpace(sheet.CellAt(cells, cols.Quality))
		ratingLabel := strings.TrimSpace(sheet.CellAt(cells, cols.Rating))

		b[rowID] = model.BenchmarkRecord{
			RowID:       rowID,
			Prompt:      sheet.CellAt(cells, cols.Prompt),
			Response:    sheet.CellAt(cells, cols.Response),
			Sources:     sheet.CellAt(cells, cols.Sources),
			Quality:     resolveQuality(qualityLabel, ratingLabel),
			QualityMark: strings.ToLower(qualityLabel),
		}
	}
	return b
}
