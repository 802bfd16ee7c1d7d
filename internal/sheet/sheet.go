// Package sheet wraps tealeg/xlsx with the few workbook operations the
// regression sweep needs.
package sheet

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// MaxNameLen is Excel's limit on sheet name length.
const MaxNameLen = 31

// Options selects which sheet ReadRows reads.
type Options struct {
	SheetIndex int // 1-based; default 1
}

// ErrSheetNotFound is returned when the requested sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook is an open xlsx file.
type Workbook struct {
	File *xlsx.File
	Path string
}

// Open reads an xlsx file from disk.
func Open(path string) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sheet: open %s", path)
	}
	return &Workbook{File: f, Path: path}, nil
}

// OpenFirst opens the first path that exists on disk.
func OpenFirst(paths ...string) (*Workbook, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, eris.Wrapf(err, "sheet: stat %s", p)
		}
		return Open(p)
	}
	return nil, eris.Wrapf(fs.ErrNotExist, "sheet: none of %v exist", paths)
}

// SheetAt returns the sheet at a 1-based position.
func (w *Workbook) SheetAt(index int) (*xlsx.Sheet, error) {
	if index < 1 || index > len(w.File.Sheets) {
		return nil, eris.Wrapf(ErrSheetNotFound, "sheet: index %d out of range (file has %d sheets)", index, len(w.File.Sheets))
	}
	return w.File.Sheets[index-1], nil
}

// Save writes the workbook to path, or to the path it was opened from.
func (w *Workbook) Save(path string) error {
	if path == "" {
		path = w.Path
	}
	if err := w.File.Save(path); err != nil {
		return eris.Wrapf(err, "sheet: save %s", path)
	}
	w.Path = path
	return nil
}

// ReadRows reads an xlsx file and returns the selected sheet's rows as
// string slices.
func ReadRows(path string, opts Options) ([][]string, error) {
	wb, err := Open(path)
	if err != nil {
		return nil, err
	}

	s, err := wb.pick(opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		rows = append(rows, RowStrings(row))
	}
	return rows, nil
}

func (w *Workbook) pick(opts Options) (*xlsx.Sheet, error) {
	index := opts.SheetIndex
	if index == 0 {
		index = 1
	}
	return w.SheetAt(index)
}

// RowStrings returns the cell values of a row.
func RowStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cell.String()
	}
	return cells
}

// CellAt returns the value at a 0-based column, or "" when the row is short.
func CellAt(cells []string, col int) string {
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// SetCell writes a string at 0-based row and column, growing the sheet as
// needed.
func SetCell(s *xlsx.Sheet, row, col int, value string) {
	s.Cell(row, col).SetString(value)
}

// SafeName turns name into a valid, unique Excel sheet name. taken records
// names already used in the workbook and is updated.
func SafeName(name string, taken map[string]bool) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '?', '*', '[', ']', ':':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = "Sheet"
	}
	cleaned = truncate(cleaned, MaxNameLen)

	candidate := cleaned
	for n := 2; taken[strings.ToLower(candidate)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		candidate = truncate(cleaned, MaxNameLen-len(suffix)) + suffix
	}
	taken[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
