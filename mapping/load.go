// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Delimiter selects the separator of text mapping files.
type Delimiter string

const (
	DelimiterAuto  Delimiter = "auto"
	DelimiterTab   Delimiter = "tab"
	DelimiterComma Delimiter = "comma"
	DelimiterPipe  Delimiter = "pipe"
)

// candidates in detection order.
var candidates = []Delimiter{DelimiterTab, DelimiterComma, DelimiterPipe}

// ParseDelimiter validates a delimiter name.
func ParseDelimiter(s string) (Delimiter, error) {
	switch d := Delimiter(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DelimiterAuto, nil
	case DelimiterAuto, DelimiterTab, DelimiterComma, DelimiterPipe:
		return d, nil
	}

	return DelimiterAuto, fmt.Errorf("unknown delimiter %q (want auto, tab, comma or pipe)", s)
}

// Rune returns the separator character.
func (d Delimiter) Rune() rune {
	switch d {
	case DelimiterComma:
		return ','
	case DelimiterPipe:
		return '|'
	default:
		return '\t'
	}
}

// maxSniffLines bounds the lines inspected by DetectDelimiter.
const maxSniffLines = 20

// DetectDelimiter picks the first candidate (tab, comma, pipe) that shows up
// the same, non-zero, number of times on every sampled non-empty line. When
// none is consistent, the one present on most lines is used; tab otherwise.
func DetectDelimiter(sample []byte) Delimiter {
	var lines []string

	sc := bufio.NewScanner(bytes.NewReader(sample))
	for sc.Scan() && len(lines) < maxSniffLines {
		if line := sc.Text(); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return DelimiterTab
	}

	best, bestLines := DelimiterTab, 0

	for _, d := range candidates {
		sep := string(d.Rune())
		want := strings.Count(lines[0], sep)
		consistent := want > 0
		present := 0

		for _, line := range lines {
			n := strings.Count(line, sep)
			if n > 0 {
				present++
			}

			if n != want {
				consistent = false
			}
		}

		if consistent {
			return d
		}

		if present > bestLines {
			best, bestLines = d, present
		}
	}

	return best
}

// Load reads a mapping table. Spreadsheets (.xlsx, .xlsm) are read from their
// first sheet; anything else is delimited text. Columns are label first and
// code second; rows with an empty cell are discarded.
func Load(path string, delim Delimiter) (*Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readSheet(path)
	default:
		rows, err = readDelimited(path, delim)
	}

	if err != nil {
		return nil, fmt.Errorf("loading mapping table %s: %w", path, err)
	}

	return fromRows(rows), nil
}

// LoadReader reads a delimited mapping table from r.
func LoadReader(r io.Reader, delim Delimiter) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	rows, err := parseDelimited(data, delim)
	if err != nil {
		return nil, err
	}

	return fromRows(rows), nil
}

func fromRows(rows [][]string) *Table {
	entries := make([]Entry, 0, len(rows))

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}

		label, code := CleanCell(row[0]), CleanCell(row[1])
		if label == "" || code == "" {
			continue
		}

		entries = append(entries, Entry{Code: code, Label: label})
	}

	return NewTable(entries)
}

func readDelimited(path string, delim Delimiter) ([][]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	return parseDelimited(data, delim)
}

func parseDelimited(data []byte, delim Delimiter) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if delim == DelimiterAuto || delim == "" {
		delim = DetectDelimiter(data)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim.Rune()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s separated file: %w", delim, err)
	}

	return rows, nil
}

func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("no sheets found in workbook")
	}

	return f.GetRows(sheet)
}
