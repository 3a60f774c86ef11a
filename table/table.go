// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package table reads and writes the tabular record files the enrichment
// pipeline consumes and produces.
package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions with no reader/writer.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Record is one input row, keyed by column name.
type Record map[string]string

// Table is an ordered header plus its records.
type Table struct {
	Header  []string
	Records []Record
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Header, name)
}

// AddColumn appends name to the header unless it is already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Header = append(t.Header, name)
	}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Row returns the values of r in header order; absent fields are empty.
func (t *Table) Row(r Record) []string {
	row := make([]string, len(t.Header))
	for i, col := range t.Header {
		row[i] = r[col]
	}

	return row
}

// fromRows builds a table out of a header row and data rows. Short rows are
// padded and cells beyond the header are dropped.
func fromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))

	for i, col := range rows[0] {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if col == "" {
			col = fmt.Sprintf("column_%d", i+1)
		}

		if seen[col] {
			return nil, fmt.Errorf("duplicated column %q", col)
		}

		seen[col] = true
		header[i] = col
	}

	t := &Table{
		Header:  header,
		Records: make([]Record, 0, len(rows)-1),
	}

	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}

		t.Records = append(t.Records, rec)
	}

	return t, nil
}

// ReadOptions tune how record files are read.
type ReadOptions struct {
	// Encoding is the charset label of CSV input (e.g. "windows-1252").
	// Empty means UTF-8.
	Encoding string
}

// ReadFile loads a .csv or .xlsx file.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	var (
		t   *Table
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		t, err = readCSVFile(path, opts.Encoding)
	case ".xlsx", ".xlsm":
		t, err = readXLSXFile(path)
	default:
		return nil, fmt.Errorf("reading %s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return t, nil
}

// WriteFile stores the table as .csv or .xlsx, chosen by extension.
func WriteFile(path string, t *Table) error {
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		err = writeCSVFile(path, t)
	case ".xlsx":
		err = writeXLSXFile(path, t)
	default:
		return fmt.Errorf("writing %s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
