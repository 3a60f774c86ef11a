// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// outputSheet is the sheet written in .xlsx output.
const outputSheet = "Sheet1"

// readXLSXFile reads the first sheet of a workbook. Cells are read with their
// display formatting, so numeric codes come back as shown in the sheet.
func readXLSXFile(path string) (*Table, error) {
	f, err := excelize.OpenFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	return fromRows(rows)
}

func writeXLSXFile(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(outputSheet)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", toCells(t.Header)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range t.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		if err := sw.SetRow(cell, toCells(t.Row(rec))); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	return f.SaveAs(filepath.Clean(path))
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}

	return cells
}
