// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html/charset"
)

// ReadCSV parses CSV records. encoding is an optional charset label.
func ReadCSV(r io.Reader, encoding string) (*Table, error) {
	if encoding != "" {
		decoded, err := charset.NewReaderLabel(encoding, r)
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", encoding, err)
		}

		r = decoded
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}

	return fromRows(rows)
}

// WriteCSV writes the header and every record in order.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range t.Records {
		if err := cw.Write(t.Row(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func readCSVFile(path, encoding string) (*Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f, encoding)
}

func writeCSVFile(path string, t *Table) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	return errors.Join(WriteCSV(f, t), f.Close())
}
