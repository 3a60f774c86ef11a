// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package mapping translates coded field values into labels using mapping
// tables loaded from delimited text files or spreadsheets.
package mapping

import (
	"strconv"
	"strings"

	"github.com/jcodagnone/geodist/utils/textutils"
)

// Entry is one code/label pair.
type Entry struct {
	Code  string
	Label string
}

// Table is an immutable, ordered code to label mapping.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable builds a table from entries. Codes and labels are cleaned and,
// when a code repeats, the last label wins.
func NewTable(entries []Entry) *Table {
	t := &Table{index: make(map[string]int, len(entries))}

	for _, e := range entries {
		code, label := CleanCell(e.Code), CleanCell(e.Label)
		if code == "" || label == "" {
			continue
		}

		key := canonicalKey(code)
		if i, ok := t.index[key]; ok {
			t.entries[i].Label = label

			continue
		}

		t.index[key] = len(t.entries)
		t.entries = append(t.entries, Entry{Code: code, Label: label})
	}

	return t
}

// CleanCell trims whitespace and trailing commas, which mapping files
// exported by hand often carry.
func CleanCell(s string) string {
	s = textutils.Clean(s)
	for strings.HasSuffix(s, ",") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ","))
	}

	return s
}

// canonicalKey makes "1", "1.0" and "01" the same key. Anything that is not
// an integral number is used as is.
func canonicalKey(code string) string {
	if f, err := strconv.ParseFloat(code, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}

	return code
}

// Len returns the number of distinct codes.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in load order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Lookup returns the label for code.
func (t *Table) Lookup(code string) (string, bool) {
	code = CleanCell(code)
	if code == "" {
		return "", false
	}

	i, ok := t.index[canonicalKey(code)]
	if !ok {
		return "", false
	}

	return t.entries[i].Label, true
}

// Translate returns the label for value, or the trimmed value itself when
// the table has no entry for it.
func (t *Table) Translate(value string) string {
	if label, ok := t.Lookup(value); ok {
		return label
	}

	return strings.TrimSpace(value)
}
