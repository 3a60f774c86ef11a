// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/geodist/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func statusTable() *Table {
	return NewTable([]Entry{
		{Code: "1", Label: "Open"},
		{Code: "2", Label: "Closed"},
	})
}

func TestTranslate(t *testing.T) {
	mt := statusTable()

	tests := []struct {
		in   string
		want string
	}{
		{"1", "Open"},
		{"2", "Closed"},
		{" 1 ", "Open"},
		{"1.0", "Open"},
		{"9", "9"},
		{" 9 ", "9"},
		{"", ""},
		{"abc", "abc"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := mt.Translate(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, mt.Translate(tc.in), "translation must be deterministic")
		})
	}
}

func TestNewTableDuplicatesLastWins(t *testing.T) {
	mt := NewTable([]Entry{
		{Code: "1", Label: "Open"},
		{Code: "2", Label: "Closed"},
		{Code: "1,", Label: "Reopened,"},
		{Code: "", Label: "Dangling"},
	})

	assert.Equal(t, 2, mt.Len())
	assert.Equal(t, "Reopened", mt.Translate("1"))

	want := []Entry{{Code: "1", Label: "Reopened"}, {Code: "2", Label: "Closed"}}
	if diff := cmp.Diff(want, mt.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "Open", CleanCell("  Open,, "))
	assert.Equal(t, "Open", CleanCell("Open , "))
	assert.Equal(t, "a,b", CleanCell("a,b"))
	assert.Equal(t, "", CleanCell(" , "))
}

func TestTranslateField(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"id", "status"},
		Records: []table.Record{
			{"id": "a", "status": "1"},
			{"id": "b", "status": "9"},
			{"id": "c", "status": "2"},
			{"id": "d"},
		},
	}

	cov := TranslateField(tbl, "status", statusTable())

	assert.Equal(t, Coverage{Field: "status", Translated: 2, Total: 4, Mappings: 2}, cov)
	assert.Equal(t, []string{"id", "status", "status_translated"}, tbl.Header)

	got := make([]string, 0, tbl.Len())
	for _, rec := range tbl.Records {
		got = append(got, rec["status_translated"])
	}

	assert.Equal(t, []string{"Open", "9", "Closed", ""}, got)
	assert.Equal(t, "1", tbl.Records[0]["status"], "source field must not change")
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   Delimiter
	}{
		{"tab", "Open\t1\nClosed\t2\n", DelimiterTab},
		{"tab with trailing commas", "Open,\t1\nClosed,\t2\n", DelimiterTab},
		{"comma", "Open,1\nClosed,2\n", DelimiterComma},
		{"pipe", "Open|1\nClosed|2\n", DelimiterPipe},
		{"pipe with commas in labels", "Open|1\nClosed, Won|2\n", DelimiterPipe},
		{"empty", "", DelimiterTab},
		{"inconsistent", "Open,1\nClosed,Lost,2\nOther 3\n", DelimiterComma},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectDelimiter([]byte(tc.sample)))
		})
	}
}

func TestParseDelimiter(t *testing.T) {
	d, err := ParseDelimiter("")
	require.NoError(t, err)
	assert.Equal(t, DelimiterAuto, d)

	d, err = ParseDelimiter("PIPE")
	require.NoError(t, err)
	assert.Equal(t, DelimiterPipe, d)

	_, err = ParseDelimiter("semicolon")
	require.Error(t, err)
}

func TestLoadReader(t *testing.T) {
	input := "Open,\t1\nClosed,\t2\n\t3\nPending\t\nWon\t4\n"

	mt, err := LoadReader(strings.NewReader(input), DelimiterAuto)
	require.NoError(t, err)

	want := []Entry{
		{Code: "1", Label: "Open"},
		{Code: "2", Label: "Closed"},
		{Code: "4", Label: "Won"},
	}
	if diff := cmp.Diff(want, mt.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "status.txt")
	require.NoError(t, os.WriteFile(txt, []byte("Open|1\nClosed|2\n"), 0o600))

	mt, err := Load(txt, DelimiterAuto)
	require.NoError(t, err)
	assert.Equal(t, "Closed", mt.Translate("2"))

	mt, err = Load(txt, DelimiterPipe)
	require.NoError(t, err)
	assert.Equal(t, 2, mt.Len())

	xlsx := filepath.Join(dir, "status.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Open", 1}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Closed", 2}))
	require.NoError(t, f.SaveAs(xlsx))
	require.NoError(t, f.Close())

	mt, err = Load(xlsx, DelimiterAuto)
	require.NoError(t, err)
	assert.Equal(t, "Open", mt.Translate("1"))
	assert.Equal(t, "Closed", mt.Translate("2"))

	_, err = Load(filepath.Join(dir, "missing.csv"), DelimiterAuto)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.csv")
}
