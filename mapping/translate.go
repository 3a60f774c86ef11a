// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"github.com/jcodagnone/geodist/table"
)

// TranslatedSuffix is appended to a field name to build the derived column.
const TranslatedSuffix = "_translated"

// Coverage reports how many records a translation changed.
type Coverage struct {
	Field      string
	Translated int
	Total      int
	Mappings   int
}

// TranslatedColumn returns the derived column name for field.
func TranslatedColumn(field string) string {
	return field + TranslatedSuffix
}

// TranslateField writes <field>_translated into every record of tbl. The
// source field is never modified.
func TranslateField(tbl *table.Table, field string, mt *Table) Coverage {
	column := TranslatedColumn(field)
	tbl.AddColumn(column)

	cov := Coverage{
		Field:    field,
		Total:    tbl.Len(),
		Mappings: mt.Len(),
	}

	for _, rec := range tbl.Records {
		src := rec[field]
		dst := mt.Translate(src)
		rec[column] = dst

		if _, ok := mt.Lookup(src); ok && dst != src {
			cov.Translated++
		}
	}

	return cov
}
