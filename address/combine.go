// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"strings"

	"github.com/jcodagnone/geodist/table"
)

// DefaultPrimaryFields are the columns joined into the primary address.
var DefaultPrimaryFields = []string{"address1_line1", "address1_line2", "address1_city", "address1_postalcode"}

// DefaultSecondaryField holds the address the primary one is measured against.
const DefaultSecondaryField = "lms_compositestorecontactdetails"

// Combine space-joins the trimmed, non-empty values of fields.
func Combine(rec table.Record, fields []string) string {
	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		if v := strings.TrimSpace(rec[f]); v != "" {
			parts = append(parts, v)
		}
	}

	return strings.Join(parts, " ")
}
