// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/geodist/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
