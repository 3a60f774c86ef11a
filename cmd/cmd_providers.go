// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geodist/geocode"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the available geocoding providers",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		printProviders(os.Stdout)
	},
}

func printProviders(w io.Writer) {
	a, b, c, d := strings.Repeat("─", 10), strings.Repeat("─", 8), strings.Repeat("─", 11), strings.Repeat("─", 7)

	fmt.Fprintf(w, "╭─%-10s─┬─%-8s─┬─%-11s─┬─%-7s─╮\n", a, b, c, d)
	fmt.Fprintf(w, "│ %-10s │ %-8s │ %-11s │ %-7s │\n", "Name", "Pacing", "Concurrency", "API key")
	fmt.Fprintf(w, "├─%-10s─┼─%-8s─┼─%-11s─┼─%-7s─┤\n", a, b, c, d)

	for i, k := range geocode.ProviderKinds() {
		name := k.String()
		if i == 0 {
			name += "*"
		}

		key := "no"
		if k == geocode.Google {
			key = "yes"
		}

		p := k.DefaultPolicy()
		fmt.Fprintf(w, "│ %-10s │ %8s │ %11d │ %-7s │\n", name, p.Pacing, p.MaxConcurrency, key)
	}

	fmt.Fprintf(w, "╰─%-10s─┴─%-8s─┴─%-11s─┴─%-7s─╯\n", a, b, c, d)
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
