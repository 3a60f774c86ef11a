// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// isTerminal reports whether f is a character device. When f cannot be
// inspected we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugNormalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize addresses read from stdin",
	Long: `Reads one address per line and prints it followed by the normalized form
sent to the geocoder.

$ echo '#3100 NORTH RESERVE STREET MISSOULA MT 59808' | geodist debug normalize
#3100 NORTH RESERVE STREET MISSOULA MT 59808	3100 N RESERVE STREET MISSOULA MT 59808 USA
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := defaultConfig()

		country, err := cmd.Flags().GetString("country")
		if err != nil {
			return err
		}

		cfg.Country = country
		n := newNormalizer(cfg)

		input := os.Stdin
		if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Enter addresses to normalize, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			line := scanner.Text()
			fmt.Printf("%s\t%s\n", line, n.Normalize(line))
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

func newDebugGeocodeCmd() *cobra.Command {
	var (
		configPath string
		geocoder   string
		trace      bool
	)

	cmd := &cobra.Command{
		Use:   "geocode <address...>",
		Short: "Geocode one address and print the outcome as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("geocoder") {
				cfg.Geocoder = geocoder
			}

			cfg.TraceHTTP = trace

			r, closeResolver, err := newResolver(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeResolver()

			query := newNormalizer(cfg).Normalize(strings.Join(args, " "))
			out := r.Resolve(cmd.Context(), query)

			s, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(s))

			return out.Err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&geocoder, "geocoder", "", "Geocoding provider")
	cmd.Flags().BoolVar(&trace, "trace-http", false, "Display HTTP requests-responses")

	return cmd
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugNormalizeCmd)
	debugCmd.AddCommand(newDebugGeocodeCmd())

	debugNormalizeCmd.Flags().String("country", defaultConfig().Country, "Country appended to addresses with a ZIP code")
}
