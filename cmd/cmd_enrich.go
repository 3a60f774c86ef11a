// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"github.com/jcodagnone/geodist/address"
	"github.com/jcodagnone/geodist/batch"
	"github.com/jcodagnone/geodist/geocode"
	"github.com/jcodagnone/geodist/mapping"
	"github.com/jcodagnone/geodist/spatial"
	"github.com/jcodagnone/geodist/table"
)

func newEnrichCmd() *cobra.Command {
	flags := &enrichFlags{}

	cmd := &cobra.Command{
		Use:   "enrich <input> <output>",
		Short: "Translate fields and add the distance between record addresses",
		Long: `Reads a CSV or XLSX file, translates the mapped fields, geocodes the
primary and secondary address of every row and writes the input columns plus
<field>_translated, combined_address, distance_<unit> and geocode_status.

$ geodist enrich --statuscode-map statuscode.txt --sample 50 leads.xlsx out.csv
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}

			if err := flags.apply(cmd.Flags(), cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runEnrich(ctx, cfg, args[0], args[1])
		},
	}

	flags.register(cmd.Flags())

	return cmd
}

// runEnrich loads every input, failing before any row is processed when the
// configuration is wrong, then enriches and writes the records.
func runEnrich(ctx context.Context, cfg *Config, input, output string) error {
	unit, err := spatial.ParseUnit(cfg.Unit)
	if err != nil {
		return err
	}

	delim, err := mapping.ParseDelimiter(cfg.Delimiter)
	if err != nil {
		return err
	}

	var translations []batch.Translation

	for _, m := range cfg.Maps {
		log.Printf("Applying %s translation from: %s", m.Field, m.Path)

		mt, err := mapping.Load(m.Path, delim)
		if err != nil {
			return fmt.Errorf("loading %s mapping: %w", m.Field, err)
		}

		translations = append(translations, batch.Translation{Field: m.Field, Table: mt})
	}

	tbl, err := table.ReadFile(input, table.ReadOptions{Encoding: cfg.Encoding})
	if err != nil {
		return err
	}

	log.Printf("Loaded %d rows with %d columns from %s", tbl.Len(), len(tbl.Header), input)

	var resolver *geocode.Resolver

	if !cfg.SkipDistance {
		r, closeResolver, err := newResolver(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeResolver()

		resolver = r
	}

	o := batch.New(resolver, batch.Options{
		Translations:   translations,
		PrimaryFields:  cfg.AddressFields,
		SecondaryField: cfg.Address2Field,
		SampleSize:     cfg.Sample,
		SkipResolution: cfg.SkipDistance,
		Workers:        cfg.Workers,
		Unit:           unit,
		Normalizer:     newNormalizer(cfg),
	})

	summary, err := o.Run(ctx, tbl)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	log.Printf("Saving output to: %s", output)

	if err := table.WriteFile(output, tbl); err != nil {
		return err
	}

	log.Printf("Successfully saved %d rows to %s", tbl.Len(), output)
	summary.Log()

	return nil
}

func newNormalizer(cfg *Config) *address.Normalizer {
	opts := address.DefaultOptions()
	opts.CountrySuffix = cfg.Country
	opts.StripUnitTokens = !cfg.KeepUnitTokens

	if len(cfg.UnitDesignators) > 0 {
		opts.UnitDesignators = cfg.UnitDesignators
	}

	return address.NewNormalizer(opts)
}

// newProvider builds the configured provider with the run's HTTP client.
func newProvider(ctx context.Context, cfg *Config) (geocode.Provider, error) {
	kind, err := geocode.ParseProviderKind(cfg.Geocoder)
	if err != nil {
		return nil, err
	}

	pc := cfg.Providers[kind.String()]

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("geodist/%s (+https://github.com/jcodagnone/geodist)", Version)
	}

	opts := geocode.Options{
		HTTPClient: geocode.NewHTTPClient(geocode.ClientOptions{
			UserAgent:           userAgent,
			EnableHTTPTrace:     cfg.TraceHTTP,
			EnableHTTPBodyTrace: cfg.TraceHTTPBody,
			Timeout:             cfg.Timeout,
		}),
		BaseURL: pc.BaseURL,
		Policy:  geocode.Policy{Pacing: pc.Pacing, MaxConcurrency: pc.MaxConcurrency},
		APIKey:  pc.APIKey,
		Region:  cfg.Region,
	}

	if kind == geocode.Google && opts.APIKey == "" {
		if opts.APIKey, err = geocode.LookupGoogleAPIKey(ctx, ""); err != nil {
			return nil, fmt.Errorf("google geocoder: %w", err)
		}
	}

	p, err := geocode.New(kind, opts)
	if err != nil {
		return nil, err
	}

	policy := p.Policy()
	log.Printf("Geocoding with %s (one request every %s, at most %d in flight)", p.Name(), policy.Pacing, policy.MaxConcurrency)

	return p, nil
}

// newResolver wires the provider and the optional cache. The returned
// function releases the cache.
func newResolver(ctx context.Context, cfg *Config) (*geocode.Resolver, func(), error) {
	p, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := geocode.ResolverOptions{}
	closer := func() {}

	if cfg.Cache != "" {
		db, err := sql.Open("duckdb", cfg.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("opening cache %s: %w", cfg.Cache, err)
		}

		cache := geocode.NewSQLCache(db)
		if err := cache.CreateSchema(ctx); err != nil {
			return nil, nil, errors.Join(fmt.Errorf("cache %s: %w", cfg.Cache, err), db.Close())
		}

		if n, err := cache.Len(ctx); err == nil {
			log.Printf("Using geocode cache %s with %d entries", cfg.Cache, n)
		}

		opts.Cache = cache
		closer = func() {
			if err := db.Close(); err != nil {
				log.Printf("Closing cache: %v", err)
			}
		}
	}

	return geocode.NewResolver(p, opts), closer, nil
}

func init() {
	rootCmd.AddCommand(newEnrichCmd())
}
