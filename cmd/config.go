// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jcodagnone/geodist/address"
	"github.com/jcodagnone/geodist/geocode"
	"github.com/jcodagnone/geodist/mapping"
	"github.com/jcodagnone/geodist/spatial"
)

// FieldMap translates Field through the mapping table at Path.
type FieldMap struct {
	Field string `yaml:"field"`
	Path  string `yaml:"path"`
}

// ProviderConfig overrides the defaults of one provider.
type ProviderConfig struct {
	Pacing         time.Duration `yaml:"pacing"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
}

// Config is the enrich configuration. It is read from YAML and then
// overridden by the flags given explicitly.
type Config struct {
	Maps      []FieldMap `yaml:"maps"`
	Delimiter string     `yaml:"delimiter"`
	Encoding  string     `yaml:"encoding"`

	AddressFields   []string `yaml:"address_fields"`
	Address2Field   string   `yaml:"address2_field"`
	Country         string   `yaml:"country"`
	UnitDesignators []string `yaml:"unit_designators"`
	KeepUnitTokens  bool     `yaml:"keep_unit_tokens"`

	Geocoder     string                    `yaml:"provider"`
	Providers    map[string]ProviderConfig `yaml:"providers"`
	Region       string                    `yaml:"region"`
	UserAgent    string                    `yaml:"user_agent"`
	Timeout      time.Duration             `yaml:"timeout"`
	Cache        string                    `yaml:"cache"`
	Sample       int                       `yaml:"sample"`
	SkipDistance bool                      `yaml:"skip_distance"`
	Workers      int                       `yaml:"workers"`
	Unit         string                    `yaml:"unit"`

	TraceHTTP     bool `yaml:"-"`
	TraceHTTPBody bool `yaml:"-"`
}

func defaultConfig() *Config {
	return &Config{
		Delimiter:     string(mapping.DelimiterAuto),
		AddressFields: append([]string(nil), address.DefaultPrimaryFields...),
		Address2Field: address.DefaultSecondaryField,
		Country:       address.DefaultCountrySuffix,
		Geocoder:      geocode.Photon.String(),
		Workers:       1,
		Unit:          spatial.Miles.String(),
	}
}

// loadConfig reads path over the defaults; an empty path returns them.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// setMap adds a translation, replacing an earlier one for the same field.
func (c *Config) setMap(field, path string) {
	for i := range c.Maps {
		if c.Maps[i].Field == field {
			c.Maps[i].Path = path

			return
		}
	}

	c.Maps = append(c.Maps, FieldMap{Field: field, Path: path})
}

// parseFieldMap parses a field=path flag value.
func parseFieldMap(s string) (FieldMap, error) {
	field, path, ok := strings.Cut(s, "=")

	field, path = strings.TrimSpace(field), strings.TrimSpace(path)
	if !ok || field == "" || path == "" {
		return FieldMap{}, fmt.Errorf("invalid mapping %q, want field=path", s)
	}

	return FieldMap{Field: field, Path: path}, nil
}

// enrichFlags are the raw flag values, applied over Config when changed.
type enrichFlags struct {
	config        string
	maps          []string
	statusMap     string
	leadStatusMap string
	subStatusMap  string
	delimiter     string
	encoding      string
	geocoder      string
	sample        int
	skipDistance  bool
	addressFields []string
	address2Field string
	workers       int
	unit          string
	country       string
	cache         string
	traceHTTP     bool
	traceHTTPBody bool
}

// fieldMapFlags maps the dedicated translation flags to their field.
var fieldMapFlags = []struct{ flag, field string }{
	{"statuscode-map", "statuscode"},
	{"leadstatus-map", "lms_leadstatus"},
	{"substatus-map", "lms_substatus"},
}

// apply copies the flags the user set into cfg.
func (f *enrichFlags) apply(flags *pflag.FlagSet, cfg *Config) error {
	changed := flags.Changed

	values := map[string]string{
		"statuscode-map": f.statusMap,
		"leadstatus-map": f.leadStatusMap,
		"substatus-map":  f.subStatusMap,
	}

	for _, m := range fieldMapFlags {
		if changed(m.flag) {
			cfg.setMap(m.field, values[m.flag])
		}
	}

	for _, s := range f.maps {
		fm, err := parseFieldMap(s)
		if err != nil {
			return err
		}

		cfg.setMap(fm.Field, fm.Path)
	}

	if changed("delimiter") {
		cfg.Delimiter = f.delimiter
	}

	if changed("encoding") {
		cfg.Encoding = f.encoding
	}

	if changed("geocoder") {
		cfg.Geocoder = f.geocoder
	}

	if changed("sample") {
		cfg.Sample = f.sample
	}

	if changed("skip-distance") {
		cfg.SkipDistance = f.skipDistance
	}

	if changed("address-fields") {
		cfg.AddressFields = f.addressFields
	}

	if changed("address2-field") {
		cfg.Address2Field = f.address2Field
	}

	if changed("workers") {
		cfg.Workers = f.workers
	}

	if changed("unit") {
		cfg.Unit = f.unit
	}

	if changed("country") {
		cfg.Country = f.country
	}

	if changed("cache") {
		cfg.Cache = f.cache
	}

	cfg.TraceHTTP = f.traceHTTP
	cfg.TraceHTTPBody = f.traceHTTPBody

	return nil
}

func (f *enrichFlags) register(flags *pflag.FlagSet) {
	def := defaultConfig()

	flags.StringVar(&f.config, "config", "", "YAML configuration file; explicit flags override it")
	flags.StringArrayVar(&f.maps, "map", nil, "Translate a field through a mapping table, as field=path (repeatable)")
	flags.StringVar(&f.statusMap, "statuscode-map", "", "Mapping table for statuscode")
	flags.StringVar(&f.leadStatusMap, "leadstatus-map", "", "Mapping table for lms_leadstatus")
	flags.StringVar(&f.subStatusMap, "substatus-map", "", "Mapping table for lms_substatus")
	flags.StringVar(&f.delimiter, "delimiter", def.Delimiter, "Mapping table delimiter: auto, tab, comma or pipe")
	flags.StringVar(&f.encoding, "encoding", "", "Charset of CSV input, e.g. windows-1252; UTF-8 when empty")
	flags.StringVar(&f.geocoder, "geocoder", def.Geocoder, "Geocoding provider: photon, nominatim, arcgis, census or google")
	flags.IntVar(&f.sample, "sample", 0, "Geocode only the first N rows, the rest are marked skipped")
	flags.BoolVar(&f.skipDistance, "skip-distance", false, "Skip geocoding and distance calculation")
	flags.StringSliceVar(&f.addressFields, "address-fields", def.AddressFields, "Columns joined into the primary address")
	flags.StringVar(&f.address2Field, "address2-field", def.Address2Field, "Column holding the secondary address")
	flags.IntVar(&f.workers, "workers", def.Workers, "Rows geocoded concurrently, capped by the provider limit")
	flags.StringVar(&f.unit, "unit", def.Unit, "Distance unit: miles, km or meters")
	flags.StringVar(&f.country, "country", def.Country, "Country appended to addresses with a ZIP code; empty disables it")
	flags.StringVar(&f.cache, "cache", "", "DuckDB file caching geocoding results")
	flags.BoolVar(&f.traceHTTP, "trace-http", false, "Display HTTP requests-responses")
	flags.BoolVar(&f.traceHTTPBody, "trace-http-body", false, "Display HTTP requests-responses bodies")
}
