// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package address turns free-form postal addresses into single-line queries
// that geocoding providers match reliably.
package address

import (
	"regexp"
	"slices"
	"strings"

	"github.com/jcodagnone/geodist/utils/textutils"
)

// DefaultUnitDesignators are the words that introduce an apartment, suite or
// floor number.
var DefaultUnitDesignators = []string{"apt", "apartment", "suite", "ste", "unit", "floor", "fl", "#"}

// DefaultCountrySuffix is appended to addresses that carry a ZIP code.
const DefaultCountrySuffix = "USA"

// maxPasses bounds the fixpoint iteration in Normalize.
const maxPasses = 8

var (
	spaceRegex      = regexp.MustCompile(`[\s\p{Zs}]+`)
	unitTokenRegex  = regexp.MustCompile(`\b[A-Za-z]\d+\b`)
	postalRegex     = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	postalOnlyRegex = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	countryRegex    = regexp.MustCompile(`(?i)\b(?:USA|US|United States)\b`)
	commaRunRegex   = regexp.MustCompile(`\s*,(?:\s*,)*`)
	stateRegex      = regexp.MustCompile(`\b([A-Za-z]{2})\b(\s+\d{5}(?:-\d{4})?\b|\s*$)`)

	directions = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`(?i)\bnorth\b`), "N"},
		{regexp.MustCompile(`(?i)\bsouth\b`), "S"},
		{regexp.MustCompile(`(?i)\beast\b`), "E"},
		{regexp.MustCompile(`(?i)\bwest\b`), "W"},
	}

	highways = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bIH\s*-?\s*(\d+)\b`),
		regexp.MustCompile(`(?i)\bI-\s*(\d+)\b`),
	}
)

// stateCodes are the two letter USPS state and territory codes.
var stateCodes = map[string]bool{}

func init() {
	for _, code := range strings.Fields(`AL AK AZ AR CA CO CT DE DC FL GA HI ID IL IN IA KS KY LA ME MD
		MA MI MN MS MO MT NE NV NH NJ NM NY NC ND OH OK OR PA RI SC SD TN TX UT VT VA WA WV WI WY
		AS GU MP PR VI`) {
		stateCodes[code] = true
	}
}

// Options tune the heuristics whose precedence is ambiguous for some inputs.
type Options struct {
	// UnitDesignators introduce a unit number to strip ("apt 3B").
	UnitDesignators []string

	// StripUnitTokens strips bare letter+digits tokens such as "F205".
	StripUnitTokens bool

	// CountrySuffix is appended when a ZIP code is present and no country is.
	// Empty disables the suffix.
	CountrySuffix string
}

// DefaultOptions returns the standard heuristics.
func DefaultOptions() Options {
	return Options{
		UnitDesignators: slices.Clone(DefaultUnitDesignators),
		StripUnitTokens: true,
		CountrySuffix:   DefaultCountrySuffix,
	}
}

// Normalizer canonicalizes addresses. It is safe for concurrent use.
type Normalizer struct {
	opts          Options
	designatorRe  *regexp.Regexp
	declaredRegex *regexp.Regexp
}

// NewNormalizer compiles the heuristics described by opts.
func NewNormalizer(opts Options) *Normalizer {
	n := &Normalizer{opts: opts}

	var words, symbols []string

	for _, d := range opts.UnitDesignators {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}

		if regexp.MustCompile(`^\w+$`).MatchString(d) {
			words = append(words, regexp.QuoteMeta(d))
		} else {
			symbols = append(symbols, regexp.QuoteMeta(d))
		}
	}

	// longest first so "apartment" wins over "apt"
	slices.SortFunc(words, func(a, b string) int { return len(b) - len(a) })

	var alts []string
	if len(words) > 0 {
		alts = append(alts, `\b(?:`+strings.Join(words, "|")+`)\b\.?`)
	}

	alts = append(alts, symbols...)

	if len(alts) > 0 {
		n.designatorRe = regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)\s*#?\s*([A-Za-z0-9][A-Za-z0-9-]*)`)
	}

	if suffix := strings.TrimSpace(opts.CountrySuffix); suffix != "" {
		n.declaredRegex = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(suffix) + `\b`)
	}

	return n
}

var defaultNormalizer = NewNormalizer(DefaultOptions())

// Normalize canonicalizes s with the default options.
func Normalize(s string) string {
	return defaultNormalizer.Normalize(s)
}

// Normalize returns the canonical single-line form of s, or "" when s is
// blank. The stage pipeline is repeated until the output is stable, which
// makes Normalize idempotent.
func (n *Normalizer) Normalize(s string) string {
	out := n.pass(s)

	for range maxPasses {
		next := n.pass(out)
		if next == out {
			break
		}

		out = next
	}

	return out
}

func (n *Normalizer) pass(s string) string {
	s = collapse(textutils.Clean(s))
	if s == "" {
		return ""
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
	s = n.stripUnits(s)
	s = strings.ReplaceAll(s, ".", "")

	for _, d := range directions {
		s = d.re.ReplaceAllString(s, d.repl)
	}

	for _, re := range highways {
		s = re.ReplaceAllString(s, "Interstate ${1}")
	}

	s = upperStates(s)
	s = tidy(s)

	return n.appendCountry(s)
}

// stripUnits removes designator+token pairs and bare unit tokens. A
// designator followed by a ZIP code is kept: "FL 33101" is a state code.
func (n *Normalizer) stripUnits(s string) string {
	if n.designatorRe != nil {
		s = n.designatorRe.ReplaceAllStringFunc(s, func(m string) string {
			sub := n.designatorRe.FindStringSubmatch(m)
			if len(sub) > 1 && postalOnlyRegex.MatchString(sub[1]) {
				return m
			}

			return " "
		})
	}

	if n.opts.StripUnitTokens {
		s = unitTokenRegex.ReplaceAllString(s, " ")
	}

	return s
}

func upperStates(s string) string {
	return stateRegex.ReplaceAllStringFunc(s, func(m string) string {
		code := strings.ToUpper(m[:2])
		if !stateCodes[code] {
			return m
		}

		return code + m[2:]
	})
}

func (n *Normalizer) appendCountry(s string) string {
	suffix := strings.TrimSpace(n.opts.CountrySuffix)
	if suffix == "" || s == "" || !postalRegex.MatchString(s) {
		return s
	}

	if countryRegex.MatchString(s) || n.declaredRegex.MatchString(s) {
		return s
	}

	return s + " " + suffix
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// tidy collapses whitespace and the comma runs left behind by stripping.
func tidy(s string) string {
	s = collapse(s)
	s = commaRunRegex.ReplaceAllString(s, ",")

	return strings.Trim(s, " ,;")
}
