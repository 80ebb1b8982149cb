// Package textnorm cleans raw text fragments pulled out of a stat page.
//
// Scraped HTML text is messy in predictable ways: values carry unit
// suffixes separated by spaces ("300 m/s"), angles carry a degree sign
// ("0.2°"), and copy-pasted pages sprinkle non-breaking spaces. Clean
// reduces a fragment to either its leading token or the full string, always
// degree-free, optionally coerced to a number.
package textnorm

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Options controls Clean.
type Options struct {
	// KeepSpaces keeps the whole string instead of collapsing to the first
	// nonempty space-delimited token.
	KeepSpaces bool

	// AsNumber parses the cleaned string as a float64. A non-numeric string
	// coerces to NaN rather than an error; downstream arithmetic checks the
	// sentinel.
	AsNumber bool
}

// Clean normalizes a raw text fragment.
//
// Processing order:
//  1. Unicode NFKC normalization (folds NBSP and fullwidth forms so the
//     space split below behaves on saved pages from legacy sites).
//  2. Unless KeepSpaces, split on single spaces and take the first nonempty
//     token; when every token is empty the original string is kept as-is.
//  3. Strip every degree sign.
//  4. With AsNumber, parse as float64; parse failure yields NaN.
//
// The result is float64 when AsNumber is set, string otherwise. Clean is
// pure: no side effects, same output for same input.
func Clean(raw string, opts Options) any {
	s := norm.NFKC.String(raw)

	if !opts.KeepSpaces {
		s = firstToken(s)
	}
	s = strings.ReplaceAll(s, "°", "")

	if !opts.AsNumber {
		return s
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// firstToken returns the first nonempty space-delimited token of s, or s
// unchanged when there is none.
func firstToken(s string) string {
	for _, tok := range strings.Split(s, " ") {
		if tok != "" {
			return tok
		}
	}
	return s
}
