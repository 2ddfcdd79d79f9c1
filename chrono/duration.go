// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chrono

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/solidcoredata/arrowtrace/schema"
)

// Span holds the string slices parsed from an ISO-8601-like duration, per
// spec §4.6's grammar:
//
//	span    = [sign] "P" [n "Y"] [n "M"] [n "W"] [n "D"] ["T" [n "H"] [n "M"] [seconds]]
//	seconds = 1*DIGIT ["." 1*DIGIT] "S"
//
// Designators are case-insensitive. Each field is kept as its raw digit
// string (or empty) so conversion can defer precision decisions to the
// caller.
type Span struct {
	Negative bool
	Years    string
	Months   string
	Weeks    string
	Days     string
	Hours    string
	Minutes  string
	Seconds  string // integer part
	Fraction string // digits after the decimal point, if any
}

type durScanner struct {
	s   string
	pos int
}

func (d *durScanner) eof() bool { return d.pos >= len(d.s) }

func (d *durScanner) peekUpper() byte {
	if d.eof() {
		return 0
	}
	c := d.s[d.pos]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c
}

// takeNumber consumes a run of digits (and, if allowFraction, an optional
// "." followed by digits), returning the integer part, the fraction part
// (without leading "."), and whether anything was consumed.
func (d *durScanner) takeNumber(allowFraction bool) (intPart, fracPart string, any bool) {
	start := d.pos
	for !d.eof() && isDigit(d.s[d.pos]) {
		d.pos++
	}
	intPart = d.s[start:d.pos]
	if allowFraction && !d.eof() && d.s[d.pos] == '.' {
		fracStart := d.pos + 1
		p := fracStart
		for p < len(d.s) && isDigit(d.s[p]) {
			p++
		}
		fracPart = d.s[fracStart:p]
		d.pos = p
	}
	return intPart, fracPart, len(intPart) > 0
}

// ParseSpan parses an ISO-8601-like duration span into its component
// string fields.
func ParseSpan(s string) (Span, error) {
	var out Span
	sc := &durScanner{s: s}
	if !sc.eof() && (sc.s[sc.pos] == '+' || sc.s[sc.pos] == '-') {
		out.Negative = sc.s[sc.pos] == '-'
		sc.pos++
	}
	if sc.peekUpper() != 'P' {
		return Span{}, errors.Errorf("chrono: span %q missing leading P designator", s)
	}
	sc.pos++

	consumeDatePart := func(designator byte, dst *string) error {
		save := sc.pos
		intPart, _, any := sc.takeNumber(false)
		if !any {
			sc.pos = save
			return nil
		}
		if sc.peekUpper() != designator {
			sc.pos = save
			return nil
		}
		sc.pos++
		*dst = intPart
		return nil
	}
	consumeDatePart('Y', &out.Years)
	consumeDatePart('M', &out.Months)
	consumeDatePart('W', &out.Weeks)
	consumeDatePart('D', &out.Days)

	if !sc.eof() && sc.peekUpper() == 'T' {
		sc.pos++
		consumeDatePart('H', &out.Hours)
		consumeDatePart('M', &out.Minutes)

		save := sc.pos
		intPart, fracPart, any := sc.takeNumber(true)
		if any && sc.peekUpper() == 'S' {
			sc.pos++
			out.Seconds = intPart
			out.Fraction = fracPart
		} else {
			sc.pos = save
		}
	}
	if !sc.eof() {
		return Span{}, errors.Errorf("chrono: span %q has trailing unparsed input %q", s, s[sc.pos:])
	}
	if out.Years == "" && out.Months == "" && out.Weeks == "" && out.Days == "" &&
		out.Hours == "" && out.Minutes == "" && out.Seconds == "" {
		return Span{}, errors.Errorf("chrono: span %q has no components", s)
	}
	return out, nil
}

func atoi64(s string) int64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

// ToDuration converts a Span to an integer duration in the given unit.
// Interval-style spans (non-zero years or months) are rejected, since they
// have no fixed-length conversion to a scalar duration (spec §4.6).
func (sp Span) ToDuration(unit schema.TimeUnit) (int64, error) {
	if atoi64(sp.Years) != 0 || atoi64(sp.Months) != 0 {
		return 0, errors.New("chrono: interval-style span (non-zero years or months) cannot convert to a duration")
	}

	totalSeconds := atoi64(sp.Weeks)*7*86400 + atoi64(sp.Days)*86400 +
		atoi64(sp.Hours)*3600 + atoi64(sp.Minutes)*60 + atoi64(sp.Seconds)

	var perSecond int64
	switch unit {
	case schema.Second:
		perSecond = 1
	case schema.Millisecond:
		perSecond = 1_000
	case schema.Microsecond:
		perSecond = 1_000_000
	case schema.Nanosecond:
		perSecond = 1_000_000_000
	default:
		return 0, errors.Errorf("chrono: unknown time unit %v", unit)
	}

	whole, err := checkedMul(totalSeconds, perSecond, unit)
	if err != nil {
		return 0, err
	}
	var fracPart int64
	if sp.Fraction != "" && perSecond > 1 {
		digits := len(sp.Fraction)
		num := atoi64(sp.Fraction)
		fracPart = scaleFraction(num, digits, digitsFor(perSecond))
	}
	total, err := checkedAdd(whole, fracPart, unit)
	if err != nil {
		return 0, err
	}
	if sp.Negative {
		if total == math.MinInt64 {
			return 0, errors.Errorf("chrono: duration overflow negating span in unit %v", unit)
		}
		total = -total
	}
	return total, nil
}

func digitsFor(perSecond int64) int {
	n := 0
	for v := perSecond; v > 1; v /= 10 {
		n++
	}
	return n
}

func checkedMul(a, b int64, unit schema.TimeUnit) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	r := a * b
	if r/b != a {
		return 0, errors.Errorf("chrono: duration overflow (%d * %d) converting to unit %v", a, b, unit)
	}
	return r, nil
}

func checkedAdd(a, b int64, unit schema.TimeUnit) (int64, error) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, errors.Errorf("chrono: duration overflow (%d + %d) converting to unit %v", a, b, unit)
	}
	return r, nil
}

// FormatDuration renders a signed integer duration (in the given unit) back
// to the "PT..." textual span form: whole seconds as "PTNs", or seconds
// plus a zero-padded subsecond fraction of length 3/6/9 for
// Millisecond/Microsecond/Nanosecond respectively (spec §4.6).
func FormatDuration(v int64, unit schema.TimeUnit) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if unit == schema.Second {
		return fmt.Sprintf("%sPT%dS", sign, v)
	}

	var perSecond int64
	var width int
	switch unit {
	case schema.Millisecond:
		perSecond, width = 1_000, 3
	case schema.Microsecond:
		perSecond, width = 1_000_000, 6
	case schema.Nanosecond:
		perSecond, width = 1_000_000_000, 9
	}
	whole := v / perSecond
	frac := v % perSecond
	if frac == 0 {
		return fmt.Sprintf("%sPT%dS", sign, whole)
	}
	fracStr := strconv.FormatInt(frac, 10)
	fracStr = strings.Repeat("0", width-len(fracStr)) + fracStr
	return fmt.Sprintf("%sPT%d.%sS", sign, whole, fracStr)
}
