// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chrono implements minimalistic, zero-dependency parsers for
// ISO-8601 naive and UTC datetimes and ISO-8601-like duration spans, per
// spec §4.6. They are used both during schema tracing (date detection) and
// during serialization (string→epoch-ms, duration→integer).
package chrono

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// NaiveDateTime is a calendar datetime with no attached timezone.
type NaiveDateTime struct {
	Year, Month, Day          int
	Hour, Minute, Second      int
	NanoFraction              int64 // numerator over 10^len(fracDigits)
	FracDigits                int
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) eof() bool { return sc.pos >= len(sc.s) }
func (sc *scanner) peek() byte {
	if sc.eof() {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *scanner) digits(min, max int) (string, error) {
	start := sc.pos
	for sc.pos < len(sc.s) && sc.pos-start < max && isDigit(sc.s[sc.pos]) {
		sc.pos++
	}
	n := sc.pos - start
	if n < min {
		return "", errors.Errorf("chrono: expected at least %d digits at position %d in %q", min, start, sc.s)
	}
	return sc.s[start:sc.pos], nil
}

func (sc *scanner) expect(c byte) error {
	if sc.eof() || sc.s[sc.pos] != c {
		return errors.Errorf("chrono: expected %q at position %d in %q", c, sc.pos, sc.s)
	}
	sc.pos++
	return nil
}

// ParseNaiveDateTime parses the naive_datetime grammar from spec §4.6:
//
//	naive_datetime = [sign] 1*DIGIT "-" 1*2DIGIT "-" 1*2DIGIT sep
//	                 1*2DIGIT ":" 1*2DIGIT ":" 1*2DIGIT ["." 1*DIGIT]
//
// where sep is "T" (case-insensitive).
func ParseNaiveDateTime(s string) (NaiveDateTime, error) {
	dt, _, err := parseNaiveDateTime(s, false)
	return dt, err
}

// parseNaiveDateTime parses the naive portion and, if allowUTCSep is true,
// additionally accepts a space separator (used by UTC datetimes), stopping
// before any trailing "Z"/"+0000"/"+00:00" suffix. It returns the scanner
// position after the naive portion so ParseUTCDateTime can continue from
// there.
func parseNaiveDateTime(s string, allowUTCSep bool) (NaiveDateTime, int, error) {
	sc := &scanner{s: s}
	sign := 1
	if !sc.eof() && (sc.peek() == '+' || sc.peek() == '-') {
		if sc.peek() == '-' {
			sign = -1
		}
		sc.pos++
	}
	yearStr, err := sc.digits(1, 10)
	if err != nil {
		return NaiveDateTime{}, 0, err
	}
	if err := sc.expect('-'); err != nil {
		return NaiveDateTime{}, 0, err
	}
	monthStr, err := sc.digits(1, 2)
	if err != nil {
		return NaiveDateTime{}, 0, err
	}
	if err := sc.expect('-'); err != nil {
		return NaiveDateTime{}, 0, err
	}
	dayStr, err := sc.digits(1, 2)
	if err != nil {
		return NaiveDateTime{}, 0, err
	}
	if sc.eof() {
		return NaiveDateTime{}, 0, errors.Errorf("chrono: missing time separator in %q", s)
	}
	switch c := sc.peek(); {
	case c == 'T' || c == 't':
		sc.pos++
	case allowUTCSep && c == ' ':
		sc.pos++
	default:
		return NaiveDateTime{}, 0, errors.Errorf("chrono: invalid date/time separator %q in %q", c, s)
	}
	hourStr, err := sc.digits(1, 2)
	if err != nil {
		return NaiveDateTime{}, 0, err
	}
	if err := sc.expect(':'); err != nil {
		return NaiveDateTime{}, 0, err
	}
	minStr, err := sc.digits(1, 2)
	if err != nil {
		return NaiveDateTime{}, 0, err
	}
	if err := sc.expect(':'); err != nil {
		return NaiveDateTime{}, 0, err
	}
	secStr, err := sc.digits(1, 2)
	if err != nil {
		return NaiveDateTime{}, 0, err
	}

	var fracDigits int
	var frac int64
	if !sc.eof() && sc.peek() == '.' {
		sc.pos++
		fracStr, err := sc.digits(1, 18)
		if err != nil {
			return NaiveDateTime{}, 0, err
		}
		frac, _ = strconv.ParseInt(fracStr, 10, 64)
		fracDigits = len(fracStr)
	}

	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minStr)
	second, _ := strconv.Atoi(secStr)

	if err := validateFields(month, day, hour, minute, second); err != nil {
		return NaiveDateTime{}, 0, err
	}

	return NaiveDateTime{
		Year:         sign * year,
		Month:        month,
		Day:          day,
		Hour:         hour,
		Minute:       minute,
		Second:       second,
		NanoFraction: frac,
		FracDigits:   fracDigits,
	}, sc.pos, nil
}

func validateFields(month, day, hour, minute, second int) error {
	if month < 1 || month > 12 {
		return errors.Errorf("chrono: month %d out of range", month)
	}
	if day < 1 || day > 31 {
		return errors.Errorf("chrono: day %d out of range", day)
	}
	if hour > 23 {
		return errors.Errorf("chrono: hour %d out of range", hour)
	}
	if minute > 59 {
		return errors.Errorf("chrono: minute %d out of range", minute)
	}
	if second > 60 { // allow a leap second
		return errors.Errorf("chrono: second %d out of range", second)
	}
	return nil
}

// ParseUTCDateTime parses the utc_datetime grammar from spec §4.6:
//
//	utc_datetime = naive_datetime ("Z" / "+0000" / "+00:00")
//
// with sep being "T" or " ".
func ParseUTCDateTime(s string) (NaiveDateTime, error) {
	dt, pos, err := parseNaiveDateTime(s, true)
	if err != nil {
		return NaiveDateTime{}, err
	}
	rest := s[pos:]
	switch rest {
	case "Z", "z", "+0000", "+00:00":
	default:
		return NaiveDateTime{}, errors.Errorf("chrono: missing UTC designator in %q", s)
	}
	return dt, nil
}

// daysFromCivil is Howard Hinnant's days-from-civil algorithm, used to
// convert a Gregorian calendar date into a day count relative to the Unix
// epoch without relying on the time package's limited year range.
func daysFromCivil(y, m, d int) int64 {
	y -= boolToInt(m <= 2)
	era := divFloor(y, 400)
	yoe := y - era*400
	var mp int
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return int64(era)*146097 + int64(doe) - 719468
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func divFloor(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// EpochMillis converts dt to milliseconds since the Unix epoch.
func (dt NaiveDateTime) EpochMillis() int64 {
	days := daysFromCivil(dt.Year, dt.Month, dt.Day)
	secs := days*86400 + int64(dt.Hour)*3600 + int64(dt.Minute)*60 + int64(dt.Second)
	millis := secs * 1000
	if dt.FracDigits > 0 {
		millis += scaleFraction(dt.NanoFraction, dt.FracDigits, 3)
	}
	return millis
}

// civilFromDays is the inverse of daysFromCivil: Howard Hinnant's
// civil-from-days algorithm, converting a day count relative to the Unix
// epoch back into a Gregorian calendar date.
func civilFromDays(z int64) (y, m, d int) {
	z += 719468
	era := divFloor64(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y64 := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = int(doy - (153*mp+2)/5 + 1)
	if mp < 10 {
		m = int(mp + 3)
	} else {
		m = int(mp - 9)
	}
	if m <= 2 {
		y64++
	}
	return int(y64), m, d
}

func divFloor64(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FormatNaiveMillis renders an epoch-millisecond value back to the naive
// "YYYY-MM-DDTHH:MM:SS[.fff]" textual form (spec §4.6, the inverse of
// ParseNaiveDateTime/EpochMillis).
func FormatNaiveMillis(ms int64) string {
	days := divFloor64(ms, 86400_000)
	rem := ms - days*86400_000
	y, mo, d := civilFromDays(days)
	hour := rem / 3600_000
	rem -= hour * 3600_000
	minute := rem / 60_000
	rem -= minute * 60_000
	second := rem / 1000
	milli := rem % 1000
	if milli == 0 {
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", y, mo, d, hour, minute, second)
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03d", y, mo, d, hour, minute, second, milli)
}

// FormatUTCMillis renders an epoch-millisecond value back to the
// "...Z"-suffixed UTC textual form.
func FormatUTCMillis(ms int64) string {
	return FormatNaiveMillis(ms) + "Z"
}

// scaleFraction rescales a fractional value expressed as value/10^fromDigits
// into value'/10^toDigits, truncating extra precision.
func scaleFraction(value int64, fromDigits, toDigits int) int64 {
	if fromDigits == toDigits {
		return value
	}
	if fromDigits > toDigits {
		for i := 0; i < fromDigits-toDigits; i++ {
			value /= 10
		}
		return value
	}
	for i := 0; i < toDigits-fromDigits; i++ {
		value *= 10
	}
	return value
}
