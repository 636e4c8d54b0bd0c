// Package date implements partial calendar dates for genealogical records.
//
// Historical records rarely carry complete dates: a birth may be known only
// by its year, or not at all. Date models this with three precision levels:
//
//   - unset: nothing is known
//   - year-only: just the year (e.g. "1950")
//   - full: a complete calendar date (e.g. "1950-06-01")
//
// Two dates are ordered only when both sides carry the same precision.
// Mixed-precision comparisons are indeterminate rather than an error, so
// ordering constraints (birth before death) are enforced only when the data
// actually supports them.
package date

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrFormat is returned by [Parse] for input that matches none of the
// accepted formats. Wrapped errors carry the offending input.
var ErrFormat = errors.New(`date must be a year ("1950") or a full date ("1950-06-01")`)

// Precision describes how much of a calendar date is known.
type Precision int

const (
	// Unset means no date information is present.
	Unset Precision = iota
	// Year means only the year is known.
	Year
	// Full means a complete year-month-day date is known.
	Full
)

// isoLayout is the wire format for full dates.
const isoLayout = "2006-01-02"

// Date is a partial calendar date. The zero value is unset.
//
// Invariant: for a full date, the year field always matches the year
// component of the calendar date. Construct dates through [NewYear],
// [NewFull] or [Parse] to keep this invariant; the zero value is also valid.
type Date struct {
	precision Precision
	year      int
	month     time.Month
	day       int
}

// NewYear returns a year-only date.
func NewYear(year int) Date {
	return Date{precision: Year, year: year}
}

// NewFull returns a full calendar date. Returns an error if the components
// do not form a real calendar date (e.g. February 30th).
func NewFull(year int, month time.Month, day int) (Date, error) {
	if !validCalendarDate(year, month, day) {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrFormat, year, int(month), day)
	}
	return Date{precision: Full, year: year, month: month, day: day}, nil
}

// Parse converts user text to a Date.
//
// The grammar is intentionally small:
//   - blank (after trimming) parses to the unset date
//   - all digits parses as a year
//   - exactly "NNNN-NN-NN" parses as a full date, validated as a real
//     calendar date
//
// Anything else returns an error wrapping [ErrFormat].
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}

	if isDigits(s) {
		year, err := strconv.Atoi(s)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrFormat, s)
		}
		return NewYear(year), nil
	}

	if len(s) == len(isoLayout) {
		t, err := time.Parse(isoLayout, s)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrFormat, s)
		}
		return Date{precision: Full, year: t.Year(), month: t.Month(), day: t.Day()}, nil
	}

	return Date{}, fmt.Errorf("%w: %q", ErrFormat, s)
}

// Precision returns the date's precision level.
func (d Date) Precision() Precision { return d.precision }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.precision == Unset }

// YearValue returns the year component, or 0 for an unset date.
// Valid for both year-only and full dates.
func (d Date) YearValue() int { return d.year }

// String formats the date in the same grammar accepted by [Parse].
// Unset dates format as the empty string.
func (d Date) String() string {
	switch d.precision {
	case Year:
		return strconv.Itoa(d.year)
	case Full:
		return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
	default:
		return ""
	}
}

// Compare orders two dates when their precision allows it.
//
// The result follows the cmp convention (-1, 0, +1). ok is false when the
// dates are not comparable: either side unset, or mixed precision (a
// year-only 1950 against a full 1949-01-01 is indeterminate, not ordered).
func Compare(a, b Date) (result int, ok bool) {
	if a.precision == Unset || b.precision == Unset || a.precision != b.precision {
		return 0, false
	}
	switch a.precision {
	case Year:
		return compareInt(a.year, b.year), true
	default:
		// Full dates in ISO form order lexicographically.
		return strings.Compare(a.String(), b.String()), true
	}
}

// MarshalText implements encoding.TextMarshaler using the Parse grammar.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the Parse grammar.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validCalendarDate(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && t.Month() == month && t.Day() == day
}
