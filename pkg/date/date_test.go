package date

import (
	"errors"
	"testing"
	"time"
)

func TestParse_Blank(t *testing.T) {
	for _, input := range []string{"", "   ", "\t"} {
		d, err := Parse(input)
		if err != nil {
			t.Errorf("Parse(%q) error = %v, want nil", input, err)
		}
		if !d.IsZero() {
			t.Errorf("Parse(%q) = %v, want unset", input, d)
		}
	}
}

func TestParse_YearOnly(t *testing.T) {
	d, err := Parse("1950")
	if err != nil {
		t.Fatalf("Parse(1950) error = %v", err)
	}
	if d.Precision() != Year {
		t.Errorf("Precision() = %v, want Year", d.Precision())
	}
	if d.YearValue() != 1950 {
		t.Errorf("YearValue() = %d, want 1950", d.YearValue())
	}
	if d.String() != "1950" {
		t.Errorf("String() = %q, want %q", d.String(), "1950")
	}
}

func TestParse_FullDate(t *testing.T) {
	d, err := Parse("1950-06-01")
	if err != nil {
		t.Fatalf("Parse(1950-06-01) error = %v", err)
	}
	if d.Precision() != Full {
		t.Errorf("Precision() = %v, want Full", d.Precision())
	}
	if d.YearValue() != 1950 {
		t.Errorf("YearValue() = %d, want 1950", d.YearValue())
	}
	if d.String() != "1950-06-01" {
		t.Errorf("String() = %q, want %q", d.String(), "1950-06-01")
	}
}

func TestParse_Invalid(t *testing.T) {
	inputs := []string{
		"June 1950",
		"1950-6-1",
		"1950/06/01",
		"1950-13-01", // no 13th month
		"1950-02-30", // not a real day
		"abcd",
		"19x0",
	}
	for _, input := range inputs {
		if _, err := Parse(input); !errors.Is(err, ErrFormat) {
			t.Errorf("Parse(%q) error = %v, want ErrFormat", input, err)
		}
	}
}

func TestNewFull_RejectsImpossibleDates(t *testing.T) {
	if _, err := NewFull(1950, time.February, 30); err == nil {
		t.Error("NewFull(1950, Feb, 30) succeeded, want error")
	}
	if _, err := NewFull(1950, time.Month(0), 1); err == nil {
		t.Error("NewFull with month 0 succeeded, want error")
	}
}

func TestCompare_SamePrecision(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"years ascending", "1950", "1960", -1},
		{"years equal", "1950", "1950", 0},
		{"years descending", "1960", "1950", 1},
		{"full ascending", "1950-05-01", "1950-06-01", -1},
		{"full equal", "1950-06-01", "1950-06-01", 0},
		{"full descending", "1950-06-01", "1950-05-01", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := Parse(tt.a)
			b, _ := Parse(tt.b)
			got, ok := Compare(a, b)
			if !ok {
				t.Fatalf("Compare(%q, %q) not comparable, want comparable", tt.a, tt.b)
			}
			if got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompare_Indeterminate(t *testing.T) {
	year, _ := Parse("1950")
	full, _ := Parse("1949-01-01")

	// Mixed precision is indeterminate, even when the years alone would order.
	if _, ok := Compare(year, full); ok {
		t.Error("Compare(year-only, full) comparable, want indeterminate")
	}
	if _, ok := Compare(full, year); ok {
		t.Error("Compare(full, year-only) comparable, want indeterminate")
	}
	if _, ok := Compare(Date{}, year); ok {
		t.Error("Compare(unset, year-only) comparable, want indeterminate")
	}
	if _, ok := Compare(Date{}, Date{}); ok {
		t.Error("Compare(unset, unset) comparable, want indeterminate")
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, input := range []string{"", "1950", "1950-06-01"} {
		d, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		text, err := d.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		var back Date
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", text, err)
		}
		if back != d {
			t.Errorf("round trip of %q: got %v, want %v", input, back, d)
		}
	}
}
