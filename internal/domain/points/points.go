// Package points implements the fixed-point decimal used for every score,
// deduction and final value in the system. Values carry exactly three
// fractional digits, stored as an int64 count of thousandths, so repeated
// calculations over identical inputs are bit-for-bit identical and no
// floating-point drift can change a stored value.
package points

import (
	"fmt"
	"strconv"
	"strings"
)

// P is a decimal value with exactly three fractional digits.
type P int64

// scale is the number of thousandths per whole unit.
const scale = 1000

// Common values.
const (
	Zero P = 0
	// PerfectExecution is the E-score starting value deductions subtract from.
	PerfectExecution P = 10 * scale
)

// FromThousandths builds a value from a raw thousandths count.
func FromThousandths(n int64) P { return P(n) }

// Thousandths returns the raw thousandths count.
func (p P) Thousandths() int64 { return int64(p) }

// Add returns p + q.
func (p P) Add(q P) P { return p + q }

// Sub returns p - q.
func (p P) Sub(q P) P { return p - q }

// Neg reports whether the value is negative.
func (p P) Neg() bool { return p < 0 }

// Parse converts a decimal string such as "5.3", "8.350" or "0" to a value.
// At most three fractional digits are accepted; fewer are zero-padded.
func Parse(s string) (P, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty decimal")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid decimal %q", s)
	}
	if len(frac) > 3 {
		return 0, fmt.Errorf("too many fractional digits in %q (max 3)", s)
	}

	var n int64
	if whole != "" {
		w, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid decimal %q: %w", s, err)
		}
		n = w * scale
	}
	if frac != "" {
		f, err := strconv.ParseInt(frac+strings.Repeat("0", 3-len(frac)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid decimal %q: %w", s, err)
		}
		n += f
	}
	if neg {
		n = -n
	}
	return P(n), nil
}

// MustParse is Parse for test fixtures and constants; it panics on error.
func MustParse(s string) P {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String formats the value with exactly three fractional digits, e.g. "8.350".
func (p P) String() string {
	n := int64(p)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%03d", sign, n/scale, n%scale)
}

// Float64 returns the value as a float64 for display-only consumers.
func (p P) Float64() float64 { return float64(p) / scale }

// MarshalJSON encodes the value as a plain decimal number literal so wire
// payloads read "8.350" rather than a quoted string or drifting float.
func (p P) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (p *P) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Sum totals the values. An empty slice sums to zero.
func Sum(values []P) P {
	var total P
	for _, v := range values {
		total += v
	}
	return total
}

// Mean averages the values, rounding half away from zero on the thousandths
// grid. An empty slice averages to zero.
func Mean(values []P) P {
	if len(values) == 0 {
		return 0
	}
	return divRound(int64(Sum(values)), int64(len(values)))
}

// divRound divides on the thousandths grid rounding half away from zero.
func divRound(sum, n int64) P {
	q := sum / n
	r := sum % n
	if r < 0 {
		r = -r
	}
	if 2*r >= n {
		if sum < 0 {
			q--
		} else {
			q++
		}
	}
	return P(q)
}
