package timing

import (
	"fmt"
	"math/big"
	"strings"
)

// Exact unit scales in fractions of a second
var (
	picosecond  = big.NewRat(1, 1_000_000_000_000)
	nanosecond  = big.NewRat(1, 1_000_000_000)
	microsecond = big.NewRat(1, 1_000_000)
	millisecond = big.NewRat(1, 1_000)
)

// Picoseconds returns n ps as an exact number of seconds
func Picoseconds(n int64) *big.Rat {
	return new(big.Rat).Mul(big.NewRat(n, 1), picosecond)
}

// Nanoseconds returns n ns as an exact number of seconds
func Nanoseconds(n int64) *big.Rat {
	return new(big.Rat).Mul(big.NewRat(n, 1), nanosecond)
}

// Microseconds returns n µs as an exact number of seconds
func Microseconds(n int64) *big.Rat {
	return new(big.Rat).Mul(big.NewRat(n, 1), microsecond)
}

var unitSuffixes = []struct {
	suffix string
	scale  *big.Rat
}{
	{"ps", picosecond},
	{"ns", nanosecond},
	{"us", microsecond},
	{"µs", microsecond},
	{"ms", millisecond},
	{"s", big.NewRat(1, 1)},
}

// ParseTime parses a human time string such as "500ns", "8930ps",
// "1.5us" or "0.25s" into exact seconds. A bare number is taken as
// seconds.
func ParseTime(s string) (*big.Rat, error) {
	text := strings.TrimSpace(s)
	scale := big.NewRat(1, 1)
	for _, u := range unitSuffixes {
		if strings.HasSuffix(text, u.suffix) {
			text = strings.TrimSpace(strings.TrimSuffix(text, u.suffix))
			scale = u.scale
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("invalid time value %q", s)
	}
	mantissa, ok := new(big.Rat).SetString(text)
	if !ok {
		return nil, fmt.Errorf("invalid time value %q", s)
	}
	return mantissa.Mul(mantissa, scale), nil
}

var formatUnits = []struct {
	name  string
	scale int64 // in picoseconds
}{
	{"s", 1_000_000_000_000},
	{"ms", 1_000_000_000},
	{"us", 1_000_000},
	{"ns", 1_000},
	{"ps", 1},
}

// FormatTime renders seconds with the largest unit that keeps the value
// an exact integer. Sub-picosecond remainders fall back to a fixed
// 12-digit decimal in seconds.
func FormatTime(seconds *big.Rat) string {
	if seconds == nil || seconds.Sign() == 0 {
		return "0s"
	}
	ps := new(big.Rat).Quo(seconds, picosecond)
	if ps.IsInt() {
		n := new(big.Int).Set(ps.Num())
		for _, u := range formatUnits {
			scale := big.NewInt(u.scale)
			var q, rem big.Int
			q.QuoRem(n, scale, &rem)
			if rem.Sign() == 0 {
				return fmt.Sprintf("%s%s", q.String(), u.name)
			}
		}
	}
	return seconds.FloatString(12) + "s"
}
