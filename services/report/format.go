package report

import (
	"strconv"
	"time"
)

// Deci renders a tenths-scaled integer as a one-decimal string: 123 -> "12.3".
func Deci(v int64) string {
	return fixed(v, 10, 1)
}

// Centi renders a hundredths-scaled integer: 5500 -> "55.00".
func Centi(v int64) string {
	return fixed(v, 100, 2)
}

func fixed(v, scale int64, digits int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := strconv.FormatInt(v/scale, 10)
	frac := strconv.FormatInt(v%scale, 10)
	for len(frac) < digits {
		frac = "0" + frac
	}
	if neg {
		whole = "-" + whole
	}
	return whole + "." + frac
}

// Dur renders a duration compactly for log lines: whole seconds as "4s",
// sub-second values as milliseconds.
func Dur(d time.Duration) string {
	if d >= time.Second && d%time.Second == 0 {
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	}
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
