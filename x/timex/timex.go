package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// After returns ms if it is strictly after prev, otherwise prev+1.
// Keeps cycle timestamps strictly increasing across coarse clocks.
func After(prev, ms int64) int64 {
	if ms > prev {
		return ms
	}
	return prev + 1
}
