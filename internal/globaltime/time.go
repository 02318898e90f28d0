package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

func UTC() time.Time {
	return Now().UTC()
}

// DaysBetween returns the whole number of days from first to last, never
// negative. Feeds the days-active metric.
func DaysBetween(first, last time.Time) int {
	diff := last.UTC().Sub(first.UTC())
	if diff <= 0 {
		return 0
	}
	return int(diff.Hours() / 24)
}

func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
