package globaltime

import (
	"testing"
	"time"
)

func TestMockTime(t *testing.T) {
	fixed := time.Date(2026, 8, 24, 10, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	SetMockTime(fixed)
	defer ResetTime()

	if got := Now(); !got.Equal(fixed) {
		t.Fatalf("Now() = %v, want %v", got, fixed)
	}
	if got := UTC(); got.Location() != time.UTC || !got.Equal(fixed) {
		t.Fatalf("UTC() = %v, want %v in UTC", got, fixed)
	}

	ResetTime()
	if Now().Equal(fixed) {
		t.Fatalf("ResetTime did not restore the real clock")
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		last time.Time
		want int
	}{
		{"same instant", first, 0},
		{"under a day", first.Add(23 * time.Hour), 0},
		{"exactly a day", first.Add(24 * time.Hour), 1},
		{"ten and a half days", first.Add(252 * time.Hour), 10},
		{"last before first", first.Add(-48 * time.Hour), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DaysBetween(first, tc.last); got != tc.want {
				t.Fatalf("DaysBetween = %d, want %d", got, tc.want)
			}
		})
	}
}
