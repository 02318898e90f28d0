package httpapi

import (
	"testing"
	"time"
)

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got, err := parsePositiveInt("", 25, 1, 200); err != nil || got != 25 {
		t.Fatalf("empty input should return default, got %d err %v", got, err)
	}
	if got, err := parsePositiveInt("50", 25, 1, 200); err != nil || got != 50 {
		t.Fatalf("expected 50, got %d err %v", got, err)
	}
	if _, err := parsePositiveInt("0", 25, 1, 200); err == nil {
		t.Fatalf("below-minimum value should fail")
	}
	if _, err := parsePositiveInt("201", 25, 1, 200); err == nil {
		t.Fatalf("above-maximum value should fail")
	}
	if _, err := parsePositiveInt("abc", 25, 1, 200); err == nil {
		t.Fatalf("non-numeric value should fail")
	}
}

func TestParseTimeFilter(t *testing.T) {
	t.Parallel()

	if got, err := parseTimeFilter("", false); err != nil || got != nil {
		t.Fatalf("empty input should return nil, got %v err %v", got, err)
	}

	got, err := parseTimeFilter("2026-08-20T09:00:00Z", false)
	if err != nil || got == nil {
		t.Fatalf("RFC3339 input failed: %v", err)
	}
	if !got.Equal(time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parse result %v", got)
	}

	start, err := parseTimeFilter("2026-08-20", false)
	if err != nil {
		t.Fatalf("date-only input failed: %v", err)
	}
	end, err := parseTimeFilter("2026-08-20", true)
	if err != nil {
		t.Fatalf("date-only end input failed: %v", err)
	}
	if !end.After(*start) {
		t.Fatalf("end-of-day %v should be after start-of-day %v", end, start)
	}

	if _, err := parseTimeFilter("last tuesday", false); err == nil {
		t.Fatalf("unparseable input should fail")
	}
}
