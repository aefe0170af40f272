package businessdate

import (
	"testing"
	"time"
)

func TestBoundaryBeforeFive(t *testing.T) {
	// 04:59:59 local belongs to the previous calendar day
	ts := time.Date(2024, 3, 15, 4, 59, 59, 0, time.UTC)

	res, err := Calculate(ts, "UTC")
	if err != nil {
		t.Fatalf("failed to calculate: %v", err)
	}

	if res.Date != "2024-03-14" {
		t.Errorf("expected 2024-03-14, got %s", res.Date)
	}
}

func TestBoundaryAtFive(t *testing.T) {
	// 05:00:00 local starts a new business day
	ts := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)

	res, err := Calculate(ts, "UTC")
	if err != nil {
		t.Fatalf("failed to calculate: %v", err)
	}

	if res.Date != "2024-03-15" {
		t.Errorf("expected 2024-03-15, got %s", res.Date)
	}
}

func TestBounds(t *testing.T) {
	ts := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	res, err := Calculate(ts, "UTC")
	if err != nil {
		t.Fatalf("failed to calculate: %v", err)
	}

	wantStart := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	if !res.StartUTC.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, res.StartUTC)
	}

	wantEnd := time.Date(2024, 3, 16, 4, 59, 59, 999000000, time.UTC)
	if !res.EndUTC.Equal(wantEnd) {
		t.Errorf("expected end %v, got %v", wantEnd, res.EndUTC)
	}
}

func TestTimezoneConversion(t *testing.T) {
	// 19:00 UTC on March 14 is 04:00 JST on March 15, still business day March 14
	ts := time.Date(2024, 3, 14, 19, 0, 0, 0, time.UTC)

	res, err := Calculate(ts, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to calculate: %v", err)
	}

	if res.Date != "2024-03-14" {
		t.Errorf("expected 2024-03-14, got %s", res.Date)
	}

	// 20:00 UTC is 05:00 JST on March 15
	res, err = Calculate(ts.Add(time.Hour), "Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to calculate: %v", err)
	}

	if res.Date != "2024-03-15" {
		t.Errorf("expected 2024-03-15, got %s", res.Date)
	}
}

func TestDSTSpringForward(t *testing.T) {
	// US spring forward: 2024-03-10 02:00 EST jumps to 03:00 EDT.
	// Noon local that day is 16:00 UTC (EDT, -4), and the business day
	// started at 05:00 EST (-5) = 10:00 UTC.
	ts := time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC)

	res, err := Calculate(ts, "America/New_York")
	if err != nil {
		t.Fatalf("failed to calculate: %v", err)
	}

	if res.Date != "2024-03-10" {
		t.Errorf("expected 2024-03-10, got %s", res.Date)
	}

	wantStart := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	if !res.StartUTC.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, res.StartUTC)
	}

	// End bound is 04:59:59.999 EDT (-4) on March 11 = 08:59:59.999 UTC
	wantEnd := time.Date(2024, 3, 11, 8, 59, 59, 999000000, time.UTC)
	if !res.EndUTC.Equal(wantEnd) {
		t.Errorf("expected end %v, got %v", wantEnd, res.EndUTC)
	}
}

func TestIdempotentOnOwnBounds(t *testing.T) {
	ts := time.Date(2024, 7, 1, 23, 30, 0, 0, time.UTC)

	res, err := Calculate(ts, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to calculate: %v", err)
	}

	// Re-running on the start/end bounds must land on the same business date
	fromStart, err := Calculate(res.StartUTC, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to recalculate from start: %v", err)
	}
	if fromStart.Date != res.Date {
		t.Errorf("start bound mapped to %s, expected %s", fromStart.Date, res.Date)
	}

	fromEnd, err := Calculate(res.EndUTC, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to recalculate from end: %v", err)
	}
	if fromEnd.Date != res.Date {
		t.Errorf("end bound mapped to %s, expected %s", fromEnd.Date, res.Date)
	}
}

func TestMonthBoundary(t *testing.T) {
	// 03:00 local on the 1st belongs to the last day of the previous month
	ts := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)

	res, err := Calculate(ts, "UTC")
	if err != nil {
		t.Fatalf("failed to calculate: %v", err)
	}

	if res.Date != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", res.Date)
	}
}

func TestUnknownTimezone(t *testing.T) {
	_, err := Calculate(time.Now(), "Mars/Olympus")
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestValidRange(t *testing.T) {
	if !ValidRange("2024-01-01", "2024-01-31") {
		t.Error("expected valid range")
	}
	if ValidRange("2024-01-31", "2024-01-01") {
		t.Error("expected inverted range to be invalid")
	}
	if ValidRange("not-a-date", "2024-01-01") {
		t.Error("expected malformed date to be invalid")
	}
}
