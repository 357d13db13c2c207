package clock_test

import (
	"testing"
	"time"

	"tg-stats/internal/infra/clock"
)

func TestDisplayLocation(t *testing.T) {
	ts := time.Date(2026, time.October, 17, 22, 30, 0, 0, time.UTC)

	clock.SetDisplayLocation(time.FixedZone("UTC+03:00", 3*60*60))
	t.Cleanup(func() { clock.SetDisplayLocation(nil) })

	if got := clock.Display(ts).Format("2006-01-02 15:04"); got != "2026-10-18 01:30" {
		t.Fatalf("Display() = %s, want 2026-10-18 01:30", got)
	}

	clock.SetDisplayLocation(nil)
	if got := clock.Display(ts).Location(); got != time.UTC {
		t.Fatalf("Display() location = %v, want UTC after reset", got)
	}
}

func TestFixed(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	now := clock.Fixed(ts)
	if !now().Equal(ts) || !now().Equal(ts) {
		t.Fatal("Fixed() clock moved")
	}
}
