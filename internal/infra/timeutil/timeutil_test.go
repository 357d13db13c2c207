package timeutil_test

import (
	"testing"
	"time"

	"tg-stats/internal/infra/timeutil"
)

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   time.Weekday
		wantOK bool
	}{
		{in: "Wednesday", want: time.Wednesday, wantOK: true},
		{in: " thu ", want: time.Thursday, wantOK: true},
		{in: "SUN", want: time.Sunday, wantOK: true},
		{in: "6", want: time.Saturday, wantOK: true},
		{in: "7"},
		{in: "funday"},
		{in: ""},
	}

	for _, tc := range cases {
		got, ok := timeutil.ParseWeekday(tc.in)
		if ok != tc.wantOK || (ok && got != tc.want) {
			t.Errorf("ParseWeekday(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestStartOfMonthUsesUTC(t *testing.T) {
	t.Parallel()

	// 1 ноября 01:00 в UTC+3: ещё октябрь по UTC.
	msk := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2026, time.November, 1, 1, 0, 0, 0, msk)

	got := timeutil.StartOfMonth(now)
	want := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("StartOfMonth() = %v, want %v", got, want)
	}
}

func TestParseLocation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in         string
		wantOffset int
		wantErr    bool
	}{
		{in: "UTC", wantOffset: 0},
		{in: "+03:00", wantOffset: 3 * 3600},
		{in: "UTC-0430", wantOffset: -(4*3600 + 30*60)},
		{in: "UTC+5", wantOffset: 5 * 3600},
		{in: "+15:00", wantErr: true},
		{in: "", wantErr: true},
		{in: "Nowhere/City", wantErr: true},
	}

	ref := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		loc, err := timeutil.ParseLocation(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLocation(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if _, off := ref.In(loc).Zone(); off != tc.wantOffset {
			t.Errorf("ParseLocation(%q) offset = %d, want %d", tc.in, off, tc.wantOffset)
		}
	}
}

func TestDateOfAndString(t *testing.T) {
	t.Parallel()

	d := timeutil.DateOf(timeutil.FromUnix(1791244800)) // 2026-10-06 00:00:00 UTC
	if got := d.String(); got != "2026-10-06" {
		t.Fatalf("Date.String() = %q, want 2026-10-06", got)
	}
}
