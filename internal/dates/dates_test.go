package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEDate(t *testing.T) {
	tests := []struct {
		name   string
		base   time.Time
		months int
		want   time.Time
	}{
		{"zero offset", date(2021, 3, 15), 0, date(2021, 3, 15)},
		{"forward", date(2021, 3, 15), 2, date(2021, 5, 15)},
		{"backward", date(2021, 3, 15), -3, date(2020, 12, 15)},
		{"clamp to february", date(2021, 1, 31), 1, date(2021, 2, 28)},
		{"clamp to leap february", date(2020, 1, 31), 1, date(2020, 2, 29)},
		{"clamp to 30-day month", date(2021, 3, 31), 1, date(2021, 4, 30)},
		{"across years", date(2019, 11, 30), 14, date(2021, 1, 30)},
		{"back across years", date(2021, 1, 31), -13, date(2019, 12, 31)},
		{"back into leap february", date(2020, 3, 31), -1, date(2020, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EDate(tt.base, tt.months)
			if !got.Equal(tt.want) {
				t.Errorf("EDate(%s, %d) = %s, want %s", tt.base.Format(Layout), tt.months, got.Format(Layout), tt.want.Format(Layout))
			}
		})
	}
}

func TestEDateZeroIsIdentity(t *testing.T) {
	for d := date(2020, 1, 1); d.Year() == 2020; d = d.AddDate(0, 0, 1) {
		if got := EDate(d, 0); !got.Equal(d) {
			t.Fatalf("EDate(%s, 0) = %s", d.Format(Layout), got.Format(Layout))
		}
	}
}

func TestEOMonth(t *testing.T) {
	tests := []struct {
		base   time.Time
		months int
		want   time.Time
	}{
		{date(2020, 1, 15), 1, date(2020, 2, 29)},
		{date(2021, 1, 15), 1, date(2021, 2, 28)},
		{date(2021, 1, 1), 0, date(2021, 1, 31)},
		{date(2021, 4, 30), 0, date(2021, 4, 30)},
		{date(2021, 1, 31), -1, date(2020, 12, 31)},
		{date(2000, 6, 10), -4, date(2000, 2, 29)},
		{date(1900, 1, 10), 1, date(1900, 2, 28)},
		{date(2023, 12, 1), 12, date(2024, 12, 31)},
	}
	for _, tt := range tests {
		got := EOMonth(tt.base, tt.months)
		if !got.Equal(tt.want) {
			t.Errorf("EOMonth(%s, %d) = %s, want %s", tt.base.Format(Layout), tt.months, got.Format(Layout), tt.want.Format(Layout))
		}
	}
}

func TestEDateDropsTimeOfDay(t *testing.T) {
	base := time.Date(2021, 5, 10, 17, 45, 0, 0, time.FixedZone("X", 3600))
	if got := EDate(base, 1); !got.Equal(date(2021, 6, 10)) {
		t.Errorf("got %v", got)
	}
}

func TestDaysInMonth(t *testing.T) {
	got := make([]int, 0, 12)
	for m := time.January; m <= time.December; m++ {
		got = append(got, DaysInMonth(2024, m))
	}
	want := []int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DaysInMonth(2024) mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOffset(t *testing.T) {
	n, err := ParseOffset(" -12 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != -12 {
		t.Errorf("got %d", n)
	}

	for _, bad := range []string{"1.5", "abc", "", "NaN"} {
		if _, err := ParseOffset(bad); !errors.Is(err, ErrInvalidOffset) {
			t.Errorf("ParseOffset(%q) error = %v, want ErrInvalidOffset", bad, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-02-29")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(date(2020, 2, 29)) {
		t.Errorf("got %v", d)
	}
	if _, err := ParseDate("2021-02-29"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}
