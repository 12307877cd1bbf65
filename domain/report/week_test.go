package report

import (
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	cases := []struct {
		date time.Time
		want string
	}{
		// 2024-01-15 is the Monday of ISO week 3 of 2024.
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "2024-03"},
		{time.Date(2024, 1, 21, 23, 59, 59, 0, time.UTC), "2024-03"},
		// 2023-12-31 is a Sunday and still belongs to ISO week 52 of 2023.
		{time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), "2023-52"},
		// 2024-12-30 is a Monday belonging to ISO week 1 of 2025.
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-01"},
	}
	for _, c := range cases {
		if got := WeekKey(c.date); got != c.want {
			t.Errorf("WeekKey(%s) = %q, want %q", c.date.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestWeeks(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	got := Weeks(start, end)
	want := []string{"2024-03", "2024-04", "2024-05", "2024-06"}
	if len(got) != len(want) {
		t.Fatalf("Weeks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Weeks = %v, want %v", got, want)
		}
	}
}

func TestWeeks_PartialFinalWeek(t *testing.T) {
	// end falls mid-week; its week must still be present exactly once.
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC)
	got := Weeks(start, end)
	want := []string{"2024-03", "2024-04"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Weeks = %v, want %v", got, want)
	}
}

func TestWeeks_StartAfterEnd(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := Weeks(start, end); got != nil {
		t.Errorf("Weeks with start after end = %v, want nil", got)
	}
}
