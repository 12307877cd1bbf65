package report

import (
	"fmt"
	"time"
)

// WeekKey formats the ISO week of t as "<year>-<week>", e.g. "2024-03".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}

// Weeks lists the ISO week keys covered by [start, end], ascending. Stepping
// seven days at a time visits every week once; the final week is appended
// explicitly in case the last step overshoots end.
func Weeks(start, end time.Time) []string {
	if start.After(end) {
		return nil
	}
	var res []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 7) {
		res = append(res, WeekKey(d))
	}
	if last := WeekKey(end); res[len(res)-1] != last {
		res = append(res, last)
	}
	return res
}
