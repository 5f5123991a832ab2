package extract

import (
	"time"

	"github.com/sweetpotato0/reportflow/report"
)

// Relative period keywords the date prompt may return.
const (
	relToday     = "today"
	relYesterday = "yesterday"
	relThisWeek  = "this_week"
	relLastWeek  = "last_week"
	relThisMonth = "this_month"
	relLastMonth = "last_month"
	relThisYear  = "this_year"
	relLastYear  = "last_year"
)

// resolveRelative turns a relative keyword into an explicit date range
// anchored at now. Weeks start on Monday; open-ended current periods close at
// today. Unknown keywords yield an unspecified range.
func resolveRelative(keyword string, now time.Time) (from, to string) {
	day := func(t time.Time) string { return t.Format("2006-01-02") }
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch keyword {
	case relToday:
		return day(today), day(today)
	case relYesterday:
		y := today.AddDate(0, 0, -1)
		return day(y), day(y)
	case relThisWeek:
		return day(weekStart(today)), day(today)
	case relLastWeek:
		start := weekStart(today).AddDate(0, 0, -7)
		return day(start), day(start.AddDate(0, 0, 6))
	case relThisMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return day(start), day(today)
	case relLastMonth:
		firstOfThis := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		start := firstOfThis.AddDate(0, -1, 0)
		return day(start), day(firstOfThis.AddDate(0, 0, -1))
	case relThisYear:
		start := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
		return day(start), day(today)
	case relLastYear:
		start := time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, today.Location())
		return day(start), day(time.Date(today.Year()-1, 12, 31, 0, 0, 0, 0, today.Location()))
	}
	return report.Unspecified, report.Unspecified
}

func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return t.AddDate(0, 0, -offset)
}
