package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// Period is a relative time period prefix
type Period string

const (
	PeriodLast  Period = "Last"
	PeriodToday Period = "Today"
	PeriodThis  Period = "This"
	PeriodNext  Period = "Next"
)

// DefaultTimespanPeriods are the periods offered for Timespan filters
var DefaultTimespanPeriods = []Period{PeriodLast, PeriodToday, PeriodThis, PeriodNext}

var periodRanges = map[Period][]string{
	PeriodLast: {"Week", "Month", "Quarter", "6 months", "Year"},
	PeriodThis: {"Week", "Month", "Quarter", "Year"},
	PeriodNext: {"Week", "Month", "Quarter", "6 months", "Year"},
}

// TimespanOptions expands periods into choices such as "Last Week" /
// "last week". A period without sub-ranges yields a single choice.
func TimespanOptions(periods ...Period) []models.Option {
	var options []models.Option
	for _, period := range periods {
		ranges, ok := periodRanges[period]
		if !ok {
			options = append(options, models.Option{
				Label: string(period),
				Value: strings.ToLower(string(period)),
			})
			continue
		}
		for _, r := range ranges {
			options = append(options, models.Option{
				Label: fmt.Sprintf("%s %s", period, r),
				Value: strings.ToLower(fmt.Sprintf("%s %s", period, r)),
			})
		}
	}
	return options
}

// TimespanRange returns the inclusive date range a timespan value such as
// "last month" covers relative to now. Weeks start on Monday.
func TimespanRange(value string, now time.Time) (time.Time, time.Time, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if value == "today" {
		return today, today, nil
	}

	period, unit, ok := strings.Cut(value, " ")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("unknown timespan %q", value)
	}

	switch period {
	case "last":
		switch unit {
		case "week":
			return today.AddDate(0, 0, -7), today, nil
		case "month":
			return today.AddDate(0, -1, 0), today, nil
		case "quarter":
			return today.AddDate(0, -3, 0), today, nil
		case "6 months":
			return today.AddDate(0, -6, 0), today, nil
		case "year":
			return today.AddDate(-1, 0, 0), today, nil
		}
	case "next":
		switch unit {
		case "week":
			return today, today.AddDate(0, 0, 7), nil
		case "month":
			return today, today.AddDate(0, 1, 0), nil
		case "quarter":
			return today, today.AddDate(0, 3, 0), nil
		case "6 months":
			return today, today.AddDate(0, 6, 0), nil
		case "year":
			return today, today.AddDate(1, 0, 0), nil
		}
	case "this":
		switch unit {
		case "week":
			offset := (int(today.Weekday()) + 6) % 7
			start := today.AddDate(0, 0, -offset)
			return start, start.AddDate(0, 0, 6), nil
		case "month":
			start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
			return start, start.AddDate(0, 1, -1), nil
		case "quarter":
			month := time.Month((int(today.Month())-1)/3*3 + 1)
			start := time.Date(today.Year(), month, 1, 0, 0, 0, 0, today.Location())
			return start, start.AddDate(0, 3, -1), nil
		case "year":
			start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
			return start, start.AddDate(1, 0, -1), nil
		}
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown timespan %q", value)
}
