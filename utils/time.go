package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/meinhoongagan/trucktrack/common"
)

const DateLayout = "2006-01-02"

// LoadLocation resolves a timezone name, falling back to UTC when the
// name is unknown or tzdata is unavailable.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", common.ErrValidation, s)
	}
	return t, nil
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}

// MonthRange returns the first and last day of a "YYYY-MM" month.
func MonthRange(month string) (time.Time, time.Time, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month %q must be YYYY-MM", common.ErrValidation, month)
	}
	return first, first.AddDate(0, 1, -1), nil
}

// WeekRange returns Monday and Sunday of an ISO "YYYY-Www" week.
func WeekRange(week string) (time.Time, time.Time, error) {
	bad := fmt.Errorf("%w: week %q must be YYYY-Www", common.ErrValidation, week)

	yearPart, weekPart, ok := strings.Cut(week, "-W")
	if !ok || len(yearPart) != 4 || len(weekPart) != 2 {
		return time.Time{}, time.Time{}, bad
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return time.Time{}, time.Time{}, bad
	}
	w, err := strconv.Atoi(weekPart)
	if err != nil || w < 1 || w > 53 {
		return time.Time{}, time.Time{}, bad
	}

	// January 4th is always in ISO week 1
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+(w-1)*7)

	if y, got := monday.ISOWeek(); y != year || got != w {
		return time.Time{}, time.Time{}, bad
	}
	return monday, monday.AddDate(0, 0, 6), nil
}

// DaysBetween lists every date from from to to inclusive.
func DaysBetween(from, to time.Time) []string {
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}

// Round2 rounds to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
