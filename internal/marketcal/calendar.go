// Package marketcal answers trading-day questions for the US equity market.
// All functions are pure and operate on UTC calendar dates.
package marketcal

import "time"

// CloseHourUTC is the regular NYSE close (16:00 ET) expressed in UTC.
const CloseHourUTC = 21

// Day normalizes an instant to its UTC calendar date at midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MarketCloseUTC returns the market-close instant for the given date.
func MarketCloseUTC(t time.Time) time.Time {
	d := Day(t)
	return time.Date(d.Year(), d.Month(), d.Day(), CloseHourUTC, 0, 0, 0, time.UTC)
}

// IsTradingDay reports whether the given date is a weekday that is not an
// observed market holiday.
func IsTradingDay(t time.Time) bool {
	d := Day(t)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isHoliday(d)
}

// LastTradingDayOnOrBefore walks backward from the given date, skipping
// weekends and holidays, and returns the nearest trading day at midnight UTC.
func LastTradingDayOnOrBefore(t time.Time) time.Time {
	d := Day(t)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// ExpectedTradingDays counts the trading days in the closed range [start, end].
// Returns 0 when start is after end.
func ExpectedTradingDays(start, end time.Time) int {
	count := 0
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			count++
		}
	}
	return count
}

// isHoliday reports whether d (midnight UTC) is an observed market holiday.
func isHoliday(d time.Time) bool {
	for _, h := range holidaysForYear(d.Year()) {
		if h.Equal(d) {
			return true
		}
	}
	return false
}

// holidaysForYear returns the observed holiday dates for the given year.
// Fixed-date holidays falling on Saturday are observed the preceding Friday,
// on Sunday the following Monday.
func holidaysForYear(year int) []time.Time {
	return []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)),   // New Year's Day
		nthWeekday(year, time.January, time.Monday, 3),                     // Martin Luther King Jr. Day
		nthWeekday(year, time.February, time.Monday, 3),                    // Washington's Birthday
		easterSunday(year).AddDate(0, 0, -2),                               // Good Friday
		lastWeekday(year, time.May, time.Monday),                           // Memorial Day
		observed(time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC)),     // Juneteenth
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),      // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),                   // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4),                  // Thanksgiving
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)), // Christmas
	}
}

// observed shifts a fixed-date holiday off the weekend: Saturday is observed
// the Friday before, Sunday the Monday after.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// nthWeekday returns the nth given weekday of a month (n starting at 1).
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the last given weekday of a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// easterSunday computes Easter for the given year (Gregorian computus).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
