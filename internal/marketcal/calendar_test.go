package marketcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestIsTradingDay covers weekends, fixed holidays, floating holidays, and
// observance shifting.
func TestIsTradingDay(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"regular Wednesday", date(2024, time.March, 13), true},
		{"Saturday", date(2024, time.March, 16), false},
		{"Sunday", date(2024, time.March, 17), false},
		{"New Year's Day 2024", date(2024, time.January, 1), false},
		{"MLK Day 2024 (3rd Monday Jan)", date(2024, time.January, 15), false},
		{"Washington's Birthday 2024", date(2024, time.February, 19), false},
		{"Good Friday 2024", date(2024, time.March, 29), false},
		{"Memorial Day 2024 (last Monday May)", date(2024, time.May, 27), false},
		{"Juneteenth 2024", date(2024, time.June, 19), false},
		{"Independence Day 2024", date(2024, time.July, 4), false},
		{"Labor Day 2024", date(2024, time.September, 2), false},
		{"Thanksgiving 2024", date(2024, time.November, 28), false},
		{"Christmas 2024", date(2024, time.December, 25), false},
		{"day after Christmas 2024", date(2024, time.December, 26), true},
		// July 4 2026 is a Saturday, observed Friday July 3.
		{"Independence Day 2026 observed Friday", date(2026, time.July, 3), false},
		// June 19 2022 is a Sunday, observed Monday June 20.
		{"Juneteenth 2022 observed Monday", date(2022, time.June, 20), false},
		// Jan 1 2022 is a Saturday, observed Friday Dec 31 2021.
		{"New Year 2022 observed previous Friday", date(2021, time.December, 31), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTradingDay(tt.day))
		})
	}
}

// TestLastTradingDayOnOrBefore verifies backward resolution over weekends and
// holiday clusters.
func TestLastTradingDayOnOrBefore(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want time.Time
	}{
		{"trading day resolves to itself", date(2024, time.March, 13), date(2024, time.March, 13)},
		{"Sunday resolves to Friday", date(2024, time.March, 17), date(2024, time.March, 15)},
		{"Saturday resolves to Friday", date(2024, time.March, 16), date(2024, time.March, 15)},
		// Easter weekend 2024: Good Friday Mar 29, so Sunday Mar 31 walks back to Thursday Mar 28.
		{"Easter Sunday resolves past Good Friday", date(2024, time.March, 31), date(2024, time.March, 28)},
		{"Christmas 2024 resolves to Dec 24", date(2024, time.December, 25), date(2024, time.December, 24)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LastTradingDayOnOrBefore(tt.day))
		})
	}
}

// TestLastTradingDayIgnoresTimeOfDay verifies instants inside a day resolve
// to that day's date when it trades.
func TestLastTradingDayIgnoresTimeOfDay(t *testing.T) {
	instant := time.Date(2024, time.March, 13, 9, 45, 12, 0, time.UTC)
	assert.Equal(t, date(2024, time.March, 13), LastTradingDayOnOrBefore(instant))
}

func TestExpectedTradingDays(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"single trading day", date(2024, time.March, 13), date(2024, time.March, 13), 1},
		{"full week", date(2024, time.March, 11), date(2024, time.March, 15), 5},
		{"week plus weekend", date(2024, time.March, 11), date(2024, time.March, 17), 5},
		// Thanksgiving week 2024: Thu Nov 28 is a holiday.
		{"Thanksgiving week", date(2024, time.November, 25), date(2024, time.November, 29), 4},
		{"inverted range", date(2024, time.March, 15), date(2024, time.March, 11), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedTradingDays(tt.start, tt.end))
		})
	}
}

func TestMarketCloseUTC(t *testing.T) {
	got := MarketCloseUTC(time.Date(2024, time.March, 13, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.March, 13, 21, 0, 0, 0, time.UTC), got)
}
