package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers business-day questions for one exchange.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// GetCalendar loads the exchange calendar for a MIC code (e.g. "xnys", "xnse").
// Unknown codes fall back to a plain Monday-Friday calendar in UTC.
func GetCalendar(mic string) *TradingCalendar {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic != "" {
		if cal := calendar.GetCalendar(mic); cal != nil {
			return &TradingCalendar{Calendar: cal, Timezone: cal.Loc}
		}
	}
	return &TradingCalendar{Fallback: true, Timezone: time.UTC}
}

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}
	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// PreviousTradingDay returns the last trading day strictly before date.
func (tc *TradingCalendar) PreviousTradingDay(date time.Time) time.Time {
	d := date
	for i := 0; i < 15; i++ {
		d = d.AddDate(0, 0, -1)
		if tc.IsTradingDay(d) {
			return d
		}
	}
	return d
}

// IsStale reports whether a bar dated lastBar is older than the most recent
// completed session before now.
func (tc *TradingCalendar) IsStale(lastBar, now time.Time) bool {
	expected := tc.PreviousTradingDay(now)
	return dayKey(lastBar, tc.Timezone) < dayKey(expected, tc.Timezone)
}

func dayKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02")
}
