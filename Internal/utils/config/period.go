package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// Lookback is a parsed period string. Months and years are calendar
// offsets; everything else is a plain duration.
type Lookback struct {
	Months   int
	Years    int
	Duration time.Duration
}

// Start returns the first instant of the lookback window ending at end.
func (l Lookback) Start(end time.Time) time.Time {
	return end.AddDate(-l.Years, -l.Months, 0).Add(-l.Duration)
}

// ParsePeriod accepts "6mo", "1y", "90d", "26w", "2160h" and
// str2duration compounds such as "1w3d".
func ParsePeriod(period string) (Lookback, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	if p == "" {
		return Lookback{}, fmt.Errorf("empty period")
	}

	switch {
	case strings.HasSuffix(p, "mo"):
		n, err := positiveInt(strings.TrimSuffix(p, "mo"))
		if err != nil {
			return Lookback{}, fmt.Errorf("period %q: %w", period, err)
		}
		return Lookback{Months: n}, nil
	case strings.HasSuffix(p, "y"):
		n, err := positiveInt(strings.TrimSuffix(p, "y"))
		if err != nil {
			return Lookback{}, fmt.Errorf("period %q: %w", period, err)
		}
		return Lookback{Years: n}, nil
	}

	d, err := str2duration.ParseDuration(p)
	if err != nil {
		return Lookback{}, fmt.Errorf("period %q: %w", period, err)
	}
	if d <= 0 {
		return Lookback{}, fmt.Errorf("period %q must be positive", period)
	}
	return Lookback{Duration: d}, nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}
