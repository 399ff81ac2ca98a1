package indicators

import "math"

const dojiBodyRatio = 0.1

type CandlePattern struct {
	Doji         bool
	Hammer       bool
	ShootingStar bool
}

// DetectCandle classifies a single bar by body and shadow ratios. A bar
// with no range has no pattern.
func DetectCandle(open, high, low, close float64) CandlePattern {
	rng := high - low
	if rng <= 0 {
		return CandlePattern{}
	}
	body := math.Abs(close - open)
	upper := high - math.Max(open, close)
	lower := math.Min(open, close) - low

	var p CandlePattern
	p.Doji = body <= dojiBodyRatio*rng
	if !p.Doji {
		p.Hammer = lower >= 2*body && upper <= body
		p.ShootingStar = upper >= 2*body && lower <= body
	}
	return p
}

// IsNR7 reports whether the final range is the narrowest of the last seven.
func IsNR7(highs, lows []float64) bool {
	n := len(highs)
	if n < 7 {
		return false
	}
	last := highs[n-1] - lows[n-1]
	for i := n - 7; i < n-1; i++ {
		if highs[i]-lows[i] < last {
			return false
		}
	}
	return true
}

func IsInsideDay(highs, lows []float64) bool {
	n := len(highs)
	if n < 2 {
		return false
	}
	return highs[n-1] <= highs[n-2] && lows[n-1] >= lows[n-2]
}
