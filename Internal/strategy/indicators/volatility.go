package indicators

import "math"

func TrueRange(highs, lows, closes []float64) []float64 {
	n := len(closes)
	tr := make([]float64, n)
	if n == 0 {
		return tr
	}
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// ATR is the exponential average of true range.
func ATR(highs, lows, closes []float64, period int) []float64 {
	return EMA(TrueRange(highs, lows, closes), period)
}

type BollingerBands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
	// WidthPct is (upper-lower)/middle*100, 0 when middle is 0.
	WidthPct []float64
}

func Bollinger(closes []float64, period int, multiplier float64) BollingerBands {
	mid := SMA(closes, period)
	std := RollingStd(closes, period)
	n := len(closes)
	bb := BollingerBands{
		Upper:    nanSlice(n),
		Middle:   mid,
		Lower:    nanSlice(n),
		WidthPct: nanSlice(n),
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		bb.Upper[i] = mid[i] + multiplier*std[i]
		bb.Lower[i] = mid[i] - multiplier*std[i]
		if mid[i] == 0 {
			bb.WidthPct[i] = 0
		} else {
			bb.WidthPct[i] = (bb.Upper[i] - bb.Lower[i]) / mid[i] * 100
		}
	}
	return bb
}

// Position places price inside the bands at index i; zero width is 0.5.
func (bb BollingerBands) Position(price float64, i int) float64 {
	width := bb.Upper[i] - bb.Lower[i]
	if width == 0 || math.IsNaN(width) {
		return 0.5
	}
	return (price - bb.Lower[i]) / width
}
