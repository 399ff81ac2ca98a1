package indicators

import "math"

// CPR is the central pivot range built from one session's high, low and
// close. It applies to the following session.
type CPR struct {
	Pivot    float64
	BC       float64
	TC       float64
	Top      float64
	Bottom   float64
	WidthPct float64
}

func CalculateCPR(high, low, close float64) CPR {
	pivot := (high + low + close) / 3.0
	bc := (high + low) / 2.0
	tc := 2*pivot - bc
	cpr := CPR{
		Pivot:  pivot,
		BC:     bc,
		TC:     tc,
		Top:    math.Max(tc, bc),
		Bottom: math.Min(tc, bc),
	}
	if pivot != 0 {
		cpr.WidthPct = math.Abs(tc-bc) / pivot * 100
	}
	return cpr
}

func CPRWidths(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = CalculateCPR(highs[i], lows[i], closes[i]).WidthPct
	}
	return out
}

// IBS is internal bar strength, 0.5 on a zero-range bar.
func IBS(high, low, close float64) float64 {
	r := high - low
	if r == 0 {
		return 0.5
	}
	return (close - low) / r
}

// SupportResistance returns the lowest low and highest high of the last
// window bars ending at end (inclusive).
func SupportResistance(highs, lows []float64, end, window int) (support, resistance float64) {
	start := end - window + 1
	if start < 0 {
		start = 0
	}
	support, resistance = lows[start], highs[start]
	for i := start + 1; i <= end; i++ {
		support = math.Min(support, lows[i])
		resistance = math.Max(resistance, highs[i])
	}
	return support, resistance
}
