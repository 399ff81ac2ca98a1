package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fazecat/eodscanner/Internal/types"
)

const tolerance = 1e-9

func flatSeries(symbol string, n int, price float64) types.PriceSeries {
	bars := make([]types.Bar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = types.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000,
		}
	}
	return types.PriceSeries{Symbol: symbol, Bars: bars}
}

func risingSeries(symbol string, n int) types.PriceSeries {
	bars := make([]types.Bar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = types.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 0.5,
			Low:    c - 1,
			Close:  c,
			Volume: int64(1000 + i),
		}
	}
	return types.PriceSeries{Symbol: symbol, Bars: bars}
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, 3)
	want := []float64{1, 1.5, 2.25}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Errorf("EMA[%d]: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"flat is neutral", []float64{10, 10, 10, 10, 10}, 50},
		{"only gains pins at 100", []float64{10, 11, 12, 13, 14}, 100},
		{"only losses is 0", []float64{14, 13, 12, 11, 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.closes, 14)
			if last := got[len(got)-1]; math.Abs(last-tt.want) > tolerance {
				t.Errorf("Expected RSI %f, got %f", tt.want, last)
			}
		})
	}
}

func TestPercentileRank(t *testing.T) {
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 3
	}
	if got := PercentileRank(flat, 20)[19]; math.Abs(got-0.525) > tolerance {
		t.Errorf("Expected flat rank 0.525, got %f", got)
	}

	rising := make([]float64, 25)
	for i := range rising {
		rising[i] = float64(i)
	}
	ranks := PercentileRank(rising, 20)
	if !math.IsNaN(ranks[18]) {
		t.Errorf("Expected NaN before a full window, got %f", ranks[18])
	}
	if math.Abs(ranks[24]-1.0) > tolerance {
		t.Errorf("Expected top rank 1.0, got %f", ranks[24])
	}

	falling := []float64{5, 4, 3, 2, 1}
	if got := PercentileRank(falling, 5)[4]; math.Abs(got-0.2) > tolerance {
		t.Errorf("Expected bottom rank 0.2, got %f", got)
	}
}

func TestIBS(t *testing.T) {
	tests := []struct {
		name             string
		high, low, close float64
		want             float64
	}{
		{"zero range", 100, 100, 100, 0.5},
		{"close at high", 110, 100, 110, 1},
		{"close at low", 110, 100, 100, 0},
		{"quarter", 110, 100, 102.5, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IBS(tt.high, tt.low, tt.close); math.Abs(got-tt.want) > tolerance {
				t.Errorf("Expected IBS %f, got %f", tt.want, got)
			}
		})
	}
}

func TestCalculateCPR(t *testing.T) {
	cpr := CalculateCPR(110, 90, 106)
	if math.Abs(cpr.Pivot-102) > tolerance {
		t.Errorf("Expected pivot 102, got %f", cpr.Pivot)
	}
	if cpr.BC != 100 || math.Abs(cpr.TC-104) > tolerance {
		t.Errorf("Expected BC 100 and TC 104, got %f and %f", cpr.BC, cpr.TC)
	}
	if cpr.Top < cpr.Bottom {
		t.Errorf("Top %f below bottom %f", cpr.Top, cpr.Bottom)
	}
	if want := 4.0 / 102.0 * 100; math.Abs(cpr.WidthPct-want) > tolerance {
		t.Errorf("Expected width %f, got %f", want, cpr.WidthPct)
	}

	bearish := CalculateCPR(110, 90, 94)
	if bearish.Top != bearish.BC || bearish.Bottom != bearish.TC {
		t.Errorf("Expected TC below BC for a weak close, got %+v", bearish)
	}

	if zero := CalculateCPR(0, 0, 0); zero.WidthPct != 0 {
		t.Errorf("Expected zero width for zero pivot, got %f", zero.WidthPct)
	}
}

func TestDetectCandle(t *testing.T) {
	tests := []struct {
		name                   string
		open, high, low, close float64
		want                   CandlePattern
	}{
		{"zero range", 10, 10, 10, 10, CandlePattern{}},
		{"doji", 10, 11, 9, 10.1, CandlePattern{Doji: true}},
		{"hammer", 10.6, 11, 8, 11, CandlePattern{Hammer: true}},
		{"shooting star", 10.4, 13, 10, 10, CandlePattern{ShootingStar: true}},
		{"marubozu", 10, 12, 10, 12, CandlePattern{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCandle(tt.open, tt.high, tt.low, tt.close); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRangeFlags(t *testing.T) {
	highs := []float64{15, 14, 13, 12, 12, 12, 11.5}
	lows := []float64{5, 6, 7, 8, 8, 8, 8.5}
	if !IsNR7(highs, lows) {
		t.Error("Expected NR7 on the narrowest final bar")
	}
	if !IsInsideDay(highs, lows) {
		t.Error("Expected inside day")
	}

	highs[6] = 20
	if IsNR7(highs, lows) || IsInsideDay(highs, lows) {
		t.Error("Wide final bar should not be NR7 or inside")
	}
}

func TestVolumeRatio(t *testing.T) {
	ratio, avg := VolumeRatio([]float64{0, 0, 0}, 20)
	if ratio != 1.0 || avg != 0 {
		t.Errorf("Expected neutral ratio for zero volume, got %f (avg %f)", ratio, avg)
	}

	vols := make([]float64, 20)
	for i := range vols {
		vols[i] = 100
	}
	vols[19] = 290
	ratio, avg = VolumeRatio(vols, 20)
	if math.Abs(avg-109.5) > tolerance || math.Abs(ratio-290/109.5) > tolerance {
		t.Errorf("Unexpected ratio %f avg %f", ratio, avg)
	}
}

func TestStochastic(t *testing.T) {
	series := risingSeries("RISE", 30)
	k, d := Stochastic(series.Highs(), series.Lows(), series.Closes(), 14, 3)
	want := 14.0 / 14.5 * 100
	if math.Abs(k-want) > 1e-6 || math.Abs(d-want) > 1e-6 {
		t.Errorf("Expected %%K and %%D %f, got %f and %f", want, k, d)
	}

	flat := flatSeries("FLAT", 30, 50)
	k, d = Stochastic(flat.Highs(), flat.Lows(), flat.Closes(), 14, 3)
	if k != 50 || d != 50 {
		t.Errorf("Expected neutral stochastic on a flat series, got %f and %f", k, d)
	}
}

func TestCompute_InsufficientData(t *testing.T) {
	_, err := Compute(flatSeries("SHORT", MinBars-1, 100))
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientDataError, got %v", err)
	}
	if insufficient.Have != MinBars-1 || insufficient.Need != MinBars {
		t.Errorf("Unexpected error fields: %+v", insufficient)
	}
}

func TestCompute_FlatSeriesIsNeutral(t *testing.T) {
	set, err := Compute(flatSeries("FLAT", 80, 100))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	checks := map[string][2]float64{
		"ibs":            {set.IBS, 0.5},
		"atr":            {set.ATR, 0},
		"rsi":            {set.RSI, 50},
		"stoch_k":        {set.StochK, 50},
		"volume_ratio":   {set.VolumeRatio, 1},
		"bb_position":    {set.BBPosition, 0.5},
		"cpr_percentile": {set.CPRPercentile, 0.525},
		"cpr_width_pct":  {set.CPRWidthPct, 0},
		"return_5d":      {set.Return5D, 0},
		"macd":           {set.MACD, 0},
	}
	for name, c := range checks {
		if math.Abs(c[0]-c[1]) > tolerance {
			t.Errorf("%s: expected %f, got %f", name, c[1], c[0])
		}
	}
	if !set.Finite() {
		t.Error("Expected every value to be finite")
	}
	if set.Doji || set.Hammer || set.ShootingStar {
		t.Error("Zero-range bar should carry no candle pattern")
	}
}

func TestCompute_RisingSeries(t *testing.T) {
	series := risingSeries("RISE", 90)
	set, err := Compute(series)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !(set.Close > set.EMAFast && set.EMAFast > set.EMASlow) {
		t.Errorf("Expected stacked averages, got close %f fast %f slow %f", set.Close, set.EMAFast, set.EMASlow)
	}
	if set.RSI != 100 {
		t.Errorf("Expected RSI 100 on uninterrupted gains, got %f", set.RSI)
	}
	if set.Close <= set.PriorHigh20 {
		t.Errorf("Expected close %f above prior 20-bar high %f", set.Close, set.PriorHigh20)
	}
	if set.Resistance != set.High || set.Support != series.Bars[70].Low {
		t.Errorf("Unexpected levels: support %f resistance %f", set.Support, set.Resistance)
	}
	if want := (189.0/184.0 - 1) * 100; math.Abs(set.Return5D-want) > tolerance {
		t.Errorf("Expected 5-bar return %f, got %f", want, set.Return5D)
	}
	if set.OBVTrend != 1 {
		t.Errorf("Expected rising OBV, got trend %d", set.OBVTrend)
	}
	if math.Abs(set.ATR-1.5) > 1e-6 {
		t.Errorf("Expected ATR 1.5 for constant true range, got %f", set.ATR)
	}

	values := set.Values()
	if len(values) != len(ValueNames) {
		t.Fatalf("Values has %d entries, ValueNames has %d", len(values), len(ValueNames))
	}
	for _, name := range ValueNames {
		if _, ok := values[name]; !ok {
			t.Errorf("Missing value %s", name)
		}
	}
}
