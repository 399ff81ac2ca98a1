package indicators

import (
	"fmt"
	"math"
	"time"

	"github.com/fazecat/eodscanner/Internal/types"
)

const (
	EMAFastPeriod    = 20
	EMASlowPeriod    = 50
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignalPeriod = 9
	RSIPeriod        = 14
	ATRPeriod        = 14
	StochKPeriod     = 14
	StochDPeriod     = 3
	ROCPeriod        = 10
	BBPeriod         = 20
	BBMultiplier     = 2.0
	VolumeWindow     = 20
	RankWindow       = 20
	LevelWindow      = 20
	ReturnBars       = 5
	OBVTrendBars     = 5

	// MinBars covers the slow trend average plus one percentile window.
	MinBars = EMASlowPeriod + RankWindow
)

type InsufficientDataError struct {
	Symbol string
	Have   int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d bars, need %d", e.Symbol, e.Have, e.Need)
}

// IndicatorSet holds the final-bar reading of every indicator.
type IndicatorSet struct {
	Symbol string
	Date   time.Time

	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	PrevClose float64

	EMAFast float64
	EMASlow float64

	MACD           float64
	MACDSignal     float64
	MACDHist       float64
	PrevMACD       float64
	PrevMACDSignal float64

	RSI     float64
	PrevRSI float64
	StochK  float64
	StochD  float64
	ROC     float64

	IBS float64

	OBV       float64
	OBVChange float64
	// OBVTrend is +1, -1 or 0 over the last OBVTrendBars bars.
	OBVTrend int

	VolumeAvg   float64
	VolumeRatio float64

	ATR float64

	BBUpper           float64
	BBMiddle          float64
	BBLower           float64
	BBWidthPct        float64
	BBPosition        float64
	BBWidthPercentile float64

	Pivot         float64
	CPRTop        float64
	CPRBottom     float64
	CPRWidthPct   float64
	CPRPercentile float64
	PrevPivot     float64
	PrevCPRTop    float64
	PrevCPRBottom float64

	Support     float64
	Resistance  float64
	PriorHigh20 float64
	PriorLow20  float64

	Return5D float64

	NR7          bool
	InsideDay    bool
	Doji         bool
	Hammer       bool
	ShootingStar bool
}

// Compute evaluates all indicators on the final bar of the series.
func Compute(series types.PriceSeries) (IndicatorSet, error) {
	n := series.Len()
	if n < MinBars {
		return IndicatorSet{}, &InsufficientDataError{Symbol: series.Symbol, Have: n, Need: MinBars}
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	last := series.Last()
	i, p := n-1, n-2

	set := IndicatorSet{
		Symbol:    series.Symbol,
		Date:      last.Date,
		Open:      last.Open,
		High:      last.High,
		Low:       last.Low,
		Close:     last.Close,
		Volume:    float64(last.Volume),
		PrevClose: closes[p],
	}

	set.EMAFast = EMA(closes, EMAFastPeriod)[i]
	set.EMASlow = EMA(closes, EMASlowPeriod)[i]

	macd := MACD(closes, MACDFast, MACDSlow, MACDSignalPeriod)
	set.MACD = macd.Line[i]
	set.MACDSignal = macd.Signal[i]
	set.MACDHist = macd.Histogram[i]
	set.PrevMACD = macd.Line[p]
	set.PrevMACDSignal = macd.Signal[p]

	rsi := RSI(closes, RSIPeriod)
	set.RSI = rsi[i]
	set.PrevRSI = rsi[p]
	set.StochK, set.StochD = Stochastic(highs, lows, closes, StochKPeriod, StochDPeriod)
	set.ROC = ROC(closes, ROCPeriod)

	set.IBS = IBS(last.High, last.Low, last.Close)

	obv := OBV(closes, volumes)
	set.OBV = obv[i]
	set.OBVChange = obv[i] - obv[i-OBVTrendBars]
	switch {
	case set.OBVChange > 0:
		set.OBVTrend = 1
	case set.OBVChange < 0:
		set.OBVTrend = -1
	}

	set.VolumeRatio, set.VolumeAvg = VolumeRatio(volumes, VolumeWindow)

	set.ATR = ATR(highs, lows, closes, ATRPeriod)[i]

	bb := Bollinger(closes, BBPeriod, BBMultiplier)
	set.BBUpper = bb.Upper[i]
	set.BBMiddle = bb.Middle[i]
	set.BBLower = bb.Lower[i]
	set.BBWidthPct = bb.WidthPct[i]
	set.BBPosition = bb.Position(last.Close, i)
	set.BBWidthPercentile = PercentileRank(bb.WidthPct, RankWindow)[i]

	cpr := CalculateCPR(last.High, last.Low, last.Close)
	set.Pivot = cpr.Pivot
	set.CPRTop = cpr.Top
	set.CPRBottom = cpr.Bottom
	set.CPRWidthPct = cpr.WidthPct
	set.CPRPercentile = PercentileRank(CPRWidths(highs, lows, closes), RankWindow)[i]
	prevCPR := CalculateCPR(highs[p], lows[p], closes[p])
	set.PrevPivot = prevCPR.Pivot
	set.PrevCPRTop = prevCPR.Top
	set.PrevCPRBottom = prevCPR.Bottom

	set.Support, set.Resistance = SupportResistance(highs, lows, i, LevelWindow)
	set.PriorLow20, set.PriorHigh20 = SupportResistance(highs, lows, p, LevelWindow)

	if base := closes[i-ReturnBars]; base != 0 {
		set.Return5D = (last.Close/base - 1) * 100
	}

	set.NR7 = IsNR7(highs, lows)
	set.InsideDay = IsInsideDay(highs, lows)
	candle := DetectCandle(last.Open, last.High, last.Low, last.Close)
	set.Doji = candle.Doji
	set.Hammer = candle.Hammer
	set.ShootingStar = candle.ShootingStar

	return set, nil
}

// ValueNames is the stable column order of Values.
var ValueNames = []string{
	"close", "prev_close", "volume",
	"ema_fast", "ema_slow",
	"macd", "macd_signal", "macd_hist",
	"rsi", "prev_rsi", "stoch_k", "stoch_d", "roc",
	"ibs", "obv", "obv_change",
	"volume_avg", "volume_ratio",
	"atr",
	"bb_upper", "bb_middle", "bb_lower", "bb_width_pct", "bb_position", "bb_width_percentile",
	"pivot", "cpr_top", "cpr_bottom", "cpr_width_pct", "cpr_percentile",
	"support", "resistance", "prior_high_20", "prior_low_20",
	"return_5d",
}

// Values flattens the numeric indicators for tabular output.
func (s IndicatorSet) Values() map[string]float64 {
	return map[string]float64{
		"close":               s.Close,
		"prev_close":          s.PrevClose,
		"volume":              s.Volume,
		"ema_fast":            s.EMAFast,
		"ema_slow":            s.EMASlow,
		"macd":                s.MACD,
		"macd_signal":         s.MACDSignal,
		"macd_hist":           s.MACDHist,
		"rsi":                 s.RSI,
		"prev_rsi":            s.PrevRSI,
		"stoch_k":             s.StochK,
		"stoch_d":             s.StochD,
		"roc":                 s.ROC,
		"ibs":                 s.IBS,
		"obv":                 s.OBV,
		"obv_change":          s.OBVChange,
		"volume_avg":          s.VolumeAvg,
		"volume_ratio":        s.VolumeRatio,
		"atr":                 s.ATR,
		"bb_upper":            s.BBUpper,
		"bb_middle":           s.BBMiddle,
		"bb_lower":            s.BBLower,
		"bb_width_pct":        s.BBWidthPct,
		"bb_position":         s.BBPosition,
		"bb_width_percentile": s.BBWidthPercentile,
		"pivot":               s.Pivot,
		"cpr_top":             s.CPRTop,
		"cpr_bottom":          s.CPRBottom,
		"cpr_width_pct":       s.CPRWidthPct,
		"cpr_percentile":      s.CPRPercentile,
		"support":             s.Support,
		"resistance":          s.Resistance,
		"prior_high_20":       s.PriorHigh20,
		"prior_low_20":        s.PriorLow20,
		"return_5d":           s.Return5D,
	}
}

// Finite reports whether every numeric value is a real number.
func (s IndicatorSet) Finite() bool {
	for _, v := range s.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
