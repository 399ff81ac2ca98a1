package detection

import (
	"sort"

	"github.com/fazecat/eodscanner/Internal/strategy/indicators"
	"github.com/fazecat/eodscanner/Internal/utils/config"
)

// Flag names a boolean setup condition.
type Flag string

const (
	TrendLong          Flag = "trend_long"
	TrendShort         Flag = "trend_short"
	BreakoutHigh       Flag = "breakout_high"
	BreakoutLow        Flag = "breakout_low"
	BullishMACDCross   Flag = "bullish_macd_cross"
	BearishMACDCross   Flag = "bearish_macd_cross"
	MomentumLong       Flag = "momentum_long"
	MomentumShort      Flag = "momentum_short"
	VolSurge           Flag = "vol_surge"
	VolumeConfirmLong  Flag = "volume_confirm_long"
	VolumeConfirmShort Flag = "volume_confirm_short"
	NarrowCPR          Flag = "narrow_cpr_percentile"
	BBSqueeze          Flag = "bb_squeeze"
	BBExpansion        Flag = "bb_expansion"
	IBSExtreme         Flag = "ibs_extreme"
	IBSOversold        Flag = "ibs_oversold"
	IBSOverbought      Flag = "ibs_overbought"
	NR7                Flag = "nr7"
	InsideDay          Flag = "inside_day"
	MomentumShift      Flag = "momentum_shift"
	BullishDivergence  Flag = "bullish_divergence"
	BearishDivergence  Flag = "bearish_divergence"
	Doji               Flag = "doji"
	Hammer             Flag = "hammer"
	ShootingStar       Flag = "shooting_star"
)

const (
	trendLongRSI     = 55
	trendShortRSI    = 45
	momentumLongRSI  = 60
	momentumShortRSI = 40
	momentumShiftRSI = 5
	bbExpansionRank  = 0.8
	divergenceBand   = 0.01
)

// Setup is one catalog entry: a named predicate over indicator values.
type Setup struct {
	Flag        Flag
	Description string
	Predicate   func(s indicators.IndicatorSet, th config.Thresholds) bool
}

// Catalog lists every setup in evaluation order. Predicates read only the
// indicator set so each can be tested with a hand-built set.
var Catalog = []Setup{
	{TrendLong, "close > fast EMA > slow EMA with RSI >= 55", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.Close > s.EMAFast && s.EMAFast > s.EMASlow && s.RSI >= trendLongRSI
	}},
	{TrendShort, "close < fast EMA < slow EMA with RSI <= 45", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.Close < s.EMAFast && s.EMAFast < s.EMASlow && s.RSI <= trendShortRSI
	}},
	{BreakoutHigh, "close above the prior 20-bar high", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.Close > s.PriorHigh20
	}},
	{BreakoutLow, "close below the prior 20-bar low", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.Close < s.PriorLow20
	}},
	{BullishMACDCross, "MACD crossed above signal", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.MACD > s.MACDSignal && s.PrevMACD <= s.PrevMACDSignal
	}},
	{BearishMACDCross, "MACD crossed below signal", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.MACD < s.MACDSignal && s.PrevMACD >= s.PrevMACDSignal
	}},
	{MomentumLong, "RSI in the bullish zone with %K >= %D", func(s indicators.IndicatorSet, th config.Thresholds) bool {
		return s.RSI >= momentumLongRSI && s.RSI < th.RSIOverbought && s.StochK >= s.StochD
	}},
	{MomentumShort, "RSI in the bearish zone with %K <= %D", func(s indicators.IndicatorSet, th config.Thresholds) bool {
		return s.RSI <= momentumShortRSI && s.RSI > th.RSIOversold && s.StochK <= s.StochD
	}},
	{VolSurge, "volume ratio at or above the surge threshold on liquid volume", volSurge},
	{VolumeConfirmLong, "volume surge on an up close", func(s indicators.IndicatorSet, th config.Thresholds) bool {
		return volSurge(s, th) && s.Close > s.PrevClose
	}},
	{VolumeConfirmShort, "volume surge on a down close", func(s indicators.IndicatorSet, th config.Thresholds) bool {
		return volSurge(s, th) && s.Close < s.PrevClose
	}},
	{NarrowCPR, "CPR width in the bottom percentile of its 20-bar window", func(s indicators.IndicatorSet, th config.Thresholds) bool {
		return s.CPRPercentile <= th.CPRNarrowPercentile
	}},
	{BBSqueeze, "Bollinger bandwidth in the bottom percentile of its 20-bar window", func(s indicators.IndicatorSet, th config.Thresholds) bool {
		return s.BBWidthPercentile <= th.BBSqueezePercentile
	}},
	{BBExpansion, "Bollinger bandwidth in the top fifth of its 20-bar window", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.BBWidthPercentile >= bbExpansionRank
	}},
	{IBSExtreme, "close at either extreme of the bar", func(s indicators.IndicatorSet, th config.Thresholds) bool {
		return ibsOversold(s, th) || ibsOverbought(s, th)
	}},
	{IBSOversold, "close near the bar low", ibsOversold},
	{IBSOverbought, "close near the bar high", ibsOverbought},
	{NR7, "narrowest range of the last seven bars", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.NR7
	}},
	{InsideDay, "range inside the previous bar", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.InsideDay
	}},
	{MomentumShift, "RSI moved more than 5 points in one bar", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		d := s.RSI - s.PrevRSI
		return d > momentumShiftRSI || d < -momentumShiftRSI
	}},
	{BullishDivergence, "near the 20-bar low with rising RSI and OBV", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.Close <= s.PriorLow20*(1+divergenceBand) && s.RSI > s.PrevRSI && s.OBVTrend > 0
	}},
	{BearishDivergence, "near the 20-bar high with falling RSI and OBV", func(s indicators.IndicatorSet, _ config.Thresholds) bool {
		return s.Close >= s.PriorHigh20*(1-divergenceBand) && s.RSI < s.PrevRSI && s.OBVTrend < 0
	}},
	{Doji, "doji candle", func(s indicators.IndicatorSet, _ config.Thresholds) bool { return s.Doji }},
	{Hammer, "hammer candle", func(s indicators.IndicatorSet, _ config.Thresholds) bool { return s.Hammer }},
	{ShootingStar, "shooting star candle", func(s indicators.IndicatorSet, _ config.Thresholds) bool { return s.ShootingStar }},
}

func volSurge(s indicators.IndicatorSet, th config.Thresholds) bool {
	return s.VolumeRatio >= th.VolSurgeThreshold && s.Volume > float64(th.MinVolume)
}

func ibsOversold(s indicators.IndicatorSet, th config.Thresholds) bool {
	return s.IBS <= th.IBSExtremeThreshold
}

func ibsOverbought(s indicators.IndicatorSet, th config.Thresholds) bool {
	return s.IBS >= 1-th.IBSExtremeThreshold
}

// SetupFlags records the outcome of every catalog entry, active or not.
type SetupFlags map[Flag]bool

func (f SetupFlags) Has(flag Flag) bool {
	return f[flag]
}

// Active returns the names of the flags that fired, sorted.
func (f SetupFlags) Active() []string {
	names := make([]string, 0, len(f))
	for flag, on := range f {
		if on {
			names = append(names, string(flag))
		}
	}
	sort.Strings(names)
	return names
}

// Flags lists every catalog flag in catalog order.
func Flags() []Flag {
	out := make([]Flag, len(Catalog))
	for i, s := range Catalog {
		out[i] = s.Flag
	}
	return out
}

// Detect evaluates the full catalog.
func Detect(set indicators.IndicatorSet, th config.Thresholds) SetupFlags {
	flags := make(SetupFlags, len(Catalog))
	for _, s := range Catalog {
		flags[s.Flag] = s.Predicate(set, th)
	}
	return flags
}
