package indicators

import (
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// RSI uses exponential averages of gains and losses. A flat stretch is
// neutral (50) and gains with no losses pin at 100.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := EMA(gains, period)
	avgLoss := EMA(losses, period)
	for i := range out {
		switch {
		case avgLoss[i] == 0 && avgGain[i] == 0:
			out[i] = 50
		case avgLoss[i] == 0:
			out[i] = 100
		default:
			rs := avgGain[i] / avgLoss[i]
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

func MACD(closes []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMA(line, signal)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}

// ROC is the percent change over period bars; a zero base gives 0.
func ROC(closes []float64, period int) float64 {
	n := len(closes)
	if period < 1 || n <= period {
		return 0
	}
	base := closes[n-1-period]
	if base == 0 {
		return 0
	}
	return (closes[n-1] - base) / base * 100
}

// Stochastic returns %K(kPeriod) and %D (kPeriod, dPeriod SMA) for the
// final bar. A window with no high-low range reads as neutral 50.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d float64) {
	n := len(closes)
	if n < kPeriod+dPeriod-1 || kPeriod < 1 || dPeriod < 1 {
		return 50, 50
	}

	flat := false
	for i := n - dPeriod; i < n; i++ {
		if windowRange(highs, lows, i, kPeriod) == 0 {
			flat = true
			break
		}
	}
	if flat {
		return 50, 50
	}

	series := stochasticSeries(highs, lows, closes, n-(kPeriod+dPeriod-1))
	fastK := techan.NewFastStochasticIndicator(series, kPeriod)
	slowD := techan.NewSlowStochasticIndicator(fastK, dPeriod)
	last := len(series.Candles) - 1
	return fastK.Calculate(last).Float(), slowD.Calculate(last).Float()
}

func windowRange(highs, lows []float64, end, window int) float64 {
	hi, lo := highs[end], lows[end]
	for j := end - window + 1; j < end; j++ {
		if highs[j] > hi {
			hi = highs[j]
		}
		if lows[j] < lo {
			lo = lows[j]
		}
	}
	return hi - lo
}

// stochasticSeries loads bars from start onwards. Candle periods are
// synthetic consecutive days; only ordering matters to the indicator.
func stochasticSeries(highs, lows, closes []float64, start int) *techan.TimeSeries {
	series := techan.NewTimeSeries()
	base := time.Unix(0, 0).UTC()
	for i := start; i < len(closes); i++ {
		period := techan.NewTimePeriod(base.Add(time.Duration(i-start)*24*time.Hour), 24*time.Hour)
		candle := techan.NewCandle(period)
		candle.OpenPrice = big.NewDecimal(closes[i])
		candle.ClosePrice = big.NewDecimal(closes[i])
		candle.MaxPrice = big.NewDecimal(highs[i])
		candle.MinPrice = big.NewDecimal(lows[i])
		series.AddCandle(candle)
	}
	return series
}
