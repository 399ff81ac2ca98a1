package config

import (
	"fmt"
	"io"
	"strings"
)

// DisplayConfiguration shows the effective configuration
func DisplayConfiguration(w io.Writer, cfg Config) {
	fmt.Fprintln(w, "\nCurrent Configuration:")

	fmt.Fprintln(w, "\n=== Universe ===")
	fmt.Fprintf(w, "Universe: %s\n", cfg.Universe)
	if len(cfg.CustomSymbols) > 0 {
		fmt.Fprintf(w, "Custom Symbols: %s\n", strings.Join(cfg.CustomSymbols, ", "))
	}
	fmt.Fprintf(w, "Period: %s\n", cfg.Period)
	fmt.Fprintf(w, "Source: %s (benchmark %s, calendar %s)\n", cfg.Source, cfg.Benchmark, cfg.Exchange)
	fmt.Fprintf(w, "Fetch: %d attempt(s), %s delay, %s timeout, %d worker(s)\n", cfg.MaxRetries, cfg.RetryDelay, cfg.FetchTimeout, cfg.Workers)

	th := cfg.Thresholds
	fmt.Fprintln(w, "\n=== Thresholds ===")
	fmt.Fprintf(w, "  • Min Volume: %d\n", th.MinVolume)
	fmt.Fprintf(w, "  • Volume Surge: %.2f\n", th.VolSurgeThreshold)
	fmt.Fprintf(w, "  • Narrow CPR Percentile: %.2f\n", th.CPRNarrowPercentile)
	fmt.Fprintf(w, "  • BB Squeeze Percentile: %.2f\n", th.BBSqueezePercentile)
	fmt.Fprintf(w, "  • IBS Extreme: %.2f / %.2f\n", th.IBSExtremeThreshold, 1-th.IBSExtremeThreshold)
	fmt.Fprintf(w, "  • RSI Oversold/Overbought: %.0f / %.0f\n", th.RSIOversold, th.RSIOverbought)
	fmt.Fprintf(w, "  • Relative Strength: ±%.2f%%\n", th.RSThresholdPct)

	wt := cfg.Weights
	fmt.Fprintln(w, "\n=== Signal Weights ===")
	fmt.Fprintf(w, "    - Trend: %d\n", wt.Trend)
	fmt.Fprintf(w, "    - Breakout: %d\n", wt.Breakout)
	fmt.Fprintf(w, "    - MACD Cross: %d\n", wt.MACDCross)
	fmt.Fprintf(w, "    - Momentum: %d\n", wt.Momentum)
	fmt.Fprintf(w, "    - Volume: %d\n", wt.Volume)
	fmt.Fprintf(w, "    - Sector: %d\n", wt.Sector)
	fmt.Fprintf(w, "    - CPR Compression: %d\n", wt.CPRCompression)
	fmt.Fprintf(w, "    - IBS Extreme: %d\n", wt.IBSExtreme)

	r := cfg.Risk
	fmt.Fprintln(w, "\n=== Risk ===")
	fmt.Fprintf(w, "Risk Per Trade: %.2f\n", r.RiskPerTrade)
	fmt.Fprintf(w, "Stop: %.2f x ATR, target %.2f R\n", r.StopATRMultiplier, r.TargetRRRatio)
	fmt.Fprintf(w, "Price Tick: %g, Lot Size: %d\n", r.PriceTick, r.LotSize)

	fmt.Fprintln(w, "\n=== Output ===")
	fmt.Fprintf(w, "Directory: %s (%s)\n", cfg.OutputDir, cfg.Timezone)
	fmt.Fprintf(w, "Top N: %d, Min Candidate Score: %d\n", cfg.TopN, cfg.MinCandidateScore)
	fmt.Fprintf(w, "Database Sink: %v\n", enabledStr(cfg.DatabaseURL != ""))
	fmt.Fprintf(w, "Metrics File: %v\n", enabledStr(cfg.MetricsFile != ""))
}

func enabledStr(enabled bool) string {
	if enabled {
		return "Enabled"
	}
	return "Disabled"
}
