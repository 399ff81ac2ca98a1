package sector

import "sort"

type Rating string

const (
	Strong  Rating = "Strong"
	Neutral Rating = "Neutral"
	Weak    Rating = "Weak"
)

// RelativeStrength compares a symbol's short-window return with its
// sector and the benchmark. Returns are percentages.
type RelativeStrength struct {
	Symbol            string
	Sector            string
	Classified        bool
	SymbolReturn      float64
	SectorAvgReturn   float64
	BenchmarkReturn   float64
	RelativeReturnPct float64
	Rating            Rating
}

// SectorAverages is the mean return per classified sector. Unclassified
// symbols are left out.
func SectorAverages(returns map[string]float64, m Map) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	symbols := make([]string, 0, len(returns))
	for sym := range returns {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		sector, ok := m.Lookup(sym)
		if !ok {
			continue
		}
		sums[sector] += returns[sym]
		counts[sector]++
	}

	avgs := make(map[string]float64, len(sums))
	for sector, sum := range sums {
		avgs[sector] = sum / float64(counts[sector])
	}
	return avgs
}

// Compute rates symbolReturn against the benchmark. Strong and Weak are
// strict: a relative return exactly at the threshold is Neutral.
func Compute(symbol string, symbolReturn float64, m Map, sectorAvgs map[string]float64, benchmarkReturn, threshold float64) RelativeStrength {
	sector, classified := m.Lookup(symbol)
	rs := RelativeStrength{
		Symbol:            symbol,
		Sector:            sector,
		Classified:        classified,
		SymbolReturn:      symbolReturn,
		BenchmarkReturn:   benchmarkReturn,
		RelativeReturnPct: symbolReturn - benchmarkReturn,
		Rating:            Neutral,
	}
	if classified {
		rs.SectorAvgReturn = sectorAvgs[sector]
	}

	switch {
	case rs.RelativeReturnPct > threshold:
		rs.Rating = Strong
	case rs.RelativeReturnPct < -threshold:
		rs.Rating = Weak
	}
	return rs
}

// Outperforming is a classified, Strong symbol at or above its sector mean.
func (rs RelativeStrength) Outperforming() bool {
	return rs.Classified && rs.Rating == Strong && rs.SymbolReturn >= rs.SectorAvgReturn
}

// Underperforming is a classified, Weak symbol at or below its sector mean.
func (rs RelativeStrength) Underperforming() bool {
	return rs.Classified && rs.Rating == Weak && rs.SymbolReturn <= rs.SectorAvgReturn
}
