package scoring

import (
	"fmt"

	"github.com/fazecat/eodscanner/Internal/strategy/detection"
	"github.com/fazecat/eodscanner/Internal/strategy/sector"
	"github.com/fazecat/eodscanner/Internal/types"
	"github.com/fazecat/eodscanner/Internal/utils/config"
)

// Input is everything a rule may look at.
type Input struct {
	Flags    detection.SetupFlags
	Strength sector.RelativeStrength
}

// Rule adds Weight to Direction whenever When holds.
type Rule struct {
	Name      string
	Direction types.Direction
	Weight    int
	When      func(in Input) bool
}

type Contribution struct {
	Rule      string
	Direction types.Direction
	Weight    int
}

type ScoreResult struct {
	Symbol       string
	ScoreLong    int
	ScoreShort   int
	Contributing []Contribution
}

func (r ScoreResult) Score(d types.Direction) int {
	if d == types.Long {
		return r.ScoreLong
	}
	return r.ScoreShort
}

// Names lists the contributing rule names for one direction.
func (r ScoreResult) Names(d types.Direction) []string {
	var names []string
	for _, c := range r.Contributing {
		if c.Direction == d {
			names = append(names, c.Rule)
		}
	}
	return names
}

func flag(f detection.Flag) func(Input) bool {
	return func(in Input) bool { return in.Flags.Has(f) }
}

// BuildRules turns the configured weights into the rule catalog. Each rule
// belongs to exactly one direction.
func BuildRules(w config.Weights) ([]Rule, error) {
	rules := []Rule{
		{"trend_long", types.Long, w.Trend, flag(detection.TrendLong)},
		{"trend_short", types.Short, w.Trend, flag(detection.TrendShort)},
		{"breakout_high", types.Long, w.Breakout, flag(detection.BreakoutHigh)},
		{"breakout_low", types.Short, w.Breakout, flag(detection.BreakoutLow)},
		{"bullish_macd_cross", types.Long, w.MACDCross, flag(detection.BullishMACDCross)},
		{"bearish_macd_cross", types.Short, w.MACDCross, flag(detection.BearishMACDCross)},
		{"momentum_long", types.Long, w.Momentum, flag(detection.MomentumLong)},
		{"momentum_short", types.Short, w.Momentum, flag(detection.MomentumShort)},
		{"volume_confirm_long", types.Long, w.Volume, flag(detection.VolumeConfirmLong)},
		{"volume_confirm_short", types.Short, w.Volume, flag(detection.VolumeConfirmShort)},
		{"sector_outperformance", types.Long, w.Sector, func(in Input) bool { return in.Strength.Outperforming() }},
		{"sector_underperformance", types.Short, w.Sector, func(in Input) bool { return in.Strength.Underperforming() }},
		{"cpr_compression_long", types.Long, w.CPRCompression, func(in Input) bool {
			return in.Flags.Has(detection.NarrowCPR) && in.Flags.Has(detection.TrendLong)
		}},
		{"cpr_compression_short", types.Short, w.CPRCompression, func(in Input) bool {
			return in.Flags.Has(detection.NarrowCPR) && in.Flags.Has(detection.TrendShort)
		}},
		{"ibs_oversold", types.Long, w.IBSExtreme, flag(detection.IBSOversold)},
		{"ibs_overbought", types.Short, w.IBSExtreme, flag(detection.IBSOverbought)},
	}
	for _, r := range rules {
		if r.Weight < 0 {
			return nil, &config.ConfigurationError{
				Field:  "weights",
				Reason: fmt.Sprintf("rule %s has negative weight %d", r.Name, r.Weight),
			}
		}
	}
	return rules, nil
}

// Score evaluates every rule uniformly. Zero-weight rules never contribute.
func Score(symbol string, in Input, rules []Rule) ScoreResult {
	res := ScoreResult{Symbol: symbol}
	for _, r := range rules {
		if r.Weight == 0 || !r.When(in) {
			continue
		}
		switch r.Direction {
		case types.Long:
			res.ScoreLong += r.Weight
		case types.Short:
			res.ScoreShort += r.Weight
		default:
			continue
		}
		res.Contributing = append(res.Contributing, Contribution{Rule: r.Name, Direction: r.Direction, Weight: r.Weight})
	}
	return res
}
