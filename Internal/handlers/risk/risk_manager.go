package risk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/fazecat/eodscanner/Internal/types"
	"github.com/fazecat/eodscanner/Internal/utils/config"
)

type Level string

const (
	Low    Level = "Low"
	Medium Level = "Medium"
	High   Level = "High"
)

const (
	lowRiskMinScore    = 8
	mediumRiskMinScore = 5
	lowRiskMinVolume   = 1.0
	rrSupportATRs      = 1.5
)

// DegenerateRiskError means the stop distance rounds to zero, so no
// position size can be derived.
type DegenerateRiskError struct {
	Symbol    string
	Direction types.Direction
	ATR       float64
}

func (e *DegenerateRiskError) Error() string {
	return fmt.Sprintf("degenerate risk for %s %s: stop distance rounds to zero (atr %.6f)", e.Symbol, e.Direction, e.ATR)
}

// Input is one sizing request.
type Input struct {
	Symbol      string
	Direction   types.Direction
	Entry       float64
	ATR         float64
	Score       int
	VolumeRatio float64
	// AdverseIBS is true when the bar closed at the extreme that works
	// against Direction.
	AdverseIBS bool
}

// Profile is the sized trade for one direction. Price fields are zero
// when Degenerate is set.
type Profile struct {
	Symbol         string
	Direction      types.Direction
	EntryPrice     decimal.Decimal
	StopLossPoints decimal.Decimal
	StopLossPrice  decimal.Decimal
	TargetPoints   decimal.Decimal
	TargetPrice    decimal.Decimal
	Shares         int64
	ActualRisk     decimal.Decimal
	Level          Level
	Degenerate     bool
}

// Manager sizes positions from ATR-based stops.
type Manager struct {
	riskPerTrade decimal.Decimal
	multiplier   float64
	rrRatio      decimal.Decimal
	tick         decimal.Decimal
	epsilon      float64
	lotSize      int64
}

func NewManager(cfg config.Risk) *Manager {
	lot := cfg.LotSize
	if lot < 1 {
		lot = 1
	}
	return &Manager{
		riskPerTrade: decimal.NewFromFloat(cfg.RiskPerTrade),
		multiplier:   cfg.StopATRMultiplier,
		rrRatio:      decimal.NewFromFloat(cfg.TargetRRRatio),
		tick:         decimal.NewFromFloat(cfg.PriceTick),
		epsilon:      cfg.StopEpsilon,
		lotSize:      lot,
	}
}

// Size derives stop, target and share count. On a zero stop it returns a
// High, Degenerate profile together with a *DegenerateRiskError.
func (rm *Manager) Size(in Input) (Profile, error) {
	p := Profile{
		Symbol:     in.Symbol,
		Direction:  in.Direction,
		EntryPrice: decimal.NewFromFloat(in.Entry),
	}

	raw := in.ATR * rm.multiplier
	if math.IsNaN(raw) || raw < rm.epsilon {
		raw = rm.epsilon
	}
	stopPoints := rm.roundToTick(decimal.NewFromFloat(raw))
	if !stopPoints.IsPositive() {
		p.Level = High
		p.Degenerate = true
		return p, &DegenerateRiskError{Symbol: in.Symbol, Direction: in.Direction, ATR: in.ATR}
	}

	// The target stays at least one tick away from entry at small R multiples.
	targetPoints := rm.roundToTick(stopPoints.Mul(rm.rrRatio))
	if !targetPoints.IsPositive() {
		targetPoints = stopPoints.Mul(rm.rrRatio)
		if rm.tick.IsPositive() {
			targetPoints = rm.tick
		}
	}
	p.StopLossPoints = stopPoints
	p.TargetPoints = targetPoints

	if in.Direction == types.Short {
		p.StopLossPrice = rm.roundToTick(p.EntryPrice.Add(stopPoints))
		p.TargetPrice = rm.roundToTick(p.EntryPrice.Sub(targetPoints))
	} else {
		p.StopLossPrice = rm.roundToTick(p.EntryPrice.Sub(stopPoints))
		p.TargetPrice = rm.roundToTick(p.EntryPrice.Add(targetPoints))
	}

	shares := rm.riskPerTrade.Div(stopPoints).Floor().IntPart()
	shares = (shares / rm.lotSize) * rm.lotSize
	p.Shares = shares
	p.ActualRisk = decimal.NewFromInt(shares).Mul(stopPoints)
	p.Level = ClassifyLevel(in.Score, in.VolumeRatio, in.AdverseIBS)

	return p, nil
}

func (rm *Manager) roundToTick(d decimal.Decimal) decimal.Decimal {
	if !rm.tick.IsPositive() {
		return d
	}
	return d.Div(rm.tick).Round(0).Mul(rm.tick)
}

// ClassifyLevel is a fixed decision table: Low needs score >= 8, volume
// ratio >= 1.0 and no adverse IBS extreme; Medium is 5 <= score < 8.
func ClassifyLevel(score int, volumeRatio float64, adverseIBS bool) Level {
	switch {
	case score >= lowRiskMinScore && volumeRatio >= lowRiskMinVolume && !adverseIBS:
		return Low
	case score >= mediumRiskMinScore && score < lowRiskMinScore:
		return Medium
	default:
		return High
	}
}

// RewardToRisk is the distance to resistance over the larger of 1.5 ATR
// and the distance to support. Zero when both are zero.
func RewardToRisk(entry, support, resistance, atr float64) float64 {
	denom := math.Max(rrSupportATRs*atr, math.Abs(entry-support))
	if denom == 0 || math.IsNaN(denom) {
		return 0
	}
	return math.Abs(resistance-entry) / denom
}
