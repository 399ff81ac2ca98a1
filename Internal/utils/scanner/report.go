package scanner

import (
	"database/sql"
	"sort"
	"time"

	datafeed "github.com/fazecat/eodscanner/Internal/database"
	"github.com/fazecat/eodscanner/Internal/handlers/risk"
	"github.com/fazecat/eodscanner/Internal/strategy/detection"
	"github.com/fazecat/eodscanner/Internal/strategy/indicators"
	"github.com/fazecat/eodscanner/Internal/strategy/sector"
	"github.com/fazecat/eodscanner/Internal/types"
	"github.com/fazecat/eodscanner/Internal/utils/scoring"
)

// Failure stages.
const (
	StageBenchmark  = "benchmark"
	StageFetch      = "fetch"
	StageIndicators = "indicators"
)

// Row is the result for one symbol. It is built once and never mutated.
type Row struct {
	Symbol     string
	Indicators indicators.IndicatorSet
	Flags      detection.SetupFlags
	Strength   sector.RelativeStrength
	Score      scoring.ScoreResult
	// Long and Short are set for every scanned row; Rank decides which become candidates.
	Long  *risk.Profile
	Short *risk.Profile
	// RewardToRisk compares the distance to resistance with the distance
	// to support (at least 1.5 ATR).
	RewardToRisk float64
	Stale        bool
}

func (r Row) Profile(d types.Direction) *risk.Profile {
	if d == types.Long {
		return r.Long
	}
	return r.Short
}

// Failure records a skipped symbol.
type Failure struct {
	Symbol   string
	Stage    string
	Reason   string
	Attempts int
}

type Report struct {
	RunAt           time.Time
	Universe        string
	Benchmark       string
	BenchmarkReturn float64
	// Rows holds every scanned symbol sorted by symbol.
	Rows     []Row
	Long     []Row
	Short    []Row
	Failures []Failure
}

// Rank orders the qualifying rows for one direction: score descending,
// then relative return in the direction's favour, then symbol. At most
// topN rows are returned; topN <= 0 keeps all of them.
func Rank(rows []Row, d types.Direction, minScore, topN int) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Score.Score(d) >= minScore {
			out = append(out, r)
		}
	}

	favour := func(r Row) float64 {
		if d == types.Short {
			return -r.Strength.RelativeReturnPct
		}
		return r.Strength.RelativeReturnPct
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Score.Score(d), out[j].Score.Score(d)
		if si != sj {
			return si > sj
		}
		fi, fj := favour(out[i]), favour(out[j])
		if fi != fj {
			return fi > fj
		}
		return out[i].Symbol < out[j].Symbol
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Records flattens the report for the database sink.
func (rep Report) Records() ([]datafeed.SignalRecord, []datafeed.FailureRecord) {
	signals := make([]datafeed.SignalRecord, 0, len(rep.Rows))
	for _, r := range rep.Rows {
		rec := datafeed.SignalRecord{
			RunAt:          rep.RunAt,
			Symbol:         r.Symbol,
			Sector:         r.Strength.Sector,
			Rating:         string(r.Strength.Rating),
			ScoreLong:      r.Score.ScoreLong,
			ScoreShort:     r.Score.ScoreShort,
			Close:          r.Indicators.Close,
			RelativeReturn: r.Strength.RelativeReturnPct,
			Flags:          r.Flags.Active(),
			Values:         r.Indicators.Values(),
		}
		if p := r.Long; p != nil {
			rec.LongLevel = string(p.Level)
			rec.LongShares = sharesOf(p)
		}
		if p := r.Short; p != nil {
			rec.ShortLevel = string(p.Level)
			rec.ShortShares = sharesOf(p)
		}
		signals = append(signals, rec)
	}

	failures := make([]datafeed.FailureRecord, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		failures = append(failures, datafeed.FailureRecord{
			RunAt:    rep.RunAt,
			Symbol:   f.Symbol,
			Stage:    f.Stage,
			Reason:   f.Reason,
			Attempts: f.Attempts,
		})
	}
	return signals, failures
}

func sharesOf(p *risk.Profile) sql.NullInt64 {
	if p.Degenerate {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: p.Shares, Valid: true}
}
