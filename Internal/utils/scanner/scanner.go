package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	datafeed "github.com/fazecat/eodscanner/Internal/database"
	"github.com/fazecat/eodscanner/Internal/handlers/risk"
	"github.com/fazecat/eodscanner/Internal/strategy/detection"
	"github.com/fazecat/eodscanner/Internal/strategy/indicators"
	"github.com/fazecat/eodscanner/Internal/strategy/sector"
	"github.com/fazecat/eodscanner/Internal/types"
	"github.com/fazecat/eodscanner/Internal/utils"
	"github.com/fazecat/eodscanner/Internal/utils/config"
	"github.com/fazecat/eodscanner/Internal/utils/logging"
	"github.com/fazecat/eodscanner/Internal/utils/metrics"
	"github.com/fazecat/eodscanner/Internal/utils/scoring"
)

// Scanner runs one end-of-day pass over the configured universe.
type Scanner struct {
	cfg         config.Config
	source      datafeed.Source
	instruments []Instrument
	lookback    config.Lookback
	sectors     sector.Map
	rules       []scoring.Rule
	risk        *risk.Manager
	calendar    *utils.TradingCalendar
	log         zerolog.Logger
	metrics     *metrics.Recorder
	now         func() time.Time
}

type Option func(*Scanner)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Scanner) { s.metrics = r }
}

func WithSectorMap(m sector.Map) Option {
	return func(s *Scanner) { s.sectors = m }
}

func WithCalendar(c *utils.TradingCalendar) Option {
	return func(s *Scanner) { s.calendar = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New checks everything that can be checked before fetching. Any error is
// a *config.ConfigurationError.
func New(cfg config.Config, src datafeed.Source, opts ...Option) (*Scanner, error) {
	instruments, err := ResolveUniverse(cfg)
	if err != nil {
		return nil, err
	}
	lookback, err := config.ParsePeriod(cfg.Period)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "period", Reason: err.Error(), Err: err}
	}
	rules, err := scoring.BuildRules(cfg.Weights)
	if err != nil {
		return nil, err
	}

	s := &Scanner{
		cfg:         cfg,
		source:      src,
		instruments: instruments,
		lookback:    lookback,
		sectors:     sector.DefaultMap(),
		rules:       rules,
		risk:        risk.NewManager(cfg.Risk),
		calendar:    utils.GetCalendar(cfg.Exchange),
		log:         zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scanner) Instruments() []Instrument {
	return append([]Instrument(nil), s.instruments...)
}

type fetchResult struct {
	set     indicators.IndicatorSet
	ok      bool
	stale   bool
	failure Failure
}

// Run fetches every symbol through a bounded worker pool, then scores and
// ranks once all of them have resolved. Per-symbol problems end up in
// Report.Failures. Only context cancellation fails the run.
func (s *Scanner) Run(ctx context.Context) (Report, error) {
	started := s.now()
	runAt := started.In(s.cfg.Location())
	end := runAt
	start := s.lookback.Start(end)
	retry := utils.RetryConfig{
		MaxAttempts:    s.cfg.MaxRetries,
		Delay:          s.cfg.RetryDelay,
		AttemptTimeout: s.cfg.FetchTimeout,
	}

	report := Report{RunAt: runAt, Universe: s.cfg.Universe, Benchmark: s.cfg.Benchmark}

	s.log.Info().
		Str("universe", s.cfg.Universe).
		Int("symbols", len(s.instruments)).
		Str("source", s.source.Name()).
		Time("start", start).
		Msg("Starting scan")

	benchReturn, benchFailure := s.benchmarkReturn(ctx, start, end, retry)
	report.BenchmarkReturn = benchReturn
	if benchFailure != nil {
		report.Failures = append(report.Failures, *benchFailure)
	}

	results := make([]fetchResult, len(s.instruments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, inst := range s.instruments {
		g.Go(func() error {
			results[i] = s.fetch(gctx, inst, start, end, runAt, retry)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("scan interrupted: %w", err)
	}

	returns := make(map[string]float64)
	for i, r := range results {
		if r.ok {
			returns[s.instruments[i].Symbol] = r.set.Return5D
		}
	}
	sectorAvgs := sector.SectorAverages(returns, s.sectors)

	for i, r := range results {
		inst := s.instruments[i]
		if !r.ok {
			report.Failures = append(report.Failures, r.failure)
			continue
		}
		report.Rows = append(report.Rows, s.buildRow(inst.Symbol, r, sectorAvgs, benchReturn))
	}

	sortRows(report.Rows)
	sortFailures(report.Failures)
	report.Long = Rank(report.Rows, types.Long, s.cfg.MinCandidateScore, s.cfg.TopN)
	report.Short = Rank(report.Rows, types.Short, s.cfg.MinCandidateScore, s.cfg.TopN)

	s.metrics.RecordCandidates("long", len(report.Long))
	s.metrics.RecordCandidates("short", len(report.Short))
	s.metrics.RecordRun(started, s.now())

	s.log.Info().
		Int("rows", len(report.Rows)).
		Int("long", len(report.Long)).
		Int("short", len(report.Short)).
		Int("failures", len(report.Failures)).
		Float64("benchmark_return", benchReturn).
		Msg("Scan complete")

	return report, nil
}

// benchmarkReturn falls back to 0 when the benchmark cannot be fetched.
func (s *Scanner) benchmarkReturn(ctx context.Context, start, end time.Time, retry utils.RetryConfig) (float64, *Failure) {
	series, attempts, err := datafeed.FetchWithRetry(ctx, s.source, s.cfg.Benchmark, start, end, retry)
	s.metrics.RecordFetchAttempts(s.source.Name(), attempts)
	if err == nil && series.Len() <= indicators.ReturnBars {
		err = &indicators.InsufficientDataError{Symbol: s.cfg.Benchmark, Have: series.Len(), Need: indicators.ReturnBars + 1}
	}
	if err != nil {
		s.log.Warn().Err(err).Str("benchmark", s.cfg.Benchmark).Msg("Benchmark unavailable, relative strength uses a zero benchmark return")
		return 0, &Failure{Symbol: s.cfg.Benchmark, Stage: StageBenchmark, Reason: err.Error(), Attempts: attempts}
	}
	return indicators.ROC(series.Closes(), indicators.ReturnBars), nil
}

func (s *Scanner) fetch(ctx context.Context, inst Instrument, start, end, runAt time.Time, retry utils.RetryConfig) fetchResult {
	log := logging.Symbol(s.log, inst.Symbol)

	if err := ctx.Err(); err != nil {
		return fetchResult{failure: Failure{Symbol: inst.Symbol, Stage: StageFetch, Reason: err.Error()}}
	}

	series, attempts, err := datafeed.FetchWithRetry(ctx, s.source, inst.Ticker, start, end, retry)
	s.metrics.RecordFetchAttempts(s.source.Name(), attempts)
	if err != nil {
		s.metrics.RecordSymbol(metrics.OutcomeFetchFailed)
		log.Warn().Str("stage", StageFetch).Int("attempts", attempts).Str("reason", err.Error()).Msg("Symbol skipped")
		return fetchResult{failure: Failure{Symbol: inst.Symbol, Stage: StageFetch, Reason: err.Error(), Attempts: attempts}}
	}
	series.Symbol = inst.Symbol

	set, err := indicators.Compute(series)
	if err == nil && !set.Finite() {
		err = errors.New("indicator values are not finite")
	}
	if err != nil {
		s.metrics.RecordSymbol(metrics.OutcomeInsufficient)
		log.Warn().Str("stage", StageIndicators).Str("reason", err.Error()).Msg("Symbol skipped")
		return fetchResult{failure: Failure{Symbol: inst.Symbol, Stage: StageIndicators, Reason: err.Error(), Attempts: attempts}}
	}

	// Bar dates are UTC midnight; noon keeps the calendar day in any exchange timezone.
	stale := s.calendar.IsStale(set.Date.Add(12*time.Hour), runAt)
	if stale {
		log.Warn().Time("last_bar", set.Date).Msg("Latest bar is older than the previous trading session")
	}
	return fetchResult{set: set, ok: true, stale: stale}
}

func (s *Scanner) buildRow(symbol string, r fetchResult, sectorAvgs map[string]float64, benchReturn float64) Row {
	set := r.set
	th := s.cfg.Thresholds

	flags := detection.Detect(set, th)
	strength := sector.Compute(symbol, set.Return5D, s.sectors, sectorAvgs, benchReturn, th.RSThresholdPct)
	score := scoring.Score(symbol, scoring.Input{Flags: flags, Strength: strength}, s.rules)

	row := Row{
		Symbol:     symbol,
		Indicators: set,
		Flags:      flags,
		Strength:   strength,
		Score:      score,
		Stale:      r.stale,

		RewardToRisk: risk.RewardToRisk(set.Close, set.Support, set.Resistance, set.ATR),
	}

	// Both directions are sized on every row; min_candidate_score only gates ranking.
	outcome := metrics.OutcomeScanned
	for _, d := range []types.Direction{types.Long, types.Short} {
		adverse := flags.Has(detection.IBSOversold)
		if d == types.Short {
			adverse = flags.Has(detection.IBSOverbought)
		}
		p, err := s.risk.Size(risk.Input{
			Symbol:      symbol,
			Direction:   d,
			Entry:       set.Close,
			ATR:         set.ATR,
			Score:       score.Score(d),
			VolumeRatio: set.VolumeRatio,
			AdverseIBS:  adverse,
		})
		var degenerate *risk.DegenerateRiskError
		if errors.As(err, &degenerate) {
			outcome = metrics.OutcomeDegenerate
			log := logging.Symbol(s.log, symbol)
			log.Warn().Str("direction", string(d)).Float64("atr", set.ATR).Msg("Degenerate stop, position not sized")
		}
		if d == types.Long {
			row.Long = &p
		} else {
			row.Short = &p
		}
	}
	s.metrics.RecordSymbol(outcome)
	return row
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
}

func sortFailures(failures []Failure) {
	sort.SliceStable(failures, func(i, j int) bool {
		if failures[i].Symbol != failures[j].Symbol {
			return failures[i].Symbol < failures[j].Symbol
		}
		return failures[i].Stage < failures[j].Stage
	})
}
