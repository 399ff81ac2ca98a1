package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazecat/eodscanner/Internal/handlers/risk"
	"github.com/fazecat/eodscanner/Internal/strategy/detection"
	"github.com/fazecat/eodscanner/Internal/strategy/indicators"
	"github.com/fazecat/eodscanner/Internal/types"
	"github.com/fazecat/eodscanner/Internal/utils/scanner"
)

// File prefixes. Every run writes one file per prefix.
const (
	PrefixAll      = "all_signals"
	PrefixLong     = "long_candidates"
	PrefixShort    = "short_candidates"
	PrefixFailures = "failures"
)

var prefixes = []string{PrefixAll, PrefixLong, PrefixShort, PrefixFailures}

var riskColumns = []string{
	"entry", "stop_points", "stop_loss", "target", "shares", "actual_risk", "risk_level", "degenerate",
}

// Paths are the files written by one run.
type Paths struct {
	All      string
	Long     string
	Short    string
	Failures string
}

// Writer persists a report as CSV files in Dir. Files from the previous
// run are removed first so the directory only ever holds one run.
type Writer struct {
	Dir      string
	Location *time.Location
	Log      zerolog.Logger
}

func NewWriter(dir string, loc *time.Location, log zerolog.Logger) *Writer {
	if loc == nil {
		loc = time.UTC
	}
	return &Writer{Dir: dir, Location: loc, Log: log}
}

// FileName is <prefix>_<YYYY-MM-DD>_<HHMM>.csv in the writer's timezone.
func (w *Writer) FileName(prefix string, runAt time.Time) string {
	t := runAt.In(w.Location)
	return fmt.Sprintf("%s_%s_%s.csv", prefix, t.Format("2006-01-02"), t.Format("1504"))
}

func (w *Writer) Write(rep scanner.Report) (Paths, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}
	w.removePrevious()

	paths := Paths{
		All:      filepath.Join(w.Dir, w.FileName(PrefixAll, rep.RunAt)),
		Long:     filepath.Join(w.Dir, w.FileName(PrefixLong, rep.RunAt)),
		Short:    filepath.Join(w.Dir, w.FileName(PrefixShort, rep.RunAt)),
		Failures: filepath.Join(w.Dir, w.FileName(PrefixFailures, rep.RunAt)),
	}

	header := SignalHeader()
	if err := writeAtomic(paths.All, header, signalRecords(rep.Rows)); err != nil {
		return Paths{}, err
	}
	if err := writeAtomic(paths.Long, header, signalRecords(rep.Long)); err != nil {
		return Paths{}, err
	}
	if err := writeAtomic(paths.Short, header, signalRecords(rep.Short)); err != nil {
		return Paths{}, err
	}
	if err := writeAtomic(paths.Failures, FailureHeader(), failureRecords(rep.Failures)); err != nil {
		return Paths{}, err
	}

	w.Log.Info().
		Str("dir", w.Dir).
		Int("rows", len(rep.Rows)).
		Int("failures", len(rep.Failures)).
		Msg("Saved scan output")
	return paths, nil
}

// removePrevious deletes earlier output files. Failures are logged and
// otherwise ignored.
func (w *Writer) removePrevious() {
	for _, prefix := range prefixes {
		matches, err := filepath.Glob(filepath.Join(w.Dir, prefix+"_*.csv"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				w.Log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("Could not delete old output file")
				continue
			}
			w.Log.Debug().Str("file", filepath.Base(path)).Msg("Deleted old output file")
		}
	}
}

func writeAtomic(path string, header []string, records [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SignalHeader is the column order shared by the signal files.
func SignalHeader() []string {
	h := []string{
		"symbol", "date", "sector", "rating",
		"score_long", "score_short", "long_rules", "short_rules",
	}
	h = append(h, indicators.ValueNames...)
	for _, f := range detection.Flags() {
		h = append(h, string(f))
	}
	h = append(h, "symbol_return", "sector_avg_return", "benchmark_return", "relative_return_pct", "reward_to_risk", "stale")
	for _, prefix := range []string{"long", "short"} {
		for _, c := range riskColumns {
			h = append(h, prefix+"_"+c)
		}
	}
	return h
}

func FailureHeader() []string {
	return []string{"symbol", "stage", "reason", "attempts"}
}

func signalRecords(rows []scanner.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, signalRecord(r))
	}
	return out
}

func signalRecord(r scanner.Row) []string {
	rec := []string{
		r.Symbol,
		r.Indicators.Date.Format("2006-01-02"),
		r.Strength.Sector,
		string(r.Strength.Rating),
		strconv.Itoa(r.Score.ScoreLong),
		strconv.Itoa(r.Score.ScoreShort),
		strings.Join(r.Score.Names(types.Long), ";"),
		strings.Join(r.Score.Names(types.Short), ";"),
	}
	values := r.Indicators.Values()
	for _, name := range indicators.ValueNames {
		rec = append(rec, formatFloat(values[name]))
	}
	for _, f := range detection.Flags() {
		rec = append(rec, strconv.FormatBool(r.Flags.Has(f)))
	}
	rec = append(rec,
		formatFloat(r.Strength.SymbolReturn),
		formatFloat(r.Strength.SectorAvgReturn),
		formatFloat(r.Strength.BenchmarkReturn),
		formatFloat(r.Strength.RelativeReturnPct),
		formatFloat(r.RewardToRisk),
		strconv.FormatBool(r.Stale),
	)
	rec = append(rec, riskRecord(r.Long)...)
	rec = append(rec, riskRecord(r.Short)...)
	return rec
}

// riskRecord leaves sizing columns empty when there is no profile or the
// stop was degenerate.
func riskRecord(p *risk.Profile) []string {
	out := make([]string, len(riskColumns))
	if p == nil {
		return out
	}
	out[6] = string(p.Level)
	out[7] = strconv.FormatBool(p.Degenerate)
	if p.Degenerate {
		return out
	}
	out[0] = p.EntryPrice.String()
	out[1] = p.StopLossPoints.String()
	out[2] = p.StopLossPrice.String()
	out[3] = p.TargetPrice.String()
	out[4] = strconv.FormatInt(p.Shares, 10)
	out[5] = p.ActualRisk.String()
	return out
}

func failureRecords(failures []scanner.Failure) [][]string {
	out := make([][]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, []string{f.Symbol, f.Stage, f.Reason, strconv.Itoa(f.Attempts)})
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
