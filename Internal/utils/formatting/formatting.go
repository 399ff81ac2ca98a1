package formatting

import (
	"fmt"
	"io"
	"strings"

	"github.com/fazecat/eodscanner/Internal/strategy/detection"
	"github.com/fazecat/eodscanner/Internal/types"
	"github.com/fazecat/eodscanner/Internal/utils/export"
	"github.com/fazecat/eodscanner/Internal/utils/scanner"
)

const (
	width        = 120
	favourableRR = 1.5
)

// Separator returns a line separator of given width
func Separator(width int) string {
	return strings.Repeat("=", width)
}

// Centered pads title to width.
func Centered(title string, width int) string {
	pad := (width - len(title)) / 2
	if pad <= 0 {
		return title
	}
	return strings.Repeat(" ", pad) + title
}

var flagTags = []struct {
	flag detection.Flag
	tag  string
}{
	{detection.TrendLong, "trend+"},
	{detection.TrendShort, "trend-"},
	{detection.BreakoutHigh, "20D+"},
	{detection.BreakoutLow, "20D-"},
	{detection.BullishMACDCross, "MACD+"},
	{detection.BearishMACDCross, "MACD-"},
	{detection.NR7, "NR7"},
	{detection.InsideDay, "Inside"},
	{detection.NarrowCPR, "NarrowCPR"},
	{detection.BBSqueeze, "BBSqueeze"},
	{detection.VolSurge, "Vol+"},
}

// Notes is a compact tag list of the notable flags on a row.
func Notes(r scanner.Row) string {
	var notes []string
	for _, ft := range flagTags {
		if r.Flags.Has(ft.flag) {
			notes = append(notes, ft.tag)
		}
	}
	if r.Flags.Has(detection.IBSExtreme) {
		notes = append(notes, fmt.Sprintf("IBS%.1f", r.Indicators.IBS))
	}
	if r.Strength.Outperforming() {
		notes = append(notes, "Sect+")
	}
	if r.Strength.Underperforming() {
		notes = append(notes, "Sect-")
	}
	if r.RewardToRisk >= favourableRR {
		notes = append(notes, "R:R+")
	}
	if r.Stale {
		notes = append(notes, "STALE")
	}
	return strings.Join(notes, "/")
}

// CandidateLine renders one ranked row for the given direction.
func CandidateLine(r scanner.Row, d types.Direction) string {
	sizing := "sizing n/a"
	if p := r.Profile(d); p != nil {
		if p.Degenerate {
			sizing = fmt.Sprintf("degenerate stop | Risk level %s", p.Level)
		} else {
			sizing = fmt.Sprintf("Stop=%8s | Tgt=%8s | Shares=%5d | Risk=%8s | %-6s",
				p.StopLossPrice.StringFixed(2), p.TargetPrice.StringFixed(2), p.Shares, p.ActualRisk.StringFixed(0), p.Level)
		}
	}
	return fmt.Sprintf("%12s | Score=%2d | RSI=%5.1f | IBS=%4.2f | RS=%+6.2f%% | %s | %14s | %s",
		r.Symbol, r.Score.Score(d), r.Indicators.RSI, r.Indicators.IBS,
		r.Strength.RelativeReturnPct, sizing, r.Strength.Sector, Notes(r))
}

// PrintCandidates writes the long and short candidate tables.
func PrintCandidates(w io.Writer, rep scanner.Report) {
	sections := []struct {
		title string
		dir   types.Direction
		rows  []scanner.Row
	}{
		{"LONG CANDIDATES", types.Long, rep.Long},
		{"SHORT CANDIDATES", types.Short, rep.Short},
	}
	for _, s := range sections {
		fmt.Fprintln(w)
		fmt.Fprintln(w, Separator(width))
		fmt.Fprintln(w, Centered(fmt.Sprintf("%s (%d)", s.title, len(s.rows)), width))
		fmt.Fprintln(w, Separator(width))
		if len(s.rows) == 0 {
			fmt.Fprintln(w, "No candidates")
		}
		for _, r := range s.rows {
			fmt.Fprintln(w, CandidateLine(r, s.dir))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Benchmark %s 5-day return: %+.2f%%\n", rep.Benchmark, rep.BenchmarkReturn)
	if len(rep.Failures) > 0 {
		fmt.Fprintf(w, "Skipped %d symbol(s):\n", len(rep.Failures))
		for _, f := range rep.Failures {
			fmt.Fprintf(w, "  %-12s %-10s %s\n", f.Symbol, f.Stage, f.Reason)
		}
	}
}

// PrintSummary writes the quick summary of a signals file.
func PrintSummary(w io.Writer, s export.Summary) {
	fmt.Fprintf(w, "\nQuick Summary of %s:\n", s.Path)
	fmt.Fprintf(w, "Total symbols: %d\n", s.Total)
	fmt.Fprintf(w, "High scorers (score >= 5): %d\n", s.HighScorers)
	fmt.Fprintf(w, "Low risk opportunities: %d\n", s.LowRisk)
	fmt.Fprintln(w, "\nTop 5 Long Candidates:")
	fmt.Fprintf(w, "%12s %10s %7s %10s\n", "symbol", "score_long", "rsi", "risk_level")
	for _, r := range s.TopLong {
		fmt.Fprintf(w, "%12s %10d %7.1f %10s\n", r.Symbol, r.ScoreLong, r.RSI, r.RiskLevel)
	}
}
