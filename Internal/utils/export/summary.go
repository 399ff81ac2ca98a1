package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
)

const (
	highScoreThreshold = 5
	summaryTopN        = 5
)

type SummaryRow struct {
	Symbol    string
	ScoreLong int
	RSI       float64
	RiskLevel string
}

// Summary is a quick read of a signals file.
type Summary struct {
	Path        string
	Total       int
	HighScorers int
	LowRisk     int
	TopLong     []SummaryRow
}

// ReadSummary counts rows, long scores >= 5 and rows with a Low risk
// level in either direction, and lists the five best long scores.
func ReadSummary(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Summary{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return Summary{}, fmt.Errorf("%s is empty", path)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, required := range []string{"symbol", "score_long"} {
		if _, ok := col[required]; !ok {
			return Summary{}, fmt.Errorf("%s has no %s column", path, required)
		}
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	s := Summary{Path: path}
	var rows []SummaryRow
	for line, rec := range records[1:] {
		score, err := strconv.Atoi(get(rec, "score_long"))
		if err != nil {
			return Summary{}, fmt.Errorf("%s line %d: bad score_long: %w", path, line+2, err)
		}
		rsi, _ := strconv.ParseFloat(get(rec, "rsi"), 64)
		row := SummaryRow{
			Symbol:    get(rec, "symbol"),
			ScoreLong: score,
			RSI:       rsi,
			RiskLevel: get(rec, "long_risk_level"),
		}

		s.Total++
		if score >= highScoreThreshold {
			s.HighScorers++
		}
		if row.RiskLevel == "Low" || get(rec, "short_risk_level") == "Low" {
			s.LowRisk++
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ScoreLong > rows[j].ScoreLong })
	if len(rows) > summaryTopN {
		rows = rows[:summaryTopN]
	}
	s.TopLong = rows
	return s, nil
}
