package datafeed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fazecat/eodscanner/Internal/types"
	"github.com/fazecat/eodscanner/Internal/utils"
)

type Bar = types.Bar

// Source fetches daily bars for one symbol between start and end.
type Source interface {
	Name() string
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) (types.PriceSeries, error)
}

// DataFetchError is returned once every attempt for a symbol has failed.
type DataFetchError struct {
	Symbol   string
	Source   string
	Attempts int
	Err      error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s failed after %d attempt(s): %v", e.Symbol, e.Source, e.Attempts, e.Err)
}

func (e *DataFetchError) Unwrap() error {
	return e.Err
}

// ErrNoData marks a response that parsed but carried no usable bars.
var ErrNoData = errors.New("no price data")

// FetchWithRetry calls src until it returns a non-empty series or the
// attempts run out. The attempt count is returned in both cases.
func FetchWithRetry(ctx context.Context, src Source, symbol string, start, end time.Time, cfg utils.RetryConfig) (types.PriceSeries, int, error) {
	var series types.PriceSeries
	attempts, err := utils.RetryWithDelay(ctx, cfg, func(ctx context.Context, attempt int) error {
		s, err := src.FetchDaily(ctx, symbol, start, end)
		if err != nil {
			return err
		}
		s = Clean(s)
		if s.Len() == 0 {
			return ErrNoData
		}
		series = s
		return nil
	})
	if err != nil {
		return types.PriceSeries{}, attempts, &DataFetchError{Symbol: symbol, Source: src.Name(), Attempts: attempts, Err: err}
	}
	return series, attempts, nil
}

// Clean sorts bars by date, keeps the last bar per date and drops bars
// with non-finite or non-positive prices or an inverted range.
func Clean(s types.PriceSeries) types.PriceSeries {
	bars := make([]Bar, 0, len(s.Bars))
	for _, b := range s.Bars {
		if !validBar(b) {
			continue
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	out := bars[:0]
	for i, b := range bars {
		if i+1 < len(bars) && sameDay(b.Date, bars[i+1].Date) {
			continue
		}
		out = append(out, b)
	}
	return types.PriceSeries{Symbol: s.Symbol, Bars: out}
}

func validBar(b Bar) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	return b.High >= b.Low && b.Volume >= 0
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
