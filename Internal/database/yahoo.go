package datafeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fazecat/eodscanner/Internal/types"
)

const defaultYahooURL = "https://query1.finance.yahoo.com"

// YahooSource reads the public chart endpoint. OHLC values are scaled by
// adjclose/close so every price is split and dividend adjusted.
type YahooSource struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func NewYahooSource(timeout time.Duration) *YahooSource {
	return &YahooSource{
		BaseURL:    defaultYahooURL,
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  "Mozilla/5.0 (compatible; eodscanner/1.0)",
	}
}

func (y *YahooSource) Name() string {
	return "yahoo"
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

func (y *YahooSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (types.PriceSeries, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", y.BaseURL, url.PathEscape(symbol))
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return types.PriceSeries{}, err
	}
	if y.UserAgent != "" {
		req.Header.Set("User-Agent", y.UserAgent)
	}

	client := y.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return types.PriceSeries{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PriceSeries{}, err
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return types.PriceSeries{}, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
		}
		return types.PriceSeries{}, fmt.Errorf("decode yahoo chart for %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return types.PriceSeries{}, fmt.Errorf("yahoo %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return types.PriceSeries{}, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}
	if len(chart.Chart.Result) == 0 {
		return types.PriceSeries{}, ErrNoData
	}

	return parseChart(symbol, chart.Chart.Result[0]), nil
}

func parseChart(symbol string, r chartResult) types.PriceSeries {
	series := types.PriceSeries{Symbol: symbol}
	if len(r.Indicators.Quote) == 0 {
		return series
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	for i, ts := range r.Timestamp {
		open, ok1 := at(q.Open, i)
		high, ok2 := at(q.High, i)
		low, ok3 := at(q.Low, i)
		closePx, ok4 := at(q.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) || closePx == 0 {
			continue
		}
		volume, _ := at(q.Volume, i)

		factor := 1.0
		if a, ok := at(adj, i); ok && a > 0 {
			factor = a / closePx
		}

		series.Bars = append(series.Bars, Bar{
			Date:   dayOf(time.Unix(ts+r.Meta.GMTOffset, 0).UTC()),
			Open:   open * factor,
			High:   high * factor,
			Low:    low * factor,
			Close:  closePx * factor,
			Volume: int64(volume),
		})
	}
	return series
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}
