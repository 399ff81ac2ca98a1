package datafeed

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/fazecat/eodscanner/Internal/types"
)

type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaSource reads split and dividend adjusted daily bars from the
// Alpaca market data API.
type AlpacaSource struct {
	client barsClient
}

// NewAlpacaSource builds a client from ALPACA_API_KEY / ALPACA_API_SECRET.
func NewAlpacaSource(timeout time.Duration) (*AlpacaSource, error) {
	apiKey := os.Getenv("ALPACA_API_KEY")
	secretKey := os.Getenv("ALPACA_API_SECRET")
	if apiKey == "" || secretKey == "" {
		return nil, fmt.Errorf("ALPACA_API_KEY and ALPACA_API_SECRET must be set for the alpaca source")
	}

	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  secretKey,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	return &AlpacaSource{client: client}, nil
}

func (a *AlpacaSource) Name() string {
	return "alpaca"
}

func (a *AlpacaSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (types.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return types.PriceSeries{}, err
	}

	bars, err := a.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end,
	})
	if err != nil {
		return types.PriceSeries{}, fmt.Errorf("alpaca bars for %s: %w", symbol, err)
	}

	series := types.PriceSeries{Symbol: symbol, Bars: make([]Bar, 0, len(bars))}
	for _, b := range bars {
		series.Bars = append(series.Bars, Bar{
			Date:   dayOf(b.Timestamp.UTC()),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return series, nil
}
