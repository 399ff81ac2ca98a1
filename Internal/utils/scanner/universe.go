package scanner

import (
	"fmt"
	"strings"

	"github.com/fazecat/eodscanner/Internal/utils/config"
)

const (
	PresetNifty50     = "NIFTY50"
	PresetNiftyNext50 = "NIFTY_NEXT50"
	PresetDow30       = "DOW30"
	PresetCustom      = "CUSTOM"
)

var nifty50 = []string{
	"RELIANCE", "TCS", "HDFCBANK", "ICICIBANK", "INFY", "ITC", "LT", "SBIN", "BHARTIARTL", "HINDUNILVR",
	"HCLTECH", "AXISBANK", "BAJFINANCE", "KOTAKBANK", "MARUTI", "ASIANPAINT", "SUNPHARMA", "LUPIN", "ONGC",
	"POWERGRID", "TITAN", "WIPRO", "ULTRACEMCO", "NTPC", "M&M", "NESTLEIND", "BAJAJFINSV", "ADANIENT",
	"ADANIPORTS", "HINDALCO", "JSWSTEEL", "TATASTEEL", "TATAMOTORS", "TATACONSUM", "COALINDIA", "GRASIM",
	"BPCL", "HEROMOTOCO", "BRITANNIA", "DIVISLAB", "DRREDDY", "EICHERMOT", "HDFCLIFE", "BAJAJ-AUTO",
	"CIPLA", "SHRIRAMFIN", "TECHM", "UPL", "LTIM", "LTTS",
}

var niftyNext50 = []string{
	"GODREJCP", "MUTHOOTFIN", "PIDILITIND", "HAVELLS", "TORNTPHARM", "MOTHERSON", "AUROPHARMA", "COLPAL",
	"CONCOR", "SIEMENS", "ALKEM", "INDIGO", "NAUKRI", "MCDOWELL-N", "ACC", "DABUR", "SAIL", "GAIL",
	"CANBK", "DLF", "NMDC", "BANKBARODA", "IOC", "INDUSINDBK", "JINDALSTEL", "TORNTPOWER", "PETRONET",
	"MARICO", "APOLLOHOSP", "BOSCHLTD", "TRENT", "SRF", "MANAPPURAM", "POLICYBZR", "ZOMATO", "PAYTM",
	"PERSISTENT", "MPHASIS", "BIOCON", "CADILAHC", "PEL", "IDFCFIRSTB", "VEDL", "IRCTC", "DMART",
	"BANDHANBNK", "LICI", "HAL", "PNB",
}

var dow30 = []string{
	"AAPL", "AMGN", "AMZN", "AXP", "BA", "CAT", "CRM", "CSCO", "CVX", "DIS",
	"GS", "HD", "HON", "IBM", "JNJ", "JPM", "KO", "MCD", "MMM", "MRK",
	"MSFT", "NKE", "NVDA", "PG", "SHW", "TRV", "UNH", "V", "VZ", "WMT",
}

// Instrument pairs the reported symbol with the ticker sent to the source.
type Instrument struct {
	Symbol string
	Ticker string
}

// Presets lists the named universes.
func Presets() []string {
	return []string{PresetNifty50, PresetNiftyNext50, PresetDow30, PresetCustom}
}

// ResolveUniverse expands the configured universe. NSE presets get the
// ".NS" suffix when the source is yahoo. Custom symbols are trimmed,
// uppercased and de-duplicated in order; on yahoo with the xnse exchange
// they get ".NS" too unless they already carry a suffix.
func ResolveUniverse(cfg config.Config) ([]Instrument, error) {
	var symbols []string
	nse := false
	switch strings.ToUpper(strings.TrimSpace(cfg.Universe)) {
	case PresetNifty50:
		symbols, nse = nifty50, true
	case PresetNiftyNext50:
		symbols, nse = niftyNext50, true
	case PresetDow30:
		symbols = dow30
	case PresetCustom:
		symbols = cfg.CustomSymbols
		nse = strings.EqualFold(cfg.Exchange, "xnse")
	default:
		return nil, &config.ConfigurationError{
			Field:  "universe",
			Reason: fmt.Sprintf("unknown universe %q, expected one of %s", cfg.Universe, strings.Join(Presets(), ", ")),
		}
	}

	seen := make(map[string]bool, len(symbols))
	out := make([]Instrument, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		ticker := s
		if nse && cfg.Source == "yahoo" && !hasExchangeSuffix(s) {
			ticker = s + ".NS"
		}
		out = append(out, Instrument{Symbol: s, Ticker: ticker})
	}
	if len(out) == 0 {
		return nil, &config.ConfigurationError{Field: "custom_symbols", Reason: "universe resolved to no symbols"}
	}
	return out, nil
}

// hasExchangeSuffix reports whether a symbol is already a full Yahoo ticker,
// e.g. "TCS.NS", "RELIANCE.BO" or an index like "^NSEI".
func hasExchangeSuffix(symbol string) bool {
	return strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^")
}
