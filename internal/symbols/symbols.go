// Package symbols lists tradable symbols per market from the exchange
// information APIs, used when the CLI is given no explicit symbols.
package symbols

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"resty.dev/v3"

	"github.com/TC94615/binance-data-downloader/internal/catalog"
)

const listingTimeout = 10 * time.Second

// defaultEndpoints maps each market to its exchangeInfo API.
var defaultEndpoints = map[catalog.Market]string{
	catalog.MarketSpot:      "https://api.binance.com/api/v3/exchangeInfo",
	catalog.MarketFuturesUM: "https://fapi.binance.com/fapi/v1/exchangeInfo",
	catalog.MarketFuturesCM: "https://dapi.binance.com/dapi/v1/exchangeInfo",
	catalog.MarketOption:    "https://eapi.binance.com/eapi/v1/exchangeInfo",
}

// exchangeInfoResponse covers the response shapes of all four markets.
// Spot and futures list under "symbols"; options list under "optionSymbols".
type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol         string `json:"symbol"`
		Status         string `json:"status"`
		ContractStatus string `json:"contractStatus"`
	} `json:"symbols"`
	OptionSymbols []struct {
		Name string `json:"name"`
	} `json:"optionSymbols"`
}

// Lister fetches tradable symbols for a market.
type Lister struct {
	endpoints map[catalog.Market]string
	client    *resty.Client
	logger    *slog.Logger
}

// NewLister creates a Lister. Entries in endpoints override the production
// APIs; a nil map selects them all.
func NewLister(endpoints map[catalog.Market]string, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}

	merged := make(map[catalog.Market]string, len(defaultEndpoints))
	for market, url := range defaultEndpoints {
		merged[market] = url
	}
	for market, url := range endpoints {
		merged[market] = url
	}

	client := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(listingTimeout)

	return &Lister{
		endpoints: merged,
		client:    client,
		logger:    logger,
	}
}

// List returns all currently tradable symbols for the given market.
func (l *Lister) List(ctx context.Context, market catalog.Market) ([]string, error) {
	url, ok := l.endpoints[market]
	if !ok {
		return nil, fmt.Errorf("no symbol listing endpoint for market %q", market)
	}

	var result exchangeInfoResponse

	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols for %s: %w", market, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("exchange info API for %s returned status %d", market, resp.StatusCode())
	}

	symbols := filterTradable(market, result)
	l.logger.Info("listed symbols", "market", market, "count", len(symbols))
	return symbols, nil
}

// ListAll returns the union of tradable symbols across the given markets,
// sorted for deterministic task enumeration.
func (l *Lister) ListAll(ctx context.Context, markets []catalog.Market) ([]string, error) {
	seen := make(map[string]bool)
	for _, market := range markets {
		listed, err := l.List(ctx, market)
		if err != nil {
			return nil, err
		}
		for _, s := range listed {
			seen[s] = true
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("no tradable symbols found for the selected markets")
	}

	all := make([]string, 0, len(seen))
	for s := range seen {
		all = append(all, s)
	}
	sort.Strings(all)
	return all, nil
}

// filterTradable keeps only symbols currently open for trading. The status
// field differs per market: spot and USDT futures use "status", coin futures
// use "contractStatus", and options publish no status at all.
func filterTradable(market catalog.Market, info exchangeInfoResponse) []string {
	var symbols []string

	if market == catalog.MarketOption {
		for _, item := range info.OptionSymbols {
			if item.Name != "" {
				symbols = append(symbols, item.Name)
			}
		}
		return symbols
	}

	for _, item := range info.Symbols {
		status := item.Status
		if market == catalog.MarketFuturesCM {
			status = item.ContractStatus
		}
		if status == "TRADING" && item.Symbol != "" {
			symbols = append(symbols, item.Symbol)
		}
	}
	return symbols
}
