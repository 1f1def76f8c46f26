// Package catalog defines the markets, data types and frequencies published on
// the Binance Data Vision portal, and the capability table describing which
// combinations of them actually exist.
package catalog

import (
	"fmt"
	"sort"
)

// Market represents a trading venue whose historical data is published on the portal
type Market string

const (
	// MarketSpot is the spot exchange
	MarketSpot Market = "spot"
	// MarketFuturesUM is the USDT-margined futures exchange
	MarketFuturesUM Market = "futures-um"
	// MarketFuturesCM is the coin-margined futures exchange
	MarketFuturesCM Market = "futures-cm"
	// MarketOption is the European options exchange
	MarketOption Market = "option"
)

// DataType represents a category of historical record
type DataType string

const (
	DataTypeAggTrades            DataType = "aggTrades"
	DataTypeBookDepth            DataType = "bookDepth"
	DataTypeBookTicker           DataType = "bookTicker"
	DataTypeFundingRate          DataType = "fundingRate"
	DataTypeIndexPriceKlines     DataType = "indexPriceKlines"
	DataTypeKlines               DataType = "klines"
	DataTypeLiquidationSnapshot  DataType = "liquidationSnapshot"
	DataTypeMarkPriceKlines      DataType = "markPriceKlines"
	DataTypeMetrics              DataType = "metrics"
	DataTypePremiumIndexKlines   DataType = "premiumIndexKlines"
	DataTypeTrades               DataType = "trades"
	DataTypeBVOLIndex            DataType = "BVOLIndex"
	DataTypeEOHSummary           DataType = "EOHSummary"
)

// Frequency represents a kline aggregation interval
type Frequency string

const (
	Freq1s  Frequency = "1s"
	Freq1m  Frequency = "1m"
	Freq3m  Frequency = "3m"
	Freq5m  Frequency = "5m"
	Freq15m Frequency = "15m"
	Freq30m Frequency = "30m"
	Freq1h  Frequency = "1h"
	Freq2h  Frequency = "2h"
	Freq4h  Frequency = "4h"
	Freq6h  Frequency = "6h"
	Freq8h  Frequency = "8h"
	Freq12h Frequency = "12h"
	Freq1d  Frequency = "1d"
	Freq3d  Frequency = "3d"
	Freq1w  Frequency = "1w"
	Freq1mo Frequency = "1mo"
)

// Period represents whether a remote archive covers a day or a calendar month
type Period string

const (
	// PeriodDaily selects archives covering a single day
	PeriodDaily Period = "daily"
	// PeriodMonthly selects archives covering a calendar month
	PeriodMonthly Period = "monthly"
)

// Capability describes a valid (market, data type, period) combination
type Capability struct {
	Market            Market
	DataType          DataType
	Period            Period
	RequiresFrequency bool
}

// klineTypes are the data types partitioned per frequency on the portal.
// Tasks for these carry a Frequency; all other types never do.
var klineTypes = map[DataType]bool{
	DataTypeKlines:             true,
	DataTypeIndexPriceKlines:   true,
	DataTypeMarkPriceKlines:    true,
	DataTypePremiumIndexKlines: true,
}

// futuresDaily and futuresMonthly are shared by both futures venues.
var futuresDaily = []DataType{
	DataTypeAggTrades,
	DataTypeBookDepth,
	DataTypeBookTicker,
	DataTypeIndexPriceKlines,
	DataTypeKlines,
	DataTypeLiquidationSnapshot,
	DataTypeMarkPriceKlines,
	DataTypeMetrics,
	DataTypePremiumIndexKlines,
	DataTypeTrades,
}

var futuresMonthly = []DataType{
	DataTypeAggTrades,
	DataTypeBookTicker,
	DataTypeFundingRate,
	DataTypeIndexPriceKlines,
	DataTypeKlines,
	DataTypeMarkPriceKlines,
	DataTypePremiumIndexKlines,
	DataTypeTrades,
}

// published maps market and period to the set of data types the portal serves
// for that combination.
var published = map[Market]map[Period]map[DataType]bool{
	MarketSpot: {
		PeriodDaily:   typeSet(DataTypeAggTrades, DataTypeKlines, DataTypeTrades),
		PeriodMonthly: typeSet(DataTypeAggTrades, DataTypeKlines, DataTypeTrades),
	},
	MarketFuturesUM: {
		PeriodDaily:   typeSet(futuresDaily...),
		PeriodMonthly: typeSet(futuresMonthly...),
	},
	MarketFuturesCM: {
		PeriodDaily:   typeSet(futuresDaily...),
		PeriodMonthly: typeSet(futuresMonthly...),
	},
	MarketOption: {
		PeriodDaily: typeSet(DataTypeBVOLIndex, DataTypeEOHSummary),
	},
}

func typeSet(types ...DataType) map[DataType]bool {
	s := make(map[DataType]bool, len(types))
	for _, dt := range types {
		s[dt] = true
	}
	return s
}

// Lookup resolves a (market, data type, period) combination against the
// capability table. It returns the capability when the portal publishes the
// combination, or a descriptive error when it does not.
func Lookup(market Market, dataType DataType, period Period) (Capability, error) {
	periods, ok := published[market]
	if !ok {
		return Capability{}, fmt.Errorf("unknown market %q", market)
	}

	types, ok := periods[period]
	if !ok {
		return Capability{}, fmt.Errorf("market %s has no %s archives", market, period)
	}

	if !types[dataType] {
		return Capability{}, fmt.Errorf("data type %s is not published for %s %s archives", dataType, market, period)
	}

	return Capability{
		Market:            market,
		DataType:          dataType,
		Period:            period,
		RequiresFrequency: klineTypes[dataType],
	}, nil
}

// RequiresFrequency reports whether tasks for the given data type carry a
// kline frequency.
func RequiresFrequency(dataType DataType) bool {
	return klineTypes[dataType]
}

// Markets returns all known markets in a stable order.
func Markets() []Market {
	return []Market{MarketSpot, MarketFuturesUM, MarketFuturesCM, MarketOption}
}

// DataTypes returns all known data types in a stable order.
func DataTypes() []DataType {
	seen := make(map[DataType]bool)
	var all []DataType
	for _, periods := range published {
		for _, types := range periods {
			for dt := range types {
				if !seen[dt] {
					seen[dt] = true
					all = append(all, dt)
				}
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// Frequencies returns all kline frequencies in ascending order of interval.
func Frequencies() []Frequency {
	return []Frequency{
		Freq1s, Freq1m, Freq3m, Freq5m, Freq15m, Freq30m,
		Freq1h, Freq2h, Freq4h, Freq6h, Freq8h, Freq12h,
		Freq1d, Freq3d, Freq1w, Freq1mo,
	}
}

// ParseMarket converts a CLI market selector into a Market.
func ParseMarket(s string) (Market, error) {
	for _, m := range Markets() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown market %q", s)
}

// ParseDataType converts a CLI data-type selector into a DataType.
func ParseDataType(s string) (DataType, error) {
	for _, dt := range DataTypes() {
		if string(dt) == s {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// ParseFrequency converts a CLI frequency selector into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	for _, f := range Frequencies() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// ParsePeriod converts a CLI period selector into a Period.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily:
		return PeriodDaily, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}
