// Package task turns the user's selector matrix into the flat sequence of
// download tasks the worker pool executes.
package task

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/TC94615/binance-data-downloader/internal/catalog"
)

const (
	dailyLayout   = "2006-01-02"
	monthlyLayout = "2006-01"

	// Default windows when no explicit date range is given.
	defaultDailyWindow   = 30 * 24 * time.Hour
	defaultMonthlyWindow = 365 * 24 * time.Hour
)

// Task identifies exactly one remote archive on the portal.
// Frequency is set iff the data type is frequency-bearing; the enumerator
// enforces that invariant, downstream code relies on it.
type Task struct {
	Market    catalog.Market
	DataType  catalog.DataType
	Symbol    string
	Frequency catalog.Frequency
	Period    catalog.Period
	Date      string // YYYY-MM-DD for daily, YYYY-MM for monthly
}

// Name returns a short human-readable identifier for log lines and reports.
func (t Task) Name() string {
	if t.Frequency != "" {
		return fmt.Sprintf("%s/%s/%s/%s %s", t.Market, t.DataType, t.Frequency, t.Symbol, t.Date)
	}
	return fmt.Sprintf("%s/%s/%s %s", t.Market, t.DataType, t.Symbol, t.Date)
}

// Selection is the selector matrix supplied by the CLI layer.
// Zero Start/End fall back to a trailing window per period.
type Selection struct {
	Markets     []catalog.Market
	DataTypes   []catalog.DataType
	Symbols     []string
	Frequencies []catalog.Frequency
	Periods     []catalog.Period
	Start       time.Time
	End         time.Time
}

// Enumerator expands a Selection into tasks. The same selection always yields
// the same sequence, so test fixtures can assert on exact task lists.
type Enumerator struct {
	sel    Selection
	logger *slog.Logger

	// now is the clock used to resolve default date windows; overridable in tests.
	now func() time.Time
}

// NewEnumerator creates an enumerator for the given selection.
func NewEnumerator(sel Selection, logger *slog.Logger) *Enumerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enumerator{sel: sel, logger: logger, now: time.Now}
}

// Tasks expands the selection into download tasks. Combinations the capability
// table rejects are returned as skip notices instead of failing the batch.
func (e *Enumerator) Tasks() ([]Task, []string) {
	var tasks []Task
	var skips []string
	seen := make(map[Task]bool)

	for _, market := range e.sel.Markets {
		for _, period := range e.sel.Periods {
			for _, dataType := range e.sel.DataTypes {
				cap, err := catalog.Lookup(market, dataType, period)
				if err != nil {
					notice := fmt.Sprintf("skipping %s/%s/%s: %v", market, period, dataType, err)
					e.logger.Debug("selector skipped", "market", market, "period", period, "data_type", dataType, "reason", err.Error())
					skips = append(skips, notice)
					continue
				}

				dates := e.dates(period)
				frequencies := []catalog.Frequency{""}
				if cap.RequiresFrequency {
					frequencies = e.sel.Frequencies
				}

				for _, symbol := range e.sel.Symbols {
					for _, freq := range frequencies {
						for _, date := range dates {
							t := Task{
								Market:    market,
								DataType:  dataType,
								Symbol:    symbol,
								Frequency: freq,
								Period:    period,
								Date:      date,
							}
							if seen[t] {
								continue
							}
							seen[t] = true
							tasks = append(tasks, t)
						}
					}
				}
			}
		}
	}

	return tasks, skips
}

// dates returns the date strings covered by the selection for the given
// period. Monthly dates are normalized to the first of the month, which
// deduplicates ranges that span a month boundary.
func (e *Enumerator) dates(period catalog.Period) []string {
	start, end := e.sel.Start, e.sel.End
	if end.IsZero() {
		end = e.now()
	}
	if start.IsZero() {
		window := defaultDailyWindow
		if period == catalog.PeriodMonthly {
			window = defaultMonthlyWindow
		}
		start = end.Add(-window)
	}
	return DateRange(start, end, period)
}

// DateRange expands [start, end] into portal date strings at the given
// granularity. The range is inclusive on both ends; an inverted range is empty.
func DateRange(start, end time.Time, period catalog.Period) []string {
	var dates []string

	if period == catalog.PeriodMonthly {
		current := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !current.After(last) {
			dates = append(dates, current.Format(monthlyLayout))
			current = current.AddDate(0, 1, 0)
		}
		return dates
	}

	current := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for !current.After(last) {
		dates = append(dates, current.Format(dailyLayout))
		current = current.AddDate(0, 0, 1)
	}
	return dates
}
