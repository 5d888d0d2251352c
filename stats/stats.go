/*
Package stats derives calendar and dashboard read models from consumption
events.

PURPOSE:
  Pure, side-effect-free aggregation over an in-memory event slice. Callers
  re-derive these on every refresh; nothing here mutates its inputs or holds
  state between calls.

PERIOD SEMANTICS:
  - Today:  [local midnight, next local midnight)
  - Week:   rolling [now - 7 days, now], not Monday-aligned
  - Month:  rolling [now - 1 calendar month, now]

  Week and month are inclusive on both ends; an event stamped exactly
  now-7d counts toward the week. "now" is always an explicit argument so
  boundaries are testable.
*/
package stats

import (
	"time"

	"github.com/roastery/beanledger/coffee"
)

// =============================================================================
// CALENDAR GROUPING
// =============================================================================

// DayKey identifies a local calendar date, formatted 2006-01-02.
type DayKey string

// DayKeyFor truncates a timestamp to its calendar date in its own location.
func DayKeyFor(t time.Time) DayKey {
	return DayKey(t.Format("2006-01-02"))
}

// GroupByDay buckets events by the local calendar date of ConsumedAt.
// The input slice is not modified; event order within a bucket follows the
// input order.
func GroupByDay(events []coffee.ConsumptionEvent) map[DayKey][]coffee.ConsumptionEvent {
	groups := make(map[DayKey][]coffee.ConsumptionEvent)
	for _, ev := range events {
		k := DayKeyFor(ev.ConsumedAt)
		groups[k] = append(groups[k], ev)
	}
	return groups
}

// =============================================================================
// TOTALS AND PERIOD FILTERS
// =============================================================================

// Total sums Amount across events.
func Total(events []coffee.ConsumptionEvent) coffee.Grams {
	total := coffee.ZeroGrams()
	for _, ev := range events {
		total = total.Add(ev.Amount)
	}
	return total
}

// Period selects one of the dashboard windows.
type Period int

const (
	PeriodToday Period = iota
	PeriodWeek
	PeriodMonth
)

// InPeriod reports whether t falls inside the period window anchored at now.
func InPeriod(t, now time.Time, p Period) bool {
	switch p {
	case PeriodToday:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return !t.Before(midnight) && t.Before(midnight.AddDate(0, 0, 1))
	case PeriodWeek:
		from := now.AddDate(0, 0, -7)
		return !t.Before(from) && !t.After(now)
	case PeriodMonth:
		from := now.AddDate(0, -1, 0)
		return !t.Before(from) && !t.After(now)
	default:
		return false
	}
}

// FilterPeriod returns the events whose ConsumedAt falls in the window.
// The result is a fresh slice; the input is untouched.
func FilterPeriod(events []coffee.ConsumptionEvent, p Period, now time.Time) []coffee.ConsumptionEvent {
	var out []coffee.ConsumptionEvent
	for _, ev := range events {
		if InPeriod(ev.ConsumedAt, now, p) {
			out = append(out, ev)
		}
	}
	return out
}

// CountForPeriod counts events in the window (cups, for the dashboard).
func CountForPeriod(events []coffee.ConsumptionEvent, p Period, now time.Time) int {
	n := 0
	for _, ev := range events {
		if InPeriod(ev.ConsumedAt, now, p) {
			n++
		}
	}
	return n
}

// TotalForPeriod sums amounts in the window.
func TotalForPeriod(events []coffee.ConsumptionEvent, p Period, now time.Time) coffee.Grams {
	return Total(FilterPeriod(events, p, now))
}

// =============================================================================
// DASHBOARD SUMMARY
// =============================================================================

// Summary is the dashboard read model.
type Summary struct {
	TodayCount int
	WeekCount  int
	MonthCount int

	TodayGrams coffee.Grams
	WeekGrams  coffee.Grams
	MonthGrams coffee.Grams

	TotalCups     int          // all events ever
	TotalBeanUsed coffee.Grams // all grams ever consumed

	LotCount       int
	RemainingStock coffee.Grams // sum of CurrentWeight across lots
}

// Summarize derives the dashboard numbers from the full event list and the
// current inventory.
func Summarize(events []coffee.ConsumptionEvent, lots []coffee.Lot, now time.Time) Summary {
	s := Summary{
		TodayCount:    CountForPeriod(events, PeriodToday, now),
		WeekCount:     CountForPeriod(events, PeriodWeek, now),
		MonthCount:    CountForPeriod(events, PeriodMonth, now),
		TodayGrams:    TotalForPeriod(events, PeriodToday, now),
		WeekGrams:     TotalForPeriod(events, PeriodWeek, now),
		MonthGrams:    TotalForPeriod(events, PeriodMonth, now),
		TotalCups:     len(events),
		TotalBeanUsed: Total(events),
		LotCount:      len(lots),
	}

	stock := coffee.ZeroGrams()
	for _, lot := range lots {
		stock = stock.Add(lot.CurrentWeight)
	}
	s.RemainingStock = stock
	return s
}
