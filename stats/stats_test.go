package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery/beanledger/coffee"
	"github.com/roastery/beanledger/stats"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func event(at time.Time, amount float64) coffee.ConsumptionEvent {
	return coffee.ConsumptionEvent{
		ID:         coffee.EventID(coffee.NewID("cons")),
		UserID:     "user-1",
		ConsumedAt: at,
		Amount:     coffee.NewGrams(amount),
	}
}

func grams(n float64) coffee.Grams { return coffee.NewGrams(n) }

var now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

// =============================================================================
// CALENDAR GROUPING TESTS
// =============================================================================

func TestGroupByDay(t *testing.T) {
	// GIVEN: Three events across two calendar days
	// WHEN: Grouping
	// THEN: Two buckets, keyed by local date

	events := []coffee.ConsumptionEvent{
		event(time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC), 18),
		event(time.Date(2026, time.March, 14, 15, 30, 0, 0, time.UTC), 22),
		event(time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC), 18),
	}

	groups := stats.GroupByDay(events)
	require.Len(t, groups, 2)
	assert.Len(t, groups[stats.DayKey("2026-03-14")], 2)
	assert.Len(t, groups[stats.DayKey("2026-03-15")], 1)
}

func TestGroupByDay_Idempotent(t *testing.T) {
	// Re-deriving over the same input yields the same buckets.

	events := []coffee.ConsumptionEvent{
		event(time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC), 18),
		event(time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC), 22),
	}

	first := stats.GroupByDay(events)
	second := stats.GroupByDay(events)
	assert.Equal(t, first, second)
}

func TestDayKeyFor_UsesLocalDate(t *testing.T) {
	// 23:30 UTC on March 14 is already March 15 in UTC+2.

	loc := time.FixedZone("UTC+2", 2*3600)
	at := time.Date(2026, time.March, 14, 23, 30, 0, 0, time.UTC).In(loc)
	assert.Equal(t, stats.DayKey("2026-03-15"), stats.DayKeyFor(at))
}

// =============================================================================
// PERIOD WINDOW TESTS
// =============================================================================

func TestInPeriod_Today(t *testing.T) {
	midnight := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, stats.InPeriod(midnight, now, stats.PeriodToday))
	assert.True(t, stats.InPeriod(now, now, stats.PeriodToday))
	assert.False(t, stats.InPeriod(midnight.Add(-time.Second), now, stats.PeriodToday))
	assert.False(t, stats.InPeriod(midnight.AddDate(0, 0, 1), now, stats.PeriodToday))
}

func TestInPeriod_WeekBoundary(t *testing.T) {
	// The week window is a rolling [now-7d, now], inclusive on both ends.

	weekAgo := now.AddDate(0, 0, -7)

	assert.True(t, stats.InPeriod(weekAgo, now, stats.PeriodWeek))
	assert.False(t, stats.InPeriod(weekAgo.Add(-time.Second), now, stats.PeriodWeek))
	assert.True(t, stats.InPeriod(now, now, stats.PeriodWeek))
	assert.False(t, stats.InPeriod(now.Add(time.Second), now, stats.PeriodWeek))
}

func TestInPeriod_MonthBoundary(t *testing.T) {
	monthAgo := now.AddDate(0, -1, 0)

	assert.True(t, stats.InPeriod(monthAgo, now, stats.PeriodMonth))
	assert.False(t, stats.InPeriod(monthAgo.Add(-time.Second), now, stats.PeriodMonth))
	assert.True(t, stats.InPeriod(now, now, stats.PeriodMonth))
}

// =============================================================================
// TOTALS AND SUMMARY TESTS
// =============================================================================

func TestTotal(t *testing.T) {
	events := []coffee.ConsumptionEvent{
		event(now, 18),
		event(now, 22.5),
	}
	assert.True(t, stats.Total(events).Equal(grams(40.5)))
	assert.True(t, stats.Total(nil).IsZero())
}

func TestSummarize(t *testing.T) {
	// GIVEN: Events today, three days ago, two weeks ago, and two months ago
	// WHEN: Summarizing
	// THEN: Each window counts exactly the events inside it

	events := []coffee.ConsumptionEvent{
		event(now.Add(-2*time.Hour), 18),        // today, this week, this month
		event(now.AddDate(0, 0, -3), 22),        // this week, this month
		event(now.AddDate(0, 0, -14), 20),       // this month only
		event(now.AddDate(0, -2, 0), 30),        // outside every window
	}
	lots := []coffee.Lot{
		{CurrentWeight: grams(120)},
		{CurrentWeight: grams(80)},
	}

	s := stats.Summarize(events, lots, now)

	assert.Equal(t, 1, s.TodayCount)
	assert.Equal(t, 2, s.WeekCount)
	assert.Equal(t, 3, s.MonthCount)

	assert.True(t, s.TodayGrams.Equal(grams(18)))
	assert.True(t, s.WeekGrams.Equal(grams(40)))
	assert.True(t, s.MonthGrams.Equal(grams(60)))

	assert.Equal(t, 4, s.TotalCups)
	assert.True(t, s.TotalBeanUsed.Equal(grams(90)))

	assert.Equal(t, 2, s.LotCount)
	assert.True(t, s.RemainingStock.Equal(grams(200)))
}

func TestSummarize_Empty(t *testing.T) {
	s := stats.Summarize(nil, nil, now)

	assert.Equal(t, 0, s.TotalCups)
	assert.True(t, s.TotalBeanUsed.IsZero())
	assert.True(t, s.RemainingStock.IsZero())
}
