package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery/beanledger/coffee"
	"github.com/roastery/beanledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func grams(n float64) coffee.Grams { return coffee.NewGrams(n) }

func seedLot(t *testing.T, s *sqlite.Store, name string, weight float64) coffee.LotID {
	now := time.Now().UTC()
	id, err := s.CreateLot(context.Background(), coffee.Lot{
		Name:          name,
		Type:          coffee.LotSingleOrigin,
		Weight:        coffee.NewGrams(weight),
		CurrentWeight: coffee.NewGrams(weight),
		PurchaseDate:  now,
		UserID:        "user-1",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// LOT PERSISTENCE TESTS
// =============================================================================

func TestLot_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	price := 14.50
	expiry := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	id, err := s.CreateLot(ctx, coffee.Lot{
		Name:          "Ethiopia Yirgacheffe",
		Brand:         "Sunrise Roasters",
		Type:          coffee.LotSingleOrigin,
		Weight:        grams(250),
		CurrentWeight: grams(250),
		Price:         &price,
		PurchaseDate:  now,
		ExpiryDate:    &expiry,
		Details:       "washed process, floral",
		UserID:        "user-1",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)

	lot, err := s.GetLot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ethiopia Yirgacheffe", lot.Name)
	assert.Equal(t, "Sunrise Roasters", lot.Brand)
	assert.Equal(t, coffee.LotSingleOrigin, lot.Type)
	assert.True(t, lot.Weight.Equal(grams(250)))
	require.NotNil(t, lot.Price)
	assert.Equal(t, 14.50, *lot.Price)
	require.NotNil(t, lot.ExpiryDate)
	assert.True(t, lot.ExpiryDate.Equal(expiry))
	assert.Equal(t, "washed process, floral", lot.Details)
}

func TestLot_DecimalWeightSurvivesExactly(t *testing.T) {
	// Weights are stored as decimal strings; 0.1+0.2 style drift must not
	// creep in across round-trips.

	s := newTestStore(t)
	ctx := context.Background()

	id := seedLot(t, s, "Precise", 250)
	w := coffee.ParseGrams("249.9")
	for i := 0; i < 3; i++ {
		w = w.Sub(coffee.ParseGrams("0.1"))
		require.NoError(t, s.SetLotWeight(ctx, id, w, time.Now().UTC()))
	}

	lot, err := s.GetLot(ctx, id)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(coffee.ParseGrams("249.6")))
}

func TestLot_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	names := []string{"First", "Second", "Third"}
	for i, name := range names {
		_, err := s.CreateLot(ctx, coffee.Lot{
			Name:          name,
			Type:          coffee.LotBlend,
			Weight:        grams(250),
			CurrentWeight: grams(250),
			PurchaseDate:  base,
			UserID:        "user-1",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:     base,
		})
		require.NoError(t, err)
	}

	lots, err := s.ListLots(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 3)
	assert.Equal(t, "Third", lots[0].Name)
	assert.Equal(t, "First", lots[2].Name)
}

func TestLot_NotFoundErrors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetLot(ctx, "lot-missing")
	assert.True(t, errors.Is(err, coffee.ErrLotNotFound))

	err = s.SetLotWeight(ctx, "lot-missing", grams(10), time.Now().UTC())
	assert.True(t, errors.Is(err, coffee.ErrLotNotFound))

	err = s.DeleteLot(ctx, "lot-missing")
	assert.True(t, errors.Is(err, coffee.ErrLotNotFound))
}

// =============================================================================
// EVENT TIMESTAMP TESTS
// =============================================================================

func insertEventAt(t *testing.T, s *sqlite.Store, at time.Time) coffee.EventID {
	id, err := s.InsertEvent(context.Background(), coffee.ConsumptionEvent{
		UserID:     "user-1",
		ConsumedAt: at,
		Amount:     coffee.NewGrams(10),
	})
	require.NoError(t, err)
	return id
}

func TestEvents_FractionalSecondOrdering(t *testing.T) {
	// GIVEN: Events whose fractions prefix each other (.12s vs .123s) and a
	//        whole-second stamp on the same second
	// WHEN: Listing
	// THEN: Newest first by actual time, not by string shape

	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	whole := insertEventAt(t, s, base)
	short := insertEventAt(t, s, base.Add(120*time.Millisecond))
	long := insertEventAt(t, s, base.Add(123*time.Millisecond))

	events, err := s.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, long, events[0].ID)
	assert.Equal(t, short, events[1].ID)
	assert.Equal(t, whole, events[2].ID)
}

func TestEvents_RangeIncludesFractionalTimestamps(t *testing.T) {
	// GIVEN: An event half a second past the range start
	// WHEN: Querying [start, start+1d)
	// THEN: It is included; events half a second before start are not

	s := newTestStore(t)
	ctx := context.Background()
	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	inside := insertEventAt(t, s, from.Add(500*time.Millisecond))
	insertEventAt(t, s, from.Add(-500*time.Millisecond))
	insertEventAt(t, s, to)

	events, err := s.ListEventsInRange(ctx, "user-1", from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, inside, events[0].ID)
}

func TestEvents_FractionalTimestampRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, time.March, 2, 9, 0, 0, 123456789, time.UTC)

	id := insertEventAt(t, s, at)

	ev, err := s.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.True(t, ev.ConsumedAt.Equal(at))
}

// =============================================================================
// RECIPE PERSISTENCE TESTS
// =============================================================================

func TestRecipe_IngredientsRoundTripThroughJSON(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	id, err := s.CreateRecipe(ctx, coffee.Recipe{
		Name:     "Flat White",
		Category: coffee.CategoryLatte,
		Ingredients: []coffee.Ingredient{
			{Name: "espresso", Amount: 36, Unit: coffee.UnitMilliliter},
			{Name: "steamed milk", Amount: 120, Unit: coffee.UnitMilliliter},
		},
		Process:         "pull a double shot, steam milk to 60C",
		GrindSize:       "fine",
		TotalBeanAmount: grams(18),
		Servings:        1,
		PrepTime:        4,
		Difficulty:      coffee.DifficultyMedium,
		Favorite:        true,
		UserID:          "user-1",
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.NoError(t, err)

	recipe, err := s.GetRecipe(ctx, id)
	require.NoError(t, err)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "espresso", recipe.Ingredients[0].Name)
	assert.Equal(t, coffee.UnitMilliliter, recipe.Ingredients[0].Unit)
	assert.True(t, recipe.TotalBeanAmount.Equal(grams(18)))
	assert.True(t, recipe.Favorite)
}

func TestRecipe_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRecipe(context.Background(), "recipe-missing")
	assert.True(t, errors.Is(err, coffee.ErrRecipeNotFound))
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestWithTx_RollsBackAllWrites(t *testing.T) {
	// GIVEN: A lot, and a transaction touching three tables
	// WHEN: The callback fails on the last step
	// THEN: None of the writes survive

	s := newTestStore(t)
	ctx := context.Background()
	id := seedLot(t, s, "Atomic", 250)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx coffee.Stores) error {
		if err := tx.SetLotWeight(ctx, id, grams(232), time.Now().UTC()); err != nil {
			return err
		}
		if _, err := tx.InsertUsage(ctx, coffee.BeanUsage{
			UserID: "user-1",
			LotID:  id,
			Amount: grams(18),
			UsedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if _, err := tx.InsertEvent(ctx, coffee.ConsumptionEvent{
			UserID:     "user-1",
			LotID:      id,
			ConsumedAt: time.Now().UTC(),
			Amount:     grams(18),
		}); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	lot, err := s.GetLot(ctx, id)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(grams(250)))

	events, err := s.ListEvents(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)

	usages, err := s.ListUsages(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, usages)
}

func TestWithTx_CommitsAllWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedLot(t, s, "Committed", 250)

	err := s.WithTx(ctx, func(tx coffee.Stores) error {
		if err := tx.SetLotWeight(ctx, id, grams(232), time.Now().UTC()); err != nil {
			return err
		}
		_, err := tx.InsertEvent(ctx, coffee.ConsumptionEvent{
			UserID:     "user-1",
			LotID:      id,
			ConsumedAt: time.Now().UTC(),
			Amount:     grams(18),
		})
		return err
	})
	require.NoError(t, err)

	lot, err := s.GetLot(ctx, id)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(grams(232)))

	events, err := s.ListEvents(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
