package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery/beanledger/coffee"
	"github.com/roastery/beanledger/inventory"
	"github.com/roastery/beanledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*inventory.Service, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return inventory.NewService(store), store
}

func newLot(name string, weight float64) coffee.Lot {
	return coffee.Lot{
		Name:   name,
		Brand:  "Test Roasters",
		Type:   coffee.LotSingleOrigin,
		Weight: coffee.NewGrams(weight),
		UserID: "user-1",
	}
}

func grams(n float64) coffee.Grams { return coffee.NewGrams(n) }

// =============================================================================
// LOT CRUD TESTS
// =============================================================================

func TestCreate_StartsWithFullStock(t *testing.T) {
	// GIVEN: A new 250g lot
	// WHEN: Created
	// THEN: CurrentWeight equals the full Weight

	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, newLot("Ethiopia Yirgacheffe", 250))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	lot, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(grams(250)))
	assert.True(t, lot.Weight.Equal(grams(250)))
	assert.False(t, lot.CreatedAt.IsZero())
	assert.False(t, lot.PurchaseDate.IsZero())
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Missing name
	_, err := svc.Create(ctx, coffee.Lot{Type: coffee.LotBlend, Weight: grams(100)})
	assert.True(t, coffee.IsClientError(err))

	// Unknown lot type
	bad := newLot("Mystery", 100)
	bad.Type = coffee.LotType("decaf-instant")
	_, err = svc.Create(ctx, bad)
	assert.True(t, coffee.IsClientError(err))

	// Non-positive weight
	_, err = svc.Create(ctx, newLot("Empty Bag", 0))
	assert.True(t, coffee.IsClientError(err))
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "lot-missing")
	assert.True(t, errors.Is(err, coffee.ErrLotNotFound))
	assert.True(t, coffee.IsNotFound(err))
}

func TestUpdate_PreservesCurrentWeight(t *testing.T) {
	// GIVEN: A lot with 30g already consumed
	// WHEN: Editing descriptive fields, including an attempt to change Weight
	// THEN: Neither CurrentWeight nor the nominal Weight moves

	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, newLot("Kenya AA", 250))
	require.NoError(t, err)
	require.NoError(t, svc.Decrement(ctx, id, grams(30)))

	edit := newLot("Kenya AA Top Lot", 500)
	edit.ID = id
	require.NoError(t, svc.Update(ctx, edit))

	lot, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Kenya AA Top Lot", lot.Name)
	assert.True(t, lot.CurrentWeight.Equal(grams(220)))
	assert.True(t, lot.Weight.Equal(grams(250)))
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, newLot("Short Lived", 100))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.Get(ctx, id)
	assert.True(t, coffee.IsNotFound(err))

	// Deleting again reports not found
	err = svc.Delete(ctx, id)
	assert.True(t, coffee.IsNotFound(err))
}

// =============================================================================
// STOCK PRIMITIVE TESTS
// =============================================================================

func TestDecrement_Basic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, newLot("Colombia Huila", 250))
	require.NoError(t, err)

	require.NoError(t, svc.Decrement(ctx, id, grams(18)))

	lot, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(grams(232)))
}

func TestDecrement_ClampsAtZero(t *testing.T) {
	// GIVEN: A lot holding only 10g
	// WHEN: Drawing 18g
	// THEN: Stock floors at zero, never negative

	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, newLot("Almost Gone", 10))
	require.NoError(t, err)

	require.NoError(t, svc.Decrement(ctx, id, grams(18)))

	lot, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.IsZero())
	assert.False(t, lot.CurrentWeight.IsNegative())
}

func TestDecrement_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, newLot("Guatemala Antigua", 250))
	require.NoError(t, err)

	err = svc.Decrement(ctx, id, grams(0))
	assert.True(t, errors.Is(err, coffee.ErrInvalidAmount))

	err = svc.Decrement(ctx, id, grams(-5))
	assert.True(t, errors.Is(err, coffee.ErrInvalidAmount))
}

func TestDecrement_MissingLot(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Decrement(context.Background(), "lot-missing", grams(10))
	assert.True(t, errors.Is(err, coffee.ErrLotNotFound))
}

func TestRestore_IsUnclamped(t *testing.T) {
	// GIVEN: A full 250g lot
	// WHEN: Restoring 50g
	// THEN: Stock exceeds the nominal weight; there is no ceiling

	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, newLot("Overflow", 250))
	require.NoError(t, err)

	require.NoError(t, svc.Restore(ctx, id, grams(50)))

	lot, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(grams(300)))
}

func TestRestore_MissingLot(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Restore(context.Background(), "lot-missing", grams(10))
	assert.True(t, errors.Is(err, coffee.ErrLotNotFound))
}

// =============================================================================
// TRANSACTION ROLLBACK TESTS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A 250g lot
	// WHEN: A transaction decrements it and then fails
	// THEN: The decrement is rolled back

	svc, store := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, newLot("Untouched", 250))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithTx(ctx, func(tx coffee.Stores) error {
		if err := inventory.Decrement(ctx, tx, id, grams(100)); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	lot, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(grams(250)))
}
