package brewer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery/beanledger/brewer"
	"github.com/roastery/beanledger/coffee"
	"github.com/roastery/beanledger/inventory"
	"github.com/roastery/beanledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestBrewer(t *testing.T) (*brewer.Service, *inventory.Service, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return brewer.NewService(store), inventory.NewService(store), store
}

func espressoRecipe(name string, beanAmount float64) coffee.Recipe {
	return coffee.Recipe{
		Name:            name,
		Category:        coffee.CategoryEspresso,
		Difficulty:      coffee.DifficultyMedium,
		TotalBeanAmount: coffee.NewGrams(beanAmount),
		Servings:        1,
		PrepTime:        5,
		UserID:          "user-1",
	}
}

func grams(n float64) coffee.Grams { return coffee.NewGrams(n) }

var barista = coffee.Identity{UserID: "user-1", UserName: "Alice"}

// =============================================================================
// EXECUTION TESTS
// =============================================================================

func TestExecute_ThreeWriteBatch(t *testing.T) {
	// GIVEN: A saved 18g recipe and a 250g lot
	// WHEN: Executing
	// THEN: Stock drops by 18g and both a usage and an event record appear

	svc, inv, store := newTestBrewer(t)
	ctx := context.Background()

	lotID, err := inv.Create(ctx, coffee.Lot{
		Name: "Ethiopia Yirgacheffe", Type: coffee.LotSingleOrigin,
		Weight: grams(250), UserID: "user-1",
	})
	require.NoError(t, err)

	recipeID, err := svc.Create(ctx, espressoRecipe("Classic Espresso", 18))
	require.NoError(t, err)
	recipe, err := svc.Get(ctx, recipeID)
	require.NoError(t, err)

	require.NoError(t, svc.Execute(ctx, *recipe, lotID, barista))

	lot, err := inv.Get(ctx, lotID)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(grams(232)))

	usages, err := svc.ListUsages(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "Classic Espresso", usages[0].RecipeName)
	assert.Equal(t, "Ethiopia Yirgacheffe", usages[0].LotName)
	assert.True(t, usages[0].Amount.Equal(grams(18)))

	events, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, recipeID, events[0].RecipeID)
	assert.True(t, events[0].Amount.Equal(grams(18)))
}

func TestExecute_RecordsNominalAmountWhenClamped(t *testing.T) {
	// GIVEN: An 18g recipe against a lot holding only 10g
	// WHEN: Executing
	// THEN: The lot empties, and both records still say 18g

	svc, inv, store := newTestBrewer(t)
	ctx := context.Background()

	lotID, err := inv.Create(ctx, coffee.Lot{
		Name: "Almost Gone", Type: coffee.LotSingleOrigin,
		Weight: grams(10), UserID: "user-1",
	})
	require.NoError(t, err)

	recipeID, err := svc.Create(ctx, espressoRecipe("Greedy Shot", 18))
	require.NoError(t, err)
	recipe, err := svc.Get(ctx, recipeID)
	require.NoError(t, err)

	require.NoError(t, svc.Execute(ctx, *recipe, lotID, barista))

	lot, err := inv.Get(ctx, lotID)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.IsZero())

	usages, err := svc.ListUsages(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.True(t, usages[0].Amount.Equal(grams(18)))

	events, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Amount.Equal(grams(18)))
}

func TestExecute_RejectsUnsavedRecipe(t *testing.T) {
	// GIVEN: A recipe never persisted (no id)
	// WHEN: Executing
	// THEN: ErrMissingRecipeID, with no writes

	svc, inv, store := newTestBrewer(t)
	ctx := context.Background()

	lotID, err := inv.Create(ctx, coffee.Lot{
		Name: "Untouched", Type: coffee.LotSingleOrigin,
		Weight: grams(250), UserID: "user-1",
	})
	require.NoError(t, err)

	err = svc.Execute(ctx, espressoRecipe("Transient", 18), lotID, barista)
	assert.True(t, errors.Is(err, coffee.ErrMissingRecipeID))

	lot, err := inv.Get(ctx, lotID)
	require.NoError(t, err)
	assert.True(t, lot.CurrentWeight.Equal(grams(250)))

	events, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExecute_MissingLot_NothingWritten(t *testing.T) {
	// GIVEN: A saved recipe but no such lot
	// WHEN: Executing
	// THEN: The batch fails whole; no usage or event exists

	svc, _, store := newTestBrewer(t)
	ctx := context.Background()

	recipeID, err := svc.Create(ctx, espressoRecipe("Orphan Shot", 18))
	require.NoError(t, err)
	recipe, err := svc.Get(ctx, recipeID)
	require.NoError(t, err)

	err = svc.Execute(ctx, *recipe, "lot-missing", barista)
	assert.True(t, errors.Is(err, coffee.ErrLotNotFound))

	usages, err := svc.ListUsages(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, usages)

	events, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

// =============================================================================
// RECIPE CRUD TESTS
// =============================================================================

func TestCreateRecipe_Validation(t *testing.T) {
	svc, _, _ := newTestBrewer(t)
	ctx := context.Background()

	// Missing name
	r := espressoRecipe("", 18)
	_, err := svc.Create(ctx, r)
	assert.True(t, coffee.IsClientError(err))

	// Unknown category
	r = espressoRecipe("Bad Category", 18)
	r.Category = coffee.RecipeCategory("smoothie")
	_, err = svc.Create(ctx, r)
	assert.True(t, coffee.IsClientError(err))

	// Unknown difficulty
	r = espressoRecipe("Bad Difficulty", 18)
	r.Difficulty = coffee.Difficulty("impossible")
	_, err = svc.Create(ctx, r)
	assert.True(t, coffee.IsClientError(err))

	// Non-positive bean amount
	_, err = svc.Create(ctx, espressoRecipe("Weightless", 0))
	assert.True(t, coffee.IsClientError(err))

	// Zero servings
	r = espressoRecipe("Nobody Drinks", 18)
	r.Servings = 0
	_, err = svc.Create(ctx, r)
	assert.True(t, coffee.IsClientError(err))
}

func TestRecipe_FavoritesAndCategoryFilters(t *testing.T) {
	svc, _, _ := newTestBrewer(t)
	ctx := context.Background()

	fav := espressoRecipe("Morning Ritual", 18)
	fav.Favorite = true
	_, err := svc.Create(ctx, fav)
	require.NoError(t, err)

	drip := espressoRecipe("Slow Sunday", 22)
	drip.Category = coffee.CategoryDrip
	_, err = svc.Create(ctx, drip)
	require.NoError(t, err)

	favorites, err := svc.ListFavorites(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Morning Ritual", favorites[0].Name)

	drips, err := svc.ListByCategory(ctx, "user-1", coffee.CategoryDrip)
	require.NoError(t, err)
	require.Len(t, drips, 1)
	assert.Equal(t, "Slow Sunday", drips[0].Name)

	_, err = svc.ListByCategory(ctx, "user-1", coffee.RecipeCategory("smoothie"))
	assert.True(t, coffee.IsClientError(err))
}

func TestUpdateRecipe_PreservesOwnershipAndCreatedAt(t *testing.T) {
	svc, _, _ := newTestBrewer(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, espressoRecipe("Original", 18))
	require.NoError(t, err)
	original, err := svc.Get(ctx, id)
	require.NoError(t, err)

	edit := espressoRecipe("Renamed", 20)
	edit.ID = id
	edit.UserID = "someone-else"
	require.NoError(t, svc.Update(ctx, edit))

	updated, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "user-1", updated.UserID)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
}

func TestDeleteRecipe_NotFound(t *testing.T) {
	svc, _, _ := newTestBrewer(t)

	err := svc.Delete(context.Background(), "recipe-missing")
	assert.True(t, errors.Is(err, coffee.ErrRecipeNotFound))
}
