/*
store.go - Persistence interfaces for the shared inventory and ledger

PURPOSE:
  Defines the contract between the domain services and the database. Two
  implementations exist: store/sqlite (production) and store/memory
  (tests/dev). Services depend only on these interfaces.

KEY INTERFACES:
  LotStore:    Inventory lot records
  EventStore:  Consumption ledger entries
  RecipeStore: Recipe CRUD
  UsageStore:  Bean-usage audit records
  Stores:      Union of the above
  TxStores:    Stores plus WithTx for atomic multi-entity writes

ATOMIC MULTI-WRITES:
  Recipe execution touches three entities (lot update, usage insert, event
  insert) and must be all-or-nothing. The hardened ledger operations
  (log+decrement, delete+restore) are likewise fused. All of them run inside
  WithTx: if fn returns an error the whole unit rolls back.

ID ASSIGNMENT:
  Stores assign opaque ids on insert and return them. Callers never invent
  entity ids.

ORDERING:
  ListLots and ListRecipes are ordered by creation time descending;
  ListEvents by consumption time descending; ListUsages by usage time
  descending. These are the query shapes the views depend on.

SEE ALSO:
  - store/sqlite/sqlite.go: Production implementation
  - store/memory/memory.go: In-memory implementation
*/
package coffee

import (
	"context"
	"time"
)

// =============================================================================
// LOT STORE
// =============================================================================

type LotStore interface {
	// CreateLot inserts a lot and returns its assigned id.
	// CurrentWeight and timestamps must already be populated by the caller.
	CreateLot(ctx context.Context, lot Lot) (LotID, error)

	// GetLot returns the lot or ErrLotNotFound.
	GetLot(ctx context.Context, id LotID) (*Lot, error)

	// ListLots returns all lots, newest first by CreatedAt.
	ListLots(ctx context.Context) ([]Lot, error)

	// UpdateLot replaces the stored record. Returns ErrLotNotFound if absent.
	UpdateLot(ctx context.Context, lot Lot) error

	// SetLotWeight updates only CurrentWeight (and UpdatedAt). This is the
	// single write path for decrement, restore, and recipe execution.
	SetLotWeight(ctx context.Context, id LotID, weight Grams, updatedAt time.Time) error

	// DeleteLot removes the lot. Existing consumption events keep their
	// denormalized snapshots; there is no cascade.
	DeleteLot(ctx context.Context, id LotID) error
}

// =============================================================================
// EVENT STORE - Consumption ledger persistence
// =============================================================================

type EventStore interface {
	// InsertEvent persists a consumption event and returns its assigned id.
	InsertEvent(ctx context.Context, ev ConsumptionEvent) (EventID, error)

	// GetEvent returns the event or ErrEventNotFound.
	GetEvent(ctx context.Context, id EventID) (*ConsumptionEvent, error)

	// ListEvents returns events newest first by ConsumedAt.
	// limit <= 0 means no cap.
	ListEvents(ctx context.Context, limit int) ([]ConsumptionEvent, error)

	// ListEventsInRange returns a user's events with ConsumedAt in [from, to),
	// newest first.
	ListEventsInRange(ctx context.Context, userID string, from, to time.Time) ([]ConsumptionEvent, error)

	// DeleteEvent removes the event. Returns ErrEventNotFound if absent.
	DeleteEvent(ctx context.Context, id EventID) error
}

// =============================================================================
// RECIPE STORE
// =============================================================================

type RecipeStore interface {
	CreateRecipe(ctx context.Context, r Recipe) (RecipeID, error)

	// GetRecipe returns the recipe or ErrRecipeNotFound.
	GetRecipe(ctx context.Context, id RecipeID) (*Recipe, error)

	// ListRecipes returns recipes newest first by CreatedAt.
	// limit <= 0 means no cap.
	ListRecipes(ctx context.Context, limit int) ([]Recipe, error)

	// ListFavoriteRecipes returns a user's favorites, newest first.
	ListFavoriteRecipes(ctx context.Context, userID string) ([]Recipe, error)

	// ListRecipesByCategory returns a user's recipes in a category, newest first.
	ListRecipesByCategory(ctx context.Context, userID string, category RecipeCategory) ([]Recipe, error)

	// UpdateRecipe replaces the stored record. Returns ErrRecipeNotFound if absent.
	UpdateRecipe(ctx context.Context, r Recipe) error

	// DeleteRecipe removes the recipe. Past consumption events survive with
	// their denormalized recipe name.
	DeleteRecipe(ctx context.Context, id RecipeID) error
}

// =============================================================================
// USAGE STORE - Append-only audit trail
// =============================================================================

type UsageStore interface {
	// InsertUsage persists a bean-usage record and returns its assigned id.
	InsertUsage(ctx context.Context, u BeanUsage) (UsageID, error)

	// ListUsages returns a user's usages, newest first by UsedAt.
	ListUsages(ctx context.Context, userID string) ([]BeanUsage, error)
}

// =============================================================================
// COMBINED / TRANSACTIONAL STORES
// =============================================================================

// Stores is everything a service might need from persistence.
type Stores interface {
	LotStore
	EventStore
	RecipeStore
	UsageStore
}

// TxStores adds atomic multi-write support.
type TxStores interface {
	Stores

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back; otherwise it is committed.
	WithTx(ctx context.Context, fn func(Stores) error) error
}
