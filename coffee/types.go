/*
Package coffee provides the core domain model for the shared coffee-inventory
consumption ledger.

PURPOSE:
  This package contains the entity types and storage contracts shared by every
  service in the system: inventory lots, the consumption ledger, recipes, and
  the bean-usage audit trail. Services (inventory, ledger, brewer) build on
  these; store implementations (store/memory, store/sqlite) persist them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Lot: A purchased bag of beans, tracked by remaining weight
  - ConsumptionEvent: An immutable record that some amount of a lot was used
  - Recipe: A brew method with an ordered ingredient list and a total bean draw
  - BeanUsage: Audit record written only by recipe execution
  - Identity: The (user id, display name) pair attributed to every write

DESIGN PRINCIPLES:
  1. Precision: Grams uses decimal.Decimal, never floating point
  2. Denormalized snapshots: events copy the lot/recipe display names at write
     time so history stays readable after the source entity is edited or deleted
  3. Closed enums: categories and difficulties are typed constants with
     exhaustive label mappings, not string-keyed lookup tables

SEE ALSO:
  - store.go: Persistence interfaces, including the transactional contract
  - errors.go: Sentinel and structured errors
  - grams.go: The Grams weight type
*/
package coffee

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type LotID string
type RecipeID string
type EventID string
type UsageID string

// Identity is the opaque (id, display name) pair supplied by the
// authentication collaborator. The ledger attributes every write with it but
// never interprets it.
type Identity struct {
	UserID   string
	UserName string
}

// =============================================================================
// LOT - A purchased quantity of a specific coffee
// =============================================================================

// LotType classifies a lot. Closed set; Label is exhaustive.
type LotType string

const (
	LotSingleOrigin LotType = "single-origin"
	LotBlend        LotType = "blend"
	LotEspresso     LotType = "espresso"
	LotFilter       LotType = "filter"
)

func (t LotType) Valid() bool {
	switch t {
	case LotSingleOrigin, LotBlend, LotEspresso, LotFilter:
		return true
	}
	return false
}

func (t LotType) Label() string {
	switch t {
	case LotSingleOrigin:
		return "Single Origin"
	case LotBlend:
		return "Blend"
	case LotEspresso:
		return "Espresso"
	case LotFilter:
		return "Filter"
	default:
		return string(t)
	}
}

// Lot is a bag of beans in the shared inventory.
//
// INVARIANT: CurrentWeight never goes below zero. The upper bound is NOT
// enforced: restores after an event deletion can push CurrentWeight above
// the nominal Weight. Conservation under delete/restore depends on that.
type Lot struct {
	ID            LotID
	Name          string
	Brand         string // optional
	Type          LotType
	Weight        Grams // total at purchase, fixed
	CurrentWeight Grams // remaining, mutated only by Decrement/Restore
	Price         *float64
	PurchaseDate  time.Time
	ExpiryDate    *time.Time
	Details       string // free-form tasting notes
	UserID        string // who registered the lot; inventory itself is shared
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// =============================================================================
// CONSUMPTION EVENT - The ledger's unit of record
// =============================================================================

// ConsumptionEvent records that Amount grams of a lot were used. LotName and
// RecipeName are denormalized snapshots taken at write time.
type ConsumptionEvent struct {
	ID         EventID
	UserID     string
	UserName   string
	LotID      LotID
	LotName    string
	RecipeID   RecipeID // empty for direct logging
	RecipeName string
	ConsumedAt time.Time // user-editable, not necessarily the insert time
	Amount     Grams     // always > 0
	Notes      string
}

// =============================================================================
// RECIPE
// =============================================================================

type RecipeCategory string

const (
	CategoryEspresso   RecipeCategory = "espresso"
	CategoryDrip       RecipeCategory = "drip"
	CategoryLatte      RecipeCategory = "latte"
	CategoryCappuccino RecipeCategory = "cappuccino"
	CategoryAmericano  RecipeCategory = "americano"
	CategoryColdBrew   RecipeCategory = "cold-brew"
	CategoryOther      RecipeCategory = "other"
)

func (c RecipeCategory) Valid() bool {
	switch c {
	case CategoryEspresso, CategoryDrip, CategoryLatte, CategoryCappuccino,
		CategoryAmericano, CategoryColdBrew, CategoryOther:
		return true
	}
	return false
}

func (c RecipeCategory) Label() string {
	switch c {
	case CategoryEspresso:
		return "Espresso"
	case CategoryDrip:
		return "Drip"
	case CategoryLatte:
		return "Latte"
	case CategoryCappuccino:
		return "Cappuccino"
	case CategoryAmericano:
		return "Americano"
	case CategoryColdBrew:
		return "Cold Brew"
	case CategoryOther:
		return "Other"
	default:
		return string(c)
	}
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	default:
		return string(d)
	}
}

type IngredientUnit string

const (
	UnitGram       IngredientUnit = "g"
	UnitMilliliter IngredientUnit = "ml"
	UnitTeaspoon   IngredientUnit = "tsp"
	UnitTablespoon IngredientUnit = "tbsp"
	UnitCup        IngredientUnit = "cup"
)

type Ingredient struct {
	Name   string         `json:"name"`
	Amount float64        `json:"amount"`
	Unit   IngredientUnit `json:"unit"`
}

// Recipe is a brew method. It is not tied to a lot at rest; the caller picks
// which lot to draw from at execution time.
type Recipe struct {
	ID              RecipeID
	Name            string
	Description     string
	Category        RecipeCategory
	Ingredients     []Ingredient
	Process         string // free-form ordered steps
	GrindSize       string
	TotalBeanAmount Grams // drawn from the lot on each execution
	Servings        int
	PrepTime        int // minutes
	Difficulty      Difficulty
	Favorite        bool
	UserID          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// =============================================================================
// BEAN USAGE - Audit trail for recipe-driven consumption
// =============================================================================

// BeanUsage mirrors a consumption event but exists only for recipe executions.
// It is a write-only audit log; nothing reads it back to enforce invariants.
type BeanUsage struct {
	ID         UsageID
	UserID     string
	LotID      LotID
	LotName    string
	RecipeID   RecipeID
	RecipeName string
	Amount     Grams
	UsedAt     time.Time
	Notes      string
}
