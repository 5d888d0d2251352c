/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements coffee.TxStores using SQLite. This is the production store; the
  in-memory implementation in store/memory serves tests and dev.

KEY TABLES:
  lots:          Inventory lot records (current_weight is the mutable stock)
  consumptions:  The consumption ledger
  recipes:       Recipe definitions (ingredients stored as JSON)
  bean_usages:   Audit trail for recipe-driven consumption

ATOMIC MULTI-WRITES:
  WithTx wraps a BEGIN..COMMIT around a callback operating on the same
  statements. Recipe execution (lot update + usage insert + event insert) and
  the fused ledger operations (log+decrement, delete+restore) run through it,
  so partial application is impossible.

NUMERIC STORAGE:
  Gram amounts are stored as decimal strings, never floats. They round-trip
  through shopspring/decimal exactly.

CONCURRENCY:
  A sync.RWMutex serializes writers within the process; SQLite is opened in
  WAL mode so readers don't block.

MIGRATION:
  Schema is auto-migrated on New(). For multi-node production, use a proper
  migration tool with versioned migrations.

SEE ALSO:
  - coffee/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roastery/beanledger/coffee"
)

// Store implements coffee.TxStores using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ coffee.TxStores = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pool connection to ":memory:" gets its own empty database, so
	// the schema would vanish on the second connection. Pin the pool to one.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Inventory lots (shared across users)
	CREATE TABLE IF NOT EXISTS lots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		brand TEXT,
		lot_type TEXT NOT NULL,
		weight TEXT NOT NULL,
		current_weight TEXT NOT NULL,
		price REAL,
		purchase_date TEXT NOT NULL,
		expiry_date TEXT,
		details TEXT,
		user_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lots_created_at
		ON lots(created_at DESC);

	-- Consumption ledger
	CREATE TABLE IF NOT EXISTS consumptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		lot_id TEXT NOT NULL,
		lot_name TEXT NOT NULL,
		recipe_id TEXT,
		recipe_name TEXT,
		consumed_at TEXT NOT NULL,
		amount TEXT NOT NULL,
		notes TEXT
	);

	-- Hot path: newest-first listing
	CREATE INDEX IF NOT EXISTS idx_consumptions_consumed_at
		ON consumptions(consumed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_consumptions_user_date
		ON consumptions(user_id, consumed_at);

	-- Recipes
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		ingredients_json TEXT NOT NULL,
		process TEXT,
		grind_size TEXT,
		total_bean_amount TEXT NOT NULL,
		servings INTEGER NOT NULL DEFAULT 1,
		prep_time INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL,
		favorite BOOLEAN NOT NULL DEFAULT FALSE,
		user_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recipes_created_at
		ON recipes(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_recipes_user_category
		ON recipes(user_id, category);
	CREATE INDEX IF NOT EXISTS idx_recipes_user_favorite
		ON recipes(user_id, favorite);

	-- Bean usage audit trail (recipe executions only)
	CREATE TABLE IF NOT EXISTS bean_usages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lot_id TEXT NOT NULL,
		lot_name TEXT NOT NULL,
		recipe_id TEXT NOT NULL,
		recipe_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		used_at TEXT NOT NULL,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_bean_usages_user_date
		ON bean_usages(user_id, used_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Timestamps are stored as fixed-width UTC strings. The fraction is
// zero-padded, never trimmed: the consumed_at range comparisons and the
// ORDER BY clauses are lexicographic, so variable-width encodings (such as
// RFC3339Nano) would order "...00:00:00.5Z" before "...00:00:00Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func notFoundIfNoRows(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// =============================================================================
// LOT STORE
// =============================================================================

const lotColumns = `id, name, brand, lot_type, weight, current_weight, price,
	purchase_date, expiry_date, details, user_id, created_at, updated_at`

func (s *Store) CreateLot(ctx context.Context, lot coffee.Lot) (coffee.LotID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLot(ctx, s.db, lot)
}

func (s *Store) createLot(ctx context.Context, db dbtx, lot coffee.Lot) (coffee.LotID, error) {
	if lot.ID == "" {
		lot.ID = coffee.LotID(coffee.NewID("lot"))
	}

	var expiry any
	if lot.ExpiryDate != nil {
		expiry = formatTime(*lot.ExpiryDate)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO lots
		(id, name, brand, lot_type, weight, current_weight, price, purchase_date,
		 expiry_date, details, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lot.ID,
		lot.Name,
		nullString(lot.Brand),
		string(lot.Type),
		lot.Weight.Value.String(),
		lot.CurrentWeight.Value.String(),
		lot.Price,
		formatTime(lot.PurchaseDate),
		expiry,
		nullString(lot.Details),
		lot.UserID,
		formatTime(lot.CreatedAt),
		formatTime(lot.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert lot: %w", err)
	}
	return lot.ID, nil
}

func (s *Store) GetLot(ctx context.Context, id coffee.LotID) (*coffee.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLot(ctx, s.db, id)
}

func (s *Store) getLot(ctx context.Context, db dbtx, id coffee.LotID) (*coffee.Lot, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE id = ?`, id)

	lot, err := scanLot(row)
	if err == sql.ErrNoRows {
		return nil, coffee.ErrLotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	return lot, nil
}

func (s *Store) ListLots(ctx context.Context) ([]coffee.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLots(ctx, s.db)
}

func (s *Store) listLots(ctx context.Context, db dbtx) ([]coffee.Lot, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+lotColumns+` FROM lots ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var lots []coffee.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lots = append(lots, *lot)
	}
	return lots, rows.Err()
}

func scanLot(row scannable) (*coffee.Lot, error) {
	var (
		lot                   coffee.Lot
		brand, details        sql.NullString
		lotType               string
		weight, currentWeight string
		price                 sql.NullFloat64
		purchaseDate          string
		expiryDate            sql.NullString
		createdAt, updatedAt  string
	)

	err := row.Scan(
		&lot.ID, &lot.Name, &brand, &lotType, &weight, &currentWeight, &price,
		&purchaseDate, &expiryDate, &details, &lot.UserID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	lot.Brand = brand.String
	lot.Type = coffee.LotType(lotType)
	lot.Weight = coffee.ParseGrams(weight)
	lot.CurrentWeight = coffee.ParseGrams(currentWeight)
	if price.Valid {
		p := price.Float64
		lot.Price = &p
	}
	lot.PurchaseDate = parseTime(purchaseDate)
	if expiryDate.Valid {
		t := parseTime(expiryDate.String)
		lot.ExpiryDate = &t
	}
	lot.Details = details.String
	lot.CreatedAt = parseTime(createdAt)
	lot.UpdatedAt = parseTime(updatedAt)
	return &lot, nil
}

func (s *Store) UpdateLot(ctx context.Context, lot coffee.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLot(ctx, s.db, lot)
}

func (s *Store) updateLot(ctx context.Context, db dbtx, lot coffee.Lot) error {
	var expiry any
	if lot.ExpiryDate != nil {
		expiry = formatTime(*lot.ExpiryDate)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE lots SET
			name = ?, brand = ?, lot_type = ?, weight = ?, current_weight = ?,
			price = ?, purchase_date = ?, expiry_date = ?, details = ?, updated_at = ?
		WHERE id = ?`,
		lot.Name,
		nullString(lot.Brand),
		string(lot.Type),
		lot.Weight.Value.String(),
		lot.CurrentWeight.Value.String(),
		lot.Price,
		formatTime(lot.PurchaseDate),
		expiry,
		nullString(lot.Details),
		formatTime(lot.UpdatedAt),
		lot.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lot: %w", err)
	}
	return notFoundIfNoRows(res, coffee.ErrLotNotFound)
}

func (s *Store) SetLotWeight(ctx context.Context, id coffee.LotID, weight coffee.Grams, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLotWeight(ctx, s.db, id, weight, updatedAt)
}

func (s *Store) setLotWeight(ctx context.Context, db dbtx, id coffee.LotID, weight coffee.Grams, updatedAt time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE lots SET current_weight = ?, updated_at = ? WHERE id = ?`,
		weight.Value.String(), formatTime(updatedAt), id)
	if err != nil {
		return fmt.Errorf("failed to set lot weight: %w", err)
	}
	return notFoundIfNoRows(res, coffee.ErrLotNotFound)
}

func (s *Store) DeleteLot(ctx context.Context, id coffee.LotID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLot(ctx, s.db, id)
}

func (s *Store) deleteLot(ctx context.Context, db dbtx, id coffee.LotID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM lots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}
	return notFoundIfNoRows(res, coffee.ErrLotNotFound)
}

// =============================================================================
// EVENT STORE
// =============================================================================

const eventColumns = `id, user_id, user_name, lot_id, lot_name, recipe_id,
	recipe_name, consumed_at, amount, notes`

func (s *Store) InsertEvent(ctx context.Context, ev coffee.ConsumptionEvent) (coffee.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEvent(ctx, s.db, ev)
}

func (s *Store) insertEvent(ctx context.Context, db dbtx, ev coffee.ConsumptionEvent) (coffee.EventID, error) {
	if ev.ID == "" {
		ev.ID = coffee.EventID(coffee.NewID("evt"))
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO consumptions
		(id, user_id, user_name, lot_id, lot_name, recipe_id, recipe_name,
		 consumed_at, amount, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.UserID,
		ev.UserName,
		ev.LotID,
		ev.LotName,
		nullString(string(ev.RecipeID)),
		nullString(ev.RecipeName),
		formatTime(ev.ConsumedAt),
		ev.Amount.Value.String(),
		nullString(ev.Notes),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert consumption: %w", err)
	}
	return ev.ID, nil
}

func (s *Store) GetEvent(ctx context.Context, id coffee.EventID) (*coffee.ConsumptionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEvent(ctx, s.db, id)
}

func (s *Store) getEvent(ctx context.Context, db dbtx, id coffee.EventID) (*coffee.ConsumptionEvent, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM consumptions WHERE id = ?`, id)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, coffee.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consumption: %w", err)
	}
	return ev, nil
}

func (s *Store) ListEvents(ctx context.Context, limit int) ([]coffee.ConsumptionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEvents(ctx, s.db, limit)
}

func (s *Store) listEvents(ctx context.Context, db dbtx, limit int) ([]coffee.ConsumptionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM consumptions
		ORDER BY consumed_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumptions: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (s *Store) ListEventsInRange(ctx context.Context, userID string, from, to time.Time) ([]coffee.ConsumptionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEventsInRange(ctx, s.db, userID, from, to)
}

func (s *Store) listEventsInRange(ctx context.Context, db dbtx, userID string, from, to time.Time) ([]coffee.ConsumptionEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM consumptions
		WHERE user_id = ? AND consumed_at >= ? AND consumed_at < ?
		ORDER BY consumed_at DESC, rowid DESC`,
		userID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query consumptions: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]coffee.ConsumptionEvent, error) {
	var events []coffee.ConsumptionEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consumption: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func scanEvent(row scannable) (*coffee.ConsumptionEvent, error) {
	var (
		ev                          coffee.ConsumptionEvent
		recipeID, recipeName, notes sql.NullString
		consumedAt, amount          string
	)

	err := row.Scan(
		&ev.ID, &ev.UserID, &ev.UserName, &ev.LotID, &ev.LotName,
		&recipeID, &recipeName, &consumedAt, &amount, &notes,
	)
	if err != nil {
		return nil, err
	}

	ev.RecipeID = coffee.RecipeID(recipeID.String)
	ev.RecipeName = recipeName.String
	ev.ConsumedAt = parseTime(consumedAt)
	ev.Amount = coffee.ParseGrams(amount)
	ev.Notes = notes.String
	return &ev, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id coffee.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteEvent(ctx, s.db, id)
}

func (s *Store) deleteEvent(ctx context.Context, db dbtx, id coffee.EventID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM consumptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete consumption: %w", err)
	}
	return notFoundIfNoRows(res, coffee.ErrEventNotFound)
}

// =============================================================================
// RECIPE STORE
// =============================================================================

const recipeColumns = `id, name, description, category, ingredients_json, process,
	grind_size, total_bean_amount, servings, prep_time, difficulty, favorite,
	user_id, created_at, updated_at`

func (s *Store) CreateRecipe(ctx context.Context, r coffee.Recipe) (coffee.RecipeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createRecipe(ctx, s.db, r)
}

func (s *Store) createRecipe(ctx context.Context, db dbtx, r coffee.Recipe) (coffee.RecipeID, error) {
	if r.ID == "" {
		r.ID = coffee.RecipeID(coffee.NewID("rcp"))
	}

	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO recipes
		(id, name, description, category, ingredients_json, process, grind_size,
		 total_bean_amount, servings, prep_time, difficulty, favorite, user_id,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Name,
		nullString(r.Description),
		string(r.Category),
		string(ingredients),
		nullString(r.Process),
		nullString(r.GrindSize),
		r.TotalBeanAmount.Value.String(),
		r.Servings,
		r.PrepTime,
		string(r.Difficulty),
		r.Favorite,
		r.UserID,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert recipe: %w", err)
	}
	return r.ID, nil
}

func (s *Store) GetRecipe(ctx context.Context, id coffee.RecipeID) (*coffee.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRecipe(ctx, s.db, id)
}

func (s *Store) getRecipe(ctx context.Context, db dbtx, id coffee.RecipeID) (*coffee.Recipe, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, coffee.ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return r, nil
}

func (s *Store) ListRecipes(ctx context.Context, limit int) ([]coffee.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRecipes(ctx, s.db, limit)
}

func (s *Store) listRecipes(ctx context.Context, db dbtx, limit int) ([]coffee.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes
		ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return queryRecipes(ctx, db, query, args...)
}

func (s *Store) ListFavoriteRecipes(ctx context.Context, userID string) ([]coffee.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listFavoriteRecipes(ctx, s.db, userID)
}

func (s *Store) listFavoriteRecipes(ctx context.Context, db dbtx, userID string) ([]coffee.Recipe, error) {
	return queryRecipes(ctx, db, `
		SELECT `+recipeColumns+` FROM recipes
		WHERE user_id = ? AND favorite
		ORDER BY created_at DESC, rowid DESC`, userID)
}

func (s *Store) ListRecipesByCategory(ctx context.Context, userID string, category coffee.RecipeCategory) ([]coffee.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRecipesByCategory(ctx, s.db, userID, category)
}

func (s *Store) listRecipesByCategory(ctx context.Context, db dbtx, userID string, category coffee.RecipeCategory) ([]coffee.Recipe, error) {
	return queryRecipes(ctx, db, `
		SELECT `+recipeColumns+` FROM recipes
		WHERE user_id = ? AND category = ?
		ORDER BY created_at DESC, rowid DESC`, userID, string(category))
}

func queryRecipes(ctx context.Context, db dbtx, query string, args ...any) ([]coffee.Recipe, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []coffee.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

func scanRecipe(row scannable) (*coffee.Recipe, error) {
	var (
		r                           coffee.Recipe
		description, process, grind sql.NullString
		category, difficulty        string
		ingredientsJSON             string
		totalBeanAmount             string
		createdAt, updatedAt        string
	)

	err := row.Scan(
		&r.ID, &r.Name, &description, &category, &ingredientsJSON, &process,
		&grind, &totalBeanAmount, &r.Servings, &r.PrepTime, &difficulty,
		&r.Favorite, &r.UserID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Description = description.String
	r.Category = coffee.RecipeCategory(category)
	if ingredientsJSON != "" {
		if err := json.Unmarshal([]byte(ingredientsJSON), &r.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to decode ingredients: %w", err)
		}
	}
	r.Process = process.String
	r.GrindSize = grind.String
	r.TotalBeanAmount = coffee.ParseGrams(totalBeanAmount)
	r.Difficulty = coffee.Difficulty(difficulty)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

func (s *Store) UpdateRecipe(ctx context.Context, r coffee.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateRecipe(ctx, s.db, r)
}

func (s *Store) updateRecipe(ctx context.Context, db dbtx, r coffee.Recipe) error {
	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE recipes SET
			name = ?, description = ?, category = ?, ingredients_json = ?,
			process = ?, grind_size = ?, total_bean_amount = ?, servings = ?,
			prep_time = ?, difficulty = ?, favorite = ?, updated_at = ?
		WHERE id = ?`,
		r.Name,
		nullString(r.Description),
		string(r.Category),
		string(ingredients),
		nullString(r.Process),
		nullString(r.GrindSize),
		r.TotalBeanAmount.Value.String(),
		r.Servings,
		r.PrepTime,
		string(r.Difficulty),
		r.Favorite,
		formatTime(r.UpdatedAt),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	return notFoundIfNoRows(res, coffee.ErrRecipeNotFound)
}

func (s *Store) DeleteRecipe(ctx context.Context, id coffee.RecipeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRecipe(ctx, s.db, id)
}

func (s *Store) deleteRecipe(ctx context.Context, db dbtx, id coffee.RecipeID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return notFoundIfNoRows(res, coffee.ErrRecipeNotFound)
}

// =============================================================================
// USAGE STORE
// =============================================================================

func (s *Store) InsertUsage(ctx context.Context, u coffee.BeanUsage) (coffee.UsageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUsage(ctx, s.db, u)
}

func (s *Store) insertUsage(ctx context.Context, db dbtx, u coffee.BeanUsage) (coffee.UsageID, error) {
	if u.ID == "" {
		u.ID = coffee.UsageID(coffee.NewID("use"))
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO bean_usages
		(id, user_id, lot_id, lot_name, recipe_id, recipe_name, amount, used_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.UserID,
		u.LotID,
		u.LotName,
		u.RecipeID,
		u.RecipeName,
		u.Amount.Value.String(),
		formatTime(u.UsedAt),
		nullString(u.Notes),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert bean usage: %w", err)
	}
	return u.ID, nil
}

func (s *Store) ListUsages(ctx context.Context, userID string) ([]coffee.BeanUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listUsages(ctx, s.db, userID)
}

func (s *Store) listUsages(ctx context.Context, db dbtx, userID string) ([]coffee.BeanUsage, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, lot_id, lot_name, recipe_id, recipe_name, amount, used_at, notes
		FROM bean_usages
		WHERE user_id = ?
		ORDER BY used_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bean usages: %w", err)
	}
	defer rows.Close()

	var usages []coffee.BeanUsage
	for rows.Next() {
		var (
			u              coffee.BeanUsage
			amount, usedAt string
			notes          sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.UserID, &u.LotID, &u.LotName, &u.RecipeID,
			&u.RecipeName, &amount, &usedAt, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan bean usage: %w", err)
		}
		u.Amount = coffee.ParseGrams(amount)
		u.UsedAt = parseTime(usedAt)
		u.Notes = notes.String
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (coffee.TxStores interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(coffee.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every operation through the open *sql.Tx.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

var _ coffee.Stores = (*txStore)(nil)

func (ts *txStore) CreateLot(ctx context.Context, lot coffee.Lot) (coffee.LotID, error) {
	return ts.parent.createLot(ctx, ts.tx, lot)
}

func (ts *txStore) GetLot(ctx context.Context, id coffee.LotID) (*coffee.Lot, error) {
	return ts.parent.getLot(ctx, ts.tx, id)
}

func (ts *txStore) ListLots(ctx context.Context) ([]coffee.Lot, error) {
	return ts.parent.listLots(ctx, ts.tx)
}

func (ts *txStore) UpdateLot(ctx context.Context, lot coffee.Lot) error {
	return ts.parent.updateLot(ctx, ts.tx, lot)
}

func (ts *txStore) SetLotWeight(ctx context.Context, id coffee.LotID, weight coffee.Grams, updatedAt time.Time) error {
	return ts.parent.setLotWeight(ctx, ts.tx, id, weight, updatedAt)
}

func (ts *txStore) DeleteLot(ctx context.Context, id coffee.LotID) error {
	return ts.parent.deleteLot(ctx, ts.tx, id)
}

func (ts *txStore) InsertEvent(ctx context.Context, ev coffee.ConsumptionEvent) (coffee.EventID, error) {
	return ts.parent.insertEvent(ctx, ts.tx, ev)
}

func (ts *txStore) GetEvent(ctx context.Context, id coffee.EventID) (*coffee.ConsumptionEvent, error) {
	return ts.parent.getEvent(ctx, ts.tx, id)
}

func (ts *txStore) ListEvents(ctx context.Context, limit int) ([]coffee.ConsumptionEvent, error) {
	return ts.parent.listEvents(ctx, ts.tx, limit)
}

func (ts *txStore) ListEventsInRange(ctx context.Context, userID string, from, to time.Time) ([]coffee.ConsumptionEvent, error) {
	return ts.parent.listEventsInRange(ctx, ts.tx, userID, from, to)
}

func (ts *txStore) DeleteEvent(ctx context.Context, id coffee.EventID) error {
	return ts.parent.deleteEvent(ctx, ts.tx, id)
}

func (ts *txStore) CreateRecipe(ctx context.Context, r coffee.Recipe) (coffee.RecipeID, error) {
	return ts.parent.createRecipe(ctx, ts.tx, r)
}

func (ts *txStore) GetRecipe(ctx context.Context, id coffee.RecipeID) (*coffee.Recipe, error) {
	return ts.parent.getRecipe(ctx, ts.tx, id)
}

func (ts *txStore) ListRecipes(ctx context.Context, limit int) ([]coffee.Recipe, error) {
	return ts.parent.listRecipes(ctx, ts.tx, limit)
}

func (ts *txStore) ListFavoriteRecipes(ctx context.Context, userID string) ([]coffee.Recipe, error) {
	return ts.parent.listFavoriteRecipes(ctx, ts.tx, userID)
}

func (ts *txStore) ListRecipesByCategory(ctx context.Context, userID string, category coffee.RecipeCategory) ([]coffee.Recipe, error) {
	return ts.parent.listRecipesByCategory(ctx, ts.tx, userID, category)
}

func (ts *txStore) UpdateRecipe(ctx context.Context, r coffee.Recipe) error {
	return ts.parent.updateRecipe(ctx, ts.tx, r)
}

func (ts *txStore) DeleteRecipe(ctx context.Context, id coffee.RecipeID) error {
	return ts.parent.deleteRecipe(ctx, ts.tx, id)
}

func (ts *txStore) InsertUsage(ctx context.Context, u coffee.BeanUsage) (coffee.UsageID, error) {
	return ts.parent.insertUsage(ctx, ts.tx, u)
}

func (ts *txStore) ListUsages(ctx context.Context, userID string) ([]coffee.BeanUsage, error) {
	return ts.parent.listUsages(ctx, ts.tx, userID)
}
