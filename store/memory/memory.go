// Package memory provides an in-memory Stores implementation (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roastery/beanledger/coffee"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of coffee.TxStores
// =============================================================================

type Store struct {
	mu      sync.RWMutex
	seq     uint64
	lots    map[coffee.LotID]lotRec
	events  map[coffee.EventID]eventRec
	recipes map[coffee.RecipeID]recipeRec
	usages  map[coffee.UsageID]usageRec
}

// seq breaks ordering ties when two records share a timestamp.
type lotRec struct {
	coffee.Lot
	seq uint64
}

type eventRec struct {
	coffee.ConsumptionEvent
	seq uint64
}

type recipeRec struct {
	coffee.Recipe
	seq uint64
}

type usageRec struct {
	coffee.BeanUsage
	seq uint64
}

func New() *Store {
	return &Store{
		lots:    make(map[coffee.LotID]lotRec),
		events:  make(map[coffee.EventID]eventRec),
		recipes: make(map[coffee.RecipeID]recipeRec),
		usages:  make(map[coffee.UsageID]usageRec),
	}
}

var _ coffee.TxStores = (*Store)(nil)

// =============================================================================
// LOT STORE
// =============================================================================

func (s *Store) CreateLot(_ context.Context, lot coffee.Lot) (coffee.LotID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLotLocked(lot)
}

func (s *Store) createLotLocked(lot coffee.Lot) (coffee.LotID, error) {
	if lot.ID == "" {
		lot.ID = coffee.LotID(coffee.NewID("lot"))
	}
	s.seq++
	s.lots[lot.ID] = lotRec{Lot: lot, seq: s.seq}
	return lot.ID, nil
}

func (s *Store) GetLot(_ context.Context, id coffee.LotID) (*coffee.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLotLocked(id)
}

func (s *Store) getLotLocked(id coffee.LotID) (*coffee.Lot, error) {
	rec, ok := s.lots[id]
	if !ok {
		return nil, coffee.ErrLotNotFound
	}
	lot := rec.Lot
	return &lot, nil
}

func (s *Store) ListLots(_ context.Context) ([]coffee.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]lotRec, 0, len(s.lots))
	for _, r := range s.lots {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	lots := make([]coffee.Lot, len(recs))
	for i, r := range recs {
		lots[i] = r.Lot
	}
	return lots, nil
}

func (s *Store) UpdateLot(_ context.Context, lot coffee.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLotLocked(lot)
}

func (s *Store) updateLotLocked(lot coffee.Lot) error {
	rec, ok := s.lots[lot.ID]
	if !ok {
		return coffee.ErrLotNotFound
	}
	rec.Lot = lot
	s.lots[lot.ID] = rec
	return nil
}

func (s *Store) SetLotWeight(_ context.Context, id coffee.LotID, weight coffee.Grams, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLotWeightLocked(id, weight, updatedAt)
}

func (s *Store) setLotWeightLocked(id coffee.LotID, weight coffee.Grams, updatedAt time.Time) error {
	rec, ok := s.lots[id]
	if !ok {
		return coffee.ErrLotNotFound
	}
	rec.CurrentWeight = weight
	rec.UpdatedAt = updatedAt
	s.lots[id] = rec
	return nil
}

func (s *Store) DeleteLot(_ context.Context, id coffee.LotID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLotLocked(id)
}

func (s *Store) deleteLotLocked(id coffee.LotID) error {
	if _, ok := s.lots[id]; !ok {
		return coffee.ErrLotNotFound
	}
	delete(s.lots, id)
	return nil
}

// =============================================================================
// EVENT STORE
// =============================================================================

func (s *Store) InsertEvent(_ context.Context, ev coffee.ConsumptionEvent) (coffee.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEventLocked(ev)
}

func (s *Store) insertEventLocked(ev coffee.ConsumptionEvent) (coffee.EventID, error) {
	if ev.ID == "" {
		ev.ID = coffee.EventID(coffee.NewID("evt"))
	}
	s.seq++
	s.events[ev.ID] = eventRec{ConsumptionEvent: ev, seq: s.seq}
	return ev.ID, nil
}

func (s *Store) GetEvent(_ context.Context, id coffee.EventID) (*coffee.ConsumptionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEventLocked(id)
}

func (s *Store) getEventLocked(id coffee.EventID) (*coffee.ConsumptionEvent, error) {
	rec, ok := s.events[id]
	if !ok {
		return nil, coffee.ErrEventNotFound
	}
	ev := rec.ConsumptionEvent
	return &ev, nil
}

func (s *Store) ListEvents(_ context.Context, limit int) ([]coffee.ConsumptionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.sortedEventsLocked()
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	events := make([]coffee.ConsumptionEvent, len(recs))
	for i, r := range recs {
		events[i] = r.ConsumptionEvent
	}
	return events, nil
}

func (s *Store) ListEventsInRange(_ context.Context, userID string, from, to time.Time) ([]coffee.ConsumptionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []coffee.ConsumptionEvent
	for _, r := range s.sortedEventsLocked() {
		if r.UserID != userID {
			continue
		}
		if r.ConsumedAt.Before(from) || !r.ConsumedAt.Before(to) {
			continue
		}
		events = append(events, r.ConsumptionEvent)
	}
	return events, nil
}

func (s *Store) sortedEventsLocked() []eventRec {
	recs := make([]eventRec, 0, len(s.events))
	for _, r := range s.events {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].ConsumedAt.Equal(recs[j].ConsumedAt) {
			return recs[i].ConsumedAt.After(recs[j].ConsumedAt)
		}
		return recs[i].seq > recs[j].seq
	})
	return recs
}

func (s *Store) DeleteEvent(_ context.Context, id coffee.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteEventLocked(id)
}

func (s *Store) deleteEventLocked(id coffee.EventID) error {
	if _, ok := s.events[id]; !ok {
		return coffee.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

// =============================================================================
// RECIPE STORE
// =============================================================================

func (s *Store) CreateRecipe(_ context.Context, r coffee.Recipe) (coffee.RecipeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createRecipeLocked(r)
}

func (s *Store) createRecipeLocked(r coffee.Recipe) (coffee.RecipeID, error) {
	if r.ID == "" {
		r.ID = coffee.RecipeID(coffee.NewID("rcp"))
	}
	s.seq++
	s.recipes[r.ID] = recipeRec{Recipe: r, seq: s.seq}
	return r.ID, nil
}

func (s *Store) GetRecipe(_ context.Context, id coffee.RecipeID) (*coffee.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRecipeLocked(id)
}

func (s *Store) getRecipeLocked(id coffee.RecipeID) (*coffee.Recipe, error) {
	rec, ok := s.recipes[id]
	if !ok {
		return nil, coffee.ErrRecipeNotFound
	}
	r := rec.Recipe
	return &r, nil
}

func (s *Store) ListRecipes(_ context.Context, limit int) ([]coffee.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.sortedRecipesLocked()
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	recipes := make([]coffee.Recipe, len(recs))
	for i, r := range recs {
		recipes[i] = r.Recipe
	}
	return recipes, nil
}

func (s *Store) ListFavoriteRecipes(_ context.Context, userID string) ([]coffee.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recipes []coffee.Recipe
	for _, r := range s.sortedRecipesLocked() {
		if r.UserID == userID && r.Favorite {
			recipes = append(recipes, r.Recipe)
		}
	}
	return recipes, nil
}

func (s *Store) ListRecipesByCategory(_ context.Context, userID string, category coffee.RecipeCategory) ([]coffee.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recipes []coffee.Recipe
	for _, r := range s.sortedRecipesLocked() {
		if r.UserID == userID && r.Category == category {
			recipes = append(recipes, r.Recipe)
		}
	}
	return recipes, nil
}

func (s *Store) sortedRecipesLocked() []recipeRec {
	recs := make([]recipeRec, 0, len(s.recipes))
	for _, r := range s.recipes {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})
	return recs
}

func (s *Store) UpdateRecipe(_ context.Context, r coffee.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateRecipeLocked(r)
}

func (s *Store) updateRecipeLocked(r coffee.Recipe) error {
	rec, ok := s.recipes[r.ID]
	if !ok {
		return coffee.ErrRecipeNotFound
	}
	rec.Recipe = r
	s.recipes[r.ID] = rec
	return nil
}

func (s *Store) DeleteRecipe(_ context.Context, id coffee.RecipeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRecipeLocked(id)
}

func (s *Store) deleteRecipeLocked(id coffee.RecipeID) error {
	if _, ok := s.recipes[id]; !ok {
		return coffee.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}

// =============================================================================
// USAGE STORE
// =============================================================================

func (s *Store) InsertUsage(_ context.Context, u coffee.BeanUsage) (coffee.UsageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUsageLocked(u)
}

func (s *Store) insertUsageLocked(u coffee.BeanUsage) (coffee.UsageID, error) {
	if u.ID == "" {
		u.ID = coffee.UsageID(coffee.NewID("use"))
	}
	s.seq++
	s.usages[u.ID] = usageRec{BeanUsage: u, seq: s.seq}
	return u.ID, nil
}

func (s *Store) ListUsages(_ context.Context, userID string) ([]coffee.BeanUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]usageRec, 0, len(s.usages))
	for _, r := range s.usages {
		if r.UserID == userID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].UsedAt.Equal(recs[j].UsedAt) {
			return recs[i].UsedAt.After(recs[j].UsedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	usages := make([]coffee.BeanUsage, len(recs))
	for i, r := range recs {
		usages[i] = r.BeanUsage
	}
	return usages, nil
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes fn within a transaction.
// For the memory store, this is simulated with a snapshot + rollback on error.
func (s *Store) WithTx(_ context.Context, fn func(coffee.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()

	if err := fn(&txView{parent: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	lots    map[coffee.LotID]lotRec
	events  map[coffee.EventID]eventRec
	recipes map[coffee.RecipeID]recipeRec
	usages  map[coffee.UsageID]usageRec
}

func (s *Store) snapshot() memorySnapshot {
	snap := memorySnapshot{
		lots:    make(map[coffee.LotID]lotRec, len(s.lots)),
		events:  make(map[coffee.EventID]eventRec, len(s.events)),
		recipes: make(map[coffee.RecipeID]recipeRec, len(s.recipes)),
		usages:  make(map[coffee.UsageID]usageRec, len(s.usages)),
	}
	for k, v := range s.lots {
		snap.lots[k] = v
	}
	for k, v := range s.events {
		snap.events[k] = v
	}
	for k, v := range s.recipes {
		snap.recipes[k] = v
	}
	for k, v := range s.usages {
		snap.usages[k] = v
	}
	return snap
}

func (s *Store) restore(snap memorySnapshot) {
	s.lots = snap.lots
	s.events = snap.events
	s.recipes = snap.recipes
	s.usages = snap.usages
}

// txView forwards to the parent's locked methods; the parent holds the lock
// for the duration of WithTx.
type txView struct {
	parent *Store
}

var _ coffee.Stores = (*txView)(nil)

func (tv *txView) CreateLot(_ context.Context, lot coffee.Lot) (coffee.LotID, error) {
	return tv.parent.createLotLocked(lot)
}

func (tv *txView) GetLot(_ context.Context, id coffee.LotID) (*coffee.Lot, error) {
	return tv.parent.getLotLocked(id)
}

func (tv *txView) ListLots(ctx context.Context) ([]coffee.Lot, error) {
	recs := make([]lotRec, 0, len(tv.parent.lots))
	for _, r := range tv.parent.lots {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})
	lots := make([]coffee.Lot, len(recs))
	for i, r := range recs {
		lots[i] = r.Lot
	}
	return lots, nil
}

func (tv *txView) UpdateLot(_ context.Context, lot coffee.Lot) error {
	return tv.parent.updateLotLocked(lot)
}

func (tv *txView) SetLotWeight(_ context.Context, id coffee.LotID, weight coffee.Grams, updatedAt time.Time) error {
	return tv.parent.setLotWeightLocked(id, weight, updatedAt)
}

func (tv *txView) DeleteLot(_ context.Context, id coffee.LotID) error {
	return tv.parent.deleteLotLocked(id)
}

func (tv *txView) InsertEvent(_ context.Context, ev coffee.ConsumptionEvent) (coffee.EventID, error) {
	return tv.parent.insertEventLocked(ev)
}

func (tv *txView) GetEvent(_ context.Context, id coffee.EventID) (*coffee.ConsumptionEvent, error) {
	return tv.parent.getEventLocked(id)
}

func (tv *txView) ListEvents(_ context.Context, limit int) ([]coffee.ConsumptionEvent, error) {
	recs := tv.parent.sortedEventsLocked()
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	events := make([]coffee.ConsumptionEvent, len(recs))
	for i, r := range recs {
		events[i] = r.ConsumptionEvent
	}
	return events, nil
}

func (tv *txView) ListEventsInRange(_ context.Context, userID string, from, to time.Time) ([]coffee.ConsumptionEvent, error) {
	var events []coffee.ConsumptionEvent
	for _, r := range tv.parent.sortedEventsLocked() {
		if r.UserID != userID {
			continue
		}
		if r.ConsumedAt.Before(from) || !r.ConsumedAt.Before(to) {
			continue
		}
		events = append(events, r.ConsumptionEvent)
	}
	return events, nil
}

func (tv *txView) DeleteEvent(_ context.Context, id coffee.EventID) error {
	return tv.parent.deleteEventLocked(id)
}

func (tv *txView) CreateRecipe(_ context.Context, r coffee.Recipe) (coffee.RecipeID, error) {
	return tv.parent.createRecipeLocked(r)
}

func (tv *txView) GetRecipe(_ context.Context, id coffee.RecipeID) (*coffee.Recipe, error) {
	return tv.parent.getRecipeLocked(id)
}

func (tv *txView) ListRecipes(_ context.Context, limit int) ([]coffee.Recipe, error) {
	recs := tv.parent.sortedRecipesLocked()
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	recipes := make([]coffee.Recipe, len(recs))
	for i, r := range recs {
		recipes[i] = r.Recipe
	}
	return recipes, nil
}

func (tv *txView) ListFavoriteRecipes(_ context.Context, userID string) ([]coffee.Recipe, error) {
	var recipes []coffee.Recipe
	for _, r := range tv.parent.sortedRecipesLocked() {
		if r.UserID == userID && r.Favorite {
			recipes = append(recipes, r.Recipe)
		}
	}
	return recipes, nil
}

func (tv *txView) ListRecipesByCategory(_ context.Context, userID string, category coffee.RecipeCategory) ([]coffee.Recipe, error) {
	var recipes []coffee.Recipe
	for _, r := range tv.parent.sortedRecipesLocked() {
		if r.UserID == userID && r.Category == category {
			recipes = append(recipes, r.Recipe)
		}
	}
	return recipes, nil
}

func (tv *txView) UpdateRecipe(_ context.Context, r coffee.Recipe) error {
	return tv.parent.updateRecipeLocked(r)
}

func (tv *txView) DeleteRecipe(_ context.Context, id coffee.RecipeID) error {
	return tv.parent.deleteRecipeLocked(id)
}

func (tv *txView) InsertUsage(_ context.Context, u coffee.BeanUsage) (coffee.UsageID, error) {
	return tv.parent.insertUsageLocked(u)
}

func (tv *txView) ListUsages(_ context.Context, userID string) ([]coffee.BeanUsage, error) {
	recs := make([]usageRec, 0, len(tv.parent.usages))
	for _, r := range tv.parent.usages {
		if r.UserID == userID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].UsedAt.Equal(recs[j].UsedAt) {
			return recs[i].UsedAt.After(recs[j].UsedAt)
		}
		return recs[i].seq > recs[j].seq
	})
	usages := make([]coffee.BeanUsage, len(recs))
	for i, r := range recs {
		usages[i] = r.BeanUsage
	}
	return usages, nil
}
