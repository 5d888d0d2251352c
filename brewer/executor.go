/*
executor.go - Recipe batch execution

PURPOSE:
  Executing a recipe draws its TotalBeanAmount from a chosen lot and leaves
  two records behind: a BeanUsage audit entry and a ConsumptionEvent in the
  ledger. The three writes are one transaction.

ATOMICITY:
  Lot decrement, usage insert, and event insert all succeed or all fail.
  Partial application (stock deducted with no record, or a record with no
  deduction) is impossible; a failure on any write rolls back the unit.

NOMINAL AMOUNT:
  Both records carry the recipe's nominal TotalBeanAmount even when the lot
  held less and the decrement clamped at zero. A 18g recipe against a 10g lot
  empties the lot and still records 18g consumed. Inherited behavior the
  calendar and stats views rely on.
*/
package brewer

import (
	"context"
	"time"

	"github.com/roastery/beanledger/coffee"
)

// Execute draws recipe.TotalBeanAmount from the lot and records the usage
// and consumption entries, atomically.
//
// The recipe must have been saved: a transient recipe with no assigned id is
// rejected with coffee.ErrMissingRecipeID.
func (s *Service) Execute(ctx context.Context, recipe coffee.Recipe, lotID coffee.LotID, who coffee.Identity) error {
	if recipe.ID == "" {
		return coffee.ErrMissingRecipeID
	}

	return s.stores.WithTx(ctx, func(tx coffee.Stores) error {
		lot, err := tx.GetLot(ctx, lotID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		newWeight := lot.CurrentWeight.Sub(recipe.TotalBeanAmount).FloorZero()

		if err := tx.SetLotWeight(ctx, lotID, newWeight, now); err != nil {
			return err
		}

		if _, err := tx.InsertUsage(ctx, coffee.BeanUsage{
			UserID:     who.UserID,
			LotID:      lot.ID,
			LotName:    lot.Name,
			RecipeID:   recipe.ID,
			RecipeName: recipe.Name,
			Amount:     recipe.TotalBeanAmount,
			UsedAt:     now,
		}); err != nil {
			return err
		}

		_, err = tx.InsertEvent(ctx, coffee.ConsumptionEvent{
			UserID:     who.UserID,
			UserName:   who.UserName,
			LotID:      lot.ID,
			LotName:    lot.Name,
			RecipeID:   recipe.ID,
			RecipeName: recipe.Name,
			ConsumedAt: now,
			Amount:     recipe.TotalBeanAmount,
		})
		return err
	})
}
