/*
Package inventory manages the shared pool of coffee lots.

PURPOSE:
  Lot CRUD plus the two stock primitives everything else builds on:
  Decrement (floor-clamped at zero) and Restore (unclamped compensating
  credit). The consumption ledger and the recipe executor route all stock
  mutation through these semantics.

STOCK SEMANTICS:
  - Decrement clamps at zero: an over-draw silently discards the excess
    instead of failing. Drawing 18g from a 10g lot leaves 0g.
  - Restore adds unconditionally, with no ceiling at the lot's nominal
    weight. Conservation under event delete/restore depends on this:
    deleting a consumption of amount a always credits exactly a back.
  - Both fail with coffee.ErrLotNotFound on a missing lot rather than
    silently no-opping.

SEE ALSO:
  - ledger: fuses event writes with these stock mutations
  - brewer: the batch executor applies the same clamp inside its transaction
*/
package inventory

import (
	"context"
	"time"

	"github.com/roastery/beanledger/coffee"
)

// Service coordinates lot persistence and stock mutation.
type Service struct {
	stores coffee.TxStores
}

func NewService(stores coffee.TxStores) *Service {
	return &Service{stores: stores}
}

// =============================================================================
// LOT CRUD
// =============================================================================

// Create registers a new lot. CurrentWeight starts at the full Weight.
func (s *Service) Create(ctx context.Context, lot coffee.Lot) (coffee.LotID, error) {
	if lot.Name == "" {
		return "", &coffee.ValidationError{Field: "name", Message: "required"}
	}
	if !lot.Type.Valid() {
		return "", &coffee.ValidationError{Field: "type", Message: "unknown lot type"}
	}
	if !lot.Weight.IsPositive() {
		return "", &coffee.ValidationError{Field: "weight", Message: "must be positive"}
	}

	now := time.Now().UTC()
	lot.ID = ""
	lot.CurrentWeight = lot.Weight
	lot.CreatedAt = now
	lot.UpdatedAt = now
	if lot.PurchaseDate.IsZero() {
		lot.PurchaseDate = now
	}

	return s.stores.CreateLot(ctx, lot)
}

func (s *Service) Get(ctx context.Context, id coffee.LotID) (*coffee.Lot, error) {
	return s.stores.GetLot(ctx, id)
}

// List returns all lots, newest first.
func (s *Service) List(ctx context.Context) ([]coffee.Lot, error) {
	return s.stores.ListLots(ctx)
}

// Update edits a lot's descriptive fields. The nominal Weight is fixed at
// purchase, and CurrentWeight is owned by the stock primitives; neither is
// touched here.
func (s *Service) Update(ctx context.Context, lot coffee.Lot) error {
	if lot.Name == "" {
		return &coffee.ValidationError{Field: "name", Message: "required"}
	}
	if !lot.Type.Valid() {
		return &coffee.ValidationError{Field: "type", Message: "unknown lot type"}
	}

	return s.stores.WithTx(ctx, func(tx coffee.Stores) error {
		existing, err := tx.GetLot(ctx, lot.ID)
		if err != nil {
			return err
		}
		lot.Weight = existing.Weight
		lot.CurrentWeight = existing.CurrentWeight
		lot.UserID = existing.UserID
		lot.CreatedAt = existing.CreatedAt
		lot.UpdatedAt = time.Now().UTC()
		return tx.UpdateLot(ctx, lot)
	})
}

// Delete removes a lot. Consumption events referencing it survive with their
// denormalized name; there is no cascade.
func (s *Service) Delete(ctx context.Context, id coffee.LotID) error {
	return s.stores.DeleteLot(ctx, id)
}

// =============================================================================
// STOCK PRIMITIVES
// =============================================================================

// Decrement draws amount grams from the lot, flooring at zero.
func (s *Service) Decrement(ctx context.Context, id coffee.LotID, amount coffee.Grams) error {
	if !amount.IsPositive() {
		return &coffee.AmountError{Amount: amount}
	}
	return s.stores.WithTx(ctx, func(tx coffee.Stores) error {
		return Decrement(ctx, tx, id, amount)
	})
}

// Restore credits amount grams back to the lot, without a ceiling.
func (s *Service) Restore(ctx context.Context, id coffee.LotID, amount coffee.Grams) error {
	if !amount.IsPositive() {
		return &coffee.AmountError{Amount: amount}
	}
	return s.stores.WithTx(ctx, func(tx coffee.Stores) error {
		return Restore(ctx, tx, id, amount)
	})
}

// Decrement is the transaction-scoped form, for callers composing the stock
// mutation with other writes in one atomic unit.
func Decrement(ctx context.Context, tx coffee.Stores, id coffee.LotID, amount coffee.Grams) error {
	lot, err := tx.GetLot(ctx, id)
	if err != nil {
		return err
	}
	newWeight := lot.CurrentWeight.Sub(amount).FloorZero()
	return tx.SetLotWeight(ctx, id, newWeight, time.Now().UTC())
}

// Restore is the transaction-scoped form of Service.Restore.
func Restore(ctx context.Context, tx coffee.Stores, id coffee.LotID, amount coffee.Grams) error {
	lot, err := tx.GetLot(ctx, id)
	if err != nil {
		return err
	}
	return tx.SetLotWeight(ctx, id, lot.CurrentWeight.Add(amount), time.Now().UTC())
}
