/*
Package ledger maintains the consumption log against the shared inventory.

PURPOSE:
  Every time someone brews, a ConsumptionEvent is recorded here and the
  referenced lot's stock is decremented. Deleting an event restores the
  stock it consumed.

ATOMICITY:
  The original client performed record-then-decrement and delete-then-restore
  as two independent network calls, so a crash between them left stock and
  ledger inconsistent. Here each pair is ONE store transaction:

    Log:    insert event + decrement lot   (all or nothing)
    Delete: delete event + restore lot     (all or nothing)

  A failure mid-unit rolls everything back; inventory and ledger cannot
  drift apart.

DEFAULTED AMOUNTS:
  A log request that names a recipe but no explicit amount consumes the
  recipe's TotalBeanAmount.

DELETE vs. DELETED LOT:
  If the lot was removed after the event was logged, deleting the event still
  succeeds; the restore is skipped because there is no stock to credit.

SEE ALSO:
  - inventory: the clamp/restore stock semantics this package composes with
  - brewer: recipe execution appends to this ledger as part of its own batch
*/
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/roastery/beanledger/coffee"
	"github.com/roastery/beanledger/inventory"
)

// Ledger records and deletes consumption events, keeping lot stock in sync.
type Ledger struct {
	stores coffee.TxStores
}

func New(stores coffee.TxStores) *Ledger {
	return &Ledger{stores: stores}
}

// LogInput describes a consumption to record.
type LogInput struct {
	Identity   coffee.Identity
	LotID      coffee.LotID
	RecipeID   coffee.RecipeID // optional; names are denormalized when set
	ConsumedAt time.Time       // zero value means now
	Amount     coffee.Grams    // zero means "use the recipe's TotalBeanAmount"
	Notes      string
}

// Log validates, denormalizes, and atomically writes the event plus the
// lot decrement.
func (l *Ledger) Log(ctx context.Context, in LogInput) (coffee.EventID, error) {
	var id coffee.EventID

	err := l.stores.WithTx(ctx, func(tx coffee.Stores) error {
		lot, err := tx.GetLot(ctx, in.LotID)
		if err != nil {
			return err
		}

		amount := in.Amount
		recipeName := ""
		if in.RecipeID != "" {
			recipe, err := tx.GetRecipe(ctx, in.RecipeID)
			if err != nil {
				return err
			}
			recipeName = recipe.Name
			if amount.IsZero() {
				amount = recipe.TotalBeanAmount
			}
		}
		if !amount.IsPositive() {
			return &coffee.AmountError{Amount: amount}
		}

		consumedAt := in.ConsumedAt
		if consumedAt.IsZero() {
			consumedAt = time.Now().UTC()
		}

		id, err = tx.InsertEvent(ctx, coffee.ConsumptionEvent{
			UserID:     in.Identity.UserID,
			UserName:   in.Identity.UserName,
			LotID:      lot.ID,
			LotName:    lot.Name,
			RecipeID:   in.RecipeID,
			RecipeName: recipeName,
			ConsumedAt: consumedAt,
			Amount:     amount,
			Notes:      in.Notes,
		})
		if err != nil {
			return err
		}

		return inventory.Decrement(ctx, tx, lot.ID, amount)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// List returns events newest first; limit <= 0 means no cap.
func (l *Ledger) List(ctx context.Context, limit int) ([]coffee.ConsumptionEvent, error) {
	return l.stores.ListEvents(ctx, limit)
}

// Get returns a single event or coffee.ErrEventNotFound.
func (l *Ledger) Get(ctx context.Context, id coffee.EventID) (*coffee.ConsumptionEvent, error) {
	return l.stores.GetEvent(ctx, id)
}

// ListForDay returns a user's events on the calendar day containing t,
// using t's location for the midnight boundaries.
func (l *Ledger) ListForDay(ctx context.Context, userID string, t time.Time) ([]coffee.ConsumptionEvent, error) {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return l.stores.ListEventsInRange(ctx, userID, midnight, midnight.AddDate(0, 0, 1))
}

// Delete removes the event and atomically restores its amount to the lot.
// A lot deleted since the event was logged is tolerated: the event removal
// proceeds and the restore is skipped.
func (l *Ledger) Delete(ctx context.Context, id coffee.EventID) error {
	return l.stores.WithTx(ctx, func(tx coffee.Stores) error {
		ev, err := tx.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteEvent(ctx, id); err != nil {
			return err
		}

		err = inventory.Restore(ctx, tx, ev.LotID, ev.Amount)
		if errors.Is(err, coffee.ErrLotNotFound) {
			return nil
		}
		return err
	})
}
