// Package brewer provides recipe management and the batch executor that
// draws beans from a lot on a recipe's behalf.
package brewer

import (
	"context"
	"time"

	"github.com/roastery/beanledger/coffee"
)

// Service owns recipe CRUD. Execution lives in executor.go.
type Service struct {
	stores coffee.TxStores
}

func NewService(stores coffee.TxStores) *Service {
	return &Service{stores: stores}
}

// Create validates and persists a recipe.
func (s *Service) Create(ctx context.Context, r coffee.Recipe) (coffee.RecipeID, error) {
	if err := validate(r); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	r.ID = ""
	r.CreatedAt = now
	r.UpdatedAt = now
	return s.stores.CreateRecipe(ctx, r)
}

func (s *Service) Get(ctx context.Context, id coffee.RecipeID) (*coffee.Recipe, error) {
	return s.stores.GetRecipe(ctx, id)
}

// List returns recipes newest first; limit <= 0 means no cap.
func (s *Service) List(ctx context.Context, limit int) ([]coffee.Recipe, error) {
	return s.stores.ListRecipes(ctx, limit)
}

func (s *Service) ListFavorites(ctx context.Context, userID string) ([]coffee.Recipe, error) {
	return s.stores.ListFavoriteRecipes(ctx, userID)
}

func (s *Service) ListByCategory(ctx context.Context, userID string, category coffee.RecipeCategory) ([]coffee.Recipe, error) {
	if !category.Valid() {
		return nil, &coffee.ValidationError{Field: "category", Message: "unknown category"}
	}
	return s.stores.ListRecipesByCategory(ctx, userID, category)
}

func (s *Service) Update(ctx context.Context, r coffee.Recipe) error {
	if err := validate(r); err != nil {
		return err
	}

	return s.stores.WithTx(ctx, func(tx coffee.Stores) error {
		existing, err := tx.GetRecipe(ctx, r.ID)
		if err != nil {
			return err
		}
		r.UserID = existing.UserID
		r.CreatedAt = existing.CreatedAt
		r.UpdatedAt = time.Now().UTC()
		return tx.UpdateRecipe(ctx, r)
	})
}

// Delete removes a recipe. Past consumption events and usage records keep
// their denormalized recipe name.
func (s *Service) Delete(ctx context.Context, id coffee.RecipeID) error {
	return s.stores.DeleteRecipe(ctx, id)
}

// ListUsages returns the bean-usage audit trail for a user, newest first.
func (s *Service) ListUsages(ctx context.Context, userID string) ([]coffee.BeanUsage, error) {
	return s.stores.ListUsages(ctx, userID)
}

func validate(r coffee.Recipe) error {
	if r.Name == "" {
		return &coffee.ValidationError{Field: "name", Message: "required"}
	}
	if !r.Category.Valid() {
		return &coffee.ValidationError{Field: "category", Message: "unknown category"}
	}
	if !r.Difficulty.Valid() {
		return &coffee.ValidationError{Field: "difficulty", Message: "unknown difficulty"}
	}
	if !r.TotalBeanAmount.IsPositive() {
		return &coffee.ValidationError{Field: "total_bean_amount", Message: "must be positive"}
	}
	if r.Servings < 1 {
		return &coffee.ValidationError{Field: "servings", Message: "must be at least 1"}
	}
	return nil
}
