/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the wire contract. Gram amounts cross the wire as float64; the domain
  keeps them decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural validation (parse errors, date formats) happens in handlers;
  business validation lives in the services.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/roastery/beanledger/coffee"
	"github.com/roastery/beanledger/stats"
)

// =============================================================================
// LOTS
// =============================================================================

type LotDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Brand         string   `json:"brand,omitempty"`
	Type          string   `json:"type"`
	TypeLabel     string   `json:"type_label"`
	Weight        float64  `json:"weight"`
	CurrentWeight float64  `json:"current_weight"`
	Price         *float64 `json:"price,omitempty"`
	PurchaseDate  string   `json:"purchase_date"`
	ExpiryDate    *string  `json:"expiry_date,omitempty"`
	Details       string   `json:"details,omitempty"`
	UserID        string   `json:"user_id"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

type CreateLotRequest struct {
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Type         string   `json:"type"`
	Weight       float64  `json:"weight"`
	Price        *float64 `json:"price"`
	PurchaseDate string   `json:"purchase_date"`
	ExpiryDate   string   `json:"expiry_date"`
	Details      string   `json:"details"`
	UserID       string   `json:"user_id"`
}

func toLotDTO(lot coffee.Lot) LotDTO {
	dto := LotDTO{
		ID:            string(lot.ID),
		Name:          lot.Name,
		Brand:         lot.Brand,
		Type:          string(lot.Type),
		TypeLabel:     lot.Type.Label(),
		Weight:        lot.Weight.Float64(),
		CurrentWeight: lot.CurrentWeight.Float64(),
		Price:         lot.Price,
		PurchaseDate:  lot.PurchaseDate.Format(time.RFC3339),
		Details:       lot.Details,
		UserID:        lot.UserID,
		CreatedAt:     lot.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     lot.UpdatedAt.Format(time.RFC3339),
	}
	if lot.ExpiryDate != nil {
		s := lot.ExpiryDate.Format(time.RFC3339)
		dto.ExpiryDate = &s
	}
	return dto
}

// =============================================================================
// CONSUMPTION EVENTS
// =============================================================================

type EventDTO struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name"`
	LotID      string  `json:"lot_id"`
	LotName    string  `json:"lot_name"`
	RecipeID   string  `json:"recipe_id,omitempty"`
	RecipeName string  `json:"recipe_name,omitempty"`
	ConsumedAt string  `json:"consumed_at"`
	Amount     float64 `json:"amount"`
	Notes      string  `json:"notes,omitempty"`
}

type LogConsumptionRequest struct {
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name"`
	LotID      string  `json:"lot_id"`
	RecipeID   string  `json:"recipe_id"`
	ConsumedAt string  `json:"consumed_at"`
	Amount     float64 `json:"amount"`
	Notes      string  `json:"notes"`
}

func toEventDTO(ev coffee.ConsumptionEvent) EventDTO {
	return EventDTO{
		ID:         string(ev.ID),
		UserID:     ev.UserID,
		UserName:   ev.UserName,
		LotID:      string(ev.LotID),
		LotName:    ev.LotName,
		RecipeID:   string(ev.RecipeID),
		RecipeName: ev.RecipeName,
		ConsumedAt: ev.ConsumedAt.Format(time.RFC3339),
		Amount:     ev.Amount.Float64(),
		Notes:      ev.Notes,
	}
}

func toEventDTOs(events []coffee.ConsumptionEvent) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = toEventDTO(ev)
	}
	return dtos
}

// =============================================================================
// RECIPES
// =============================================================================

type IngredientDTO struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type RecipeDTO struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category"`
	CategoryLabel   string          `json:"category_label"`
	Ingredients     []IngredientDTO `json:"ingredients"`
	Process         string          `json:"process,omitempty"`
	GrindSize       string          `json:"grind_size,omitempty"`
	TotalBeanAmount float64         `json:"total_bean_amount"`
	Servings        int             `json:"servings"`
	PrepTime        int             `json:"prep_time"`
	Difficulty      string          `json:"difficulty"`
	Favorite        bool            `json:"favorite"`
	UserID          string          `json:"user_id"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type CreateRecipeRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Ingredients     []IngredientDTO `json:"ingredients"`
	Process         string          `json:"process"`
	GrindSize       string          `json:"grind_size"`
	TotalBeanAmount float64         `json:"total_bean_amount"`
	Servings        int             `json:"servings"`
	PrepTime        int             `json:"prep_time"`
	Difficulty      string          `json:"difficulty"`
	Favorite        bool            `json:"favorite"`
	UserID          string          `json:"user_id"`
}

// ExecuteRecipeRequest triggers the batch executor against a lot.
type ExecuteRecipeRequest struct {
	LotID    string `json:"lot_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

func toRecipeDTO(r coffee.Recipe) RecipeDTO {
	ingredients := make([]IngredientDTO, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ingredients[i] = IngredientDTO{Name: ing.Name, Amount: ing.Amount, Unit: string(ing.Unit)}
	}
	return RecipeDTO{
		ID:              string(r.ID),
		Name:            r.Name,
		Description:     r.Description,
		Category:        string(r.Category),
		CategoryLabel:   r.Category.Label(),
		Ingredients:     ingredients,
		Process:         r.Process,
		GrindSize:       r.GrindSize,
		TotalBeanAmount: r.TotalBeanAmount.Float64(),
		Servings:        r.Servings,
		PrepTime:        r.PrepTime,
		Difficulty:      string(r.Difficulty),
		Favorite:        r.Favorite,
		UserID:          r.UserID,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
}

func fromRecipeRequest(req CreateRecipeRequest) coffee.Recipe {
	ingredients := make([]coffee.Ingredient, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		ingredients[i] = coffee.Ingredient{Name: ing.Name, Amount: ing.Amount, Unit: coffee.IngredientUnit(ing.Unit)}
	}
	return coffee.Recipe{
		Name:            req.Name,
		Description:     req.Description,
		Category:        coffee.RecipeCategory(req.Category),
		Ingredients:     ingredients,
		Process:         req.Process,
		GrindSize:       req.GrindSize,
		TotalBeanAmount: coffee.NewGrams(req.TotalBeanAmount),
		Servings:        req.Servings,
		PrepTime:        req.PrepTime,
		Difficulty:      coffee.Difficulty(req.Difficulty),
		Favorite:        req.Favorite,
		UserID:          req.UserID,
	}
}

// =============================================================================
// USAGES
// =============================================================================

type UsageDTO struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	LotID      string  `json:"lot_id"`
	LotName    string  `json:"lot_name"`
	RecipeID   string  `json:"recipe_id"`
	RecipeName string  `json:"recipe_name"`
	Amount     float64 `json:"amount"`
	UsedAt     string  `json:"used_at"`
	Notes      string  `json:"notes,omitempty"`
}

func toUsageDTO(u coffee.BeanUsage) UsageDTO {
	return UsageDTO{
		ID:         string(u.ID),
		UserID:     u.UserID,
		LotID:      string(u.LotID),
		LotName:    u.LotName,
		RecipeID:   string(u.RecipeID),
		RecipeName: u.RecipeName,
		Amount:     u.Amount.Float64(),
		UsedAt:     u.UsedAt.Format(time.RFC3339),
		Notes:      u.Notes,
	}
}

// =============================================================================
// STATS
// =============================================================================

type SummaryDTO struct {
	TodayCount int `json:"today_count"`
	WeekCount  int `json:"week_count"`
	MonthCount int `json:"month_count"`

	TodayGrams float64 `json:"today_grams"`
	WeekGrams  float64 `json:"week_grams"`
	MonthGrams float64 `json:"month_grams"`

	TotalCups     int     `json:"total_cups"`
	TotalBeanUsed float64 `json:"total_bean_used"`

	LotCount       int     `json:"lot_count"`
	RemainingStock float64 `json:"remaining_stock"`

	AsOf string `json:"as_of"`
}

func toSummaryDTO(s stats.Summary, asOf time.Time) SummaryDTO {
	return SummaryDTO{
		TodayCount:     s.TodayCount,
		WeekCount:      s.WeekCount,
		MonthCount:     s.MonthCount,
		TodayGrams:     s.TodayGrams.Float64(),
		WeekGrams:      s.WeekGrams.Float64(),
		MonthGrams:     s.MonthGrams.Float64(),
		TotalCups:      s.TotalCups,
		TotalBeanUsed:  s.TotalBeanUsed.Float64(),
		LotCount:       s.LotCount,
		RemainingStock: s.RemainingStock.Float64(),
		AsOf:           asOf.Format(time.RFC3339),
	}
}

// CalendarDayDTO is one day's bucket of consumption events.
type CalendarDayDTO struct {
	Date       string     `json:"date"`
	TotalGrams float64    `json:"total_grams"`
	Events     []EventDTO `json:"events"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
