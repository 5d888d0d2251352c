/*
handlers.go - HTTP API handlers for the bean ledger

PURPOSE:
  Exposes inventory, ledger, recipes, and stats via REST. Handles HTTP
  request/response and JSON shaping, and delegates to the domain services.

ENDPOINTS:
  Lots:
    GET    /api/lots                  List all lots (newest first)
    POST   /api/lots                  Create lot
    GET    /api/lots/{id}             Get lot
    PUT    /api/lots/{id}             Update lot details
    DELETE /api/lots/{id}             Delete lot

  Consumption:
    GET    /api/consumptions          List events (?limit=N)
    POST   /api/consumptions          Log consumption (event + stock decrement)
    DELETE /api/consumptions/{id}     Delete event (stock restored)

  Recipes:
    GET    /api/recipes               List (?category=, ?favorites=, ?user_id=)
    POST   /api/recipes               Create recipe
    GET    /api/recipes/{id}          Get recipe
    PUT    /api/recipes/{id}          Update recipe
    DELETE /api/recipes/{id}          Delete recipe
    POST   /api/recipes/{id}/execute  Run the batch executor against a lot

  Usages:
    GET    /api/usages                Bean-usage audit trail (?user_id=)

  Stats:
    GET    /api/stats/summary         Dashboard aggregates
    GET    /api/stats/calendar        Per-day event buckets

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Entity not found
  - 500: Internal errors

SECURITY NOTE:
  User identity arrives in request bodies from the authentication
  collaborator; the API itself performs no authentication.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roastery/beanledger/brewer"
	"github.com/roastery/beanledger/coffee"
	"github.com/roastery/beanledger/inventory"
	"github.com/roastery/beanledger/ledger"
	"github.com/roastery/beanledger/stats"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Inventory *inventory.Service
	Ledger    *ledger.Ledger
	Brewer    *brewer.Service
}

// NewHandler wires the services over a single transactional store.
func NewHandler(stores coffee.TxStores) *Handler {
	return &Handler{
		Inventory: inventory.NewService(stores),
		Ledger:    ledger.New(stores),
		Brewer:    brewer.NewService(stores),
	}
}

// =============================================================================
// LOT HANDLERS
// =============================================================================

// ListLots returns all lots, newest first.
// GET /api/lots
func (h *Handler) ListLots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.Inventory.List(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list lots", err)
		return
	}

	dtos := make([]LotDTO, len(lots))
	for i, lot := range lots {
		dtos[i] = toLotDTO(lot)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLot registers a new lot with full stock.
// POST /api/lots
func (h *Handler) CreateLot(w http.ResponseWriter, r *http.Request) {
	var req CreateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	lot := coffee.Lot{
		Name:    req.Name,
		Brand:   req.Brand,
		Type:    coffee.LotType(req.Type),
		Weight:  coffee.NewGrams(req.Weight),
		Price:   req.Price,
		Details: req.Details,
		UserID:  req.UserID,
	}
	if req.PurchaseDate != "" {
		t, err := parseDate(req.PurchaseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid purchase_date", err)
			return
		}
		lot.PurchaseDate = t
	}
	if req.ExpiryDate != "" {
		t, err := parseDate(req.ExpiryDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid expiry_date", err)
			return
		}
		lot.ExpiryDate = &t
	}

	id, err := h.Inventory.Create(r.Context(), lot)
	if err != nil {
		writeDomainError(w, "Failed to create lot", err)
		return
	}

	created, err := h.Inventory.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load created lot", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLotDTO(*created))
}

// GetLot returns a single lot.
// GET /api/lots/{id}
func (h *Handler) GetLot(w http.ResponseWriter, r *http.Request) {
	id := coffee.LotID(chi.URLParam(r, "id"))

	lot, err := h.Inventory.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get lot", err)
		return
	}
	writeJSON(w, http.StatusOK, toLotDTO(*lot))
}

// UpdateLot edits a lot's descriptive fields.
// PUT /api/lots/{id}
func (h *Handler) UpdateLot(w http.ResponseWriter, r *http.Request) {
	id := coffee.LotID(chi.URLParam(r, "id"))

	var req CreateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	lot := coffee.Lot{
		ID:      id,
		Name:    req.Name,
		Brand:   req.Brand,
		Type:    coffee.LotType(req.Type),
		Weight:  coffee.NewGrams(req.Weight),
		Price:   req.Price,
		Details: req.Details,
	}
	if req.PurchaseDate != "" {
		t, err := parseDate(req.PurchaseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid purchase_date", err)
			return
		}
		lot.PurchaseDate = t
	}
	if req.ExpiryDate != "" {
		t, err := parseDate(req.ExpiryDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid expiry_date", err)
			return
		}
		lot.ExpiryDate = &t
	}

	if err := h.Inventory.Update(r.Context(), lot); err != nil {
		writeDomainError(w, "Failed to update lot", err)
		return
	}

	updated, err := h.Inventory.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load updated lot", err)
		return
	}
	writeJSON(w, http.StatusOK, toLotDTO(*updated))
}

// DeleteLot removes a lot.
// DELETE /api/lots/{id}
func (h *Handler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	id := coffee.LotID(chi.URLParam(r, "id"))

	if err := h.Inventory.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete lot", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CONSUMPTION HANDLERS
// =============================================================================

// ListConsumptions returns events newest first, optionally capped.
// GET /api/consumptions?limit=N
func (h *Handler) ListConsumptions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	events, err := h.Ledger.List(r.Context(), limit)
	if err != nil {
		writeDomainError(w, "Failed to list consumptions", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// LogConsumption records a consumption and decrements the lot in one unit.
// POST /api/consumptions
func (h *Handler) LogConsumption(w http.ResponseWriter, r *http.Request) {
	var req LogConsumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := ledger.LogInput{
		Identity: coffee.Identity{UserID: req.UserID, UserName: req.UserName},
		LotID:    coffee.LotID(req.LotID),
		RecipeID: coffee.RecipeID(req.RecipeID),
		Amount:   coffee.NewGrams(req.Amount),
		Notes:    req.Notes,
	}
	if req.ConsumedAt != "" {
		t, err := parseDate(req.ConsumedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid consumed_at", err)
			return
		}
		in.ConsumedAt = t
	}

	id, err := h.Ledger.Log(r.Context(), in)
	if err != nil {
		writeDomainError(w, "Failed to log consumption", err)
		return
	}

	ev, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load logged consumption", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(*ev))
}

// DeleteConsumption removes an event and restores its amount to the lot.
// DELETE /api/consumptions/{id}
func (h *Handler) DeleteConsumption(w http.ResponseWriter, r *http.Request) {
	id := coffee.EventID(chi.URLParam(r, "id"))

	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete consumption", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECIPE HANDLERS
// =============================================================================

// ListRecipes returns recipes newest first, with optional filters.
// GET /api/recipes?category=&favorites=&user_id=&limit=
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		recipes []coffee.Recipe
		err     error
	)
	switch {
	case q.Get("favorites") == "true":
		recipes, err = h.Brewer.ListFavorites(ctx, q.Get("user_id"))
	case q.Get("category") != "":
		recipes, err = h.Brewer.ListByCategory(ctx, q.Get("user_id"), coffee.RecipeCategory(q.Get("category")))
	default:
		limit := 0
		if s := q.Get("limit"); s != "" {
			n, convErr := strconv.Atoi(s)
			if convErr != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "Invalid limit", convErr)
				return
			}
			limit = n
		}
		recipes, err = h.Brewer.List(ctx, limit)
	}
	if err != nil {
		writeDomainError(w, "Failed to list recipes", err)
		return
	}

	dtos := make([]RecipeDTO, len(recipes))
	for i, rec := range recipes {
		dtos[i] = toRecipeDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRecipe persists a recipe.
// POST /api/recipes
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Brewer.Create(r.Context(), fromRecipeRequest(req))
	if err != nil {
		writeDomainError(w, "Failed to create recipe", err)
		return
	}

	created, err := h.Brewer.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load created recipe", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecipeDTO(*created))
}

// GetRecipe returns a single recipe.
// GET /api/recipes/{id}
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id := coffee.RecipeID(chi.URLParam(r, "id"))

	recipe, err := h.Brewer.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipeDTO(*recipe))
}

// UpdateRecipe replaces a recipe's editable fields.
// PUT /api/recipes/{id}
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id := coffee.RecipeID(chi.URLParam(r, "id"))

	var req CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	recipe := fromRecipeRequest(req)
	recipe.ID = id
	if err := h.Brewer.Update(r.Context(), recipe); err != nil {
		writeDomainError(w, "Failed to update recipe", err)
		return
	}

	updated, err := h.Brewer.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load updated recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipeDTO(*updated))
}

// DeleteRecipe removes a recipe.
// DELETE /api/recipes/{id}
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id := coffee.RecipeID(chi.URLParam(r, "id"))

	if err := h.Brewer.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete recipe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExecuteRecipe runs the batch executor: lot decrement + usage + event,
// atomically.
// POST /api/recipes/{id}/execute
func (h *Handler) ExecuteRecipe(w http.ResponseWriter, r *http.Request) {
	id := coffee.RecipeID(chi.URLParam(r, "id"))

	var req ExecuteRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	recipe, err := h.Brewer.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get recipe", err)
		return
	}

	who := coffee.Identity{UserID: req.UserID, UserName: req.UserName}
	if err := h.Brewer.Execute(r.Context(), *recipe, coffee.LotID(req.LotID), who); err != nil {
		writeDomainError(w, "Failed to execute recipe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsages returns the bean-usage audit trail for a user.
// GET /api/usages?user_id=
func (h *Handler) ListUsages(w http.ResponseWriter, r *http.Request) {
	usages, err := h.Brewer.ListUsages(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeDomainError(w, "Failed to list usages", err)
		return
	}

	dtos := make([]UsageDTO, len(usages))
	for i, u := range usages {
		dtos[i] = toUsageDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// STATS HANDLERS
// =============================================================================

// GetSummary returns the dashboard aggregates, derived fresh per request.
// GET /api/stats/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.Ledger.List(ctx, 0)
	if err != nil {
		writeDomainError(w, "Failed to load consumptions", err)
		return
	}
	lots, err := h.Inventory.List(ctx)
	if err != nil {
		writeDomainError(w, "Failed to load lots", err)
		return
	}

	now := time.Now()
	writeJSON(w, http.StatusOK, toSummaryDTO(stats.Summarize(events, lots, now), now))
}

// GetCalendar returns per-day buckets of consumption, newest day first.
// GET /api/stats/calendar
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	events, err := h.Ledger.List(r.Context(), 0)
	if err != nil {
		writeDomainError(w, "Failed to load consumptions", err)
		return
	}

	groups := stats.GroupByDay(events)
	days := make([]CalendarDayDTO, 0, len(groups))
	for key, dayEvents := range groups {
		days = append(days, CalendarDayDTO{
			Date:       string(key),
			TotalGrams: stats.Total(dayEvents).Float64(),
			Events:     toEventDTOs(dayEvents),
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })

	writeJSON(w, http.StatusOK, days)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case coffee.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case coffee.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// parseDate accepts RFC3339 or a bare calendar date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
