/*
handlers.go - HTTP API handlers for the farm inventory ledger

PURPOSE:
  Exposes the inventory ledger via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the ledger.

ENDPOINTS:
  Inventory:
    GET    /api/inventory               Totals per category and location
    GET    /api/inventory/{category}    One category
    POST   /api/inventory/add           Add animals
    POST   /api/inventory/buy           Record a purchase
    POST   /api/inventory/birth         Record births
    POST   /api/inventory/sell          Record a sale
    POST   /api/inventory/death         Record losses
    POST   /api/inventory/move          Move between categories/locations

  Stock counts:
    POST   /api/stock-counts            Reconcile a physical count
    GET    /api/stock-counts            Count snapshots (?category=)

  Activities:
    GET    /api/activities              Log (?type= &category= &from= &to= &limit=)
    GET    /api/activities/{id}         One entry
    POST   /api/activities/{id}/undo    Reverse an entry

  Discrepancies:
    GET    /api/discrepancies           All (?unresolved=true for open only)

  Registry:
    GET/POST   /api/categories, /api/properties
    DELETE     /api/categories/{name}, /api/properties/{name}

  Reports:
    GET    /api/dashboard               Totals and recent activity (?recent=)
    GET    /api/reports/financial       Revenue and cost (?from= &to=)

  Scenarios:
    GET    /api/scenarios               List demo farms
    POST   /api/scenarios/load          Replace data with a demo farm

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the ledger (it validates)
  3. Serialize response
  4. Map errors to a status in respondError

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed JSON
  - 404: Unknown activity, category, property or scenario
  - 409: Insufficient stock, not reversible, still in use
  - 500: Storage failures

SECURITY NOTE:
  No authentication. The ledger is meant for a single farm on a trusted
  network.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - inventory/ledger.go: Domain operations
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/farm-ledger/inventory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *inventory.Ledger
	Logger *slog.Logger
}

// NewHandler creates a handler over ledger. A nil logger discards output.
func NewHandler(ledger *inventory.Ledger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{Ledger: ledger, Logger: logger}
}

// =============================================================================
// INVENTORY ENDPOINTS
// =============================================================================

// GetInventory returns every category with its location buckets.
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InventoryResponse{
		TotalAnimals:   h.Ledger.TotalAnimals(),
		Inventory:      h.Ledger.Inventory(),
		LocationTotals: h.Ledger.LocationTotals(),
	})
}

// GetCategoryInventory returns one category's record.
func (h *Handler) GetCategoryInventory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	rec, ok := h.Ledger.Record(category)
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found", fmt.Errorf("%w: %q", inventory.ErrCategoryNotFound, category))
		return
	}
	writeJSON(w, http.StatusOK, CategoryInventoryDTO{
		Category:  category,
		Total:     rec.Total,
		Locations: rec.Locations,
	})
}

// AddAnimals handles POST /api/inventory/add.
func (h *Handler) AddAnimals(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Ledger.Add(r.Context(), inventory.AddInput{
		Category: req.Category,
		Quantity: req.Quantity,
		Location: req.Location,
		Date:     req.Date,
		Notes:    req.Notes,
	})
	h.respondActivity(w, r, a, err)
}

// BuyAnimals handles POST /api/inventory/buy.
func (h *Handler) BuyAnimals(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Ledger.Buy(r.Context(), inventory.BuyInput{
		Category: req.Category,
		Quantity: req.Quantity,
		Price:    req.Price,
		Location: req.Location,
		Supplier: req.Supplier,
		Date:     req.Date,
		Notes:    req.Notes,
	})
	h.respondActivity(w, r, a, err)
}

// RecordBirth handles POST /api/inventory/birth.
func (h *Handler) RecordBirth(w http.ResponseWriter, r *http.Request) {
	var req BirthRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Ledger.Birth(r.Context(), inventory.BirthInput{
		Category: req.Category,
		Quantity: req.Quantity,
		Location: req.Location,
		Date:     req.Date,
		Notes:    req.Notes,
	})
	h.respondActivity(w, r, a, err)
}

// SellAnimals handles POST /api/inventory/sell.
func (h *Handler) SellAnimals(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Ledger.Sell(r.Context(), inventory.SellInput{
		Category: req.Category,
		Quantity: req.Quantity,
		Location: req.Location,
		Price:    req.Price,
		Buyer:    req.Buyer,
		Date:     req.Date,
		Notes:    req.Notes,
	})
	h.respondActivity(w, r, a, err)
}

// RecordDeath handles POST /api/inventory/death.
func (h *Handler) RecordDeath(w http.ResponseWriter, r *http.Request) {
	var req DeathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Ledger.Death(r.Context(), inventory.DeathInput{
		Category: req.Category,
		Quantity: req.Quantity,
		Location: req.Location,
		Reason:   req.Reason,
		Date:     req.Date,
		Notes:    req.Notes,
	})
	h.respondActivity(w, r, a, err)
}

// MoveAnimals handles POST /api/inventory/move.
func (h *Handler) MoveAnimals(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Ledger.Move(r.Context(), inventory.MoveInput{
		FromCategory: req.FromCategory,
		ToCategory:   req.ToCategory,
		Quantity:     req.Quantity,
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		Date:         req.Date,
		Notes:        req.Notes,
	})
	h.respondActivity(w, r, a, err)
}

// =============================================================================
// STOCK COUNT ENDPOINTS
// =============================================================================

// RecordStockCount handles POST /api/stock-counts.
func (h *Handler) RecordStockCount(w http.ResponseWriter, r *http.Request) {
	var req StockCountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.Ledger.StockCount(r.Context(), inventory.StockCountInput{
		Category:    req.Category,
		Location:    req.Location,
		ActualCount: req.ActualCount,
		CounterName: req.CounterName,
		Notes:       req.Notes,
		Date:        req.Date,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, StockCountResponse{
		Activity:    res.Activity,
		Snapshot:    res.Snapshot,
		Event:       res.Event,
		Discrepancy: res.Discrepancy,
		Resolution:  res.Resolution,
	})
}

// ListStockCounts returns count snapshots, oldest first.
func (h *Handler) ListStockCounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.StockCounts(r.URL.Query().Get("category")))
}

// =============================================================================
// ACTIVITY ENDPOINTS
// =============================================================================

// ListActivities returns the activity log, newest first.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := inventory.ActivityFilter{
		Type:     inventory.ActivityType(q.Get("type")),
		Category: q.Get("category"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid activity type", fmt.Errorf("unknown type %q", filter.Type))
		return
	}
	limit, ok := intParam(w, r, "limit")
	if !ok {
		return
	}
	filter.Limit = limit
	writeJSON(w, http.StatusOK, h.Ledger.Activities(filter))
}

// GetActivity returns one activity by ID.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	a, err := h.Ledger.Activity(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UndoActivity reverses an activity. The body is optional.
func (h *Handler) UndoActivity(w http.ResponseWriter, r *http.Request) {
	var req UndoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	reversal, err := h.Ledger.Undo(r.Context(), inventory.UndoInput{
		ActivityID: chi.URLParam(r, "id"),
		Reason:     req.Reason,
		Date:       req.Date,
	})
	h.respondActivity(w, r, reversal, err)
}

// ListDiscrepancies returns discrepancies in the order they were opened.
func (h *Handler) ListDiscrepancies(w http.ResponseWriter, r *http.Request) {
	unresolved := false
	if v := r.URL.Query().Get("unresolved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid unresolved parameter", err)
			return
		}
		unresolved = b
	}
	writeJSON(w, http.StatusOK, h.Ledger.Discrepancies(unresolved))
}

// =============================================================================
// REGISTRY ENDPOINTS
// =============================================================================

// ListCategories returns the registered category names.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Categories())
}

// CreateCategory registers a category name.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Ledger.AddCategory(r.Context(), req.Name); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Ledger.Categories())
}

// DeleteCategory removes a category that holds no animals.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.RemoveCategory(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProperties returns the registered property (location) names.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Properties())
}

// CreateProperty registers a property name.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Ledger.AddProperty(r.Context(), req.Name); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Ledger.Properties())
}

// DeleteProperty removes a property that holds no animals.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.RemoveProperty(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// GetDashboard returns headline totals and the most recent activities.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	recent, ok := intParam(w, r, "recent")
	if !ok {
		return
	}
	if recent == 0 {
		recent = 10
	}
	writeJSON(w, http.StatusOK, h.Ledger.Dashboard(recent))
}

// GetFinancialSummary returns revenue, cost and net for a date range.
func (h *Handler) GetFinancialSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.Ledger.FinancialSummary(q.Get("from"), q.Get("to"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// SCENARIO ENDPOINTS
// =============================================================================

// ListScenarios returns the available demo farms.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, inventory.Scenarios())
}

// LoadScenario replaces all data with a demo farm.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := inventory.LoadScenario(r.Context(), h.Ledger, req.ScenarioID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, h.Ledger.Dashboard(10))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) respondActivity(w http.ResponseWriter, r *http.Request, a inventory.Activity, err error) {
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// respondError maps ledger errors to HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case inventory.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case inventory.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case inventory.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		h.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// intParam parses a non-negative integer query parameter. Missing means 0.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name+" parameter", fmt.Errorf("%q is not a non-negative integer", v))
		return 0, false
	}
	return n, true
}

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
