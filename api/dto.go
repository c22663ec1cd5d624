/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON bodies the API accepts and the wrappers it returns.
  Ledger types (Activity, Discrepancy, StockCount, Dashboard, ...) already
  carry JSON tags and are returned as-is.

NAMING CONVENTION:
  - *Request:  Request body types from clients
  - *Response: Response wrappers

TYPES:
  Inventory:
    AddRequest, BuyRequest, BirthRequest, SellRequest, DeathRequest,
    MoveRequest, InventoryResponse, CategoryInventoryDTO

  Stock counts:
    StockCountRequest, StockCountResponse

  Activities:
    UndoRequest

  Registry:
    NameRequest

  Scenarios:
    LoadScenarioRequest

VALIDATION:
  Validation is done by the ledger, not in DTOs. Prices are decoded with
  shopspring/decimal, which accepts both JSON numbers and quoted strings.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: Ledger JSON types
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/farm-ledger/inventory"
)

// =============================================================================
// INVENTORY
// =============================================================================

// AddRequest is the body of POST /api/inventory/add.
type AddRequest struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Notes    string `json:"notes"`
}

// BirthRequest is the body of POST /api/inventory/birth.
type BirthRequest AddRequest

// BuyRequest is the body of POST /api/inventory/buy. Price is per animal.
type BuyRequest struct {
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Location string          `json:"location"`
	Supplier string          `json:"supplier"`
	Date     string          `json:"date"`
	Notes    string          `json:"notes"`
}

// SellRequest is the body of POST /api/inventory/sell. Price is per animal.
type SellRequest struct {
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Location string          `json:"location"`
	Buyer    string          `json:"buyer"`
	Date     string          `json:"date"`
	Notes    string          `json:"notes"`
}

// DeathRequest is the body of POST /api/inventory/death.
type DeathRequest struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
	Reason   string `json:"reason"`
	Date     string `json:"date"`
	Notes    string `json:"notes"`
}

// MoveRequest is the body of POST /api/inventory/move.
type MoveRequest struct {
	FromCategory string `json:"fromCategory"`
	ToCategory   string `json:"toCategory"`
	Quantity     int    `json:"quantity"`
	FromLocation string `json:"fromLocation"`
	ToLocation   string `json:"toLocation"`
	Date         string `json:"date"`
	Notes        string `json:"notes"`
}

// InventoryResponse is returned by GET /api/inventory.
type InventoryResponse struct {
	TotalAnimals   int                         `json:"totalAnimals"`
	Inventory      map[string]inventory.Record `json:"inventory"`
	LocationTotals map[string]int              `json:"locationTotals"`
}

// CategoryInventoryDTO is returned by GET /api/inventory/{category}.
type CategoryInventoryDTO struct {
	Category  string         `json:"category"`
	Total     int            `json:"total"`
	Locations map[string]int `json:"locations"`
}

// =============================================================================
// STOCK COUNTS
// =============================================================================

// StockCountRequest is the body of POST /api/stock-counts.
type StockCountRequest struct {
	Category    string `json:"category"`
	Location    string `json:"location"`
	ActualCount int    `json:"actualCount"`
	CounterName string `json:"counterName"`
	Notes       string `json:"notes"`
	Date        string `json:"date"`
}

// StockCountResponse reports what a stock count did.
type StockCountResponse struct {
	Activity    inventory.Activity         `json:"activity"`
	Snapshot    inventory.StockCount       `json:"snapshot"`
	Event       inventory.DiscrepancyEvent `json:"event"`
	Discrepancy *inventory.Discrepancy     `json:"discrepancy,omitempty"`
	Resolution  *inventory.Activity        `json:"resolution,omitempty"`
}

// =============================================================================
// ACTIVITIES / REGISTRY / SCENARIOS
// =============================================================================

// UndoRequest is the optional body of POST /api/activities/{id}/undo.
type UndoRequest struct {
	Reason string `json:"reason"`
	Date   string `json:"date"`
}

// NameRequest is the body for creating a category or property.
type NameRequest struct {
	Name string `json:"name"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
