/*
Package inventory implements the farm animal inventory ledger.

PURPOSE:
  Tracks how many animals of each category live at each farm location,
  applies the transactions that change those counts (add, buy, birth,
  sell, death, move), reconciles physical stock counts against the books,
  and keeps an activity log of everything that happened.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record:      Per-category counts broken down by location
  - Activity:    One log entry per ledger-affecting action
  - Discrepancy: Mismatch between expected and counted stock
  - StockCount:  Raw audit snapshot of a physical count

INVARIANTS:
  1. Record.Total == sum(Record.Locations) after every operation
  2. No zero-count buckets, no zero-count categories
  3. At most one unresolved discrepancy per category
  4. Activities are newest-first and never edited; undo removes the entry
     by ID and prepends a reversal

MONEY:
  Prices, costs and revenue use decimal.Decimal.

SEE ALSO:
  - ledger.go: Operations
  - discrepancy.go: Discrepancy lifecycle
  - repository.go: Persistence and legacy migration
*/
package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Unspecified is the default location bucket.
const Unspecified = "Unspecified"

// DateLayout is the calendar date format used for user-entered dates.
const DateLayout = "2006-01-02"

// =============================================================================
// INVENTORY RECORD
// =============================================================================

// Record holds the count for one category.
type Record struct {
	Total     int            `json:"total"`
	Locations map[string]int `json:"locations"`
}

// Available returns the count at location, or the total when location is empty.
func (r Record) Available(location string) int {
	if location == "" {
		return r.Total
	}
	return r.Locations[location]
}

// LocationNames returns bucket names in sorted order.
func (r Record) LocationNames() []string {
	names := make([]string, 0, len(r.Locations))
	for name := range r.Locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r Record) clone() Record {
	locs := make(map[string]int, len(r.Locations))
	for k, v := range r.Locations {
		locs[k] = v
	}
	return Record{Total: r.Total, Locations: locs}
}

func (r *Record) recount() {
	total := 0
	for name, n := range r.Locations {
		if n <= 0 {
			delete(r.Locations, name)
			continue
		}
		total += n
	}
	r.Total = total
}

// =============================================================================
// ACTIVITY
// =============================================================================

// ActivityType names what an activity recorded.
type ActivityType string

const (
	ActivityAdd        ActivityType = "add"
	ActivityBuy        ActivityType = "buy"
	ActivitySell       ActivityType = "sell"
	ActivityMove       ActivityType = "move"
	ActivityDeath      ActivityType = "death"
	ActivityBirth      ActivityType = "birth"
	ActivityStockCount ActivityType = "stock-count"
	ActivityResolution ActivityType = "resolution"
	ActivityReversal   ActivityType = "reversal"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityAdd, ActivityBuy, ActivitySell, ActivityMove, ActivityDeath,
		ActivityBirth, ActivityStockCount, ActivityResolution, ActivityReversal:
		return true
	}
	return false
}

// Reversible reports whether Undo accepts activities of this type.
func (t ActivityType) Reversible() bool {
	switch t {
	case ActivityResolution, ActivityReversal:
		return false
	}
	return t.Valid()
}

// Activity is one entry in the activity log.
//
// Allocations records the exact buckets a decrement drew from. It makes
// undo exact when the caller did not name a location.
type Activity struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Category  string       `json:"category"`
	Quantity  int          `json:"quantity"`
	Location  string       `json:"location,omitempty"`
	Date      string       `json:"date"`
	Timestamp time.Time    `json:"timestamp"`
	Notes     string       `json:"notes,omitempty"`

	// buy / sell
	Price    *decimal.Decimal `json:"price,omitempty"`
	Cost     *decimal.Decimal `json:"cost,omitempty"`
	Revenue  *decimal.Decimal `json:"revenue,omitempty"`
	Supplier string           `json:"supplier,omitempty"`
	Buyer    string           `json:"buyer,omitempty"`

	// move
	FromCategory string `json:"fromCategory,omitempty"`
	ToCategory   string `json:"toCategory,omitempty"`
	FromLocation string `json:"fromLocation,omitempty"`
	ToLocation   string `json:"toLocation,omitempty"`

	// death, reversal
	Reason string `json:"reason,omitempty"`

	// reversal
	OriginalType ActivityType `json:"originalType,omitempty"`
	OriginalID   string       `json:"originalId,omitempty"`

	// stock-count, resolution
	Expected    *int   `json:"expected,omitempty"`
	Actual      *int   `json:"actual,omitempty"`
	Difference  *int   `json:"difference,omitempty"`
	CounterName string `json:"counterName,omitempty"`

	Allocations map[string]int `json:"allocations,omitempty"`
}

func (a Activity) clone() Activity {
	c := a
	if a.Allocations != nil {
		c.Allocations = make(map[string]int, len(a.Allocations))
		for k, v := range a.Allocations {
			c.Allocations[k] = v
		}
	}
	c.Price = copyDecimal(a.Price)
	c.Cost = copyDecimal(a.Cost)
	c.Revenue = copyDecimal(a.Revenue)
	c.Expected = copyInt(a.Expected)
	c.Actual = copyInt(a.Actual)
	c.Difference = copyInt(a.Difference)
	return c
}

// =============================================================================
// DISCREPANCY
// =============================================================================

// Discrepancy records a mismatch found by a stock count.
type Discrepancy struct {
	ID             string           `json:"id"`
	Category       string           `json:"category"`
	Location       string           `json:"location,omitempty"`
	Expected       int              `json:"expected"`
	Actual         int              `json:"actual"`
	Difference     int              `json:"difference"`
	State          DiscrepancyState `json:"state"`
	Resolved       bool             `json:"resolved"`
	ResolvedDate   string           `json:"resolvedDate,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
	CountID        string           `json:"countId,omitempty"`
	CountTimestamp time.Time        `json:"countTimestamp"`
}

// =============================================================================
// STOCK COUNT SNAPSHOT
// =============================================================================

// StockCount is the raw audit record of one physical count.
type StockCount struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Location    string    `json:"location,omitempty"`
	Expected    int       `json:"expected"`
	Actual      int       `json:"actual"`
	Difference  int       `json:"difference"`
	CounterName string    `json:"counterName,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func copyInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

func intPtr(n int) *int { return &n }

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
