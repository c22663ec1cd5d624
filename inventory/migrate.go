/*
migrate.go - One-time migration from the per-collection key layout

PURPOSE:
  The mobile pages stored each collection under its own key, and older
  builds stored an inventory entry as a bare integer instead of
  {total, locations}. This file reads that layout once, upgrades every
  entry to the current shape, and hands back a State. From then on the
  ledger never branches on entry shape.

UPGRADES:
  - inventory entry n (integer)      → {total: n, locations: {Unspecified: n}}
  - {total, locations} with bad total → total recomputed from locations
  - {total: n, locations: {}}        → {total: n, locations: {Unspecified: n}}
  - zero entries                     → dropped
  - activities without id            → new UUID
  - move with blank toLocation       → Unspecified
  - discrepancy "resolved" boolean   → DiscrepancyState
  - numbers stored as strings        → parsed; garbage becomes zero

  A key whose JSON does not parse is logged and treated as empty.
*/
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/farm-ledger/kv"
)

// =============================================================================
// LOOSE SCALARS
// =============================================================================

// looseInt decodes a JSON number, numeric string, empty string or null.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = looseInt(math.Round(f))
	return nil
}

// looseDecimal decodes like looseInt but keeps decimal precision. Valid is
// false when the value was absent or unparseable.
type looseDecimal struct {
	Value decimal.Decimal
	Valid bool
}

func (d *looseDecimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*d = looseDecimal{}
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		*d = looseDecimal{}
		return nil
	}
	*d = looseDecimal{Value: v, Valid: true}
	return nil
}

func (d looseDecimal) ptr() *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return decimalPtr(d.Value)
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// =============================================================================
// LEGACY SHAPES
// =============================================================================

type legacyRecord struct {
	Total     looseInt            `json:"total"`
	Locations map[string]looseInt `json:"locations"`
}

type legacyActivity struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	Category     string       `json:"category"`
	Quantity     looseInt     `json:"quantity"`
	Location     string       `json:"location"`
	Date         string       `json:"date"`
	Timestamp    string       `json:"timestamp"`
	Notes        string       `json:"notes"`
	Price        looseDecimal `json:"price"`
	Cost         looseDecimal `json:"cost"`
	Revenue      looseDecimal `json:"revenue"`
	Supplier     string       `json:"supplier"`
	Buyer        string       `json:"buyer"`
	FromCategory string       `json:"fromCategory"`
	ToCategory   string       `json:"toCategory"`
	FromLocation string       `json:"fromLocation"`
	ToLocation   string       `json:"toLocation"`
	Reason       string       `json:"reason"`
	OriginalType string       `json:"originalType"`
	Expected     *looseInt    `json:"expected"`
	Actual       *looseInt    `json:"actual"`
	Difference   *looseInt    `json:"difference"`
	CounterName  string       `json:"counterName"`
}

type legacyDiscrepancy struct {
	ID             string   `json:"id"`
	Category       string   `json:"category"`
	Location       string   `json:"location"`
	Expected       looseInt `json:"expected"`
	Actual         looseInt `json:"actual"`
	Difference     looseInt `json:"difference"`
	Resolved       bool     `json:"resolved"`
	ResolvedDate   string   `json:"resolvedDate"`
	Timestamp      string   `json:"timestamp"`
	CountTimestamp string   `json:"countTimestamp"`
}

type legacyStockCount struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	Location      string    `json:"location"`
	Expected      *looseInt `json:"expected"`
	ExpectedCount *looseInt `json:"expectedCount"`
	Actual        *looseInt `json:"actual"`
	ActualCount   *looseInt `json:"actualCount"`
	CounterName   string    `json:"counterName"`
	Notes         string    `json:"notes"`
	Date          string    `json:"date"`
	Timestamp     string    `json:"timestamp"`
}

// =============================================================================
// LOAD
// =============================================================================

// loadLegacy reads the per-collection keys. found is false when none exist.
func (r *Repository) loadLegacy(ctx context.Context) (*State, bool, error) {
	raw := make(map[string]string, len(kv.LegacyKeys))
	for _, key := range kv.LegacyKeys {
		v, ok, err := r.store.GetItem(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("%w: read %s: %v", ErrStorage, key, err)
		}
		if ok {
			raw[key] = v
		}
	}

	s := NewState()
	if len(raw) == 0 {
		return s, false, nil
	}

	decode := func(key string, dst any) bool {
		v, ok := raw[key]
		if !ok || strings.TrimSpace(v) == "" || v == "null" {
			return false
		}
		if err := json.Unmarshal([]byte(v), dst); err != nil {
			r.logger.Error("malformed stored collection, treating as empty", "key", key, "error", err)
			return false
		}
		return true
	}

	var inventory map[string]json.RawMessage
	if decode(kv.KeyInventory, &inventory) {
		for name, entry := range inventory {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if rec, ok := upgradeRecord(entry); ok {
				s.Inventory[name] = rec
			}
		}
	}

	var activities []legacyActivity
	if decode(kv.KeyActivities, &activities) {
		for _, la := range activities {
			if a, ok := upgradeActivity(la); ok {
				s.Activities = append(s.Activities, a)
			}
		}
	}

	var discrepancies []legacyDiscrepancy
	if decode(kv.KeyDiscrepancies, &discrepancies) {
		for _, ld := range discrepancies {
			s.Discrepancies = append(s.Discrepancies, upgradeDiscrepancy(ld))
		}
	}
	dedupeUnresolved(s)

	var counts []legacyStockCount
	if decode(kv.KeyStockCounts, &counts) {
		for _, lc := range counts {
			s.StockCounts = append(s.StockCounts, upgradeStockCount(lc))
		}
	}

	var categories, properties []string
	if decode(kv.KeyCategories, &categories) {
		for _, c := range categories {
			if c = strings.TrimSpace(c); c != "" {
				s.registerCategory(c)
			}
		}
	}
	if decode(kv.KeyProperties, &properties) {
		for _, p := range properties {
			s.registerProperty(strings.TrimSpace(p))
		}
	}
	for name, rec := range s.Inventory {
		s.registerCategory(name)
		for loc := range rec.Locations {
			s.registerProperty(loc)
		}
	}

	return s, true, nil
}

// upgradeRecord converts either stored shape to Record.
func upgradeRecord(raw json.RawMessage) (Record, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		var n looseInt
		_ = json.Unmarshal(raw, &n)
		if n <= 0 {
			return Record{}, false
		}
		return Record{Total: int(n), Locations: map[string]int{Unspecified: int(n)}}, true
	}

	var lr legacyRecord
	if err := json.Unmarshal(raw, &lr); err != nil {
		return Record{}, false
	}
	rec := Record{Locations: make(map[string]int, len(lr.Locations))}
	for loc, n := range lr.Locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			loc = Unspecified
		}
		rec.Locations[loc] += int(n)
	}
	if len(rec.Locations) == 0 && lr.Total > 0 {
		rec.Locations[Unspecified] = int(lr.Total)
	}
	rec.recount()
	return rec, rec.Total > 0
}

func upgradeActivity(la legacyActivity) (Activity, bool) {
	typ := ActivityType(strings.TrimSpace(la.Type))
	if !typ.Valid() {
		return Activity{}, false
	}
	a := Activity{
		ID:           la.ID,
		Type:         typ,
		Category:     strings.TrimSpace(la.Category),
		Quantity:     int(la.Quantity),
		Location:     strings.TrimSpace(la.Location),
		Date:         strings.TrimSpace(la.Date),
		Timestamp:    parseTimestamp(la.Timestamp),
		Notes:        la.Notes,
		Price:        la.Price.ptr(),
		Cost:         la.Cost.ptr(),
		Revenue:      la.Revenue.ptr(),
		Supplier:     la.Supplier,
		Buyer:        la.Buyer,
		FromCategory: strings.TrimSpace(la.FromCategory),
		ToCategory:   strings.TrimSpace(la.ToCategory),
		FromLocation: strings.TrimSpace(la.FromLocation),
		ToLocation:   strings.TrimSpace(la.ToLocation),
		Reason:       la.Reason,
		OriginalType: ActivityType(la.OriginalType),
		CounterName:  la.CounterName,
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Date == "" && !a.Timestamp.IsZero() {
		a.Date = a.Timestamp.Format(DateLayout)
	}
	if a.Type == ActivityMove {
		if a.Category == "" {
			a.Category = a.FromCategory
		}
		if a.ToCategory == "" {
			a.ToCategory = a.FromCategory
		}
		a.ToLocation = normalizeLocation(a.ToLocation)
	}
	if la.Expected != nil {
		a.Expected = intPtr(int(*la.Expected))
	}
	if la.Actual != nil {
		a.Actual = intPtr(int(*la.Actual))
	}
	if la.Difference != nil {
		a.Difference = intPtr(int(*la.Difference))
	} else if a.Expected != nil && a.Actual != nil {
		a.Difference = intPtr(*a.Actual - *a.Expected)
	}
	return a, true
}

func upgradeDiscrepancy(ld legacyDiscrepancy) Discrepancy {
	d := Discrepancy{
		ID:             ld.ID,
		Category:       strings.TrimSpace(ld.Category),
		Location:       strings.TrimSpace(ld.Location),
		Expected:       int(ld.Expected),
		Actual:         int(ld.Actual),
		Difference:     int(ld.Actual) - int(ld.Expected),
		State:          DiscrepancyUnresolved,
		Resolved:       ld.Resolved,
		ResolvedDate:   ld.ResolvedDate,
		Timestamp:      parseTimestamp(ld.Timestamp),
		CountTimestamp: parseTimestamp(ld.CountTimestamp),
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Resolved {
		d.State = DiscrepancyResolved
	}
	return d
}

// dedupeUnresolved keeps only the newest unresolved discrepancy per
// category; older ones are marked resolved.
func dedupeUnresolved(s *State) {
	newest := make(map[string]int)
	for i, d := range s.Discrepancies {
		if d.State != DiscrepancyUnresolved {
			continue
		}
		j, seen := newest[d.Category]
		if !seen || d.Timestamp.After(s.Discrepancies[j].Timestamp) {
			newest[d.Category] = i
		}
	}
	for i := range s.Discrepancies {
		d := &s.Discrepancies[i]
		if d.State == DiscrepancyUnresolved && newest[d.Category] != i {
			d.State = DiscrepancyResolved
			d.Resolved = true
		}
	}
}

func upgradeStockCount(lc legacyStockCount) StockCount {
	pick := func(a, b *looseInt) int {
		if a != nil {
			return int(*a)
		}
		if b != nil {
			return int(*b)
		}
		return 0
	}
	c := StockCount{
		ID:          lc.ID,
		Category:    strings.TrimSpace(lc.Category),
		Location:    strings.TrimSpace(lc.Location),
		Expected:    pick(lc.Expected, lc.ExpectedCount),
		Actual:      pick(lc.Actual, lc.ActualCount),
		CounterName: lc.CounterName,
		Notes:       lc.Notes,
		Date:        lc.Date,
		Timestamp:   parseTimestamp(lc.Timestamp),
	}
	c.Difference = c.Actual - c.Expected
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return c
}

// =============================================================================
// MIRROR
// =============================================================================

// encodeLegacy renders state in the per-collection layout.
func encodeLegacy(s *State) ([]kv.Item, error) {
	values := []struct {
		key string
		v   any
	}{
		{kv.KeyInventory, s.Inventory},
		{kv.KeyActivities, s.Activities},
		{kv.KeyDiscrepancies, s.Discrepancies},
		{kv.KeyStockCounts, s.StockCounts},
		{kv.KeyCategories, s.Categories},
		{kv.KeyProperties, s.Properties},
	}
	items := make([]kv.Item, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v.v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", v.key, err)
		}
		items = append(items, kv.Item{Key: v.key, Value: string(b)})
	}
	return items, nil
}
