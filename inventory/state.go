package inventory

import (
	"sort"
)

// DocumentVersion is the version written into the persisted document.
const DocumentVersion = 1

// State is the full ledger state. It is also the persisted document shape.
type State struct {
	Version       int               `json:"version"`
	Inventory     map[string]Record `json:"inventory"`
	Activities    []Activity        `json:"activities"`
	Discrepancies []Discrepancy     `json:"discrepancies"`
	StockCounts   []StockCount      `json:"stockCounts"`
	Categories    []string          `json:"categories"`
	Properties    []string          `json:"properties"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Version:       DocumentVersion,
		Inventory:     make(map[string]Record),
		Activities:    []Activity{},
		Discrepancies: []Discrepancy{},
		StockCounts:   []StockCount{},
		Categories:    []string{},
		Properties:    []string{},
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{
		Version:       s.Version,
		Inventory:     make(map[string]Record, len(s.Inventory)),
		Activities:    make([]Activity, len(s.Activities)),
		Discrepancies: append([]Discrepancy{}, s.Discrepancies...),
		StockCounts:   append([]StockCount{}, s.StockCounts...),
		Categories:    append([]string{}, s.Categories...),
		Properties:    append([]string{}, s.Properties...),
	}
	for k, r := range s.Inventory {
		c.Inventory[k] = r.clone()
	}
	for i, a := range s.Activities {
		c.Activities[i] = a.clone()
	}
	return c
}

// normalize fills nil collections so the document always encodes as
// objects and arrays, never null.
func (s *State) normalize() {
	if s.Version == 0 {
		s.Version = DocumentVersion
	}
	if s.Inventory == nil {
		s.Inventory = make(map[string]Record)
	}
	if s.Activities == nil {
		s.Activities = []Activity{}
	}
	if s.Discrepancies == nil {
		s.Discrepancies = []Discrepancy{}
	}
	if s.StockCounts == nil {
		s.StockCounts = []StockCount{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	if s.Properties == nil {
		s.Properties = []string{}
	}
}

// =============================================================================
// INVENTORY MUTATION
// =============================================================================

// credit adds quantity to category at location, creating what is missing.
// A blank location credits Unspecified.
func (s *State) credit(category, location string, quantity int) {
	if location == "" {
		location = Unspecified
	}
	rec, ok := s.Inventory[category]
	if !ok || rec.Locations == nil {
		rec = Record{Locations: make(map[string]int)}
	}
	rec.Locations[location] += quantity
	rec.recount()
	s.store(category, rec)
	s.registerCategory(category)
	s.registerProperty(location)
}

// creditAllocations re-credits a recorded bucket breakdown.
func (s *State) creditAllocations(category string, allocations map[string]int) {
	for _, loc := range sortedKeys(allocations) {
		s.credit(category, loc, allocations[loc])
	}
}

// debit removes quantity from category. With a location it draws from that
// bucket only; without one it draws from Unspecified first and then the
// other buckets in name order. It returns the buckets drawn from, or an
// InsufficientStockError without touching state.
func (s *State) debit(category, location string, quantity int) (map[string]int, error) {
	rec := s.Inventory[category]
	available := rec.Available(location)
	if quantity > available {
		return nil, &InsufficientStockError{
			Category:  category,
			Location:  location,
			Available: available,
			Requested: quantity,
		}
	}

	rec = rec.clone()
	drawn := make(map[string]int)
	if location != "" {
		rec.Locations[location] -= quantity
		drawn[location] = quantity
	} else {
		remaining := quantity
		for _, loc := range drawOrder(rec) {
			if remaining == 0 {
				break
			}
			take := min(rec.Locations[loc], remaining)
			rec.Locations[loc] -= take
			drawn[loc] = take
			remaining -= take
		}
	}
	rec.recount()
	s.store(category, rec)
	return drawn, nil
}

// debitFloored removes up to quantity from one bucket and never fails.
func (s *State) debitFloored(category, location string, quantity int) int {
	if location == "" {
		location = Unspecified
	}
	rec, ok := s.Inventory[category]
	if !ok {
		return 0
	}
	rec = rec.clone()
	take := min(rec.Locations[location], quantity)
	rec.Locations[location] -= take
	rec.recount()
	s.store(category, rec)
	return take
}

// store writes rec, deleting the category when it is empty.
func (s *State) store(category string, rec Record) {
	if rec.Total <= 0 || len(rec.Locations) == 0 {
		delete(s.Inventory, category)
		return
	}
	s.Inventory[category] = rec
}

func drawOrder(rec Record) []string {
	names := rec.LocationNames()
	order := make([]string, 0, len(names))
	if rec.Locations[Unspecified] > 0 {
		order = append(order, Unspecified)
	}
	for _, n := range names {
		if n != Unspecified {
			order = append(order, n)
		}
	}
	return order
}

// =============================================================================
// ACTIVITY LOG
// =============================================================================

// prepend adds a as the newest activity.
func (s *State) prepend(a Activity) {
	s.Activities = append([]Activity{a}, s.Activities...)
}

func (s *State) activityIndex(id string) int {
	for i, a := range s.Activities {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) removeActivity(i int) {
	s.Activities = append(s.Activities[:i], s.Activities[i+1:]...)
}

// =============================================================================
// REGISTRIES
// =============================================================================

func (s *State) registerCategory(name string) {
	s.Categories = insertSorted(s.Categories, name)
}

func (s *State) registerProperty(name string) {
	if name == "" || name == Unspecified {
		return
	}
	s.Properties = insertSorted(s.Properties, name)
}

func insertSorted(list []string, name string) []string {
	i := sort.SearchStrings(list, name)
	if i < len(list) && list[i] == name {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = name
	return list
}

func removeString(list []string, name string) ([]string, bool) {
	for i, v := range list {
		if v == name {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
