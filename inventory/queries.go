package inventory

import (
	"sort"
)

// Every query returns copies. Callers may keep or modify the results.

// Inventory returns every category record.
func (l *Ledger) Inventory() map[string]Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Record, len(l.state.Inventory))
	for k, r := range l.state.Inventory {
		out[k] = r.clone()
	}
	return out
}

// Record returns the record for category. ok is false when the category
// holds no animals.
func (l *Ledger) Record(category string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.state.Inventory[category]
	if !ok {
		return Record{Locations: map[string]int{}}, false
	}
	return r.clone(), true
}

// Categories returns the registered category names, sorted.
func (l *Ledger) Categories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.state.Categories...)
}

// Properties returns the registered farm property names, sorted.
func (l *Ledger) Properties() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.state.Properties...)
}

// TotalAnimals returns the sum over all categories.
func (l *Ledger) TotalAnimals() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.totalAnimals()
}

func (s *State) totalAnimals() int {
	total := 0
	for _, r := range s.Inventory {
		total += r.Total
	}
	return total
}

// LocationTotals returns the number of animals per location across categories.
func (l *Ledger) LocationTotals() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.locationTotals()
}

func (s *State) locationTotals() map[string]int {
	out := make(map[string]int)
	for _, r := range s.Inventory {
		for loc, n := range r.Locations {
			out[loc] += n
		}
	}
	return out
}

// =============================================================================
// ACTIVITIES
// =============================================================================

// ActivityFilter narrows Activities. Zero fields match everything.
// From and To are inclusive YYYY-MM-DD bounds on the activity date.
type ActivityFilter struct {
	Type     ActivityType
	Category string
	From     string
	To       string
	Limit    int
}

func (f ActivityFilter) match(a Activity) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Category != "" && a.Category != f.Category && a.ToCategory != f.Category {
		return false
	}
	return inRange(a.Date, f.From, f.To)
}

// Activities returns matching activities, newest first.
func (l *Ledger) Activities(f ActivityFilter) []Activity {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Activity{}
	for _, a := range l.state.Activities {
		if !f.match(a) {
			continue
		}
		out = append(out, a.clone())
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Activity returns the activity with the given ID.
func (l *Ledger) Activity(id string) (Activity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.state.activityIndex(id)
	if idx < 0 {
		return Activity{}, ErrActivityNotFound
	}
	return l.state.Activities[idx].clone(), nil
}

// =============================================================================
// DISCREPANCIES AND COUNTS
// =============================================================================

// Discrepancies returns discrepancy records in the order they were opened,
// optionally only unresolved ones.
func (l *Ledger) Discrepancies(unresolvedOnly bool) []Discrepancy {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Discrepancy{}
	for _, d := range l.state.Discrepancies {
		if unresolvedOnly && d.State != DiscrepancyUnresolved {
			continue
		}
		out = append(out, d)
	}
	return out
}

// StockCounts returns the stock count audit trail, oldest first. A blank
// category returns all of them.
func (l *Ledger) StockCounts(category string) []StockCount {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []StockCount{}
	for _, c := range l.state.StockCounts {
		if category != "" && c.Category != category {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Snapshot returns a deep copy of the whole state.
func (l *Ledger) Snapshot() *State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// inRange compares YYYY-MM-DD strings, which sort chronologically.
func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

// CategoryCount pairs a category with its total.
type CategoryCount struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
}

func (s *State) categoryCounts() []CategoryCount {
	out := make([]CategoryCount, 0, len(s.Inventory))
	for name, r := range s.Inventory {
		out = append(out, CategoryCount{Category: name, Total: r.Total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}
