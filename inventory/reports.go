/*
reports.go - Derived views for the dashboard and reports pages

PURPOSE:
  Read-only aggregations over the activity log and inventory. Nothing here
  is stored; every figure is recomputed from State on request.

REPORTS:
  FinancialSummary: revenue from sells, cost from buys, net, per category
  Dashboard:        headline counts plus the most recent activities
*/
package inventory

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// FINANCIAL SUMMARY
// =============================================================================

// CategoryFinancials is the per-category slice of a FinancialSummary.
type CategoryFinancials struct {
	Category string          `json:"category"`
	Bought   int             `json:"bought"`
	Sold     int             `json:"sold"`
	Cost     decimal.Decimal `json:"cost"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// FinancialSummary totals buys and sells over a date range.
type FinancialSummary struct {
	From       string               `json:"from,omitempty"`
	To         string               `json:"to,omitempty"`
	Revenue    decimal.Decimal      `json:"revenue"`
	Cost       decimal.Decimal      `json:"cost"`
	Net        decimal.Decimal      `json:"net"`
	Sales      int                  `json:"sales"`
	Purchases  int                  `json:"purchases"`
	Categories []CategoryFinancials `json:"categories"`
}

// FinancialSummary totals buy and sell activities dated within [from, to].
// Blank bounds are open.
func (l *Ledger) FinancialSummary(from, to string) (FinancialSummary, error) {
	for field, v := range map[string]string{"from": from, "to": to} {
		if v == "" {
			continue
		}
		if _, err := parseDate(v, l.now()); err != nil {
			return FinancialSummary{}, invalid(field, "must be YYYY-MM-DD, got %q", v)
		}
	}
	if from != "" && to != "" && from > to {
		return FinancialSummary{}, invalid("from", "must not be after to")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sum := FinancialSummary{From: from, To: to, Revenue: decimal.Zero, Cost: decimal.Zero}
	byCategory := make(map[string]*CategoryFinancials)
	get := func(name string) *CategoryFinancials {
		c, ok := byCategory[name]
		if !ok {
			c = &CategoryFinancials{Category: name, Cost: decimal.Zero, Revenue: decimal.Zero}
			byCategory[name] = c
		}
		return c
	}

	for _, a := range l.state.Activities {
		if !inRange(a.Date, from, to) {
			continue
		}
		switch a.Type {
		case ActivitySell:
			rev := amountOf(a.Revenue, a.Price, a.Quantity)
			sum.Revenue = sum.Revenue.Add(rev)
			sum.Sales++
			c := get(a.Category)
			c.Sold += a.Quantity
			c.Revenue = c.Revenue.Add(rev)
		case ActivityBuy:
			cost := amountOf(a.Cost, a.Price, a.Quantity)
			sum.Cost = sum.Cost.Add(cost)
			sum.Purchases++
			c := get(a.Category)
			c.Bought += a.Quantity
			c.Cost = c.Cost.Add(cost)
		}
	}
	sum.Net = sum.Revenue.Sub(sum.Cost)

	sum.Categories = make([]CategoryFinancials, 0, len(byCategory))
	for _, name := range sortedKeys(byCategory) {
		sum.Categories = append(sum.Categories, *byCategory[name])
	}
	return sum, nil
}

// amountOf prefers the recorded total and falls back to price × quantity.
func amountOf(total, price *decimal.Decimal, quantity int) decimal.Decimal {
	if total != nil {
		return *total
	}
	if price != nil {
		return price.Mul(decimal.NewFromInt(int64(quantity)))
	}
	return decimal.Zero
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard is the headline view of the farm.
type Dashboard struct {
	TotalAnimals            int             `json:"totalAnimals"`
	CategoryCount           int             `json:"categoryCount"`
	Categories              []CategoryCount `json:"categories"`
	LocationTotals          map[string]int  `json:"locationTotals"`
	UnresolvedDiscrepancies int             `json:"unresolvedDiscrepancies"`
	RecentActivities        []Activity      `json:"recentActivities"`
}

// Dashboard builds the headline view with up to recent activities.
func (l *Ledger) Dashboard(recent int) Dashboard {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state
	d := Dashboard{
		TotalAnimals:     s.totalAnimals(),
		CategoryCount:    len(s.Inventory),
		Categories:       s.categoryCounts(),
		LocationTotals:   s.locationTotals(),
		RecentActivities: []Activity{},
	}
	for _, disc := range s.Discrepancies {
		if disc.State == DiscrepancyUnresolved {
			d.UnresolvedDiscrepancies++
		}
	}
	for i := 0; i < len(s.Activities) && i < recent; i++ {
		d.RecentActivities = append(d.RecentActivities, s.Activities[i].clone())
	}
	return d
}
