package inventory

import (
	"context"
	"strings"
	"time"
)

// StockCountInput is the input to StockCount.
type StockCountInput struct {
	Category    string
	Location    string
	ActualCount int
	CounterName string
	Notes       string
	Date        string
}

// StockCountResult describes what a stock count found and did.
type StockCountResult struct {
	Activity    Activity
	Snapshot    StockCount
	Event       DiscrepancyEvent
	Discrepancy *Discrepancy // set unless Event is EventNoChange
	Resolution  *Activity    // set when Event is EventResolved
}

// StockCount reconciles a physical count against the books. It never
// changes inventory. Expected is the bucket count when a location is given,
// otherwise the category total.
func (l *Ledger) StockCount(ctx context.Context, in StockCountInput) (StockCountResult, error) {
	var res StockCountResult
	err := l.apply(ctx, "stock-count", func(s *State, now time.Time) error {
		category := strings.TrimSpace(in.Category)
		location := strings.TrimSpace(in.Location)
		if err := validateCategory(category); err != nil {
			return err
		}
		if in.ActualCount < 0 {
			return invalid("actualCount", "must not be negative, got %d", in.ActualCount)
		}
		day, err := parseDate(in.Date, now)
		if err != nil {
			return err
		}

		expected := s.Inventory[category].Available(location)
		difference := in.ActualCount - expected

		count := Activity{
			ID:          l.newID(),
			Type:        ActivityStockCount,
			Category:    category,
			Quantity:    in.ActualCount,
			Location:    location,
			Date:        day,
			Timestamp:   now,
			Notes:       strings.TrimSpace(in.Notes),
			Expected:    intPtr(expected),
			Actual:      intPtr(in.ActualCount),
			Difference:  intPtr(difference),
			CounterName: strings.TrimSpace(in.CounterName),
		}
		s.prepend(count)

		snap := StockCount{
			ID:          l.newID(),
			Category:    category,
			Location:    location,
			Expected:    expected,
			Actual:      in.ActualCount,
			Difference:  difference,
			CounterName: count.CounterName,
			Notes:       count.Notes,
			Date:        day,
			Timestamp:   now,
		}
		s.StockCounts = append(s.StockCounts, snap)

		idx := s.unresolvedIndex(category)
		current := DiscrepancyNone
		if idx >= 0 {
			current = DiscrepancyUnresolved
		}
		_, event := NextDiscrepancy(current, difference)

		res = StockCountResult{Activity: count, Snapshot: snap, Event: event}
		switch event {
		case EventOpened:
			d := Discrepancy{
				ID:             l.newID(),
				Category:       category,
				Location:       location,
				Expected:       expected,
				Actual:         in.ActualCount,
				Difference:     difference,
				State:          DiscrepancyUnresolved,
				Timestamp:      now,
				CountID:        count.ID,
				CountTimestamp: now,
			}
			s.Discrepancies = append(s.Discrepancies, d)
			res.Discrepancy = &d

		case EventReplaced:
			d := s.Discrepancies[idx]
			d.Location = location
			d.Expected = expected
			d.Actual = in.ActualCount
			d.Difference = difference
			d.Timestamp = now
			d.CountID = count.ID
			d.CountTimestamp = now
			s.Discrepancies[idx] = d
			res.Discrepancy = &d

		case EventResolved:
			d := s.Discrepancies[idx]
			d.State = DiscrepancyResolved
			d.Resolved = true
			d.ResolvedDate = day
			s.Discrepancies[idx] = d
			res.Discrepancy = &d

			resolution := Activity{
				ID:          l.newID(),
				Type:        ActivityResolution,
				Category:    category,
				Quantity:    in.ActualCount,
				Location:    location,
				Date:        day,
				Timestamp:   now,
				Expected:    intPtr(expected),
				Actual:      intPtr(in.ActualCount),
				Difference:  intPtr(d.Difference),
				CounterName: count.CounterName,
				Notes:       "Discrepancy resolved by stock count",
			}
			s.prepend(resolution)
			res.Resolution = &resolution
		}
		return nil
	})
	return res, err
}
