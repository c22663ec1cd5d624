/*
undo.go - Reversing a logged activity

PURPOSE:
  Undo negates the inventory effect of one activity, removes that activity
  from the log, and prepends a reversal entry that names what was undone
  and why.

DISPATCH BY TYPE:
  add, buy, birth  → decrement the credited bucket, floored at zero
  sell, death      → re-credit the buckets recorded in Allocations
  move             → move back: destination becomes the source; fails if
                     the destination no longer holds the quantity
  stock-count      → find the discrepancy this count created, reset the
                     counted bucket (or the total) to its expected value,
                     delete the discrepancy
  resolution, reversal → ErrNotReversible

IDENTITY:
  Activities are matched by ID. Entries migrated from the old layout get an
  ID on load, so every entry is addressable.
*/
package inventory

import (
	"context"
	"strings"
	"time"
)

// UndoInput is the input to Undo.
type UndoInput struct {
	ActivityID string
	Reason     string
	Date       string
}

// Undo reverses the activity with the given ID.
func (l *Ledger) Undo(ctx context.Context, in UndoInput) (Activity, error) {
	var out Activity
	err := l.apply(ctx, "undo", func(s *State, now time.Time) error {
		reason := strings.TrimSpace(in.Reason)
		if strings.TrimSpace(in.ActivityID) == "" {
			return invalid("activityId", "is required")
		}
		if reason == "" {
			return invalid("reason", "is required")
		}
		day, err := parseDate(in.Date, now)
		if err != nil {
			return err
		}

		idx := s.activityIndex(in.ActivityID)
		if idx < 0 {
			return ErrActivityNotFound
		}
		orig := s.Activities[idx]
		if !orig.Type.Reversible() {
			return ErrNotReversible
		}

		if err := s.reverse(orig); err != nil {
			return err
		}

		s.removeActivity(idx)
		rev := Activity{
			ID:           l.newID(),
			Type:         ActivityReversal,
			Category:     orig.Category,
			Quantity:     orig.Quantity,
			Location:     orig.Location,
			Date:         day,
			Timestamp:    now,
			Reason:       reason,
			OriginalType: orig.Type,
			OriginalID:   orig.ID,
			FromCategory: orig.FromCategory,
			ToCategory:   orig.ToCategory,
			FromLocation: orig.FromLocation,
			ToLocation:   orig.ToLocation,
		}
		s.prepend(rev)
		out = rev
		return nil
	})
	return out, err
}

// reverse applies the inverse inventory effect of a.
func (s *State) reverse(a Activity) error {
	switch a.Type {
	case ActivityAdd, ActivityBuy, ActivityBirth:
		s.debitFloored(a.Category, a.Location, a.Quantity)
		return nil

	case ActivitySell, ActivityDeath:
		if len(a.Allocations) > 0 {
			s.creditAllocations(a.Category, a.Allocations)
		} else {
			s.credit(a.Category, a.Location, a.Quantity)
		}
		return nil

	case ActivityMove:
		from := a.FromCategory
		if from == "" {
			from = a.Category
		}
		to := a.ToCategory
		if to == "" {
			to = from
		}
		if _, err := s.debit(to, normalizeLocation(a.ToLocation), a.Quantity); err != nil {
			return err
		}
		if len(a.Allocations) > 0 {
			s.creditAllocations(from, a.Allocations)
		} else {
			s.credit(from, a.FromLocation, a.Quantity)
		}
		return nil

	case ActivityStockCount:
		idx := s.discrepancyForCount(a)
		if idx < 0 {
			return nil
		}
		d := s.Discrepancies[idx]
		if err := s.resetCount(d.Category, d.Location, d.Expected); err != nil {
			return err
		}
		s.Discrepancies = append(s.Discrepancies[:idx], s.Discrepancies[idx+1:]...)
		return nil
	}
	return ErrNotReversible
}

// discrepancyForCount finds the unresolved discrepancy opened or last
// updated by the stock-count activity a. Records migrated without a count ID
// fall back to the count timestamp. Resolved discrepancies are final and
// never match.
func (s *State) discrepancyForCount(a Activity) int {
	for i, d := range s.Discrepancies {
		if d.State != DiscrepancyUnresolved {
			continue
		}
		if d.CountID != "" {
			if d.CountID == a.ID {
				return i
			}
			continue
		}
		if d.Category == a.Category && !d.CountTimestamp.IsZero() && d.CountTimestamp.Equal(a.Timestamp) {
			return i
		}
	}
	return -1
}

// resetCount sets the bucket (or, with no location, the total) to n.
// A total is raised through Unspecified and lowered using the normal draw
// order.
func (s *State) resetCount(category, location string, n int) error {
	rec := s.Inventory[category]
	current := rec.Available(location)
	delta := n - current
	switch {
	case delta > 0:
		s.credit(category, location, delta)
	case delta < 0:
		if _, err := s.debit(category, location, -delta); err != nil {
			return err
		}
	}
	return nil
}
