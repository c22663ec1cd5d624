/*
discrepancy.go - Discrepancy lifecycle

STATE MACHINE (per category):

	none ──count≠expected──▶ unresolved ──count==expected──▶ resolved
	                          │    ▲
	                          └────┘ count≠expected (replace in place)

  - none + match:       nothing happens
  - none + mismatch:    open a new unresolved discrepancy
  - unresolved + mismatch: overwrite the existing one
  - unresolved + match: mark resolved, log a resolution activity
  - resolved is terminal for that record. A later mismatch opens a new
    record because lookups only consider unresolved entries.
*/
package inventory

// DiscrepancyState is the lifecycle state of a discrepancy record.
type DiscrepancyState string

const (
	// DiscrepancyNone is never stored. It is the state of a category with no
	// unresolved record.
	DiscrepancyNone       DiscrepancyState = ""
	DiscrepancyUnresolved DiscrepancyState = "unresolved"
	DiscrepancyResolved   DiscrepancyState = "resolved"
)

// DiscrepancyEvent is the side effect a stock count has on discrepancies.
type DiscrepancyEvent string

const (
	EventNoChange DiscrepancyEvent = "no_change"
	EventOpened   DiscrepancyEvent = "opened"
	EventReplaced DiscrepancyEvent = "replaced"
	EventResolved DiscrepancyEvent = "resolved"
)

// NextDiscrepancy returns the state a category moves to after a stock count
// with the given difference, and the event that describes the move.
// current must be DiscrepancyNone or DiscrepancyUnresolved; a resolved record
// is never the current one.
func NextDiscrepancy(current DiscrepancyState, difference int) (DiscrepancyState, DiscrepancyEvent) {
	switch current {
	case DiscrepancyUnresolved:
		if difference == 0 {
			return DiscrepancyResolved, EventResolved
		}
		return DiscrepancyUnresolved, EventReplaced
	default:
		if difference == 0 {
			return DiscrepancyNone, EventNoChange
		}
		return DiscrepancyUnresolved, EventOpened
	}
}

// unresolvedIndex returns the index of the unresolved discrepancy for
// category, or -1.
func (s *State) unresolvedIndex(category string) int {
	for i, d := range s.Discrepancies {
		if d.Category == category && d.State == DiscrepancyUnresolved {
			return i
		}
	}
	return -1
}
