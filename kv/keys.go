package kv

// Persisted key names.
//
// DocumentKey holds the consolidated ledger document and is the system of
// record. The remaining keys are the per-collection layout used by the
// mobile pages; they are read for one-time migration and optionally
// mirrored on every save.
const (
	DocumentKey = "farmLedger"

	KeyInventory     = "animalInventory"
	KeyActivities    = "recentActivities"
	KeyDiscrepancies = "stockDiscrepancies"
	KeyStockCounts   = "stockCounts"
	KeyCategories    = "animalCategories"
	KeyProperties    = "farmProperties"
)

// LegacyKeys lists the per-collection keys in a stable order.
var LegacyKeys = []string{
	KeyInventory,
	KeyActivities,
	KeyDiscrepancies,
	KeyStockCounts,
	KeyCategories,
	KeyProperties,
}
