/*
repository.go - Ledger persistence on top of a key-value store

PURPOSE:
  Loads and saves State. The system of record is a single JSON document
  under kv.DocumentKey, so every save is one SetItem and cannot leave
  inventory, activities and discrepancies out of step with each other.

LOAD ORDER:
  1. Document key present and valid  → use it (after repair)
  2. Otherwise                       → read the per-collection keys and
                                       migrate (see migrate.go)
  Malformed JSON is logged and treated as empty. It never fails a load.

LEGACY MIRROR:
  With mirroring on, each save also writes the per-collection keys. On a
  kv.TxStore everything goes in one transaction. On other stores the
  document is written first and the mirrors after it; a mirror failure
  is logged and does not fail the save.

ERRORS:
  Store read/write failures are wrapped with ErrStorage.
*/
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/warp/farm-ledger/kv"
)

// Repository reads and writes State.
type Repository struct {
	store        kv.Store
	logger       *slog.Logger
	mirrorLegacy bool
}

// NewRepository creates a repository over store.
func NewRepository(store kv.Store, logger *slog.Logger, mirrorLegacy bool) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, logger: logger, mirrorLegacy: mirrorLegacy}
}

// Load returns the stored state. migrated is true when the state came from
// the per-collection keys and should be written back as a document.
func (r *Repository) Load(ctx context.Context) (state *State, migrated bool, err error) {
	raw, ok, err := r.store.GetItem(ctx, kv.DocumentKey)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %v", ErrStorage, kv.DocumentKey, err)
	}
	if ok {
		var s State
		err := json.Unmarshal([]byte(raw), &s)
		if err == nil {
			s.normalize()
			if fixes := repair(&s); fixes > 0 {
				r.logger.Warn("repaired ledger document", "fixes", fixes)
			}
			return &s, false, nil
		}
		r.logger.Error("malformed ledger document, falling back to collection keys", "error", err)
	}

	s, found, err := r.loadLegacy(ctx)
	if err != nil {
		return nil, false, err
	}
	return s, found, nil
}

// Save writes state.
func (r *Repository) Save(ctx context.Context, state *State) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", ErrStorage, err)
	}
	items := []kv.Item{{Key: kv.DocumentKey, Value: string(doc)}}

	if !r.mirrorLegacy {
		if err := r.store.SetItem(ctx, kv.DocumentKey, string(doc)); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrStorage, kv.DocumentKey, err)
		}
		return nil
	}

	mirrors, err := encodeLegacy(state)
	if err != nil {
		return fmt.Errorf("%w: encode collections: %v", ErrStorage, err)
	}

	if _, ok := r.store.(kv.TxStore); ok {
		if err := kv.SetItems(ctx, r.store, append(items, mirrors...)); err != nil {
			return fmt.Errorf("%w: write document and collections: %v", ErrStorage, err)
		}
		return nil
	}

	if err := r.store.SetItem(ctx, kv.DocumentKey, string(doc)); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, kv.DocumentKey, err)
	}
	for _, it := range mirrors {
		if err := r.store.SetItem(ctx, it.Key, it.Value); err != nil {
			r.logger.Warn("mirror write failed", "key", it.Key, "error", err)
		}
	}
	return nil
}

// repair enforces the record invariants on loaded data and returns the
// number of corrections made.
func repair(s *State) int {
	fixes := 0
	for name, rec := range s.Inventory {
		if rec.Locations == nil {
			rec.Locations = make(map[string]int)
		}
		if len(rec.Locations) == 0 && rec.Total > 0 {
			rec.Locations[Unspecified] = rec.Total
			fixes++
		}
		before := rec.Total
		rec.recount()
		if rec.Total != before {
			fixes++
		}
		if rec.Total == 0 {
			delete(s.Inventory, name)
			fixes++
			continue
		}
		s.Inventory[name] = rec
	}
	for i := range s.Discrepancies {
		d := &s.Discrepancies[i]
		want := DiscrepancyUnresolved
		if d.Resolved {
			want = DiscrepancyResolved
		}
		if d.State != want {
			d.State = want
			fixes++
		}
	}
	return fixes
}
