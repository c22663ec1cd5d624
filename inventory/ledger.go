/*
ledger.go - The inventory ledger and its stock-moving operations

PURPOSE:
  Ledger is the explicit context object every operation runs against. It
  owns the in-memory State for the session, applies one operation at a
  time, and persists the whole document after each successful mutation.

OPERATION FLOW (every mutating call):
  1. Lock
  2. Clone the current state into a working copy
  3. Validate input and apply the change to the copy
  4. Persist the copy (one document write)
  5. Publish the copy as the current state

  A validation failure stops at step 3 and a storage failure at step 4. In
  both cases the current state is untouched, so memory never runs ahead
  of what the store holds.

OPERATIONS IN THIS FILE:
  Add, Buy, Birth  - increments (blank location credits Unspecified)
  Sell, Death      - decrements, fail with InsufficientStockError
  Move             - decrement source, increment destination

SEE ALSO:
  - stockcount.go: StockCount
  - undo.go: Undo
  - registry.go: Category and property lists
  - queries.go, reports.go: Read side
*/
package inventory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/farm-ledger/kv"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger applies inventory operations and persists the result.
type Ledger struct {
	mu    sync.Mutex
	repo  *Repository
	state *State

	logger        *slog.Logger
	metrics       *Metrics
	now           func() time.Time
	newID         func() string
	maxActivities int
	mirrorLegacy  bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithMaxActivities caps the activity log; the oldest entries are dropped.
// Zero keeps everything.
func WithMaxActivities(n int) Option {
	return func(l *Ledger) { l.maxActivities = n }
}

// WithLegacyMirror also writes the per-collection keys on every save.
func WithLegacyMirror(enabled bool) Option {
	return func(l *Ledger) { l.mirrorLegacy = enabled }
}

// Open loads the ledger from store, migrating the per-collection layout to
// the consolidated document when needed.
func Open(ctx context.Context, store kv.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	l.repo = NewRepository(store, l.logger, l.mirrorLegacy)

	state, migrated, err := l.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if migrated {
		if err := l.repo.Save(ctx, state); err != nil {
			return nil, err
		}
		l.logger.Info("ledger migrated to document layout",
			"categories", len(state.Inventory),
			"activities", len(state.Activities))
	}
	l.state = state
	l.metrics.snapshot(state)
	return l, nil
}

// apply runs fn against a working copy and publishes it once persisted.
func (l *Ledger) apply(ctx context.Context, op string, fn func(s *State, now time.Time) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	work := l.state.Clone()
	if err := fn(work, l.now().UTC()); err != nil {
		l.metrics.observe(op, outcomeRejected)
		l.logger.Debug("operation rejected", "op", op, "error", err)
		return err
	}
	work.trimActivities(l.maxActivities)

	start := time.Now()
	err := l.repo.Save(ctx, work)
	l.metrics.observePersist(time.Since(start))
	if err != nil {
		l.metrics.observe(op, outcomeFailed)
		l.logger.Error("persist failed", "op", op, "error", err)
		return err
	}

	l.state = work
	l.metrics.observe(op, outcomeOK)
	l.metrics.snapshot(work)
	return nil
}

// =============================================================================
// INCREMENTS
// =============================================================================

// AddInput is the input to Add.
type AddInput struct {
	Category string
	Quantity int
	Location string
	Date     string
	Notes    string
}

// Add records animals entering the inventory without a purchase.
func (l *Ledger) Add(ctx context.Context, in AddInput) (Activity, error) {
	var out Activity
	err := l.apply(ctx, "add", func(s *State, now time.Time) error {
		a, err := l.increment(s, now, ActivityAdd, in.Category, in.Quantity, in.Location, in.Date, in.Notes)
		if err != nil {
			return err
		}
		s.prepend(a)
		out = a
		return nil
	})
	return out, err
}

// BuyInput is the input to Buy. Price is per animal.
type BuyInput struct {
	Category string
	Quantity int
	Price    decimal.Decimal
	Location string
	Supplier string
	Date     string
	Notes    string
}

// Buy records purchased animals. Cost is price times quantity.
func (l *Ledger) Buy(ctx context.Context, in BuyInput) (Activity, error) {
	var out Activity
	err := l.apply(ctx, "buy", func(s *State, now time.Time) error {
		if in.Price.IsNegative() {
			return invalid("price", "must not be negative")
		}
		a, err := l.increment(s, now, ActivityBuy, in.Category, in.Quantity, in.Location, in.Date, in.Notes)
		if err != nil {
			return err
		}
		a.Price = decimalPtr(in.Price)
		a.Cost = decimalPtr(in.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
		a.Supplier = strings.TrimSpace(in.Supplier)
		s.prepend(a)
		out = a
		return nil
	})
	return out, err
}

// BirthInput is the input to Birth.
type BirthInput struct {
	Category string
	Quantity int
	Location string
	Date     string
	Notes    string
}

// Birth records animals born on the farm.
func (l *Ledger) Birth(ctx context.Context, in BirthInput) (Activity, error) {
	var out Activity
	err := l.apply(ctx, "birth", func(s *State, now time.Time) error {
		a, err := l.increment(s, now, ActivityBirth, in.Category, in.Quantity, in.Location, in.Date, in.Notes)
		if err != nil {
			return err
		}
		s.prepend(a)
		out = a
		return nil
	})
	return out, err
}

func (l *Ledger) increment(s *State, now time.Time, typ ActivityType, category string, quantity int, location, date, notes string) (Activity, error) {
	category = strings.TrimSpace(category)
	location = normalizeLocation(location)
	if err := validateCategory(category); err != nil {
		return Activity{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return Activity{}, err
	}
	day, err := parseDate(date, now)
	if err != nil {
		return Activity{}, err
	}

	s.credit(category, location, quantity)
	return Activity{
		ID:        l.newID(),
		Type:      typ,
		Category:  category,
		Quantity:  quantity,
		Location:  location,
		Date:      day,
		Timestamp: now,
		Notes:     strings.TrimSpace(notes),
	}, nil
}

// =============================================================================
// DECREMENTS
// =============================================================================

// SellInput is the input to Sell. Price is per animal.
type SellInput struct {
	Category string
	Quantity int
	Location string
	Price    decimal.Decimal
	Buyer    string
	Date     string
	Notes    string
}

// Sell records animals sold. Revenue is price times quantity.
func (l *Ledger) Sell(ctx context.Context, in SellInput) (Activity, error) {
	var out Activity
	err := l.apply(ctx, "sell", func(s *State, now time.Time) error {
		if in.Price.IsNegative() {
			return invalid("price", "must not be negative")
		}
		a, err := l.decrement(s, now, ActivitySell, in.Category, in.Quantity, in.Location, in.Date, in.Notes)
		if err != nil {
			return err
		}
		a.Price = decimalPtr(in.Price)
		a.Revenue = decimalPtr(in.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
		a.Buyer = strings.TrimSpace(in.Buyer)
		s.prepend(a)
		out = a
		return nil
	})
	return out, err
}

// DeathInput is the input to Death.
type DeathInput struct {
	Category string
	Quantity int
	Location string
	Reason   string
	Date     string
	Notes    string
}

// Death records animals lost.
func (l *Ledger) Death(ctx context.Context, in DeathInput) (Activity, error) {
	var out Activity
	err := l.apply(ctx, "death", func(s *State, now time.Time) error {
		a, err := l.decrement(s, now, ActivityDeath, in.Category, in.Quantity, in.Location, in.Date, in.Notes)
		if err != nil {
			return err
		}
		a.Reason = strings.TrimSpace(in.Reason)
		s.prepend(a)
		out = a
		return nil
	})
	return out, err
}

func (l *Ledger) decrement(s *State, now time.Time, typ ActivityType, category string, quantity int, location, date, notes string) (Activity, error) {
	category = strings.TrimSpace(category)
	location = strings.TrimSpace(location)
	if err := validateCategory(category); err != nil {
		return Activity{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return Activity{}, err
	}
	day, err := parseDate(date, now)
	if err != nil {
		return Activity{}, err
	}

	drawn, err := s.debit(category, location, quantity)
	if err != nil {
		return Activity{}, err
	}
	return Activity{
		ID:          l.newID(),
		Type:        typ,
		Category:    category,
		Quantity:    quantity,
		Location:    location,
		Date:        day,
		Timestamp:   now,
		Notes:       strings.TrimSpace(notes),
		Allocations: drawn,
	}, nil
}

// =============================================================================
// MOVE
// =============================================================================

// MoveInput is the input to Move. A blank ToCategory keeps the animals in
// FromCategory, which makes the move a pure location transfer.
type MoveInput struct {
	FromCategory string
	ToCategory   string
	Quantity     int
	FromLocation string
	ToLocation   string
	Date         string
	Notes        string
}

// Move takes animals out of one category/location and puts them in another.
// Within one category a blank source location means Unspecified.
func (l *Ledger) Move(ctx context.Context, in MoveInput) (Activity, error) {
	var out Activity
	err := l.apply(ctx, "move", func(s *State, now time.Time) error {
		from := strings.TrimSpace(in.FromCategory)
		to := strings.TrimSpace(in.ToCategory)
		if to == "" {
			to = from
		}
		fromLoc := strings.TrimSpace(in.FromLocation)
		toLoc := normalizeLocation(in.ToLocation)

		if from == "" {
			return invalid("fromCategory", "is required")
		}
		if err := validateQuantity(in.Quantity); err != nil {
			return err
		}
		if from == to {
			fromLoc = normalizeLocation(fromLoc)
		}
		if from == to && fromLoc == toLoc {
			return invalid("toLocation", "must differ from the source location when the category is unchanged")
		}
		day, err := parseDate(in.Date, now)
		if err != nil {
			return err
		}

		drawn, err := s.debit(from, fromLoc, in.Quantity)
		if err != nil {
			return err
		}
		s.credit(to, toLoc, in.Quantity)

		a := Activity{
			ID:           l.newID(),
			Type:         ActivityMove,
			Category:     from,
			Quantity:     in.Quantity,
			Location:     fromLoc,
			Date:         day,
			Timestamp:    now,
			Notes:        strings.TrimSpace(in.Notes),
			FromCategory: from,
			ToCategory:   to,
			FromLocation: fromLoc,
			ToLocation:   toLoc,
			Allocations:  drawn,
		}
		s.prepend(a)
		out = a
		return nil
	})
	return out, err
}

// =============================================================================
// RESET
// =============================================================================

// Reset replaces the ledger with an empty state.
func (l *Ledger) Reset(ctx context.Context) error {
	return l.apply(ctx, "reset", func(s *State, _ time.Time) error {
		*s = *NewState()
		return nil
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateCategory(category string) error {
	if category == "" {
		return invalid("category", "is required")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return invalid("quantity", "must be at least 1, got %d", quantity)
	}
	return nil
}

// parseDate validates a YYYY-MM-DD date. Blank means today.
func parseDate(date string, now time.Time) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return now.Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", invalid("date", "must be YYYY-MM-DD, got %q", date)
	}
	return date, nil
}

func normalizeLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return Unspecified
	}
	return location
}

func (s *State) trimActivities(max int) {
	if max > 0 && len(s.Activities) > max {
		s.Activities = s.Activities[:max]
	}
}
