package inventory_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/farm-ledger/inventory"
	"github.com/warp/farm-ledger/kv"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

func newTestLedger(t *testing.T, opts ...inventory.Option) (*inventory.Ledger, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	opts = append([]inventory.Option{inventory.WithClock(func() time.Time { return testNow })}, opts...)
	l, err := inventory.Open(context.Background(), mem, opts...)
	require.NoError(t, err)
	return l, mem
}

func requireConsistent(t *testing.T, l *inventory.Ledger) {
	t.Helper()
	for name, rec := range l.Inventory() {
		sum := 0
		for loc, n := range rec.Locations {
			assert.Positive(t, n, "%s at %s should not be an empty bucket", name, loc)
			sum += n
		}
		require.Equal(t, sum, rec.Total, "%s total should equal the sum of its locations", name)
		require.Positive(t, rec.Total, "%s should not be kept with zero animals", name)
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// WALKTHROUGH
// =============================================================================

func TestLedger_AddMoveSellCount_Walkthrough(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	// GIVEN: 10 cattle in North Field
	_, err := l.Add(ctx, inventory.AddInput{Category: "Cattle", Quantity: 10, Location: "North Field"})
	require.NoError(t, err)
	rec, ok := l.Record("Cattle")
	require.True(t, ok)
	assert.Equal(t, 10, rec.Total)
	assert.Equal(t, map[string]int{"North Field": 10}, rec.Locations)

	// WHEN: 4 are moved to South Field
	_, err = l.Move(ctx, inventory.MoveInput{
		FromCategory: "Cattle", ToCategory: "Cattle", Quantity: 4,
		FromLocation: "North Field", ToLocation: "South Field",
	})
	require.NoError(t, err)
	rec, _ = l.Record("Cattle")
	assert.Equal(t, 10, rec.Total)
	assert.Equal(t, map[string]int{"North Field": 6, "South Field": 4}, rec.Locations)

	// AND: 6 are sold from North Field at 500 each
	sale, err := l.Sell(ctx, inventory.SellInput{Category: "Cattle", Quantity: 6, Location: "North Field", Price: dec("500")})
	require.NoError(t, err)
	rec, _ = l.Record("Cattle")
	assert.Equal(t, 4, rec.Total)
	assert.Equal(t, map[string]int{"South Field": 4}, rec.Locations)
	require.NotNil(t, sale.Revenue)
	assert.True(t, sale.Revenue.Equal(dec("3000")), "revenue should be 3000, got %s", sale.Revenue)

	// THEN: a count of 3 in South Field opens a discrepancy of -1
	res, err := l.StockCount(ctx, inventory.StockCountInput{Category: "Cattle", Location: "South Field", ActualCount: 3, CounterName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, inventory.EventOpened, res.Event)
	require.NotNil(t, res.Discrepancy)
	assert.Equal(t, 4, res.Discrepancy.Expected)
	assert.Equal(t, 3, res.Discrepancy.Actual)
	assert.Equal(t, -1, res.Discrepancy.Difference)

	open := l.Discrepancies(true)
	require.Len(t, open, 1)
	assert.Equal(t, inventory.DiscrepancyUnresolved, open[0].State)

	rec, _ = l.Record("Cattle")
	assert.Equal(t, 4, rec.Total, "stock counts never change inventory")
}

// =============================================================================
// INVARIANTS
// =============================================================================

func TestLedger_RandomOperations_KeepTotalsConsistent(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	categories := []string{"Sheep", "Goats", "Cattle"}
	locations := []string{"", "North", "South", "Barn"}
	pick := func(xs []string) string { return xs[rng.Intn(len(xs))] }

	for i := 0; i < 400; i++ {
		cat, loc, qty := pick(categories), pick(locations), 1+rng.Intn(8)
		var err error
		switch rng.Intn(6) {
		case 0:
			_, err = l.Add(ctx, inventory.AddInput{Category: cat, Quantity: qty, Location: loc})
		case 1:
			_, err = l.Buy(ctx, inventory.BuyInput{Category: cat, Quantity: qty, Location: loc, Price: dec("10")})
		case 2:
			_, err = l.Birth(ctx, inventory.BirthInput{Category: cat, Quantity: qty, Location: loc})
		case 3:
			_, err = l.Sell(ctx, inventory.SellInput{Category: cat, Quantity: qty, Location: loc, Price: dec("12")})
		case 4:
			_, err = l.Death(ctx, inventory.DeathInput{Category: cat, Quantity: qty, Location: loc})
		case 5:
			_, err = l.Move(ctx, inventory.MoveInput{FromCategory: cat, ToCategory: pick(categories), Quantity: qty, FromLocation: loc, ToLocation: pick(locations)})
		}
		if err != nil {
			require.True(t, inventory.IsClientError(err) || errors.Is(err, inventory.ErrInsufficientStock),
				"step %d: unexpected error %v", i, err)
		}
		requireConsistent(t, l)
	}
}

func TestLedger_Decrement_InsufficientStock_NoMutation(t *testing.T) {
	// GIVEN: 5 goats in the Barn
	// WHEN: selling 6 from the Barn, or 3 from a paddock that holds none
	// THEN: InsufficientStockError, inventory and log unchanged

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Goats", Quantity: 5, Location: "Barn"})
	require.NoError(t, err)
	before := l.Inventory()
	logLen := len(l.Activities(inventory.ActivityFilter{}))

	_, err = l.Sell(ctx, inventory.SellInput{Category: "Goats", Quantity: 6, Location: "Barn", Price: dec("1")})
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)

	_, err = l.Death(ctx, inventory.DeathInput{Category: "Goats", Quantity: 3, Location: "Paddock"})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	_, err = l.Move(ctx, inventory.MoveInput{FromCategory: "Goats", ToCategory: "Sheep", Quantity: 9})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	assert.Equal(t, before, l.Inventory())
	assert.Len(t, l.Activities(inventory.ActivityFilter{}), logLen)
}

func TestLedger_Decrement_ToZero_RemovesCategory(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Ducks", Quantity: 3})
	require.NoError(t, err)
	_, err = l.Death(ctx, inventory.DeathInput{Category: "Ducks", Quantity: 3, Reason: "Fox"})
	require.NoError(t, err)

	_, ok := l.Record("Ducks")
	assert.False(t, ok, "empty category should be removed")
	assert.Contains(t, l.Categories(), "Ducks", "the category name stays registered")
}

func TestLedger_Decrement_BlankLocation_DrawsUnspecifiedFirst(t *testing.T) {
	// GIVEN: 2 Unspecified, 3 in Alpha, 4 in Beta
	// WHEN: selling 4 with no location
	// THEN: Unspecified is emptied, then Alpha gives 2

	l, _ := newTestLedger(t)
	ctx := context.Background()

	for loc, n := range map[string]int{"": 2, "Alpha": 3, "Beta": 4} {
		_, err := l.Add(ctx, inventory.AddInput{Category: "Pigs", Quantity: n, Location: loc})
		require.NoError(t, err)
	}

	sale, err := l.Sell(ctx, inventory.SellInput{Category: "Pigs", Quantity: 4, Price: dec("90")})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{inventory.Unspecified: 2, "Alpha": 2}, sale.Allocations)

	rec, _ := l.Record("Pigs")
	assert.Equal(t, map[string]int{"Alpha": 1, "Beta": 4}, rec.Locations)
	assert.Equal(t, 5, rec.Total)
}

func TestLedger_Validation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Cattle", Quantity: 5, Location: "North"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		run   func() error
		field string
	}{
		{"blank category", func() error {
			_, err := l.Add(ctx, inventory.AddInput{Category: "  ", Quantity: 1})
			return err
		}, "category"},
		{"zero quantity", func() error {
			_, err := l.Birth(ctx, inventory.BirthInput{Category: "Cattle", Quantity: 0})
			return err
		}, "quantity"},
		{"bad date", func() error {
			_, err := l.Add(ctx, inventory.AddInput{Category: "Cattle", Quantity: 1, Date: "01/02/2024"})
			return err
		}, "date"},
		{"negative price", func() error {
			_, err := l.Buy(ctx, inventory.BuyInput{Category: "Cattle", Quantity: 1, Price: dec("-1")})
			return err
		}, "price"},
		{"move to same place", func() error {
			_, err := l.Move(ctx, inventory.MoveInput{FromCategory: "Cattle", Quantity: 1, FromLocation: "North", ToLocation: "North"})
			return err
		}, "toLocation"},
		{"move within category from blank to Unspecified", func() error {
			_, err := l.Move(ctx, inventory.MoveInput{FromCategory: "Cattle", Quantity: 1, ToLocation: inventory.Unspecified})
			return err
		}, "toLocation"},
		{"negative count", func() error {
			_, err := l.StockCount(ctx, inventory.StockCountInput{Category: "Cattle", ActualCount: -1})
			return err
		}, "actualCount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			var vErr *inventory.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.True(t, inventory.IsClientError(err))
		})
	}

	rec, _ := l.Record("Cattle")
	assert.Equal(t, 5, rec.Total)
}

func TestLedger_BlankDate_DefaultsToToday(t *testing.T) {
	l, _ := newTestLedger(t)

	a, err := l.Add(context.Background(), inventory.AddInput{Category: "Hens", Quantity: 12})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", a.Date)
	assert.Equal(t, inventory.Unspecified, a.Location)
	assert.NotEmpty(t, a.ID)
}

func TestLedger_MoveBetweenCategories(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Calves", Quantity: 8, Location: "Nursery"})
	require.NoError(t, err)

	a, err := l.Move(ctx, inventory.MoveInput{FromCategory: "Calves", ToCategory: "Cattle", Quantity: 5, FromLocation: "Nursery"})
	require.NoError(t, err)
	assert.Equal(t, inventory.Unspecified, a.ToLocation, "blank destination is stored as Unspecified")

	calves, _ := l.Record("Calves")
	cattle, _ := l.Record("Cattle")
	assert.Equal(t, 3, calves.Total)
	assert.Equal(t, map[string]int{inventory.Unspecified: 5}, cattle.Locations)
	assert.Equal(t, 8, l.TotalAnimals())
}

func TestLedger_MoveWithinCategory_BlankSourceIsUnspecified(t *testing.T) {
	// GIVEN: 5 cattle added without a location, plus 2 in South
	// WHEN: 3 are moved to North with no source location
	// THEN: they come out of Unspecified only, and undo puts them back

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Cattle", Quantity: 5})
	require.NoError(t, err)
	_, err = l.Add(ctx, inventory.AddInput{Category: "Cattle", Quantity: 2, Location: "South"})
	require.NoError(t, err)

	a, err := l.Move(ctx, inventory.MoveInput{FromCategory: "Cattle", ToCategory: "Cattle", Quantity: 3, ToLocation: "North"})
	require.NoError(t, err)
	assert.Equal(t, inventory.Unspecified, a.FromLocation)

	rec, _ := l.Record("Cattle")
	assert.Equal(t, map[string]int{inventory.Unspecified: 2, "North": 3, "South": 2}, rec.Locations)
	assert.Equal(t, 7, rec.Total)
	requireConsistent(t, l)

	_, err = l.Move(ctx, inventory.MoveInput{FromCategory: "Cattle", Quantity: 3, ToLocation: "South"})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock, "only the Unspecified bucket is drawn from")

	_, err = l.Undo(ctx, inventory.UndoInput{ActivityID: a.ID, Reason: "wrong paddock"})
	require.NoError(t, err)
	rec, _ = l.Record("Cattle")
	assert.Equal(t, map[string]int{inventory.Unspecified: 5, "South": 2}, rec.Locations)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestLedger_Reopen_RestoresState(t *testing.T) {
	l, mem := newTestLedger(t)
	ctx := context.Background()

	buy, err := l.Buy(ctx, inventory.BuyInput{Category: "Sheep", Quantity: 20, Price: dec("145.50"), Location: "Hill"})
	require.NoError(t, err)
	count, err := l.StockCount(ctx, inventory.StockCountInput{Category: "Sheep", ActualCount: 19})
	require.NoError(t, err)

	reopened, err := inventory.Open(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, l.Inventory(), reopened.Inventory())
	assert.Equal(t, l.Discrepancies(false), reopened.Discrepancies(false))
	assert.Equal(t, []string{"Hill"}, reopened.Properties())

	acts := reopened.Activities(inventory.ActivityFilter{})
	require.Len(t, acts, 2)
	assert.Equal(t, count.Activity.ID, acts[0].ID)
	assert.Equal(t, buy.ID, acts[1].ID)
	require.NotNil(t, acts[1].Cost)
	assert.True(t, acts[1].Cost.Equal(dec("2910")), "cost survives the round trip exactly")
}

func TestLedger_StorageFailure_KeepsPreviousState(t *testing.T) {
	// GIVEN: a ledger with 10 sheep persisted
	// WHEN: the store starts failing writes and another 5 are added
	// THEN: the add fails with ErrStorage and memory still shows 10

	l, mem := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Sheep", Quantity: 10})
	require.NoError(t, err)

	mem.SetFailWrites(errors.New("disk full"))
	_, err = l.Add(ctx, inventory.AddInput{Category: "Sheep", Quantity: 5})
	require.ErrorIs(t, err, inventory.ErrStorage)

	rec, _ := l.Record("Sheep")
	assert.Equal(t, 10, rec.Total)
	assert.Len(t, l.Activities(inventory.ActivityFilter{}), 1)

	mem.SetFailWrites(nil)
	reopened, err := inventory.Open(ctx, mem)
	require.NoError(t, err)
	rec, _ = reopened.Record("Sheep")
	assert.Equal(t, 10, rec.Total)
}

func TestLedger_MaxActivities_TrimsOldest(t *testing.T) {
	l, _ := newTestLedger(t, inventory.WithMaxActivities(3))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := l.Add(ctx, inventory.AddInput{Category: "Hens", Quantity: i})
		require.NoError(t, err)
	}

	acts := l.Activities(inventory.ActivityFilter{})
	require.Len(t, acts, 3)
	assert.Equal(t, 5, acts[0].Quantity, "newest first")
	assert.Equal(t, 3, acts[2].Quantity)
	assert.Equal(t, 15, l.TotalAnimals(), "trimming the log never touches inventory")
}

func TestLedger_Reset(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Hens", Quantity: 4, Location: "Coop"})
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx))

	assert.Empty(t, l.Inventory())
	assert.Empty(t, l.Activities(inventory.ActivityFilter{}))
	assert.Empty(t, l.Categories())
	assert.Empty(t, l.Properties())
}
