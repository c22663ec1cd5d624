package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/farm-ledger/inventory"
)

// seedHerd gives every test the same starting farm:
// Cattle {Unspecified: 3, North: 10, South: 5}, Calves {Nursery: 6}.
func seedHerd(t *testing.T, l *inventory.Ledger) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []inventory.AddInput{
		{Category: "Cattle", Quantity: 3},
		{Category: "Cattle", Quantity: 10, Location: "North"},
		{Category: "Cattle", Quantity: 5, Location: "South"},
		{Category: "Calves", Quantity: 6, Location: "Nursery"},
	} {
		_, err := l.Add(ctx, in)
		require.NoError(t, err)
	}
}

func TestUndo_RestoresExactRecord(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(l *inventory.Ledger) (inventory.Activity, error)
	}{
		{"add to existing bucket", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Add(ctx, inventory.AddInput{Category: "Cattle", Quantity: 4, Location: "North"})
		}},
		{"add new category", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Add(ctx, inventory.AddInput{Category: "Goats", Quantity: 2, Location: "Barn"})
		}},
		{"buy", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Buy(ctx, inventory.BuyInput{Category: "Cattle", Quantity: 7, Price: dec("900")})
		}},
		{"birth", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Birth(ctx, inventory.BirthInput{Category: "Calves", Quantity: 2, Location: "Nursery"})
		}},
		{"sell from bucket", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Sell(ctx, inventory.SellInput{Category: "Cattle", Quantity: 5, Location: "South", Price: dec("1200")})
		}},
		{"sell across buckets", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Sell(ctx, inventory.SellInput{Category: "Cattle", Quantity: 9, Price: dec("1200")})
		}},
		{"death", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Death(ctx, inventory.DeathInput{Category: "Calves", Quantity: 6, Location: "Nursery", Reason: "Storm"})
		}},
		{"move between locations", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Move(ctx, inventory.MoveInput{FromCategory: "Cattle", Quantity: 4, FromLocation: "North", ToLocation: "South"})
		}},
		{"move between categories without source", func(l *inventory.Ledger) (inventory.Activity, error) {
			return l.Move(ctx, inventory.MoveInput{FromCategory: "Cattle", ToCategory: "Steers", Quantity: 8, ToLocation: "Feedlot"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: the seeded herd and one more operation
			l, _ := newTestLedger(t)
			seedHerd(t, l)
			before := l.Inventory()
			logBefore := len(l.Activities(inventory.ActivityFilter{}))

			a, err := tt.run(l)
			require.NoError(t, err)

			// WHEN: that operation is undone
			rev, err := l.Undo(ctx, inventory.UndoInput{ActivityID: a.ID, Reason: "entered by mistake"})
			require.NoError(t, err)

			// THEN: inventory is exactly as before, and the log swapped the
			// original for one reversal
			assert.Equal(t, before, l.Inventory())
			requireConsistent(t, l)

			acts := l.Activities(inventory.ActivityFilter{})
			assert.Len(t, acts, logBefore+1)
			assert.Equal(t, rev.ID, acts[0].ID)
			assert.Equal(t, inventory.ActivityReversal, acts[0].Type)
			assert.Equal(t, a.Type, acts[0].OriginalType)
			assert.Equal(t, a.ID, acts[0].OriginalID)
			assert.Equal(t, "entered by mistake", acts[0].Reason)

			_, err = l.Activity(a.ID)
			assert.ErrorIs(t, err, inventory.ErrActivityNotFound)
		})
	}
}

func TestUndo_Move_DestinationEmptied_Fails(t *testing.T) {
	// GIVEN: 4 cattle moved North → South, then all of South sold
	// WHEN: undoing the move
	// THEN: insufficient stock, nothing changes

	l, _ := newTestLedger(t)
	seedHerd(t, l)
	ctx := context.Background()

	move, err := l.Move(ctx, inventory.MoveInput{FromCategory: "Cattle", Quantity: 4, FromLocation: "North", ToLocation: "South"})
	require.NoError(t, err)
	_, err = l.Sell(ctx, inventory.SellInput{Category: "Cattle", Quantity: 9, Location: "South", Price: dec("1000")})
	require.NoError(t, err)
	before := l.Inventory()

	_, err = l.Undo(ctx, inventory.UndoInput{ActivityID: move.ID, Reason: "wrong paddock"})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.True(t, inventory.IsConflict(err))
	assert.Equal(t, before, l.Inventory())

	_, err = l.Activity(move.ID)
	assert.NoError(t, err, "the move stays in the log")
}

func TestUndo_Add_AfterPartialSale_FloorsAtZero(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	add, err := l.Add(ctx, inventory.AddInput{Category: "Geese", Quantity: 5, Location: "Pond"})
	require.NoError(t, err)
	_, err = l.Sell(ctx, inventory.SellInput{Category: "Geese", Quantity: 3, Location: "Pond", Price: dec("30")})
	require.NoError(t, err)

	_, err = l.Undo(ctx, inventory.UndoInput{ActivityID: add.ID, Reason: "duplicate entry"})
	require.NoError(t, err)

	_, ok := l.Record("Geese")
	assert.False(t, ok)
	requireConsistent(t, l)
}

func TestUndo_Rejections(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Sheep", Quantity: 10})
	require.NoError(t, err)
	_, err = l.StockCount(ctx, inventory.StockCountInput{Category: "Sheep", ActualCount: 9})
	require.NoError(t, err)
	res, err := l.StockCount(ctx, inventory.StockCountInput{Category: "Sheep", ActualCount: 10})
	require.NoError(t, err)
	require.NotNil(t, res.Resolution)

	add := l.Activities(inventory.ActivityFilter{Type: inventory.ActivityAdd})[0]
	rev, err := l.Undo(ctx, inventory.UndoInput{ActivityID: add.ID, Reason: "test"})
	require.NoError(t, err)

	t.Run("unknown id", func(t *testing.T) {
		_, err := l.Undo(ctx, inventory.UndoInput{ActivityID: "nope", Reason: "x"})
		assert.ErrorIs(t, err, inventory.ErrActivityNotFound)
		assert.True(t, inventory.IsNotFound(err))
	})
	t.Run("missing reason", func(t *testing.T) {
		_, err := l.Undo(ctx, inventory.UndoInput{ActivityID: rev.ID})
		assert.True(t, inventory.IsClientError(err))
	})
	t.Run("resolution", func(t *testing.T) {
		_, err := l.Undo(ctx, inventory.UndoInput{ActivityID: res.Resolution.ID, Reason: "x"})
		assert.ErrorIs(t, err, inventory.ErrNotReversible)
	})
	t.Run("reversal", func(t *testing.T) {
		_, err := l.Undo(ctx, inventory.UndoInput{ActivityID: rev.ID, Reason: "x"})
		assert.ErrorIs(t, err, inventory.ErrNotReversible)
	})
}

func TestUndo_StockCount_RemovesItsDiscrepancy(t *testing.T) {
	// GIVEN: 12 alpacas counted as 10, opening a discrepancy
	// WHEN: the count is undone
	// THEN: the discrepancy is gone and the books still say 12

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Alpacas", Quantity: 12, Location: "Hill"})
	require.NoError(t, err)
	res, err := l.StockCount(ctx, inventory.StockCountInput{Category: "Alpacas", Location: "Hill", ActualCount: 10})
	require.NoError(t, err)
	require.Len(t, l.Discrepancies(true), 1)

	_, err = l.Undo(ctx, inventory.UndoInput{ActivityID: res.Activity.ID, Reason: "miscounted"})
	require.NoError(t, err)

	assert.Empty(t, l.Discrepancies(false))
	rec, _ := l.Record("Alpacas")
	assert.Equal(t, map[string]int{"Hill": 12}, rec.Locations)
	assert.Len(t, l.StockCounts("Alpacas"), 1, "the audit snapshot is kept")
}

func TestUndo_StockCount_AfterResolution_KeepsCurrentStock(t *testing.T) {
	// GIVEN: 10 cattle counted as 8, two then recorded dead, and a recount
	//        of 8 that resolves the discrepancy
	// WHEN: the first count is undone
	// THEN: stock stays at 8 and the resolved discrepancy is kept

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Cattle", Quantity: 10, Location: "North"})
	require.NoError(t, err)
	first, err := l.StockCount(ctx, inventory.StockCountInput{Category: "Cattle", Location: "North", ActualCount: 8})
	require.NoError(t, err)
	require.Equal(t, inventory.EventOpened, first.Event)

	_, err = l.Death(ctx, inventory.DeathInput{Category: "Cattle", Quantity: 2, Location: "North"})
	require.NoError(t, err)
	second, err := l.StockCount(ctx, inventory.StockCountInput{Category: "Cattle", Location: "North", ActualCount: 8})
	require.NoError(t, err)
	require.Equal(t, inventory.EventResolved, second.Event)

	rev, err := l.Undo(ctx, inventory.UndoInput{ActivityID: first.Activity.ID, Reason: "entered on the wrong day"})
	require.NoError(t, err)
	assert.Equal(t, inventory.ActivityStockCount, rev.OriginalType)

	rec, _ := l.Record("Cattle")
	assert.Equal(t, map[string]int{"North": 8}, rec.Locations)
	assert.Equal(t, 8, rec.Total)

	discrepancies := l.Discrepancies(false)
	require.Len(t, discrepancies, 1)
	assert.Equal(t, inventory.DiscrepancyResolved, discrepancies[0].State)

	_, err = l.Activity(first.Activity.ID)
	assert.ErrorIs(t, err, inventory.ErrActivityNotFound)
	_, err = l.Activity(second.Resolution.ID)
	assert.NoError(t, err, "the resolution entry is untouched")
}
