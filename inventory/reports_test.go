package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/farm-ledger/inventory"
)

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistry_Categories(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AddCategory(ctx, "Horses"))
	require.NoError(t, l.AddCategory(ctx, "Donkeys"))
	require.NoError(t, l.AddCategory(ctx, "Horses"))
	assert.Equal(t, []string{"Donkeys", "Horses"}, l.Categories())

	_, err := l.Add(ctx, inventory.AddInput{Category: "Horses", Quantity: 2})
	require.NoError(t, err)

	err = l.RemoveCategory(ctx, "Horses")
	var inUse *inventory.InUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 2, inUse.Count)

	require.NoError(t, l.RemoveCategory(ctx, "Donkeys"))
	assert.ErrorIs(t, l.RemoveCategory(ctx, "Donkeys"), inventory.ErrCategoryNotFound)
	assert.True(t, inventory.IsClientError(l.AddCategory(ctx, " ")))
}

func TestRegistry_Properties(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AddProperty(ctx, "Orchard"))
	assert.True(t, inventory.IsClientError(l.AddProperty(ctx, inventory.Unspecified)))

	_, err := l.Add(ctx, inventory.AddInput{Category: "Sheep", Quantity: 3, Location: "Orchard"})
	require.NoError(t, err)
	assert.ErrorIs(t, l.RemoveProperty(ctx, "Orchard"), inventory.ErrInUse)

	_, err = l.Move(ctx, inventory.MoveInput{FromCategory: "Sheep", Quantity: 3, FromLocation: "Orchard", ToLocation: "Yard"})
	require.NoError(t, err)
	require.NoError(t, l.RemoveProperty(ctx, "Orchard"))
	assert.Equal(t, []string{"Yard"}, l.Properties())
	assert.ErrorIs(t, l.RemoveProperty(ctx, "Orchard"), inventory.ErrPropertyNotFound)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestFinancialSummary(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Buy(ctx, inventory.BuyInput{Category: "Cattle", Quantity: 10, Price: dec("800.25"), Date: "2024-01-10"})
	require.NoError(t, err)
	_, err = l.Buy(ctx, inventory.BuyInput{Category: "Sheep", Quantity: 20, Price: dec("150"), Date: "2024-03-01"})
	require.NoError(t, err)
	_, err = l.Sell(ctx, inventory.SellInput{Category: "Cattle", Quantity: 4, Price: dec("1100.10"), Date: "2024-05-01"})
	require.NoError(t, err)

	sum, err := l.FinancialSummary("", "")
	require.NoError(t, err)
	assert.True(t, sum.Cost.Equal(dec("11002.5")), "cost %s", sum.Cost)
	assert.True(t, sum.Revenue.Equal(dec("4400.4")), "revenue %s", sum.Revenue)
	assert.True(t, sum.Net.Equal(dec("-6602.1")), "net %s", sum.Net)
	assert.Equal(t, 2, sum.Purchases)
	assert.Equal(t, 1, sum.Sales)
	require.Len(t, sum.Categories, 2)
	assert.Equal(t, "Cattle", sum.Categories[0].Category)
	assert.Equal(t, 10, sum.Categories[0].Bought)
	assert.Equal(t, 4, sum.Categories[0].Sold)

	q1, err := l.FinancialSummary("2024-01-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, q1.Revenue.IsZero())
	assert.Equal(t, 2, q1.Purchases)

	_, err = l.FinancialSummary("2024-04-01", "2024-01-01")
	assert.True(t, inventory.IsClientError(err))
	_, err = l.FinancialSummary("April", "")
	assert.True(t, inventory.IsClientError(err))
}

func TestDashboard(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Sheep", Quantity: 30, Location: "Hill"})
	require.NoError(t, err)
	_, err = l.Add(ctx, inventory.AddInput{Category: "Goats", Quantity: 5, Location: "Hill"})
	require.NoError(t, err)
	_, err = l.Add(ctx, inventory.AddInput{Category: "Goats", Quantity: 5})
	require.NoError(t, err)
	_, err = l.StockCount(ctx, inventory.StockCountInput{Category: "Goats", ActualCount: 9})
	require.NoError(t, err)

	d := l.Dashboard(2)
	assert.Equal(t, 40, d.TotalAnimals)
	assert.Equal(t, 2, d.CategoryCount)
	assert.Equal(t, []inventory.CategoryCount{{Category: "Sheep", Total: 30}, {Category: "Goats", Total: 10}}, d.Categories)
	assert.Equal(t, map[string]int{"Hill": 35, inventory.Unspecified: 5}, d.LocationTotals)
	assert.Equal(t, 1, d.UnresolvedDiscrepancies)
	require.Len(t, d.RecentActivities, 2)
	assert.Equal(t, inventory.ActivityStockCount, d.RecentActivities[0].Type)
}

func TestActivities_Filter(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Calves", Quantity: 5, Date: "2024-02-01"})
	require.NoError(t, err)
	_, err = l.Move(ctx, inventory.MoveInput{FromCategory: "Calves", ToCategory: "Cattle", Quantity: 5, Date: "2024-04-01"})
	require.NoError(t, err)
	_, err = l.Sell(ctx, inventory.SellInput{Category: "Cattle", Quantity: 1, Price: dec("900"), Date: "2024-05-01"})
	require.NoError(t, err)

	assert.Len(t, l.Activities(inventory.ActivityFilter{Category: "Cattle"}), 2, "moves match their destination category")
	assert.Len(t, l.Activities(inventory.ActivityFilter{Type: inventory.ActivityAdd}), 1)
	assert.Len(t, l.Activities(inventory.ActivityFilter{From: "2024-03-01"}), 2)
	assert.Len(t, l.Activities(inventory.ActivityFilter{To: "2024-03-01"}), 1)
	assert.Len(t, l.Activities(inventory.ActivityFilter{Limit: 1}), 1)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestLoadScenario_All(t *testing.T) {
	for _, s := range inventory.Scenarios() {
		t.Run(s.ID, func(t *testing.T) {
			l, _ := newTestLedger(t)
			require.NoError(t, inventory.LoadScenario(context.Background(), l, s.ID))
			assert.Positive(t, l.TotalAnimals())
			assert.NotEmpty(t, l.Activities(inventory.ActivityFilter{}))
			requireConsistent(t, l)
		})
	}
}

func TestLoadScenario_ReplacesExistingData(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Emus", Quantity: 3})
	require.NoError(t, err)
	require.NoError(t, inventory.LoadScenario(ctx, l, "count-day"))

	_, ok := l.Record("Emus")
	assert.False(t, ok)
	assert.Len(t, l.Discrepancies(true), 1, "the alpaca count is left open")
	assert.Len(t, l.Discrepancies(false), 2)
}

func TestLoadScenario_Unknown(t *testing.T) {
	l, _ := newTestLedger(t)
	err := inventory.LoadScenario(context.Background(), l, "moon-base")
	assert.True(t, errors.Is(err, inventory.ErrUnknownScenario))
}

// =============================================================================
// METRICS
// =============================================================================

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) (float64, bool) {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			if m.GetGauge() != nil {
				return m.GetGauge().GetValue(), true
			}
			return m.GetCounter().GetValue(), true
		}
	}
	return 0, false
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	l, _ := newTestLedger(t, inventory.WithMetrics(inventory.NewMetrics(reg)))
	ctx := context.Background()

	_, err := l.Add(ctx, inventory.AddInput{Category: "Cattle", Quantity: 10})
	require.NoError(t, err)
	_, err = l.Sell(ctx, inventory.SellInput{Category: "Cattle", Quantity: 20, Price: dec("1")})
	require.Error(t, err)
	_, err = l.StockCount(ctx, inventory.StockCountInput{Category: "Cattle", ActualCount: 9})
	require.NoError(t, err)

	v, ok := gaugeValue(t, reg, "farmledger_animals", map[string]string{"category": "Cattle"})
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	v, ok = gaugeValue(t, reg, "farmledger_unresolved_discrepancies", nil)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = gaugeValue(t, reg, "farmledger_operations_total", map[string]string{"operation": "sell", "outcome": "rejected"})
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = gaugeValue(t, reg, "farmledger_operations_total", map[string]string{"operation": "add", "outcome": "ok"})
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}
