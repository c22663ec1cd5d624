/*
scenarios.go - Demo farm data

PURPOSE:
  Pre-built farms for demos and manual testing. Each scenario resets the
  ledger and replays a scripted sequence of ordinary operations, so the
  resulting activity log looks exactly like one a farmer would produce.

AVAILABLE SCENARIOS:
  small-holding:  a few sheep, goats and chickens on two paddocks
  cattle-station: a larger herd with buys, sales, deaths and moves
  count-day:      a stock count that opens a discrepancy, then one that
                  resolves it, plus an open discrepancy left for review

NOTE:
  Loading a scenario discards the current ledger.
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scenario describes a demo dataset.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []struct {
	Scenario
	load func(ctx context.Context, l *Ledger) error
}{
	{
		Scenario: Scenario{
			ID:          "small-holding",
			Name:        "Small Holding",
			Description: "Sheep, goats and chickens across two paddocks",
		},
		load: loadSmallHolding,
	},
	{
		Scenario: Scenario{
			ID:          "cattle-station",
			Name:        "Cattle Station",
			Description: "A commercial herd with purchases, sales, losses and paddock rotation",
		},
		load: loadCattleStation,
	},
	{
		Scenario: Scenario{
			ID:          "count-day",
			Name:        "Count Day",
			Description: "Stock counts that open and resolve discrepancies",
		},
		load: loadCountDay,
	},
}

// Scenarios lists the available demo datasets.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.Scenario
	}
	return out
}

// LoadScenario resets l and replays the scenario with the given ID.
func LoadScenario(ctx context.Context, l *Ledger, id string) error {
	for _, s := range scenarios {
		if s.ID != id {
			continue
		}
		if err := l.Reset(ctx); err != nil {
			return err
		}
		if err := s.load(ctx, l); err != nil {
			return fmt.Errorf("scenario %s: %w", id, err)
		}
		l.logger.Info("scenario loaded", "scenario", id)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
}

// =============================================================================
// LOADERS
// =============================================================================

// step runs fns in order and stops at the first error.
func step(fns ...func() error) error {
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func loadSmallHolding(ctx context.Context, l *Ledger) error {
	return step(
		func() error { return l.AddProperty(ctx, "Home Paddock") },
		func() error { return l.AddProperty(ctx, "Creek Paddock") },
		func() error {
			_, err := l.Add(ctx, AddInput{Category: "Sheep", Quantity: 24, Location: "Home Paddock", Date: "2024-03-01"})
			return err
		},
		func() error {
			_, err := l.Buy(ctx, BuyInput{Category: "Goats", Quantity: 6, Price: price("180"), Location: "Creek Paddock", Supplier: "Valley Sales", Date: "2024-03-04"})
			return err
		},
		func() error {
			_, err := l.Add(ctx, AddInput{Category: "Chickens", Quantity: 30, Date: "2024-03-05", Notes: "Coop flock"})
			return err
		},
		func() error {
			_, err := l.Birth(ctx, BirthInput{Category: "Sheep", Quantity: 5, Location: "Home Paddock", Date: "2024-04-12"})
			return err
		},
		func() error {
			_, err := l.Move(ctx, MoveInput{FromCategory: "Sheep", Quantity: 10, FromLocation: "Home Paddock", ToLocation: "Creek Paddock", Date: "2024-05-01"})
			return err
		},
		func() error {
			_, err := l.Sell(ctx, SellInput{Category: "Chickens", Quantity: 8, Price: price("12.50"), Buyer: "Farmers Market", Date: "2024-05-18"})
			return err
		},
	)
}

func loadCattleStation(ctx context.Context, l *Ledger) error {
	return step(
		func() error { return l.AddProperty(ctx, "North Field") },
		func() error { return l.AddProperty(ctx, "South Field") },
		func() error { return l.AddProperty(ctx, "Feedlot") },
		func() error {
			_, err := l.Buy(ctx, BuyInput{Category: "Cattle", Quantity: 120, Price: price("850"), Location: "North Field", Supplier: "Regional Saleyards", Date: "2024-01-15"})
			return err
		},
		func() error {
			_, err := l.Buy(ctx, BuyInput{Category: "Calves", Quantity: 40, Price: price("420"), Location: "South Field", Supplier: "Regional Saleyards", Date: "2024-01-15"})
			return err
		},
		func() error {
			_, err := l.Move(ctx, MoveInput{FromCategory: "Cattle", Quantity: 30, FromLocation: "North Field", ToLocation: "Feedlot", Date: "2024-02-20"})
			return err
		},
		func() error {
			_, err := l.Death(ctx, DeathInput{Category: "Calves", Quantity: 2, Location: "South Field", Reason: "Scours", Date: "2024-03-02"})
			return err
		},
		func() error {
			_, err := l.Move(ctx, MoveInput{FromCategory: "Calves", ToCategory: "Cattle", Quantity: 15, FromLocation: "South Field", ToLocation: "North Field", Date: "2024-06-30", Notes: "Weaned"})
			return err
		},
		func() error {
			_, err := l.Sell(ctx, SellInput{Category: "Cattle", Quantity: 30, Price: price("1320"), Location: "Feedlot", Buyer: "Processor", Date: "2024-07-10"})
			return err
		},
	)
}

func loadCountDay(ctx context.Context, l *Ledger) error {
	return step(
		func() error { return l.AddProperty(ctx, "Hill Block") },
		func() error {
			_, err := l.Add(ctx, AddInput{Category: "Sheep", Quantity: 200, Location: "Hill Block", Date: "2024-08-01"})
			return err
		},
		func() error {
			_, err := l.Add(ctx, AddInput{Category: "Alpacas", Quantity: 12, Location: "Hill Block", Date: "2024-08-01"})
			return err
		},
		func() error {
			_, err := l.StockCount(ctx, StockCountInput{Category: "Sheep", Location: "Hill Block", ActualCount: 196, CounterName: "Sam", Date: "2024-09-01"})
			return err
		},
		func() error {
			_, err := l.StockCount(ctx, StockCountInput{Category: "Sheep", Location: "Hill Block", ActualCount: 200, CounterName: "Sam", Date: "2024-09-02", Notes: "Recount found the strays"})
			return err
		},
		func() error {
			_, err := l.StockCount(ctx, StockCountInput{Category: "Alpacas", ActualCount: 11, CounterName: "Jo", Date: "2024-09-02"})
			return err
		},
	)
}
