package pricing

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"mealbudget"
)

// StoreQuery renders the store/location pair used in price queries.
func StoreQuery(store, location string) string {
	return store + " in " + location
}

// ListPricer prices a whole grocery list. Item lookups are independent and
// run concurrently up to the configured limit; order does not affect the
// aggregate total.
type ListPricer struct {
	lookup      mealbudget.PriceLookup
	store       string
	concurrency int
}

// NewListPricer initializes a new list pricer. concurrency values below 1
// fall back to serial lookups.
func NewListPricer(lookup mealbudget.PriceLookup, store string, concurrency int) *ListPricer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ListPricer{
		lookup:      lookup,
		store:       store,
		concurrency: concurrency,
	}
}

// PriceList returns a copy of the list with unit prices filled in. Items
// whose lookup failed keep a nil price and flip Incomplete; only a canceled
// context fails the call as a whole.
func (p *ListPricer) PriceList(ctx context.Context, list mealbudget.GroceryList) (mealbudget.GroceryList, error) {
	out := list
	out.Items = make([]mealbudget.GroceryItem, len(list.Items))
	copy(out.Items, list.Items)

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i := range out.Items {
		wg.Add(1)
		sem <- struct{}{}
		go func(item *mealbudget.GroceryItem) {
			defer wg.Done()
			defer func() { <-sem }()

			amount, err := p.lookup.Price(ctx, item.Name, p.store)
			if err != nil {
				if !errors.Is(err, mealbudget.ErrPriceUnavailable) {
					slog.Warn("PRICER: Unexpected lookup error", "item", item.Name, "error", err)
				}
				return
			}
			item.UnitPrice = &amount
		}(&out.Items[i])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return mealbudget.GroceryList{}, err
	}

	out.Incomplete = false
	for _, it := range out.Items {
		if it.UnitPrice == nil {
			out.Incomplete = true
			slog.Info("PRICER: Item left unpriced", "item", it.Name)
		}
	}
	return out, nil
}
