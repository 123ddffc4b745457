package exchange

import (
	"time"

	"github.com/boddenberg/corebank-ledger-go/internal/infra/cache"
)

// CachedConverter memoizes effective pairwise rates in front of the
// graph's path search. Rates are static for the life of the process,
// so the TTL only bounds memory on pathological currency sets.
type CachedConverter struct {
	graph *Graph
	rates *cache.InMemory[float64]
}

// NewCachedConverter wraps a graph with a rate cache.
func NewCachedConverter(g *Graph, ttl time.Duration) *CachedConverter {
	return &CachedConverter{
		graph: g,
		rates: cache.New[float64](ttl),
	}
}

// Convert resolves the cached rate for the currency pair and applies
// it. Failed lookups are never cached.
func (c *CachedConverter) Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	key := from + "->" + to
	if rate, ok := c.rates.Get(key); ok {
		return amount * rate, nil
	}
	rate, err := c.graph.Rate(from, to)
	if err != nil {
		return 0, err
	}
	c.rates.Set(key, rate)
	return amount * rate, nil
}

// Knows reports whether the underlying graph knows the currency.
func (c *CachedConverter) Knows(currency string) bool {
	return c.graph.Knows(currency)
}
