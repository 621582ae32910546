// Package oracle supplies collateral asset prices to the calculation
// endpoints. Prices are integer micro-USD per whole unit (1e-6 USD), never
// floats. Implementations include an HTTP feed (source of truth), Redis
// (read-through cache), and a static in-memory source for testing and for
// running without a feed.
package oracle

import (
	"context"
	"errors"
	"sync"
)

// ErrUnknownSymbol is returned when a source has no price for a symbol.
var ErrUnknownSymbol = errors.New("oracle: unknown symbol")

// PriceSource provides current prices in micro-USD per whole unit.
type PriceSource interface {
	// Prices returns the full price table.
	Prices(ctx context.Context) (map[string]uint64, error)

	// Price returns the price of one symbol.
	Price(ctx context.Context, symbol string) (uint64, error)
}

// StaticSource is an in-memory PriceSource. Safe for concurrent use.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[string]uint64
}

// NewStaticSource creates a source seeded with the given table. The map is
// copied; later mutations of the argument do not leak in.
func NewStaticSource(prices map[string]uint64) *StaticSource {
	s := &StaticSource{prices: make(map[string]uint64, len(prices))}
	for sym, p := range prices {
		s.prices[sym] = p
	}
	return s
}

// Prices returns a copy of the table.
func (s *StaticSource) Prices(_ context.Context) (map[string]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]uint64, len(s.prices))
	for sym, p := range s.prices {
		out[sym] = p
	}
	return out, nil
}

// Price returns one symbol's price.
func (s *StaticSource) Price(_ context.Context, symbol string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	if !ok {
		return 0, ErrUnknownSymbol
	}
	return p, nil
}

// Set updates one symbol's price.
func (s *StaticSource) Set(symbol string, price uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}
