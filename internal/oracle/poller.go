package oracle

import (
	"context"
	"log/slog"
	"time"

	"github.com/lendfi/loan-engine/internal/metrics"
)

// Poller periodically refreshes prices from a source and hands each fresh
// table to a callback (typically a WebSocket broadcast).
type Poller struct {
	source   PriceSource
	interval time.Duration
	onUpdate func(map[string]uint64)
}

// NewPoller creates a poller. onUpdate may be nil.
func NewPoller(source PriceSource, interval time.Duration, onUpdate func(map[string]uint64)) *Poller {
	return &Poller{
		source:   source,
		interval: interval,
		onUpdate: onUpdate,
	}
}

// Run polls until the context is cancelled. Must be called in a goroutine.
// Fetch failures are logged and counted; the previous table stays in effect.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	prices, err := p.source.Prices(ctx)
	if err != nil {
		metrics.OracleRefreshErrorsTotal.Inc()
		slog.Error("oracle refresh failed", "err", err)
		return
	}
	metrics.OracleRefreshesTotal.Inc()
	if p.onUpdate != nil {
		p.onUpdate(prices)
	}
}
