package patterns

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Provider hands out the current compiled table and lets a config watcher
// swap in a replacement atomically. Readers snapshot the table once per
// classification, so a reload never changes scoring mid-message.
type Provider struct {
	table  atomic.Pointer[Table]
	logger *zap.Logger
}

// NewProvider creates a provider serving the given table.
func NewProvider(t *Table, logger *zap.Logger) *Provider {
	p := &Provider{logger: logger}
	p.table.Store(t)
	return p
}

// Table returns the current table snapshot.
func (p *Provider) Table() *Table {
	return p.table.Load()
}

// Swap replaces the served table. Safe to call concurrently with readers;
// in-flight classifications keep the generation they started with.
func (p *Provider) Swap(t *Table) {
	p.table.Store(t)
	p.logger.Info("Pattern table swapped",
		zap.Int("categories", len(t.categories)),
		zap.Int("combos", len(t.combos)),
		zap.Bool("fuzzy", t.fuzzy))
}
