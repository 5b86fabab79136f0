package numerator

import (
	"context"
	"sync"
	"time"
)

// Generator generates sequential document numbers.
// Implementations live in the infrastructure layer; MemoryGenerator serves
// tests and the database-less development mode.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}

// MemoryGenerator keeps one counter per sequence key in process memory.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryGenerator creates an empty in-memory generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

// GetNextNumber implements Generator. Strategy is ignored: memory is always gapless.
func (g *MemoryGenerator) GetNextNumber(ctx context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := Key(cfg, period)

	g.mu.Lock()
	g.counters[key]++
	n := g.counters[key]
	g.mu.Unlock()

	return Format(cfg, period, n), nil
}

var _ Generator = (*MemoryGenerator)(nil)
