// Package numerator provides the PostgreSQL implementation of document auto-numbering.
// It implements core/numerator.Generator on top of the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "ordercore/internal/core/numerator"
)

// Querier is the subset of pgxpool.Pool used for sequences.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Service provides document numbering functionality using PostgreSQL.
// Numbers are taken from the pool, outside the business transaction, so a
// rolled-back document may leave a gap.
type Service struct {
	querier Querier

	// cacheMu protects ranges map
	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New(querier Querier) *Service {
	return &Service{
		querier: querier,
		ranges:  make(map[string]*cachedRange),
	}
}

// GetNextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := corenumerator.Key(cfg, period)

	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.getNextCached(ctx, key, opts)
	default:
		num, err = s.reserve(ctx, key, 1)
	}
	if err != nil {
		return "", err
	}

	return corenumerator.Format(cfg, period, num), nil
}

// reserve bumps the sequence by n and returns the new upper bound.
func (s *Service) reserve(ctx context.Context, key string, n int64) (int64, error) {
	var upper int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
		RETURNING current_val
	`, key, n).Scan(&upper)
	if err != nil {
		return 0, fmt.Errorf("reserve sequence %s: %w", key, err)
	}
	return upper, nil
}

// getNextCached fetches next number from memory, refilling from DB if needed.
func (s *Service) getNextCached(ctx context.Context, key string, opts *corenumerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[key]
	if !exists {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50
		}

		upper, err := s.reserve(ctx, key, size)
		if err != nil {
			return 0, err
		}

		// Range is (upper-size, upper].
		rng.current = upper - size
		rng.max = upper
	}

	rng.current++
	return rng.current, nil
}
