package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "SO-2026-00001", Format(DefaultConfig("SO"), period, 1))
	assert.Equal(t, "INV-00042", Format(Config{Prefix: "INV"}, period, 42))
	assert.Equal(t, "PO-2026-007", Format(Config{Prefix: "PO", IncludeYear: true, PadWidth: 3}, period, 7))
}

func TestKey(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "SO_2026", Key(DefaultConfig("SO"), period))
	assert.Equal(t, "SO_2026_03", Key(Config{Prefix: "SO", ResetPeriod: "month"}, period))
	assert.Equal(t, "SO", Key(Config{Prefix: "SO", ResetPeriod: "never"}, period))
}

func TestMemoryGeneratorSequencesPerKey(t *testing.T) {
	g := NewMemoryGenerator()
	ctx := context.Background()
	period := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n1, err := g.GetNextNumber(ctx, DefaultConfig("SO"), nil, period)
	require.NoError(t, err)
	n2, err := g.GetNextNumber(ctx, DefaultConfig("SO"), nil, period)
	require.NoError(t, err)
	p1, err := g.GetNextNumber(ctx, DefaultConfig("PO"), nil, period)
	require.NoError(t, err)
	next, err := g.GetNextNumber(ctx, DefaultConfig("SO"), nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, "SO-2026-00001", n1)
	assert.Equal(t, "SO-2026-00002", n2)
	assert.Equal(t, "PO-2026-00001", p1)
	assert.Equal(t, "SO-2027-00001", next)
}

func TestMemoryGeneratorConcurrent(t *testing.T) {
	g := NewMemoryGenerator()
	ctx := context.Background()
	period := time.Now()

	const workers = 50
	seen := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := g.GetNextNumber(ctx, DefaultConfig("INV"), nil, period)
			assert.NoError(t, err)
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[string]struct{})
	for n := range seen {
		unique[n] = struct{}{}
	}
	assert.Len(t, unique, workers)
}

func TestMemoryGeneratorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryGenerator().GetNextNumber(ctx, DefaultConfig("SO"), nil, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
