package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	DefaultTTL     = 30 * time.Minute
	DefaultMaxCost = 8 << 20 // bytes of cached summaries
)

// Summarizer reports alongside each summary whether it is final. Results
// that are not (every model failed) are passed through uncached.
type Summarizer interface {
	TrySummarize(ctx context.Context, text string) (string, bool)
}

// Cache memoizes summaries by their source description. Comments on the same
// issue carry the same description, so repeated deliveries skip the API.
type Cache struct {
	summarizer Summarizer
	ttl        time.Duration
	entries    *ristretto.Cache[string, string]
}

func New(summarizer Summarizer, ttl time.Duration, maxCost int64) (*Cache, error) {
	entries, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: maxCost / 100 * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{
		summarizer: summarizer,
		ttl:        ttl,
		entries:    entries,
	}, nil
}

func (c *Cache) Summarize(ctx context.Context, text string) string {
	if summary, ok := c.entries.Get(text); ok {
		return summary
	}

	summary, ok := c.summarizer.TrySummarize(ctx, text)
	if !ok {
		return summary
	}
	c.entries.SetWithTTL(text, summary, int64(len(text)+len(summary)), c.ttl)
	c.entries.Wait()

	return summary
}

func (c *Cache) Close() {
	c.entries.Close()
}
