package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/powerdesk/trade-report/internal/metrics"
	"github.com/powerdesk/trade-report/internal/report"
)

// MetricsCache keeps computed report summaries in Redis, keyed by delivery
// window, so repeated requests for the same window skip the full rebuild.
// Cache errors are treated as misses; Redis being down only costs a rebuild.
type MetricsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMetricsCache creates a report-summary cache with the given TTL.
func NewMetricsCache(rdb *redis.Client, ttl time.Duration) *MetricsCache {
	return &MetricsCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached summary for a window, if present.
func (c *MetricsCache) Get(ctx context.Context, from, to time.Time) (report.KeyMetrics, bool) {
	data, err := c.rdb.Get(ctx, windowKey(from, to)).Bytes()
	if err != nil {
		metrics.CacheMisses.Inc()
		return report.KeyMetrics{}, false
	}
	var m report.KeyMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		metrics.CacheMisses.Inc()
		return report.KeyMetrics{}, false
	}
	metrics.CacheHits.Inc()
	return m, true
}

// Set stores a computed summary under its window key.
func (c *MetricsCache) Set(ctx context.Context, m report.KeyMetrics) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, windowKey(m.DeliveryFrom, m.DeliveryTo), data, c.ttl)
}

func windowKey(from, to time.Time) string {
	return fmt.Sprintf("report:%d:%d", from.Unix(), to.Unix())
}
