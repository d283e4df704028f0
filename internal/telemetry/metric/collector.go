package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/chainstate-go/internal/storage"
)

// StatsSource reports storage statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*storage.KVStats, error)
}

// StorageCollector reports storage engine statistics at scrape time.
type StorageCollector struct {
	src     StatsSource
	timeout time.Duration

	keys *prometheus.Desc
	size *prometheus.Desc
	up   *prometheus.Desc
}

// NewStorageCollector creates a collector reading src on every scrape.
func NewStorageCollector(src StatsSource) *StorageCollector {
	return &StorageCollector{
		src:     src,
		timeout: 2 * time.Second,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "keys"),
			"Approximate number of keys in the storage engine.", nil, nil),
		size: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "size_bytes"),
			"Storage engine size in bytes.", nil, nil),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "up"),
			"1 if storage statistics could be read.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StorageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.size
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *StorageCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.src.Stats(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(stats.TotalKeys))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(stats.TotalSize))
}
