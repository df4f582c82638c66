// Package metrics exposes the Prometheus registry used by posts-sync.
// All metrics are defined in their respective packages (client, pagination,
// sink, checkpoint, batch) to maintain modularity and avoid circular
// dependencies.
//
// This package provides the scrape handler and a reference for all
// available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by posts-sync.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - posts_sync_api_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - posts_sync_api_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - posts_sync_api_errors_total{class} (Counter): Errors by class (client, server, unexpected_status, network, decode)
//
// Page Cache Metrics (pkg/pagination):
//   - posts_sync_page_cache_hits_total (Counter): Page lookups served from the per-invocation cache
//   - posts_sync_page_cache_misses_total (Counter): Page lookups that required a request
//
// Sink Metrics (pkg/sink):
//   - posts_sync_upserts_total{result} (Counter): Upserts by result (created, updated, error)
//
// Checkpoint Metrics (pkg/checkpoint):
//   - posts_sync_checkpoint_ops_total{op} (Counter): Store operations (load, save, delete)
//   - posts_sync_checkpoint_errors_total{op} (Counter): Failed store operations
//
// Batch Metrics (pkg/batch):
//   - posts_sync_batch_invocations_total (Counter): Job invocations that did work
//   - posts_sync_batch_items_total{outcome} (Counter): Items by outcome (synced, failed)
//   - posts_sync_batch_last_fraction (Gauge): Completion fraction of the latest invocation
//
// Example Prometheus Queries:
//
//   # Page Cache Hit Rate
//   sum(rate(posts_sync_page_cache_hits_total[5m])) /
//   (sum(rate(posts_sync_page_cache_hits_total[5m])) + sum(rate(posts_sync_page_cache_misses_total[5m])))
//
//   # Item Failure Rate
//   rate(posts_sync_batch_items_total{outcome="failed"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(posts_sync_api_request_duration_seconds_bucket[5m]))
//
//   # New vs Updated Nodes
//   sum by (result) (rate(posts_sync_upserts_total[5m]))
