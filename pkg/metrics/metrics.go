// Package metrics exposes the exporter's Prometheus metrics.
// The metrics themselves are defined next to the code that records them
// (client, ratelimit, pagination, catalog, export) and registered via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every exporter metric is registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads back what was registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics of Gatherer in the Prometheus text format and
// counts its own scrapes in Registry.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - catalog_requests_total{endpoint, status} (Counter): Requests by endpoint label and HTTP status
//   - catalog_request_duration_seconds{endpoint} (Histogram): Request duration, retries included
//   - catalog_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff waited before a retry
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that used up their attempts
//   - catalog_circuit_breaker_state (Gauge): 0 closed, 1 half-open, 2 open
//   - catalog_circuit_open_total (Counter): Times the breaker opened
//
// Throttle Metrics (pkg/ratelimit):
//   - catalog_throttles_total (Counter): 429 responses recorded
//   - catalog_consecutive_throttles (Gauge): 429 responses since the last success
//   - catalog_throttle_wait_seconds (Histogram): Time spent waiting out a throttle window
//
// Walk Metrics (pkg/pagination, pkg/catalog):
//   - catalog_pages_fetched_total{source} (Counter): Pages fetched per paginated source
//   - catalog_categories_walked_total{outcome} (Counter): Categories finished or failed
//   - catalog_items_normalized_total (Counter): Records turned into items
//   - catalog_resale_source_hits_total{source} (Counter): Resale lookups answered per source
//   - catalog_reseller_decode_failures_total (Counter): Reseller lists replaced by "error"
//
// Export Metrics (pkg/export):
//   - catalog_rows_exported_total{format} (Counter): Rows written per output format
//
// Example Prometheus Queries:
//
//   # Share of requests answered with 429
//   sum(rate(catalog_requests_total{status="429"}[5m])) / sum(rate(catalog_requests_total[5m]))
//
//   # Which resale source answers most lookups
//   sum by (source) (catalog_resale_source_hits_total)
//
//   # P95 request latency per endpoint
//   histogram_quantile(0.95, sum by (le, endpoint) (rate(catalog_request_duration_seconds_bucket[5m])))
