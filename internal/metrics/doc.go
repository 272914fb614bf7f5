// Package metrics provides real-time metrics collection for the failover proxy.
//
// It uses a channel-based event pipeline to asynchronously collect metrics about:
//   - Forwarded request counts per upstream
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution
//   - Health probe outcomes
//   - Failover and recovery transitions
//
// The collector runs in a dedicated goroutine and processes events without blocking
// the request path or the health monitor. Events are sent via buffered channels with
// non-blocking semantics to prevent performance degradation under load.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.EventChannel() <- metrics.Event{
//		Type:       metrics.EventResponseCompleted,
//		Upstream:   "http://localhost:9001",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	}
//
//	snapshot := collector.Snapshot()
//
// The package provides thread-safe metrics storage using sync.RWMutex and supports
// graceful shutdown with event draining to prevent data loss.
package metrics
