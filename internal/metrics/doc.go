// Package metrics declares the Prometheus collectors exported by the
// preview service: pipeline throughput and latency by entry path, HTTP
// request metrics, and cache effectiveness counters.
package metrics
