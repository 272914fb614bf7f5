package main

import (
	"net/http"

	"github.com/kagehq/failover/internal/metrics"
	"github.com/kagehq/failover/internal/proxy"
	"github.com/kagehq/failover/internal/status"
)

const metricsPath = "/__failover/metrics"

func setupRouter(forwarder *proxy.Forwarder, statusHandler *status.Handler, collector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", forwarder.ServeHTTP)
	mux.HandleFunc(status.HealthPath, statusHandler.Health)
	mux.HandleFunc(status.StatePath, statusHandler.State)
	mux.HandleFunc(metricsPath, collector.Handler())

	return mux
}
