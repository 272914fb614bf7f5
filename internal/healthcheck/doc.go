// Package healthcheck implements the failover decision engine. A single
// monitor probes the primary upstream on a fixed interval and applies
// hysteresis before flipping the active upstream: the routing decision
// only changes after a configured number of consecutive identical probe
// outcomes, which prevents flapping on transient errors.
package healthcheck
