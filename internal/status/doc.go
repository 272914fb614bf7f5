// Package status serves the proxy's reserved introspection endpoints:
// a liveness check and a read-only JSON snapshot of the failover state.
package status
