// Package upstream defines the fixed primary/backup pair and the shared
// health state consulted on every forwarded request. The state is written
// only by the health monitor and read concurrently by the request path.
package upstream
