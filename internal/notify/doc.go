// Package notify delivers incident reports to an operator-configured
// webhook in Slack or Discord format. Delivery is best effort: failures
// are logged and swallowed, never surfaced to the health monitor's
// control flow or to request handling.
package notify
