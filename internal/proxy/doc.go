// Package proxy implements the request forwarding path. Each inbound
// request reads the routing decision once, rewrites the target against the
// active upstream and relays the buffered request and response. Forwarding
// failures surface to the client as gateway errors and never feed back
// into health state.
package proxy
