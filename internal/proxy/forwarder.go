package proxy

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/kagehq/failover/internal/metrics"
	"github.com/kagehq/failover/internal/upstream"
)

// Hop-by-hop headers are meaningful for a single connection and must not
// cross the proxy boundary, in either direction.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// Forwarder relays each inbound request to the currently active upstream.
// It reads the shared health state but never mutates it.
type Forwarder struct {
	targets     *upstream.Targets
	state       *upstream.State
	client      *http.Client
	maxBodySize int64
	collector   *metrics.Collector
	logger      *slog.Logger
}

// NewForwarder creates the forwarding handler. The client is the shared
// outbound connection pool; its timeout bounds every forward.
func NewForwarder(
	targets *upstream.Targets,
	state *upstream.State,
	client *http.Client,
	maxBodySize int64,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Forwarder {
	return &Forwarder{
		targets:     targets,
		state:       state,
		client:      client,
		maxBodySize: maxBodySize,
		collector:   collector,
		logger:      logger,
	}
}

func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Single atomic load; a transition after this point does not abort
	// the in-flight forward.
	base := f.targets.Select(f.state.PrimaryHealthy())

	f.logger.Debug("Received request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("host", r.Host),
		slog.String("upstream", base.String()))

	body, err := f.readBody(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	target, err := buildTargetURL(base, r.URL)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, bytes.NewReader(body))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	out.ContentLength = int64(len(body))
	copyHeaders(out.Header, r.Header)

	f.emit(metrics.Event{
		Type:      metrics.EventRequestForwarded,
		Timestamp: time.Now(),
		Upstream:  base.String(),
	})

	start := time.Now()

	res, err := f.client.Do(out)
	if err != nil {
		f.logger.Error("Forward failed",
			slog.String("upstream", base.String()),
			slog.String("target", target),
			slog.Any("err", err))
		http.Error(w, "Bad gateway", http.StatusBadGateway)
		return
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		f.logger.Error("Failed to read upstream response",
			slog.String("upstream", base.String()),
			slog.Any("err", err))
		http.Error(w, "Bad gateway", http.StatusBadGateway)
		return
	}

	copyHeaders(w.Header(), res.Header)
	w.WriteHeader(res.StatusCode)
	if _, err := w.Write(resBody); err != nil {
		f.logger.Warn("Failed to write response to client", slog.Any("err", err))
	}

	f.emit(metrics.Event{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Upstream:   base.String(),
		Duration:   time.Since(start),
		StatusCode: res.StatusCode,
	})
}

// readBody buffers the full inbound body, bounded by the configured
// maximum. A body exactly at the limit is accepted.
func (f *Forwarder) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	limited := http.MaxBytesReader(w, r.Body, f.maxBodySize)
	defer limited.Close()

	return io.ReadAll(limited)
}

// buildTargetURL resolves the original path and query against the selected
// base URL.
func buildTargetURL(base *url.URL, original *url.URL) (string, error) {
	ref := &url.URL{
		Path:     original.Path,
		RawQuery: original.RawQuery,
	}

	target := base.ResolveReference(ref)
	if target.Scheme == "" || target.Host == "" {
		return "", errors.New("unresolvable target URL")
	}

	return target.String(), nil
}

// copyHeaders copies everything except hop-by-hop headers and any header
// named by the Connection header. Values that are not valid for
// re-transmission are dropped rather than failing the request.
func copyHeaders(dst, src http.Header) {
	connectionNamed := map[string]struct{}{}
	for _, value := range src.Values("Connection") {
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				connectionNamed[http.CanonicalHeaderKey(name)] = struct{}{}
			}
		}
	}

	for name, values := range src {
		canonical := http.CanonicalHeaderKey(name)
		if _, hop := hopByHopHeaders[canonical]; hop {
			continue
		}
		if _, named := connectionNamed[canonical]; named {
			continue
		}
		if !httpguts.ValidHeaderFieldName(canonical) {
			continue
		}
		for _, value := range values {
			if !httpguts.ValidHeaderFieldValue(value) {
				continue
			}
			dst.Add(canonical, value)
		}
	}
}

func (f *Forwarder) emit(event metrics.Event) {
	if f.collector == nil {
		return
	}
	f.collector.Emit(event)
}
