// Upstream is a simple test HTTP server used for failover testing. It
// answers every path, identifies itself in responses, and can be toggled
// between healthy and failing at runtime.
//
// Usage:
//
//	go run upstream.go -port 9001 -name primary
//
// Toggle health with POST /__toggle: while "down", every response
// (including health probes) returns 503, which drives the proxy's
// failover after enough consecutive probe failures.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
)

func main() {
	port := flag.Int("port", 9001, "port to listen on")
	name := flag.String("name", "primary", "name reported in responses")
	flag.Parse()

	var down atomic.Bool

	mux := http.NewServeMux()

	mux.HandleFunc("/__toggle", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		nowDown := !down.Load()
		down.Store(nowDown)
		log.Printf("toggled: down=%v", nowDown)
		fmt.Fprintf(w, "down=%v\n", nowDown)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("request: method=%s path=%s from=%s", r.Method, r.URL.Path, r.RemoteAddr)

		if down.Load() {
			http.Error(w, "simulated outage", http.StatusServiceUnavailable)
			return
		}

		resp := map[string]any{
			"upstream": *name,
			"path":     r.URL.Path,
			"query":    r.URL.RawQuery,
			"method":   r.Method,
		}
		b, _ := json.Marshal(resp)
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("starting %s upstream on %s", *name, addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
