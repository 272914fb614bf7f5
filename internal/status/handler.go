package status

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kagehq/failover/internal/upstream"
)

// Reserved paths served by the proxy itself rather than forwarded.
const (
	HealthPath = "/__failover/health"
	StatePath  = "/__failover/state"
)

// StateResponse is the read-only snapshot returned by the state endpoint.
type StateResponse struct {
	OnBackup     bool   `json:"on_backup"`
	Primary      string `json:"primary"`
	Backup       string `json:"backup"`
	FailCount    uint32 `json:"fail_count"`
	RecoverCount uint32 `json:"recover_count"`
	SinceUnix    int64  `json:"since_unix"`
}

// Handler exposes the proxy's own liveness and the current failover state.
type Handler struct {
	targets *upstream.Targets
	state   *upstream.State
}

func NewHandler(targets *upstream.Targets, state *upstream.State) *Handler {
	return &Handler{targets: targets, state: state}
}

// Health answers the proxy's own liveness, not the upstream's.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// State returns the current health snapshot. Read-only, always succeeds.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()

	res := StateResponse{
		OnBackup:     !snap.PrimaryHealthy,
		Primary:      h.targets.Primary().String(),
		Backup:       h.targets.Backup().String(),
		FailCount:    snap.FailCount,
		RecoverCount: snap.RecoverCount,
		SinceUnix:    time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
