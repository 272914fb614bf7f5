package healthcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kagehq/failover/internal/metrics"
	"github.com/kagehq/failover/internal/notify"
	"github.com/kagehq/failover/internal/upstream"
)

// Options configures a Monitor.
type Options struct {
	Interval         time.Duration
	ProbeTimeout     time.Duration
	ProbePath        string
	FailThreshold    uint32
	RecoverThreshold uint32
}

// Monitor owns the authoritative routing decision. It is the only writer
// of the shared health state; ticks run strictly sequentially, so counters
// are never updated concurrently with themselves.
type Monitor struct {
	state     *upstream.State
	targets   *upstream.Targets
	opts      Options
	client    *http.Client
	probeURL  string
	notifier  *notify.Notifier
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewMonitor creates the health monitor. The probe client carries its own
// timeout, independent of (and shorter than) the forwarding timeout.
func NewMonitor(
	state *upstream.State,
	targets *upstream.Targets,
	opts Options,
	notifier *notify.Notifier,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Monitor {
	probeURL := targets.Primary().String()
	if opts.ProbePath != "" {
		probeURL = targets.Primary().ResolveReference(&url.URL{Path: opts.ProbePath}).String()
	}

	return &Monitor{
		state:   state,
		targets: targets,
		opts:    opts,
		client: &http.Client{
			Timeout: opts.ProbeTimeout,
		},
		probeURL:  probeURL,
		notifier:  notifier,
		collector: collector,
		logger:    logger,
	}
}

// Run drives the check loop until the context is cancelled. The next tick
// is not scheduled before the previous one, including any notification
// dispatch, has completed.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.logger.Info("Health monitor started",
		slog.String("probe", m.probeURL),
		slog.Duration("interval", m.opts.Interval),
		slog.Uint64("fail_threshold", uint64(m.opts.FailThreshold)),
		slog.Uint64("recover_threshold", uint64(m.opts.RecoverThreshold)))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Health monitor stopped")
			return
		case <-ticker.C:
			m.CheckOnce(ctx)
		}
	}
}

// CheckOnce performs one probe and applies the hysteresis state machine.
// Probe errors are expected, recoverable conditions; they drive counters
// and never abort the loop.
func (m *Monitor) CheckOnce(ctx context.Context) {
	err := m.probe(ctx)

	if m.collector != nil {
		m.collector.Emit(metrics.Event{
			Type:      metrics.EventProbeResult,
			Timestamp: time.Now(),
			Upstream:  m.targets.Primary().String(),
			Success:   err == nil,
		})
	}

	if err == nil {
		m.handleProbeSuccess(ctx)
	} else {
		m.handleProbeFailure(ctx, err)
	}
}

func (m *Monitor) handleProbeSuccess(ctx context.Context) {
	if m.state.PrimaryHealthy() {
		// A single success cancels partial accumulation; the threshold
		// requires consecutive failures.
		m.state.ResetFail()
		return
	}

	count := m.state.IncrementRecover()
	if count < m.opts.RecoverThreshold {
		m.logger.Debug("Primary probe succeeded while on backup",
			slog.Uint64("recover_count", uint64(count)),
			slog.Uint64("recover_threshold", uint64(m.opts.RecoverThreshold)))
		return
	}

	now := time.Now()
	downtime, changed := m.state.MarkHealthy(now)
	if !changed {
		return
	}

	m.logger.Info("Primary recovered, switching back",
		slog.String("primary", m.targets.Primary().String()),
		slog.Duration("downtime", downtime))

	if m.collector != nil {
		m.collector.Emit(metrics.Event{
			Type:      metrics.EventTransition,
			Timestamp: now,
			ToBackup:  false,
		})
	}

	report := notify.NewRecoveryReport(now,
		m.targets.Primary().String(), m.targets.Backup().String(), downtime)
	m.notifier.Send(ctx, report)
}

func (m *Monitor) handleProbeFailure(ctx context.Context, probeErr error) {
	if !m.state.PrimaryHealthy() {
		// Already routing to backup; failures while down are not
		// re-reported, but they break a recovery run.
		m.state.ResetRecover()
		return
	}

	count := m.state.IncrementFail()
	if count < m.opts.FailThreshold {
		m.logger.Warn("Primary probe failed",
			slog.Uint64("fail_count", uint64(count)),
			slog.Uint64("fail_threshold", uint64(m.opts.FailThreshold)),
			slog.Any("err", probeErr))
		return
	}

	now := time.Now()
	if !m.state.MarkUnhealthy(now) {
		return
	}

	m.logger.Warn("Primary failed, switching to backup",
		slog.String("primary", m.targets.Primary().String()),
		slog.String("backup", m.targets.Backup().String()),
		slog.Uint64("fail_count", uint64(count)),
		slog.Any("err", probeErr))

	if m.collector != nil {
		m.collector.Emit(metrics.Event{
			Type:      metrics.EventTransition,
			Timestamp: now,
			ToBackup:  true,
		})
	}

	report := notify.NewFailoverReport(now,
		m.targets.Primary().String(), m.targets.Backup().String(), count, probeErr)
	m.notifier.Send(ctx, report)
}

func (m *Monitor) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		return err
	}

	res, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", res.StatusCode)
	}

	return nil
}
