package healthcheck_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kagehq/failover/config"
	"github.com/kagehq/failover/internal/healthcheck"
	"github.com/kagehq/failover/internal/notify"
	"github.com/kagehq/failover/internal/upstream"
)

func TestHealthcheck(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Healthcheck Suite")
}

var _ = Describe("Monitor", func() {
	var (
		log       *slog.Logger
		state     *upstream.State
		primaryUp atomic.Bool
		primary   *httptest.Server
		backup    *httptest.Server
		targets   *upstream.Targets
		monitor   *healthcheck.Monitor
		ctx       context.Context
	)

	newMonitor := func(failThreshold, recoverThreshold uint32) *healthcheck.Monitor {
		return healthcheck.NewMonitor(state, targets, healthcheck.Options{
			Interval:         50 * time.Millisecond,
			ProbeTimeout:     time.Second,
			FailThreshold:    failThreshold,
			RecoverThreshold: recoverThreshold,
		}, notify.New("", config.WebhookFormatSlack, log), nil, log)
	}

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		ctx = context.Background()
		state = upstream.NewState()

		primaryUp.Store(true)
		primary = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if primaryUp.Load() {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		}))
		backup = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		var err error
		targets, err = upstream.NewTargets(primary.URL, backup.URL)
		Expect(err).NotTo(HaveOccurred())

		monitor = newMonitor(3, 2)
	})

	AfterEach(func() {
		primary.Close()
		backup.Close()
	})

	Describe("hysteresis", func() {
		It("should stay healthy below the fail threshold", func() {
			primaryUp.Store(false)

			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)

			Expect(state.PrimaryHealthy()).To(BeTrue())
			Expect(state.FailCount()).To(Equal(uint32(2)))
		})

		It("should fail over after exactly failThreshold consecutive failures", func() {
			primaryUp.Store(false)

			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeTrue())

			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())
			Expect(state.FailoverStartedAt().IsZero()).To(BeFalse())
		})

		It("should reset partial failures on a single success", func() {
			// fail, fail, success, fail, fail, fail: the transition needs the
			// second full run of three consecutive failures.
			primaryUp.Store(false)
			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)

			primaryUp.Store(true)
			monitor.CheckOnce(ctx)
			Expect(state.FailCount()).To(Equal(uint32(0)))
			Expect(state.PrimaryHealthy()).To(BeTrue())

			primaryUp.Store(false)
			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeTrue())

			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())
		})

		It("should recover after exactly recoverThreshold consecutive successes", func() {
			primaryUp.Store(false)
			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())

			primaryUp.Store(true)
			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())
			Expect(state.RecoverCount()).To(Equal(uint32(1)))

			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeTrue())
			Expect(state.FailoverStartedAt().IsZero()).To(BeTrue())
		})

		It("should reset recovery progress on an interleaved failure", func() {
			primaryUp.Store(false)
			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())

			primaryUp.Store(true)
			monitor.CheckOnce(ctx)
			Expect(state.RecoverCount()).To(Equal(uint32(1)))

			// A failure while down is a no-op on the flag but the recovery
			// run is no longer consecutive.
			primaryUp.Store(false)
			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())

			primaryUp.Store(true)
			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())
			monitor.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeTrue())
		})

		It("should not re-report failures while already on backup", func() {
			primaryUp.Store(false)
			for i := 0; i < 6; i++ {
				monitor.CheckOnce(ctx)
			}

			Expect(state.PrimaryHealthy()).To(BeFalse())
			Expect(state.RecoverCount()).To(Equal(uint32(0)))
		})

		It("should keep failCount at zero across repeated successes while healthy", func() {
			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)
			monitor.CheckOnce(ctx)

			Expect(state.PrimaryHealthy()).To(BeTrue())
			Expect(state.FailCount()).To(Equal(uint32(0)))
		})
	})

	Describe("probe outcomes", func() {
		It("should treat a non-2xx response as a failure", func() {
			primaryUp.Store(false)
			monitor.CheckOnce(ctx)
			Expect(state.FailCount()).To(Equal(uint32(1)))
		})

		It("should treat an unreachable primary as a failure", func() {
			primary.Close()
			monitor.CheckOnce(ctx)
			Expect(state.FailCount()).To(Equal(uint32(1)))
		})
	})

	Describe("with thresholds of one", func() {
		It("should flip on every outcome change", func() {
			m := newMonitor(1, 1)

			primaryUp.Store(false)
			m.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())

			primaryUp.Store(true)
			m.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeTrue())
		})
	})

	Describe("notifications", func() {
		var (
			events  chan string
			webhook *httptest.Server
		)

		BeforeEach(func() {
			events = make(chan string, 4)
			webhook = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				events <- r.URL.Path
				w.WriteHeader(http.StatusOK)
			}))
		})

		AfterEach(func() {
			webhook.Close()
		})

		It("should notify exactly once per transition", func() {
			notifier := notify.New(webhook.URL, config.WebhookFormatSlack, log)
			m := healthcheck.NewMonitor(state, targets, healthcheck.Options{
				Interval:         50 * time.Millisecond,
				ProbeTimeout:     time.Second,
				FailThreshold:    2,
				RecoverThreshold: 1,
			}, notifier, nil, log)

			primaryUp.Store(false)
			m.CheckOnce(ctx)
			Consistently(events).ShouldNot(Receive())

			m.CheckOnce(ctx)
			Eventually(events).Should(Receive())

			// Further failures while on backup do not notify again.
			m.CheckOnce(ctx)
			Consistently(events).ShouldNot(Receive())

			primaryUp.Store(true)
			m.CheckOnce(ctx)
			Eventually(events).Should(Receive())
		})

		It("should not let a failing webhook affect state", func() {
			notifier := notify.New("http://127.0.0.1:1", config.WebhookFormatSlack, log)
			m := healthcheck.NewMonitor(state, targets, healthcheck.Options{
				Interval:         50 * time.Millisecond,
				ProbeTimeout:     time.Second,
				FailThreshold:    1,
				RecoverThreshold: 1,
			}, notifier, nil, log)

			primaryUp.Store(false)
			m.CheckOnce(ctx)
			Expect(state.PrimaryHealthy()).To(BeFalse())
		})
	})

	Describe("Run", func() {
		It("should tick until the context is cancelled", func() {
			runCtx, cancel := context.WithCancel(context.Background())

			primaryUp.Store(false)
			go monitor.Run(runCtx)

			Eventually(func() bool {
				return state.PrimaryHealthy()
			}, time.Second).Should(BeFalse())

			cancel()
		})

		It("should stop cleanly when cancelled immediately", func() {
			runCtx, cancel := context.WithCancel(context.Background())
			cancel()

			done := make(chan struct{})
			go func() {
				monitor.Run(runCtx)
				close(done)
			}()

			Eventually(done).Should(BeClosed())
		})
	})
})
