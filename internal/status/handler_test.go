package status_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kagehq/failover/internal/status"
	"github.com/kagehq/failover/internal/upstream"
)

func TestStatus(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Status Suite")
}

var _ = Describe("Handler", func() {
	var (
		state   *upstream.State
		handler *status.Handler
	)

	BeforeEach(func() {
		var err error
		targets, err := upstream.NewTargets("http://localhost:9001", "http://localhost:9002")
		Expect(err).NotTo(HaveOccurred())
		state = upstream.NewState()
		handler = status.NewHandler(targets, state)
	})

	Describe("Health", func() {
		It("should always answer 200 OK", func() {
			req := httptest.NewRequest(http.MethodGet, status.HealthPath, nil)
			rec := httptest.NewRecorder()

			handler.Health(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("OK"))
		})
	})

	Describe("State", func() {
		It("should report primary routing at startup", func() {
			req := httptest.NewRequest(http.MethodGet, status.StatePath, nil)
			rec := httptest.NewRecorder()

			handler.State(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var res status.StateResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
			Expect(res.OnBackup).To(BeFalse())
			Expect(res.Primary).To(Equal("http://localhost:9001"))
			Expect(res.Backup).To(Equal("http://localhost:9002"))
			Expect(res.FailCount).To(Equal(uint32(0)))
			Expect(res.RecoverCount).To(Equal(uint32(0)))
			Expect(res.SinceUnix).To(BeNumerically(">", 0))
		})

		It("should reflect backup routing and counters", func() {
			state.IncrementFail()
			state.IncrementFail()
			state.IncrementFail()
			state.MarkUnhealthy(time.Now())
			state.IncrementRecover()

			req := httptest.NewRequest(http.MethodGet, status.StatePath, nil)
			rec := httptest.NewRecorder()

			handler.State(rec, req)

			var res status.StateResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
			Expect(res.OnBackup).To(BeTrue())
			Expect(res.FailCount).To(Equal(uint32(3)))
			Expect(res.RecoverCount).To(Equal(uint32(1)))
		})

		It("should emit the exact field set", func() {
			req := httptest.NewRequest(http.MethodGet, status.StatePath, nil)
			rec := httptest.NewRecorder()

			handler.State(rec, req)

			var fields map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &fields)).To(Succeed())
			Expect(fields).To(HaveLen(6))
			for _, key := range []string{"on_backup", "primary", "backup", "fail_count", "recover_count", "since_unix"} {
				Expect(fields).To(HaveKey(key))
			}
		})
	})
})
