package metrics_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/edge-filter/internal/metrics"
)

type fixedStates map[string]string

func (f fixedStates) States() map[string]string { return f }

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	It("should process request events", func() {
		collector.Start(ctx)

		Expect(collector.Emit(metrics.Event{
			Type:       metrics.EventRequestHandled,
			Outcome:    "forbidden",
			StatusCode: 403,
		})).To(BeTrue())

		Eventually(func() int64 {
			return collector.Snapshot().Outcomes["forbidden"]
		}).Should(Equal(int64(1)))
	})

	It("should process upstream events", func() {
		collector.Start(ctx)

		collector.Emit(metrics.Event{
			Type:       metrics.EventUpstreamCompleted,
			Upstream:   "userstorage.mega.co.nz",
			Duration:   50 * time.Millisecond,
			StatusCode: 206,
		})
		collector.Emit(metrics.Event{
			Type:     metrics.EventUpstreamFailed,
			Upstream: "userstorage.mega.co.nz",
		})

		Eventually(func() metrics.UpstreamMetrics {
			return collector.Snapshot().Upstreams["userstorage.mega.co.nz"]
		}).Should(And(
			HaveField("Requests", int64(2)),
			HaveField("Failures", int64(1)),
			HaveField("AvgResponse", 50*time.Millisecond),
		))
	})

	It("should drain queued events on cancellation", func() {
		for i := 0; i < 5; i++ {
			collector.Emit(metrics.Event{Type: metrics.EventRequestHandled, Outcome: "static", StatusCode: 404})
		}

		collector.Start(ctx)
		cancel()

		Eventually(func() int64 {
			return collector.Snapshot().Outcomes["static"]
		}).Should(Equal(int64(5)))
	})

	It("should drop events when the buffer is full", func() {
		small := metrics.NewCollector(1, log)
		Expect(small.Emit(metrics.Event{Type: metrics.EventRequestHandled})).To(BeTrue())
		Expect(small.Emit(metrics.Event{Type: metrics.EventRequestHandled})).To(BeFalse())
		Expect(small.Snapshot().DroppedEvents).To(Equal(int64(1)))
	})

	It("should ignore emits on a nil collector", func() {
		var c *metrics.Collector
		Expect(c.Emit(metrics.Event{Type: metrics.EventRequestHandled})).To(BeFalse())
	})

	Describe("Handler", func() {
		It("should serve the snapshot as JSON with breaker states", func() {
			collector.Start(ctx)
			collector.Emit(metrics.Event{Type: metrics.EventRequestHandled, Outcome: "robots", StatusCode: 200})
			Eventually(func() int64 { return collector.Snapshot().TotalRequests }).Should(Equal(int64(1)))

			w := httptest.NewRecorder()
			collector.Handler(fixedStates{"a": "OPEN"})(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))

			var snap metrics.Snapshot
			Expect(json.Unmarshal(w.Body.Bytes(), &snap)).To(Succeed())
			Expect(snap.Outcomes["robots"]).To(Equal(int64(1)))
			Expect(snap.Breakers).To(HaveKeyWithValue("a", "OPEN"))
		})

		It("should omit breakers when none are configured", func() {
			w := httptest.NewRecorder()
			collector.Handler(nil)(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Expect(w.Body.String()).NotTo(ContainSubstring("breakers"))
		})
	})
})
