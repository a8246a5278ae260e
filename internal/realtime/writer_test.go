package realtime_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/realtime"
)

var _ = Describe("Writer", func() {
	var (
		logger *slog.Logger
		hub    *realtime.Hub
		writer *realtime.Writer
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		hub = realtime.NewHub(events.NewEventBus(logger), logger)
		writer = realtime.NewWriter(hub, realtime.WriterConfig{Workers: 2, QueueSize: 8}, logger)
	})

	AfterEach(func() {
		writer.Shutdown()
	})

	It("should apply enqueued partial updates asynchronously", func() {
		Expect(hub.Set(ctx, realtime.CollectionPayrollRecords, "emp-1:2026-06", map[string]interface{}{
			"payment_status": "pending",
		})).To(Succeed())

		ok := writer.Enqueue(realtime.WriteOp{
			Collection: realtime.CollectionPayrollRecords,
			DocID:      "emp-1:2026-06",
			Partial:    map[string]interface{}{"payment_status": "paid"},
		})
		Expect(ok).To(BeTrue())

		Eventually(func() string {
			var status string
			unsub := hub.Subscribe(realtime.CollectionPayrollRecords, func(s realtime.Snapshot) {
				var doc map[string]interface{}
				if raw, ok := s["emp-1:2026-06"]; ok {
					if json.Unmarshal(raw, &doc) == nil {
						status, _ = doc["payment_status"].(string)
					}
				}
			}, nil)
			unsub()
			return status
		}, time.Second, 10*time.Millisecond).Should(Equal("paid"))
	})

	It("should drop writes against missing documents without failing siblings", func() {
		Expect(hub.Set(ctx, realtime.CollectionPayrollRecords, "emp-1:2026-06", map[string]interface{}{
			"payment_status": "pending",
		})).To(Succeed())

		writer.Enqueue(realtime.WriteOp{
			Collection: realtime.CollectionPayrollRecords,
			DocID:      "emp-9:2026-06",
			Partial:    map[string]interface{}{"payment_status": "paid"},
		})
		writer.Enqueue(realtime.WriteOp{
			Collection: realtime.CollectionPayrollRecords,
			DocID:      "emp-1:2026-06",
			Partial:    map[string]interface{}{"payment_status": "paid"},
		})

		Eventually(func() string {
			var status string
			unsub := hub.Subscribe(realtime.CollectionPayrollRecords, func(s realtime.Snapshot) {
				var doc map[string]interface{}
				if raw, ok := s["emp-1:2026-06"]; ok {
					if json.Unmarshal(raw, &doc) == nil {
						status, _ = doc["payment_status"].(string)
					}
				}
			}, nil)
			unsub()
			return status
		}, time.Second, 10*time.Millisecond).Should(Equal("paid"))

		// The missing doc must not have been fabricated.
		var snapshot realtime.Snapshot
		unsub := hub.Subscribe(realtime.CollectionPayrollRecords, func(s realtime.Snapshot) {
			snapshot = s
		}, nil)
		unsub()
		Expect(snapshot).NotTo(HaveKey("emp-9:2026-06"))
	})
})
