package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/realtime"
)

func TestRealtimeHub(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Realtime Hub Suite")
}

var _ = Describe("Hub", func() {
	var (
		logger *slog.Logger
		hub    *realtime.Hub
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		hub = realtime.NewHub(events.NewEventBus(logger), logger)
	})

	Describe("Subscribe", func() {
		It("should deliver the current snapshot immediately on attach", func() {
			Expect(hub.Set(ctx, realtime.CollectionMaterials, "mat-1", map[string]string{"name": "semen"})).To(Succeed())

			var received realtime.Snapshot
			unsub := hub.Subscribe(realtime.CollectionMaterials, func(s realtime.Snapshot) {
				received = s
			}, nil)
			defer unsub()

			Expect(received).To(HaveLen(1))
			Expect(received).To(HaveKey("mat-1"))
		})

		It("should deliver an empty snapshot for an unknown collection", func() {
			var received realtime.Snapshot
			delivered := false
			unsub := hub.Subscribe("never_written", func(s realtime.Snapshot) {
				received = s
				delivered = true
			}, nil)
			defer unsub()

			Expect(delivered).To(BeTrue())
			Expect(received).To(BeEmpty())
		})

		It("should replace the whole snapshot on every write, not deliver deltas", func() {
			var snapshots []realtime.Snapshot
			unsub := hub.Subscribe(realtime.CollectionMaterials, func(s realtime.Snapshot) {
				snapshots = append(snapshots, s)
			}, nil)
			defer unsub()

			Expect(hub.Set(ctx, realtime.CollectionMaterials, "mat-1", map[string]string{"name": "semen"})).To(Succeed())
			Expect(hub.Set(ctx, realtime.CollectionMaterials, "mat-2", map[string]string{"name": "pasir"})).To(Succeed())

			// attach + two writes
			Expect(snapshots).To(HaveLen(3))
			Expect(snapshots[2]).To(HaveLen(2))
			Expect(snapshots[2]).To(HaveKey("mat-1"))
			Expect(snapshots[2]).To(HaveKey("mat-2"))
		})

		It("should stop delivering after unsubscribe", func() {
			calls := 0
			unsub := hub.Subscribe(realtime.CollectionMaterials, func(s realtime.Snapshot) {
				calls++
			}, nil)

			unsub()
			unsub() // revoking twice is harmless

			Expect(hub.Set(ctx, realtime.CollectionMaterials, "mat-1", map[string]string{"name": "semen"})).To(Succeed())
			Expect(calls).To(Equal(1))
		})

		It("should isolate subscribers from each other's mutations", func() {
			var first realtime.Snapshot
			unsub := hub.Subscribe(realtime.CollectionMaterials, func(s realtime.Snapshot) {
				first = s
			}, nil)
			defer unsub()

			Expect(hub.Set(ctx, realtime.CollectionMaterials, "mat-1", map[string]string{"name": "semen"})).To(Succeed())
			first["mat-1"] = json.RawMessage(`{"name":"tampered"}`)

			var second realtime.Snapshot
			unsub2 := hub.Subscribe(realtime.CollectionMaterials, func(s realtime.Snapshot) {
				second = s
			}, nil)
			defer unsub2()

			Expect(string(second["mat-1"])).To(ContainSubstring("semen"))
		})
	})

	Describe("Update", func() {
		It("should shallow-merge partial fields into the stored document", func() {
			Expect(hub.Set(ctx, realtime.CollectionPayrollRecords, "emp-1:2026-06", map[string]interface{}{
				"payment_status":  "pending",
				"base_salary_idr": 6000000,
			})).To(Succeed())

			Expect(hub.Update(ctx, realtime.CollectionPayrollRecords, "emp-1:2026-06", map[string]interface{}{
				"payment_status": "paid",
			})).To(Succeed())

			var latest realtime.Snapshot
			unsub := hub.Subscribe(realtime.CollectionPayrollRecords, func(s realtime.Snapshot) {
				latest = s
			}, nil)
			defer unsub()

			var doc map[string]interface{}
			Expect(json.Unmarshal(latest["emp-1:2026-06"], &doc)).To(Succeed())
			Expect(doc["payment_status"]).To(Equal("paid"))
			Expect(doc["base_salary_idr"]).To(BeNumerically("==", 6000000))
		})

		It("should refuse to fabricate a missing document", func() {
			err := hub.Update(ctx, realtime.CollectionPayrollRecords, "emp-9:2026-06", map[string]interface{}{
				"payment_status": "paid",
			})
			Expect(err).To(MatchError(realtime.ErrDocNotFound))
		})
	})

	Describe("Delete", func() {
		It("should remove the document and republish", func() {
			Expect(hub.Set(ctx, realtime.CollectionMaterials, "mat-1", map[string]string{"name": "semen"})).To(Succeed())

			Expect(hub.Delete(ctx, realtime.CollectionMaterials, "mat-1")).To(Succeed())

			var latest realtime.Snapshot
			unsub := hub.Subscribe(realtime.CollectionMaterials, func(s realtime.Snapshot) {
				latest = s
			}, nil)
			defer unsub()

			Expect(latest).To(BeEmpty())
		})

		It("should report a missing document", func() {
			Expect(hub.Delete(ctx, realtime.CollectionMaterials, "ghost")).To(MatchError(realtime.ErrDocNotFound))
		})
	})

	Describe("NotifyError", func() {
		It("should fan failures out without touching the snapshot", func() {
			var lastSnapshot realtime.Snapshot
			var lastErr error
			unsub := hub.Subscribe(realtime.CollectionUsers,
				func(s realtime.Snapshot) { lastSnapshot = s },
				func(err error) { lastErr = err })
			defer unsub()

			Expect(hub.Set(ctx, realtime.CollectionUsers, "emp-1", map[string]string{"username": "budi"})).To(Succeed())
			hub.NotifyError(realtime.CollectionUsers, errors.New("backing store unreachable"))

			Expect(lastErr).To(MatchError("backing store unreachable"))
			Expect(lastSnapshot).To(HaveKey("emp-1"))
		})
	})
})
