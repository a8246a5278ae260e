package material_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/construction-crm/internal"
	materialDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/material"
	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/material"
	"github.com/frahmantamala/construction-crm/internal/realtime"
)

var _ = Describe("MaterialService", func() {
	var (
		logger  *slog.Logger
		hub     *realtime.Hub
		service *material.Service
		ctx     context.Context
	)

	seedMaterial := func(m materialDatamodel.Material) {
		Expect(hub.Set(ctx, realtime.CollectionMaterials, m.ID, m)).To(Succeed())
	}

	seedRequest := func(r materialDatamodel.MaterialRequest) {
		Expect(hub.Set(ctx, realtime.CollectionMaterialRequests, r.ID, r)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		hub = realtime.NewHub(events.NewEventBus(logger), logger)
		service = material.NewService(hub, events.NewEventBus(logger), time.UTC, logger)
		service.Start()
	})

	AfterEach(func() {
		service.Close()
	})

	Describe("CostByUserForMonth", func() {
		It("should reprice historical approved requests after a price edit", func() {
			responded := time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC).UnixMilli()
			seedMaterial(materialDatamodel.Material{ID: "cement", Name: "semen", UnitPriceIDR: 50})
			seedRequest(materialDatamodel.MaterialRequest{
				ID: "r1", MaterialID: "cement", Quantity: 10, Username: "alice",
				RespondedAt: responded, Status: material.StatusApproved,
			})

			Expect(service.CostByUserForMonth(2026, 6, "")["alice"]).To(Equal(int64(500)))

			Expect(service.UpdateMaterialPrice(ctx, "cement", 80)).To(Succeed())

			Expect(service.CostByUserForMonth(2026, 6, "")["alice"]).To(Equal(int64(800)))
		})

		It("should keep serving the last snapshot when the feed errors", func() {
			responded := time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC).UnixMilli()
			seedMaterial(materialDatamodel.Material{ID: "cement", Name: "semen", UnitPriceIDR: 50})
			seedRequest(materialDatamodel.MaterialRequest{
				ID: "r1", MaterialID: "cement", Quantity: 2, Username: "alice",
				RespondedAt: responded, Status: material.StatusApproved,
			})

			hub.NotifyError(realtime.CollectionMaterialRequests, context.DeadlineExceeded)

			Expect(service.CostByUserForMonth(2026, 6, "")["alice"]).To(Equal(int64(100)))
		})
	})

	Describe("RespondToRequest", func() {
		It("should stamp the response time that places the request in a window", func() {
			seedRequest(materialDatamodel.MaterialRequest{
				ID: "r1", MaterialID: "cement", Quantity: 1, Username: "alice",
				RequestedAt: time.Now().UnixMilli(), Status: material.StatusPending,
			})

			Expect(service.RespondToRequest(ctx, "r1", material.StatusApproved, "ok")).To(Succeed())

			req, ok := service.GetRequest("r1")
			Expect(ok).To(BeTrue())
			Expect(req.Status).To(Equal(material.StatusApproved))
			Expect(req.RespondedAt).NotTo(BeZero())
			Expect(req.ResponseMessage).To(Equal("ok"))
		})

		It("should map a missing request to the domain sentinel", func() {
			err := service.RespondToRequest(ctx, "ghost", material.StatusApproved, "")
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
		})
	})

	Describe("UpdateMaterialPrice", func() {
		It("should map a missing material to the domain sentinel", func() {
			err := service.UpdateMaterialPrice(ctx, "ghost", 100)
			Expect(err).To(MatchError(internal.ErrMaterialNotFound))
		})
	})

	Describe("CreateRequest", func() {
		It("should default status to pending and stamp the request time", func() {
			Expect(service.CreateRequest(ctx, material.MaterialRequest{
				ID: "r1", MaterialID: "cement", Quantity: 3, Username: "alice",
			})).To(Succeed())

			req, ok := service.GetRequest("r1")
			Expect(ok).To(BeTrue())
			Expect(req.Status).To(Equal(material.StatusPending))
			Expect(req.RequestedAt).NotTo(BeZero())
			Expect(req.RespondedAt).To(BeZero())
		})
	})
})
