package material_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/construction-crm/internal/material"
)

func TestMaterialAggregation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Material Aggregation Suite")
}

func approvedAt(t time.Time) int64 {
	return t.UnixMilli()
}

var _ = Describe("ReportingWindow", func() {
	var window material.ReportingWindow

	BeforeEach(func() {
		window = material.NewReportingWindow(2026, 6, time.UTC)
	})

	It("should span the whole calendar month inclusively", func() {
		firstInstant := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		lastInstant := time.Date(2026, 6, 30, 23, 59, 59, int(999*time.Millisecond), time.UTC)

		Expect(window.ContainsMillis(firstInstant.UnixMilli())).To(BeTrue())
		Expect(window.ContainsMillis(lastInstant.UnixMilli())).To(BeTrue())
	})

	It("should exclude instants outside the month", func() {
		before := time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC)
		after := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

		Expect(window.ContainsMillis(before.UnixMilli())).To(BeFalse())
		Expect(window.ContainsMillis(after.UnixMilli())).To(BeFalse())
	})

	It("should never contain the unresponded sentinel", func() {
		Expect(window.ContainsMillis(0)).To(BeFalse())
	})
})

var _ = Describe("AggregateCost", func() {
	var (
		window   material.ReportingWindow
		index    material.PricingIndex
		midMonth int64
	)

	BeforeEach(func() {
		window = material.NewReportingWindow(2026, 6, time.UTC)
		index = material.BuildPricingIndex([]material.Material{
			{ID: "cement", Name: "semen portland", UnitPriceIDR: 50},
			{ID: "rebar", Name: "besi beton", UnitPriceIDR: 20},
		})
		midMonth = approvedAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	})

	Context("when requests have mixed statuses", func() {
		It("should count only approved requests", func() {
			requests := []material.MaterialRequest{
				{ID: "r1", MaterialID: "cement", Quantity: 2, Username: "alice", RespondedAt: midMonth, Status: material.StatusApproved},
				{ID: "r2", MaterialID: "cement", Quantity: 3, Username: "alice", RespondedAt: midMonth, Status: material.StatusPending},
				{ID: "r3", MaterialID: "cement", Quantity: 4, Username: "alice", RespondedAt: midMonth, Status: material.StatusRejected},
			}

			totals := material.AggregateCost(requests, index, window, "")

			Expect(totals).To(HaveLen(1))
			Expect(totals["alice"]).To(Equal(int64(100)))
		})

		It("should treat status matching as exact and case-sensitive", func() {
			requests := []material.MaterialRequest{
				{ID: "r1", MaterialID: "cement", Quantity: 2, Username: "alice", RespondedAt: midMonth, Status: "Approved"},
				{ID: "r2", MaterialID: "cement", Quantity: 2, Username: "alice", RespondedAt: midMonth, Status: "approved "},
			}

			totals := material.AggregateCost(requests, index, window, "")

			Expect(totals).To(BeEmpty())
		})
	})

	Context("when the ledger order varies", func() {
		It("should produce identical totals for any permutation", func() {
			requests := []material.MaterialRequest{
				{ID: "r1", MaterialID: "cement", Quantity: 2, Username: "alice", RespondedAt: midMonth, Status: material.StatusApproved},
				{ID: "r2", MaterialID: "rebar", Quantity: 5, Username: "bob", RespondedAt: midMonth, Status: material.StatusApproved},
				{ID: "r3", MaterialID: "rebar", Quantity: 1, Username: "alice", RespondedAt: midMonth, Status: material.StatusApproved},
			}
			reversed := []material.MaterialRequest{requests[2], requests[1], requests[0]}

			forward := material.AggregateCost(requests, index, window, "")
			backward := material.AggregateCost(reversed, index, window, "")

			Expect(forward).To(Equal(backward))
			Expect(forward["alice"]).To(Equal(int64(120)))
			Expect(forward["bob"]).To(Equal(int64(100)))
		})
	})

	Context("when a unit price changes after approval", func() {
		It("should price historical requests at the current index", func() {
			requests := []material.MaterialRequest{
				{ID: "r1", MaterialID: "cement", Quantity: 10, Username: "alice", RespondedAt: midMonth, Status: material.StatusApproved},
			}

			before := material.AggregateCost(requests, index, window, "")
			Expect(before["alice"]).To(Equal(int64(500)))

			repriced := material.BuildPricingIndex([]material.Material{
				{ID: "cement", Name: "semen portland", UnitPriceIDR: 80},
			})
			after := material.AggregateCost(requests, repriced, window, "")
			Expect(after["alice"]).To(Equal(int64(800)))
		})
	})

	Context("when request data is incomplete", func() {
		It("should skip requests missing a username or material id", func() {
			requests := []material.MaterialRequest{
				{ID: "r1", MaterialID: "cement", Quantity: 2, Username: "", RespondedAt: midMonth, Status: material.StatusApproved},
				{ID: "r2", MaterialID: "", Quantity: 2, Username: "alice", RespondedAt: midMonth, Status: material.StatusApproved},
				{ID: "r3", MaterialID: "cement", Quantity: 2, Username: "alice", RespondedAt: midMonth, Status: material.StatusApproved},
			}

			totals := material.AggregateCost(requests, index, window, "")

			Expect(totals).To(HaveLen(1))
			Expect(totals["alice"]).To(Equal(int64(100)))
		})

		It("should price requests against an unknown material at zero", func() {
			requests := []material.MaterialRequest{
				{ID: "r1", MaterialID: "deleted-mat", Quantity: 7, Username: "alice", RespondedAt: midMonth, Status: material.StatusApproved},
			}

			totals := material.AggregateCost(requests, index, window, "")

			Expect(totals["alice"]).To(Equal(int64(0)))
			Expect(totals).To(HaveKey("alice"))
		})
	})

	Context("when a username filter is given", func() {
		It("should match case-insensitively on substring", func() {
			requests := []material.MaterialRequest{
				{ID: "r1", MaterialID: "cement", Quantity: 1, Username: "Alice", RespondedAt: midMonth, Status: material.StatusApproved},
				{ID: "r2", MaterialID: "cement", Quantity: 1, Username: "malice", RespondedAt: midMonth, Status: material.StatusApproved},
				{ID: "r3", MaterialID: "cement", Quantity: 1, Username: "bob", RespondedAt: midMonth, Status: material.StatusApproved},
			}

			totals := material.AggregateCost(requests, index, window, "LICE")

			Expect(totals).To(HaveLen(2))
			Expect(totals).To(HaveKey("Alice"))
			Expect(totals).To(HaveKey("malice"))
		})

		It("should match everything on an empty filter", func() {
			requests := []material.MaterialRequest{
				{ID: "r1", MaterialID: "cement", Quantity: 1, Username: "alice", RespondedAt: midMonth, Status: material.StatusApproved},
				{ID: "r2", MaterialID: "cement", Quantity: 1, Username: "bob", RespondedAt: midMonth, Status: material.StatusApproved},
			}

			totals := material.AggregateCost(requests, index, window, "")

			Expect(totals).To(HaveLen(2))
		})
	})
})

var _ = Describe("BuildPricingIndex", func() {
	It("should drop materials without an id and clamp negative prices", func() {
		index := material.BuildPricingIndex([]material.Material{
			{ID: "", Name: "nameless", UnitPriceIDR: 10},
			{ID: "sand", Name: "pasir", UnitPriceIDR: -5},
			{ID: "brick", Name: "bata", UnitPriceIDR: 900},
		})

		Expect(index).To(HaveLen(2))
		Expect(index.UnitPrice("sand")).To(Equal(int64(0)))
		Expect(index.UnitPrice("brick")).To(Equal(int64(900)))
		Expect(index.UnitPrice("missing")).To(Equal(int64(0)))
	})
})
