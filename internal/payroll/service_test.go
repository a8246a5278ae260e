package payroll_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	payrollDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/payroll"
	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/employee"
	"github.com/frahmantamala/construction-crm/internal/material"
	"github.com/frahmantamala/construction-crm/internal/payroll"
	"github.com/frahmantamala/construction-crm/internal/realtime"
)

type mockDirectory struct {
	employees []employee.Employee
}

func (m *mockDirectory) List() []employee.Employee {
	return m.employees
}

func (m *mockDirectory) Get(id string) (employee.Employee, bool) {
	for _, e := range m.employees {
		if e.ID == id {
			return e, true
		}
	}
	return employee.Employee{}, false
}

type mockCosts struct {
	costs material.CostByUser
}

func (m *mockCosts) CostByUserForMonth(year, month int, usernameFilter string) material.CostByUser {
	return m.costs
}

// mockWriter records enqueued ops instead of dispatching them.
type mockWriter struct {
	ops  []realtime.WriteOp
	full bool
}

func (m *mockWriter) Enqueue(op realtime.WriteOp) bool {
	if m.full {
		return false
	}
	m.ops = append(m.ops, op)
	return true
}

var _ = Describe("PayrollService", func() {
	var (
		logger    *slog.Logger
		hub       *realtime.Hub
		store     *payroll.Store
		directory *mockDirectory
		costs     *mockCosts
		writer    *mockWriter
		service   *payroll.Service
		ctx       context.Context
	)

	seedRecord := func(record payrollDatamodel.PayrollRecord) {
		docID := payrollDatamodel.Key(record.EmployeeID, record.Month)
		Expect(hub.Set(ctx, realtime.CollectionPayrollRecords, docID, record)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		hub = realtime.NewHub(events.NewEventBus(logger), logger)
		store = payroll.NewStore()
		directory = &mockDirectory{employees: []employee.Employee{
			{ID: "emp-1", DisplayName: "Budi Santoso", Username: "budi"},
			{ID: "emp-2", DisplayName: "Siti Rahayu", Username: "siti"},
		}}
		costs = &mockCosts{costs: material.CostByUser{"budi": 75_000}}
		writer = &mockWriter{}
		service = payroll.NewService(store, directory, costs, hub, writer, events.NewEventBus(logger), logger)
		service.Start()
	})

	AfterEach(func() {
		service.Close()
	})

	Describe("MonthView", func() {
		It("should join roster, records and material spend", func() {
			seedRecord(payrollDatamodel.PayrollRecord{
				EmployeeID: "emp-1", Month: "2026-06",
				BaseSalaryIDR: 6_000_000, PaymentStatus: payroll.PaymentStatusPaid,
			})

			rows := service.MonthView(2026, 6, "", payroll.SortState{Field: payroll.SortByName, Order: payroll.SortAsc})

			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Employee.ID).To(Equal("emp-1"))
			Expect(rows[0].HasRecord).To(BeTrue())
			Expect(rows[0].NetSalaryIDR).To(Equal(int64(6_000_000)))
			Expect(rows[0].MaterialSpentIDR).To(Equal(int64(75_000)))

			Expect(rows[1].Employee.ID).To(Equal("emp-2"))
			Expect(rows[1].HasRecord).To(BeFalse())
			Expect(rows[1].PaymentStatus).To(Equal(payroll.PaymentStatusPending))
		})

		It("should not leak records from other months into the view", func() {
			seedRecord(payrollDatamodel.PayrollRecord{
				EmployeeID: "emp-1", Month: "2026-05",
				BaseSalaryIDR: 6_000_000,
			})

			rows := service.MonthView(2026, 6, "", payroll.SortState{Field: payroll.SortByName, Order: payroll.SortAsc})

			for _, row := range rows {
				Expect(row.HasRecord).To(BeFalse())
			}
		})
	})

	Describe("GetRecord", func() {
		It("should report absence without an error", func() {
			_, ok := service.GetRecord("emp-1", "2026-06")
			Expect(ok).To(BeFalse())
		})

		It("should surface a record applied through the subscription", func() {
			seedRecord(payrollDatamodel.PayrollRecord{
				EmployeeID: "emp-1", Month: "2026-06", BaseSalaryIDR: 6_000_000,
			})

			record, ok := service.GetRecord("emp-1", "2026-06")
			Expect(ok).To(BeTrue())
			Expect(record.BaseSalaryIDR).To(Equal(int64(6_000_000)))
		})
	})

	Describe("SaveRecord", func() {
		It("should persist through the feed and default the status to pending", func() {
			err := service.SaveRecord(ctx, payroll.PayrollRecord{
				EmployeeID: "emp-2", Month: "2026-06", BaseSalaryIDR: 5_500_000,
			})
			Expect(err).NotTo(HaveOccurred())

			record, ok := service.GetRecord("emp-2", "2026-06")
			Expect(ok).To(BeTrue())
			Expect(record.PaymentStatus).To(Equal(payroll.PaymentStatusPending))
		})
	})

	Describe("BulkMarkPaid", func() {
		BeforeEach(func() {
			seedRecord(payrollDatamodel.PayrollRecord{
				EmployeeID: "emp-1", Month: "2026-06",
				BaseSalaryIDR: 6_000_000, PaymentStatus: payroll.PaymentStatusPending,
			})
			seedRecord(payrollDatamodel.PayrollRecord{
				EmployeeID: "emp-2", Month: "2026-06",
				BaseSalaryIDR: 5_500_000, PaymentStatus: payroll.PaymentStatusDisputed,
			})
		})

		It("should dispatch one independent write per employee with a record", func() {
			result := service.BulkMarkPaid(ctx, "2026-06", []string{"emp-1", "emp-2"})

			Expect(result.Updated).To(ConsistOf("emp-1", "emp-2"))
			Expect(result.Skipped).To(BeEmpty())
			Expect(writer.ops).To(HaveLen(2))
			for _, op := range writer.ops {
				Expect(op.Collection).To(Equal(realtime.CollectionPayrollRecords))
				Expect(op.Partial).To(HaveKeyWithValue("payment_status", payroll.PaymentStatusPaid))
			}
		})

		It("should transition disputed records to paid unconditionally", func() {
			result := service.BulkMarkPaid(ctx, "2026-06", []string{"emp-2"})

			Expect(result.Updated).To(ConsistOf("emp-2"))
			Expect(writer.ops).To(HaveLen(1))
			Expect(writer.ops[0].DocID).To(Equal(payrollDatamodel.Key("emp-2", "2026-06")))
		})

		It("should skip ids without a record instead of fabricating one", func() {
			result := service.BulkMarkPaid(ctx, "2026-06", []string{"emp-1", "emp-9"})

			Expect(result.Updated).To(ConsistOf("emp-1"))
			Expect(result.Skipped).To(ConsistOf("emp-9"))
			Expect(writer.ops).To(HaveLen(1))
		})

		It("should report ids as skipped when the write queue rejects them", func() {
			writer.full = true

			result := service.BulkMarkPaid(ctx, "2026-06", []string{"emp-1", "emp-2"})

			Expect(result.Updated).To(BeEmpty())
			Expect(result.Skipped).To(ConsistOf("emp-1", "emp-2"))
			Expect(writer.ops).To(BeEmpty())
		})

		It("should skip everything for a month with no records", func() {
			result := service.BulkMarkPaid(ctx, "2026-07", []string{"emp-1", "emp-2"})

			Expect(result.Updated).To(BeEmpty())
			Expect(result.Skipped).To(ConsistOf("emp-1", "emp-2"))
			Expect(writer.ops).To(BeEmpty())
		})
	})
})
