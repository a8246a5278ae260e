package payroll_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/construction-crm/internal/employee"
	"github.com/frahmantamala/construction-crm/internal/material"
	"github.com/frahmantamala/construction-crm/internal/payroll"
)

func TestPayrollReconciler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payroll Suite")
}

var _ = Describe("PayrollRecord", func() {
	Describe("NetSalaryIDR", func() {
		It("should derive net from base, overtime, allowances and deductions", func() {
			record := payroll.PayrollRecord{
				BaseSalaryIDR:  6_000_000,
				OvertimePayIDR: 400_000,
				Allowances: []payroll.Allowance{
					{Label: "transport", AmountIDR: 500_000},
					{Label: "meal", AmountIDR: 300_000},
				},
				Deductions: []payroll.Deduction{
					{Label: "bpjs", AmountIDR: 240_000, Statutory: true},
				},
			}

			Expect(record.NetSalaryIDR()).To(Equal(int64(6_960_000)))
		})

		It("should move by exactly the delta when one deduction changes", func() {
			record := payroll.PayrollRecord{
				BaseSalaryIDR: 5_000_000,
				Deductions:    []payroll.Deduction{{Label: "cash advance", AmountIDR: 200_000}},
			}
			before := record.NetSalaryIDR()

			record.Deductions[0].AmountIDR = 700_000
			after := record.NetSalaryIDR()

			Expect(before - after).To(Equal(int64(500_000)))
		})

		It("should not floor a negative net", func() {
			record := payroll.PayrollRecord{
				BaseSalaryIDR: 1_000_000,
				Deductions:    []payroll.Deduction{{Label: "cash advance", AmountIDR: 1_500_000}},
			}

			Expect(record.NetSalaryIDR()).To(Equal(int64(-500_000)))
		})
	})
})

func roster() []employee.Employee {
	return []employee.Employee{
		{ID: "emp-1", DisplayName: "Budi Santoso", Username: "budi"},
		{ID: "emp-2", DisplayName: "Siti Rahayu", Username: "siti"},
		{ID: "emp-3", DisplayName: "Agus Wijaya", Username: "agus"},
	}
}

var _ = Describe("BuildView", func() {
	var (
		records map[string]payroll.PayrollRecord
		costs   material.CostByUser
		byName  payroll.SortState
	)

	BeforeEach(func() {
		records = map[string]payroll.PayrollRecord{
			"emp-1": {
				EmployeeID: "emp-1", Month: "2026-06",
				BaseSalaryIDR: 6_000_000, PaymentStatus: payroll.PaymentStatusPaid,
			},
			"emp-3": {
				EmployeeID: "emp-3", Month: "2026-06",
				BaseSalaryIDR: 7_000_000, PaymentStatus: payroll.PaymentStatusDisputed,
			},
		}
		costs = material.CostByUser{"budi": 150_000, "siti": 90_000}
		byName = payroll.SortState{Field: payroll.SortByName, Order: payroll.SortAsc}
	})

	Context("when an employee has no record for the month", func() {
		It("should keep them in the view with defaulted fields", func() {
			rows := payroll.BuildView(roster(), records, costs, "", byName)

			Expect(rows).To(HaveLen(3))

			var siti *payroll.ViewRow
			for i := range rows {
				if rows[i].Employee.ID == "emp-2" {
					siti = &rows[i]
				}
			}
			Expect(siti).NotTo(BeNil())
			Expect(siti.HasRecord).To(BeFalse())
			Expect(siti.Record).To(BeNil())
			Expect(siti.NetSalaryIDR).To(BeZero())
			Expect(siti.PaymentStatus).To(Equal(payroll.PaymentStatusPending))
			Expect(siti.MaterialSpentIDR).To(Equal(int64(90_000)))
		})

		It("should rank the defaulted row by its default values", func() {
			bySalary := payroll.SortState{Field: payroll.SortByNetSalary, Order: payroll.SortAsc}
			rows := payroll.BuildView(roster(), records, costs, "", bySalary)

			Expect(rows[0].Employee.ID).To(Equal("emp-2"))
		})
	})

	Context("when a text filter is set", func() {
		It("should match display name or login name case-insensitively", func() {
			byDisplay := payroll.BuildView(roster(), records, costs, "RAHAYU", byName)
			Expect(byDisplay).To(HaveLen(1))
			Expect(byDisplay[0].Employee.ID).To(Equal("emp-2"))

			byLogin := payroll.BuildView(roster(), records, costs, "bud", byName)
			Expect(byLogin).To(HaveLen(1))
			Expect(byLogin[0].Employee.ID).To(Equal("emp-1"))
		})

		It("should hide non-matching employees entirely", func() {
			rows := payroll.BuildView(roster(), records, costs, "nobody", byName)
			Expect(rows).To(BeEmpty())
		})
	})

	Context("when sorting", func() {
		It("should order by display name ascending by default", func() {
			rows := payroll.BuildView(roster(), records, costs, "", byName)

			Expect(rows[0].Employee.DisplayName).To(Equal("Agus Wijaya"))
			Expect(rows[1].Employee.DisplayName).To(Equal("Budi Santoso"))
			Expect(rows[2].Employee.DisplayName).To(Equal("Siti Rahayu"))
		})

		It("should reverse on descending order", func() {
			desc := payroll.SortState{Field: payroll.SortByName, Order: payroll.SortDesc}
			rows := payroll.BuildView(roster(), records, costs, "", desc)

			Expect(rows[0].Employee.DisplayName).To(Equal("Siti Rahayu"))
			Expect(rows[2].Employee.DisplayName).To(Equal("Agus Wijaya"))
		})

		It("should keep prior relative order for ties on the sort field", func() {
			employees := []employee.Employee{
				{ID: "emp-1", DisplayName: "Budi Santoso", Username: "budi"},
				{ID: "emp-2", DisplayName: "Siti Rahayu", Username: "siti"},
				{ID: "emp-3", DisplayName: "Agus Wijaya", Username: "agus"},
			}
			byStatus := payroll.SortState{Field: payroll.SortByPaymentStatus, Order: payroll.SortAsc}

			// No records: every row ties on pending, so the roster order
			// must survive the sort untouched.
			rows := payroll.BuildView(employees, map[string]payroll.PayrollRecord{}, nil, "", byStatus)

			Expect(rows[0].Employee.ID).To(Equal("emp-1"))
			Expect(rows[1].Employee.ID).To(Equal("emp-2"))
			Expect(rows[2].Employee.ID).To(Equal("emp-3"))
		})

		It("should order by material spend when selected", func() {
			bySpend := payroll.SortState{Field: payroll.SortByMaterialSpent, Order: payroll.SortDesc}
			rows := payroll.BuildView(roster(), records, costs, "", bySpend)

			Expect(rows[0].Employee.Username).To(Equal("budi"))
			Expect(rows[1].Employee.Username).To(Equal("siti"))
			Expect(rows[2].Employee.Username).To(Equal("agus"))
		})
	})
})

var _ = Describe("SortState", func() {
	It("should flip direction when the active field is re-selected", func() {
		s := payroll.SortState{Field: payroll.SortByName, Order: payroll.SortAsc}

		s = s.Toggle(payroll.SortByName)
		Expect(s.Order).To(Equal(payroll.SortDesc))

		s = s.Toggle(payroll.SortByName)
		Expect(s.Order).To(Equal(payroll.SortAsc))
	})

	It("should reset to ascending when a new field is selected", func() {
		s := payroll.SortState{Field: payroll.SortByName, Order: payroll.SortDesc}

		s = s.Toggle(payroll.SortByNetSalary)

		Expect(s.Field).To(Equal(payroll.SortByNetSalary))
		Expect(s.Order).To(Equal(payroll.SortAsc))
	})
})

var _ = Describe("ViewState", func() {
	var state *payroll.ViewState

	BeforeEach(func() {
		state = payroll.NewViewState(payroll.SortByName)
	})

	It("should select exactly the rows of the filtered view", func() {
		rows := payroll.BuildView(roster(), nil, nil, "budi", payroll.SortState{Field: payroll.SortByName, Order: payroll.SortAsc})
		state.SelectAll(rows)

		Expect(state.SelectedIDs()).To(Equal([]string{"emp-1"}))
	})

	It("should keep hidden ids selected when the filter changes", func() {
		all := payroll.BuildView(roster(), nil, nil, "", payroll.SortState{Field: payroll.SortByName, Order: payroll.SortAsc})
		state.SelectAll(all)

		// Narrowing the view afterwards must not prune the selection.
		_ = payroll.BuildView(roster(), nil, nil, "siti", payroll.SortState{Field: payroll.SortByName, Order: payroll.SortAsc})

		Expect(state.SelectedIDs()).To(Equal([]string{"emp-1", "emp-2", "emp-3"}))
	})

	It("should toggle individual ids in and out", func() {
		state.ToggleOne("emp-2")
		Expect(state.SelectedIDs()).To(Equal([]string{"emp-2"}))

		state.ToggleOne("emp-2")
		Expect(state.SelectedIDs()).To(BeEmpty())
	})

	It("should clear everything on select none", func() {
		state.ToggleOne("emp-1")
		state.ToggleOne("emp-2")

		state.SelectNone()

		Expect(state.SelectedIDs()).To(BeEmpty())
	})

	It("should fall back to name sort for an unknown default field", func() {
		s := payroll.NewViewState(payroll.SortField("bogus"))
		Expect(s.Sort.Field).To(Equal(payroll.SortByName))
		Expect(s.Sort.Order).To(Equal(payroll.SortAsc))
	})
})
