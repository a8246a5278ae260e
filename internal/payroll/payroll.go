package payroll

import (
	payrollDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/payroll"
)

const (
	PaymentStatusPending  = payrollDatamodel.PaymentStatusPending
	PaymentStatusPaid     = payrollDatamodel.PaymentStatusPaid
	PaymentStatusDisputed = payrollDatamodel.PaymentStatusDisputed
)

type Allowance struct {
	Label     string `json:"label"`
	AmountIDR int64  `json:"amount_idr"`
}

type Deduction struct {
	Label     string `json:"label"`
	AmountIDR int64  `json:"amount_idr"`
	Statutory bool   `json:"statutory"`
}

// PayrollRecord is one employee's salary record for one month. At most one
// record exists per (employee, month); a missing record means "no payroll
// computed yet" and is valid.
type PayrollRecord struct {
	EmployeeID     string      `json:"employee_id"`
	Month          string      `json:"month"`
	BaseSalaryIDR  int64       `json:"base_salary_idr"`
	OvertimeHours  float64     `json:"overtime_hours"`
	OvertimePayIDR int64       `json:"overtime_pay_idr"`
	Allowances     []Allowance `json:"allowances"`
	Deductions     []Deduction `json:"deductions"`
	PaymentStatus  string      `json:"payment_status"`
	AttendanceDays int         `json:"attendance_days"`
}

// NetSalaryIDR derives net pay from the constituent amounts. It is
// recomputed on every read and never trusted from stored state. No floor
// is applied: a legitimately negative net must be surfaced, not
// suppressed.
func (r PayrollRecord) NetSalaryIDR() int64 {
	net := r.BaseSalaryIDR + r.OvertimePayIDR
	for _, a := range r.Allowances {
		net += a.AmountIDR
	}
	for _, d := range r.Deductions {
		net -= d.AmountIDR
	}
	return net
}

// ValidPaymentStatus reports whether s is one of the three known states.
// All transitions between them are caller-driven and legal.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusDisputed:
		return true
	}
	return false
}

func FromDataModel(r payrollDatamodel.PayrollRecord) PayrollRecord {
	allowances := make([]Allowance, len(r.Allowances))
	for i, a := range r.Allowances {
		allowances[i] = Allowance{Label: a.Label, AmountIDR: a.AmountIDR}
	}
	deductions := make([]Deduction, len(r.Deductions))
	for i, d := range r.Deductions {
		deductions[i] = Deduction{Label: d.Label, AmountIDR: d.AmountIDR, Statutory: d.Statutory}
	}
	return PayrollRecord{
		EmployeeID:     r.EmployeeID,
		Month:          r.Month,
		BaseSalaryIDR:  r.BaseSalaryIDR,
		OvertimeHours:  r.OvertimeHours,
		OvertimePayIDR: r.OvertimePayIDR,
		Allowances:     allowances,
		Deductions:     deductions,
		PaymentStatus:  r.PaymentStatus,
		AttendanceDays: r.AttendanceDays,
	}
}

func ToDataModel(r PayrollRecord) payrollDatamodel.PayrollRecord {
	allowances := make([]payrollDatamodel.Allowance, len(r.Allowances))
	for i, a := range r.Allowances {
		allowances[i] = payrollDatamodel.Allowance{Label: a.Label, AmountIDR: a.AmountIDR}
	}
	deductions := make([]payrollDatamodel.Deduction, len(r.Deductions))
	for i, d := range r.Deductions {
		deductions[i] = payrollDatamodel.Deduction{Label: d.Label, AmountIDR: d.AmountIDR, Statutory: d.Statutory}
	}
	return payrollDatamodel.PayrollRecord{
		EmployeeID:     r.EmployeeID,
		Month:          r.Month,
		BaseSalaryIDR:  r.BaseSalaryIDR,
		OvertimeHours:  r.OvertimeHours,
		OvertimePayIDR: r.OvertimePayIDR,
		Allowances:     allowances,
		Deductions:     deductions,
		PaymentStatus:  r.PaymentStatus,
		AttendanceDays: r.AttendanceDays,
	}
}
