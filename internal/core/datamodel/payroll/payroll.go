package payroll

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payment statuses of a payroll record. All transitions between the three
// states are caller-driven and legal; paid is not terminal.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusDisputed = "disputed"
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

// PayrollRecord is the document shape of the `payroll_records` collection,
// keyed by employee and month. NetSalary is never stored: it is derived on
// every read from the constituent amounts.
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

// Key builds the document id of a record within the payroll_records
// collection.
func Key(employeeID, month string) string {
	return fmt.Sprintf("%s:%s", employeeID, month)
}

// ParseKey splits a payroll document id back into employee id and month.
func ParseKey(docID string) (employeeID, month string, ok bool) {
	i := strings.LastIndex(docID, ":")
	if i <= 0 || i == len(docID)-1 {
		return "", "", false
	}
	return docID[:i], docID[i+1:], true
}

// MonthKey formats a 1-indexed month as the canonical "YYYY-MM" key.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Decode unmarshals a feed document, substituting documented defaults for
// missing fields rather than rejecting the record.
func Decode(docID string, raw json.RawMessage) PayrollRecord {
	var r PayrollRecord
	_ = json.Unmarshal(raw, &r)
	if r.EmployeeID == "" || r.Month == "" {
		if emp, month, ok := ParseKey(docID); ok {
			if r.EmployeeID == "" {
				r.EmployeeID = emp
			}
			if r.Month == "" {
				r.Month = month
			}
		}
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentStatusPending
	}
	if r.Allowances == nil {
		r.Allowances = []Allowance{}
	}
	if r.Deductions == nil {
		r.Deductions = []Deduction{}
	}
	return r
}

func DecodeSnapshot(docs map[string]json.RawMessage) []PayrollRecord {
	out := make([]PayrollRecord, 0, len(docs))
	for id, raw := range docs {
		out = append(out, Decode(id, raw))
	}
	return out
}
