package payroll

import (
	"errors"
	"regexp"
	"strconv"
)

var monthKeyPattern = regexp.MustCompile(`^(\d{4})-(0[1-9]|1[0-2])$`)

// ParseMonthKey validates a "YYYY-MM" key and returns its parts.
func ParseMonthKey(key string) (year, month int, err error) {
	m := monthKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, errors.New("month must be formatted YYYY-MM")
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	return year, month, nil
}

// SaveRecordDTO is the edit flow's payload for writing a record.
type SaveRecordDTO struct {
	BaseSalaryIDR  int64       `json:"base_salary_idr"`
	OvertimeHours  float64     `json:"overtime_hours"`
	OvertimePayIDR int64       `json:"overtime_pay_idr"`
	Allowances     []Allowance `json:"allowances"`
	Deductions     []Deduction `json:"deductions"`
	PaymentStatus  string      `json:"payment_status"`
	AttendanceDays int         `json:"attendance_days"`
}

func (dto SaveRecordDTO) Validate() error {
	if dto.BaseSalaryIDR < 0 {
		return errors.New("base_salary_idr must not be negative")
	}
	if dto.OvertimeHours < 0 {
		return errors.New("overtime_hours must not be negative")
	}
	if dto.AttendanceDays < 0 || dto.AttendanceDays > 31 {
		return errors.New("attendance_days must be between 0 and 31")
	}
	if dto.PaymentStatus != "" && !ValidPaymentStatus(dto.PaymentStatus) {
		return errors.New("payment_status must be pending, paid or disputed")
	}
	return nil
}

func (dto SaveRecordDTO) ToRecord(employeeID, month string) PayrollRecord {
	allowances := dto.Allowances
	if allowances == nil {
		allowances = []Allowance{}
	}
	deductions := dto.Deductions
	if deductions == nil {
		deductions = []Deduction{}
	}
	return PayrollRecord{
		EmployeeID:     employeeID,
		Month:          month,
		BaseSalaryIDR:  dto.BaseSalaryIDR,
		OvertimeHours:  dto.OvertimeHours,
		OvertimePayIDR: dto.OvertimePayIDR,
		Allowances:     allowances,
		Deductions:     deductions,
		PaymentStatus:  dto.PaymentStatus,
		AttendanceDays: dto.AttendanceDays,
	}
}

// BulkMarkPaidDTO selects the employees of one month to mark paid.
type BulkMarkPaidDTO struct {
	Month       string   `json:"month"`
	EmployeeIDs []string `json:"employee_ids"`
}

func (dto BulkMarkPaidDTO) Validate() error {
	if _, _, err := ParseMonthKey(dto.Month); err != nil {
		return err
	}
	if len(dto.EmployeeIDs) == 0 {
		return errors.New("employee_ids must not be empty")
	}
	return nil
}

// ViewQuery carries the view parameters of a reconciliation read.
type ViewQuery struct {
	Year       int
	Month      int
	TextFilter string
	Sort       SortState
}

func ParseViewQuery(monthKey, textFilter, sortBy, order string) (ViewQuery, error) {
	year, month, err := ParseMonthKey(monthKey)
	if err != nil {
		return ViewQuery{}, err
	}

	field := SortField(sortBy)
	if sortBy == "" {
		field = SortByName
	}
	if !ValidSortField(field) {
		return ViewQuery{}, errors.New("sort_by must be one of name, net_salary, payment_status, material_spent")
	}

	sortOrder := SortAsc
	switch order {
	case "", string(SortAsc):
	case string(SortDesc):
		sortOrder = SortDesc
	default:
		return ViewQuery{}, errors.New("order must be asc or desc")
	}

	return ViewQuery{
		Year:       year,
		Month:      month,
		TextFilter: textFilter,
		Sort:       SortState{Field: field, Order: sortOrder},
	}, nil
}

// RecordResponse is the wire shape of a single record read. NetSalaryIDR
// is derived at encode time.
type RecordResponse struct {
	PayrollRecord
	NetSalaryIDR int64 `json:"net_salary_idr"`
}

func NewRecordResponse(r PayrollRecord) RecordResponse {
	return RecordResponse{PayrollRecord: r, NetSalaryIDR: r.NetSalaryIDR()}
}

// ViewResponse is the wire shape of the reconciled month view.
type ViewResponse struct {
	Month      string    `json:"month"`
	TextFilter string    `json:"text_filter,omitempty"`
	Sort       SortState `json:"sort"`
	Rows       []ViewRow `json:"rows"`
}
