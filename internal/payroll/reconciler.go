package payroll

import (
	"sort"
	"strings"

	"github.com/frahmantamala/construction-crm/internal/employee"
	"github.com/frahmantamala/construction-crm/internal/material"
)

type SortField string

const (
	SortByName          SortField = "name"
	SortByNetSalary     SortField = "net_salary"
	SortByPaymentStatus SortField = "payment_status"
	SortByMaterialSpent SortField = "material_spent"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ValidSortField(f SortField) bool {
	switch f {
	case SortByName, SortByNetSalary, SortByPaymentStatus, SortByMaterialSpent:
		return true
	}
	return false
}

// SortState is the active sort of the reconciled view.
type SortState struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// Toggle is the sort transition rule: re-selecting the active field flips
// the direction, selecting a new field resets to ascending.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		if s.Order == SortAsc {
			return SortState{Field: field, Order: SortDesc}
		}
		return SortState{Field: field, Order: SortAsc}
	}
	return SortState{Field: field, Order: SortAsc}
}

// ViewRow joins one employee with their record (if any) and material
// spend. Employees without a computed record stay in the view and rank at
// the documented defaults: net 0, status pending, spend 0.
type ViewRow struct {
	Employee         employee.Employee `json:"employee"`
	Record           *PayrollRecord    `json:"record,omitempty"`
	HasRecord        bool              `json:"has_record"`
	NetSalaryIDR     int64             `json:"net_salary_idr"`
	PaymentStatus    string            `json:"payment_status"`
	MaterialSpentIDR int64             `json:"material_spent_idr"`
}

// BuildView produces the unified, filterable, sortable reconciliation view.
// The text filter matches display name or login name, case-insensitively;
// sorting is stable and ties on the primary field are left unbroken.
func BuildView(
	employees []employee.Employee,
	recordsByEmployee map[string]PayrollRecord,
	costByUser material.CostByUser,
	textFilter string,
	sort_ SortState,
) []ViewRow {
	needle := strings.ToLower(textFilter)

	rows := make([]ViewRow, 0, len(employees))
	for _, e := range employees {
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.DisplayName), needle) &&
			!strings.Contains(strings.ToLower(e.Username), needle) {
			continue
		}

		row := ViewRow{
			Employee:         e,
			NetSalaryIDR:     0,
			PaymentStatus:    PaymentStatusPending,
			MaterialSpentIDR: costByUser[e.Username],
		}
		if r, ok := recordsByEmployee[e.ID]; ok {
			record := r
			row.Record = &record
			row.HasRecord = true
			row.NetSalaryIDR = record.NetSalaryIDR()
			row.PaymentStatus = record.PaymentStatus
		}
		rows = append(rows, row)
	}

	sortRows(rows, sort_)
	return rows
}

func sortRows(rows []ViewRow, s SortState) {
	less := func(a, b ViewRow) bool {
		switch s.Field {
		case SortByNetSalary:
			return a.NetSalaryIDR < b.NetSalaryIDR
		case SortByPaymentStatus:
			return a.PaymentStatus < b.PaymentStatus
		case SortByMaterialSpent:
			return a.MaterialSpentIDR < b.MaterialSpentIDR
		default:
			return strings.ToLower(a.Employee.DisplayName) < strings.ToLower(b.Employee.DisplayName)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if s.Order == SortDesc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

// ViewState is the presentation-facing session state of the reconciler:
// the active sort plus the bulk-action selection. Selection is always a
// plain id set; it is deliberately NOT re-narrowed when the text filter
// changes, so ids hidden by a newer filter stay selected.
type ViewState struct {
	Sort     SortState
	Selected map[string]bool
}

func NewViewState(defaultField SortField) *ViewState {
	if !ValidSortField(defaultField) {
		defaultField = SortByName
	}
	return &ViewState{
		Sort:     SortState{Field: defaultField, Order: SortAsc},
		Selected: make(map[string]bool),
	}
}

func (v *ViewState) ToggleSortField(field SortField) {
	v.Sort = v.Sort.Toggle(field)
}

// SelectAll selects exactly the employees present in the given view rows,
// i.e. the filtered set, not the full roster.
func (v *ViewState) SelectAll(rows []ViewRow) {
	for _, row := range rows {
		v.Selected[row.Employee.ID] = true
	}
}

func (v *ViewState) SelectNone() {
	v.Selected = make(map[string]bool)
}

func (v *ViewState) ToggleOne(employeeID string) {
	if v.Selected[employeeID] {
		delete(v.Selected, employeeID)
		return
	}
	v.Selected[employeeID] = true
}

// SelectedIDs returns the selection in deterministic order.
func (v *ViewState) SelectedIDs() []string {
	ids := make([]string, 0, len(v.Selected))
	for id := range v.Selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
