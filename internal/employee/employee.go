package employee

import (
	employeeDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/employee"
)

// Employee is a directory entry. The roster is created and edited by the
// external CRM screens; this core only references it.
type Employee struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

func FromDataModel(e employeeDatamodel.Employee) Employee {
	return Employee{
		ID:          e.ID,
		DisplayName: e.DisplayName,
		Username:    e.Username,
		Role:        e.Role,
	}
}
