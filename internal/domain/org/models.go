package org

import "time"

const (
	StatusActive     = "active"
	StatusTerminated = "terminated"
)

type Employee struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	SupervisorID string     `json:"supervisorId,omitempty"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	EmployeeNo   string     `json:"employeeNo"`
	Department   string     `json:"department"`
	Designation  string     `json:"designation"`
	BasicSalary  float64    `json:"basicSalary"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
