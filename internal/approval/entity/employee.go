package entity

import "time"

// Employee status constants
const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

// Employee is the identity record workflow actors resolve to.
type Employee struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:200;uniqueIndex"`
	Status    string    `json:"status" gorm:"size:20;not null;default:'active'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}
