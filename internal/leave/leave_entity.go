package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeaveApplication struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_applications_employee_status"`

	Reason string `gorm:"type:varchar(20);not null;default:'CASUAL'"`
	Body   string `gorm:"type:text;not null"`
	Status string `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_applications_employee_status"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (LeaveApplication) TableName() string {
	return "leave_applications"
}
