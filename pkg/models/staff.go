package models

import (
	"time"

	"gorm.io/gorm"
)

type StaffRole string

const (
	RoleAdmin  StaffRole = "admin"
	RoleWaiter StaffRole = "waiter"
	RoleCook   StaffRole = "cook"
)

// Staff is a directory entry for an identity-provider account. ID is the
// provider's subject, so tokens map straight onto rows.
type Staff struct {
	ID        string         `gorm:"primaryKey;type:varchar(128)" json:"id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Email     string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Role      StaffRole      `gorm:"type:varchar(20);not null;default:'waiter'" json:"role"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Staff) TableName() string {
	return "staff"
}
