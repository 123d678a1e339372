package models

import (
	"time"

	"gorm.io/gorm"
)

type DriverStatus string

const (
	DriverActive   DriverStatus = "Active"
	DriverInactive DriverStatus = "Inactive"
)

func (s DriverStatus) Valid() bool {
	return s == DriverActive || s == DriverInactive
}

type Driver struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"not null"`
	License   string       `json:"license" gorm:"not null"`
	Phone     string       `json:"phone"`
	Email     string       `json:"email"`
	Status    DriverStatus `json:"status" gorm:"type:varchar(20)"`
	Company   string       `json:"company"`
	UserID    *uint        `json:"user_id" gorm:"index"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.Status == "" {
		d.Status = DriverActive
	}
	return nil
}
