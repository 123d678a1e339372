package models

import (
	"time"

	"gorm.io/gorm"
)

type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "Active"
	VehicleMaintenance VehicleStatus = "Maintenance"
	VehicleInactive    VehicleStatus = "Inactive"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleActive, VehicleMaintenance, VehicleInactive:
		return true
	}
	return false
}

type Vehicle struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Model       string        `json:"model" gorm:"not null"`
	Year        int           `json:"year" gorm:"not null"`
	PlateNumber string        `json:"plate_number" gorm:"not null"`
	LastService string        `json:"last_service"`
	Status      VehicleStatus `json:"status" gorm:"type:varchar(20)"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.Status == "" {
		v.Status = VehicleActive
	}
	return nil
}
